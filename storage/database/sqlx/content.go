package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
)

const (
	eventColumns  = "id, title, description, location, category, starts_at, ends_at, all_day, published, created_at, updated_at"
	sermonColumns = "id, title, preacher, scripture, series, sermon_date, summary, media_url, tags, created_at, updated_at"
	postColumns   = "id, title, slug, excerpt, body, author, status, published_at, cover_key, created_by, created_at, updated_at"
)

var (
	eventOrderings = map[string]string{
		"title":      "title",
		"category":   "category",
		"starts_at":  "starts_at",
		"ends_at":    "ends_at",
		"created_at": "created_at",
	}
	sermonOrderings = map[string]string{
		"title":      "title",
		"preacher":   "preacher",
		"series":     "series",
		"date":       "sermon_date",
		"created_at": "created_at",
	}
	postOrderings = map[string]string{
		"title":        "title",
		"slug":         "slug",
		"status":       "status",
		"published_at": "published_at",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	}
)

type eventRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Location    string    `db:"location"`
	Category    string    `db:"category"`
	StartsAt    time.Time `db:"starts_at"`
	EndsAt      time.Time `db:"ends_at"`
	AllDay      bool      `db:"all_day"`
	Published   bool      `db:"published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type sermonRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Preacher   string    `db:"preacher"`
	Scripture  string    `db:"scripture"`
	Series     string    `db:"series"`
	SermonDate core.Date `db:"sermon_date"`
	Summary    string    `db:"summary"`
	MediaURL   string    `db:"media_url"`
	Tags       string    `db:"tags"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type postRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Slug        string      `db:"slug"`
	Excerpt     string      `db:"excerpt"`
	Body        string      `db:"body"`
	Author      string      `db:"author"`
	Status      string      `db:"status"`
	PublishedAt null.Time   `db:"published_at"`
	CoverKey    null.String `db:"cover_key"`
	CreatedBy   null.String `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

type contentRepository struct {
	baseRepository
}

var _ content.Repository = (*contentRepository)(nil)

func NewContentRepository(exec core.DBExecutor) *contentRepository {
	return &contentRepository{baseRepository{exec: exec}}
}

// events

func (repo contentRepository) eventToRow(e content.Event) eventRow {
	return eventRow{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Category:    e.Category,
		StartsAt:    e.StartsAt.UTC(),
		EndsAt:      e.EndsAt.UTC(),
		AllDay:      e.AllDay,
		Published:   e.Published,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

func (repo contentRepository) eventFromRow(row eventRow) content.Event {
	return content.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Location:    row.Location,
		Category:    row.Category,
		StartsAt:    row.StartsAt.UTC(),
		EndsAt:      row.EndsAt.UTC(),
		AllDay:      row.AllDay,
		Published:   row.Published,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo contentRepository) CreateEvent(ctx context.Context, e content.Event, exec ...core.DBExecutor) (content.Event, error) {
	e.ID = uuid.New().String()
	q := `INSERT INTO events (` + eventColumns + `) VALUES (:id, :title, :description, :location, :category,
		:starts_at, :ends_at, :all_day, :published, :created_at, :updated_at)`
	row := repo.eventToRow(e)
	if _, err := namedExec(ctx, repo.getExec(exec), q, row); err != nil {
		return content.Event{}, errors.Wrap(err, "inserting event")
	}
	return repo.eventFromRow(row), nil
}

func (repo contentRepository) QueryEvents(ctx context.Context, filter *content.EventFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]content.Event, int, error) {
	var w where
	if filter != nil {
		w.search(filter.Search, "title", "description", "location")
		if filter.Category != "" {
			w.add("category = ?", filter.Category)
		}
		if !filter.Period.From.IsZero() {
			w.add("starts_at >= ?", filter.Period.From.UTC())
		}
		if !filter.Period.To.IsZero() {
			w.add("starts_at < ?", filter.Period.To.AddDays(1).UTC())
		}
		if filter.Published != nil {
			w.add("published = ?", *filter.Published)
		}
		if !filter.EndsAfter.IsZero() {
			w.add("ends_at >= ?", filter.EndsAfter.UTC())
		}
	}

	exe := repo.getExec(exec)
	total, err := count(ctx, exe, "events", w)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting events")
	}

	limit, limitArgs := limitOffset(page)
	q := "SELECT " + eventColumns + " FROM events" + w.String() + orderBy(ordering, eventOrderings, "starts_at DESC") + limit
	var rows []eventRow
	if err := selectAll(ctx, exe, &rows, q, append(w.args, limitArgs...)...); err != nil {
		return nil, 0, errors.Wrap(err, "querying events")
	}
	events := make([]content.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, repo.eventFromRow(row))
	}
	return events, total, nil
}

func (repo contentRepository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (content.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return content.Event{}, content.ErrEventNotFound
	}
	var row eventRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+eventColumns+" FROM events WHERE id = ?", id); err != nil {
		return content.Event{}, trapNoRowsErr(err, content.ErrEventNotFound, "finding event")
	}
	return repo.eventFromRow(row), nil
}

func (repo contentRepository) UpdateEvent(ctx context.Context, e content.Event, exec ...core.DBExecutor) (content.Event, error) {
	q := `UPDATE events SET title = :title, description = :description, location = :location, category = :category,
		starts_at = :starts_at, ends_at = :ends_at, all_day = :all_day, published = :published, updated_at = :updated_at
		WHERE id = :id`
	row := repo.eventToRow(e)
	n, err := namedExec(ctx, repo.getExec(exec), q, row)
	if err != nil {
		return content.Event{}, errors.Wrap(err, "updating event")
	}
	if n == 0 {
		return content.Event{}, content.ErrEventNotFound
	}
	return repo.eventFromRow(row), nil
}

func (repo contentRepository) DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	n, err := deleteByID(ctx, repo.getExec(exec), "events", ids)
	return n, errors.Wrap(err, "deleting events")
}

// sermons

func (repo contentRepository) sermonToRow(s content.Sermon) sermonRow {
	return sermonRow{
		ID:         s.ID,
		Title:      s.Title,
		Preacher:   s.Preacher,
		Scripture:  s.Scripture,
		Series:     s.Series,
		SermonDate: s.Date,
		Summary:    s.Summary,
		MediaURL:   s.MediaURL,
		Tags:       joinList(s.Tags),
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
}

func (repo contentRepository) sermonFromRow(row sermonRow) content.Sermon {
	return content.Sermon{
		ID:        row.ID,
		Title:     row.Title,
		Preacher:  row.Preacher,
		Scripture: row.Scripture,
		Series:    row.Series,
		Date:      row.SermonDate,
		Summary:   row.Summary,
		MediaURL:  row.MediaURL,
		Tags:      splitList(row.Tags),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (repo contentRepository) CreateSermon(ctx context.Context, s content.Sermon, exec ...core.DBExecutor) (content.Sermon, error) {
	s.ID = uuid.New().String()
	q := `INSERT INTO sermons (` + sermonColumns + `) VALUES (:id, :title, :preacher, :scripture, :series,
		:sermon_date, :summary, :media_url, :tags, :created_at, :updated_at)`
	row := repo.sermonToRow(s)
	if _, err := namedExec(ctx, repo.getExec(exec), q, row); err != nil {
		return content.Sermon{}, errors.Wrap(err, "inserting sermon")
	}
	return repo.sermonFromRow(row), nil
}

func (repo contentRepository) QuerySermons(ctx context.Context, filter *content.SermonFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]content.Sermon, int, error) {
	var w where
	if filter != nil {
		w.search(filter.Search, "title", "scripture", "summary")
		if filter.Preacher != "" {
			w.add("LOWER(preacher) = ?", strings.ToLower(filter.Preacher))
		}
		if filter.Series != "" {
			w.add("LOWER(series) = ?", strings.ToLower(filter.Series))
		}
		if filter.Tag != "" {
			w.add("(',' || tags || ',') LIKE ?", "%,"+filter.Tag+",%")
		}
		w.dateRange("sermon_date", filter.Period)
	}

	exe := repo.getExec(exec)
	total, err := count(ctx, exe, "sermons", w)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting sermons")
	}

	limit, limitArgs := limitOffset(page)
	q := "SELECT " + sermonColumns + " FROM sermons" + w.String() +
		orderBy(ordering, sermonOrderings, "sermon_date DESC, created_at DESC") + limit
	var rows []sermonRow
	if err := selectAll(ctx, exe, &rows, q, append(w.args, limitArgs...)...); err != nil {
		return nil, 0, errors.Wrap(err, "querying sermons")
	}
	sermons := make([]content.Sermon, 0, len(rows))
	for _, row := range rows {
		sermons = append(sermons, repo.sermonFromRow(row))
	}
	return sermons, total, nil
}

func (repo contentRepository) GetSermon(ctx context.Context, id string, exec ...core.DBExecutor) (content.Sermon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return content.Sermon{}, content.ErrSermonNotFound
	}
	var row sermonRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+sermonColumns+" FROM sermons WHERE id = ?", id); err != nil {
		return content.Sermon{}, trapNoRowsErr(err, content.ErrSermonNotFound, "finding sermon")
	}
	return repo.sermonFromRow(row), nil
}

func (repo contentRepository) UpdateSermon(ctx context.Context, s content.Sermon, exec ...core.DBExecutor) (content.Sermon, error) {
	q := `UPDATE sermons SET title = :title, preacher = :preacher, scripture = :scripture, series = :series,
		sermon_date = :sermon_date, summary = :summary, media_url = :media_url, tags = :tags, updated_at = :updated_at
		WHERE id = :id`
	row := repo.sermonToRow(s)
	n, err := namedExec(ctx, repo.getExec(exec), q, row)
	if err != nil {
		return content.Sermon{}, errors.Wrap(err, "updating sermon")
	}
	if n == 0 {
		return content.Sermon{}, content.ErrSermonNotFound
	}
	return repo.sermonFromRow(row), nil
}

func (repo contentRepository) DeleteSermonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	n, err := deleteByID(ctx, repo.getExec(exec), "sermons", ids)
	return n, errors.Wrap(err, "deleting sermons")
}

// posts

func (repo contentRepository) postToRow(p content.Post) postRow {
	row := postRow{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Excerpt:   p.Excerpt,
		Body:      p.Body,
		Author:    p.Author,
		Status:    p.Status,
		CoverKey:  null.NewString(p.CoverKey, p.CoverKey != ""),
		CreatedBy: null.NewString(p.CreatedBy, p.CreatedBy != ""),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	if p.PublishedAt != nil {
		row.PublishedAt = null.TimeFrom(p.PublishedAt.UTC())
	}
	return row
}

func (repo contentRepository) postFromRow(row postRow) content.Post {
	p := content.Post{
		ID:        row.ID,
		Title:     row.Title,
		Slug:      row.Slug,
		Excerpt:   row.Excerpt,
		Body:      row.Body,
		Author:    row.Author,
		Status:    row.Status,
		CoverKey:  row.CoverKey.String,
		CreatedBy: row.CreatedBy.String,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time.UTC()
		p.PublishedAt = &t
	}
	return p
}

func (repo contentRepository) postsFromRows(rows []postRow) []content.Post {
	posts := make([]content.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, repo.postFromRow(row))
	}
	return posts
}

func (repo contentRepository) CreatePost(ctx context.Context, p content.Post, exec ...core.DBExecutor) (content.Post, error) {
	p.ID = uuid.New().String()
	q := `INSERT INTO posts (` + postColumns + `) VALUES (:id, :title, :slug, :excerpt, :body, :author, :status,
		:published_at, :cover_key, :created_by, :created_at, :updated_at)`
	row := repo.postToRow(p)
	if _, err := namedExec(ctx, repo.getExec(exec), q, row); err != nil {
		return content.Post{}, errors.Wrap(err, "inserting post")
	}
	return repo.postFromRow(row), nil
}

func (repo contentRepository) QueryPosts(ctx context.Context, filter *content.PostFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]content.Post, int, error) {
	var w where
	if filter != nil {
		w.search(filter.Search, "title", "excerpt", "author")
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
	}

	exe := repo.getExec(exec)
	total, err := count(ctx, exe, "posts", w)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting posts")
	}

	limit, limitArgs := limitOffset(page)
	q := "SELECT " + postColumns + " FROM posts" + w.String() + orderBy(ordering, postOrderings, "created_at DESC") + limit
	var rows []postRow
	if err := selectAll(ctx, exe, &rows, q, append(w.args, limitArgs...)...); err != nil {
		return nil, 0, errors.Wrap(err, "querying posts")
	}
	return repo.postsFromRows(rows), total, nil
}

func (repo contentRepository) GetPost(ctx context.Context, id string, exec ...core.DBExecutor) (content.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return content.Post{}, content.ErrPostNotFound
	}
	var row postRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+postColumns+" FROM posts WHERE id = ?", id); err != nil {
		return content.Post{}, trapNoRowsErr(err, content.ErrPostNotFound, "finding post")
	}
	return repo.postFromRow(row), nil
}

func (repo contentRepository) GetPostBySlug(ctx context.Context, slug string, exec ...core.DBExecutor) (content.Post, error) {
	var row postRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+postColumns+" FROM posts WHERE slug = ?", slug); err != nil {
		return content.Post{}, trapNoRowsErr(err, content.ErrPostNotFound, "finding post")
	}
	return repo.postFromRow(row), nil
}

func (repo contentRepository) GetPostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]content.Post, error) {
	var w where
	w.in("id", ids)
	var rows []postRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, "SELECT "+postColumns+" FROM posts"+w.String(), w.args...); err != nil {
		return nil, errors.Wrap(err, "finding posts")
	}
	return repo.postsFromRows(rows), nil
}

func (repo contentRepository) SlugsLike(ctx context.Context, base, excludeID string, exec ...core.DBExecutor) ([]string, error) {
	var w where
	// `_` & `%` can't appear in a slug, so the pattern needs no escaping
	w.add("(slug = ? OR slug LIKE ?)", base, base+"-%")
	if excludeID != "" {
		w.add("id <> ?", excludeID)
	}
	slugs := make([]string, 0)
	if err := selectAll(ctx, repo.getExec(exec), &slugs, "SELECT slug FROM posts"+w.String(), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying slugs")
	}
	return slugs, nil
}

func (repo contentRepository) UpdatePost(ctx context.Context, p content.Post, exec ...core.DBExecutor) (content.Post, error) {
	q := `UPDATE posts SET title = :title, slug = :slug, excerpt = :excerpt, body = :body, author = :author,
		status = :status, published_at = :published_at, cover_key = :cover_key, updated_at = :updated_at
		WHERE id = :id`
	row := repo.postToRow(p)
	n, err := namedExec(ctx, repo.getExec(exec), q, row)
	if err != nil {
		return content.Post{}, errors.Wrap(err, "updating post")
	}
	if n == 0 {
		return content.Post{}, content.ErrPostNotFound
	}
	return repo.postFromRow(row), nil
}

func (repo contentRepository) DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	n, err := deleteByID(ctx, repo.getExec(exec), "posts", ids)
	return n, errors.Wrap(err, "deleting posts")
}
