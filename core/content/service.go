package content

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

var (
	// errors
	ErrEventNotFound  = core.NewNotFoundError("event not found")
	ErrSermonNotFound = core.NewNotFoundError("sermon not found")
	ErrPostNotFound   = core.NewNotFoundError("post not found")
	ErrNoCover        = core.NewNotFoundError("post has no cover image")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event, exec ...core.DBExecutor) (Event, error)
		// QueryEvents returns a page of the events matching `filter` along with their total count.
		// EventFilter.Search does a case-insensitive match on one of title, description or location.
		QueryEvents(ctx context.Context, filter *EventFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]Event, int, error)
		GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
		UpdateEvent(ctx context.Context, e Event, exec ...core.DBExecutor) (Event, error)
		DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		CreateSermon(ctx context.Context, s Sermon, exec ...core.DBExecutor) (Sermon, error)
		// QuerySermons: SermonFilter.Search does a case-insensitive match on one of title, scripture or summary.
		QuerySermons(ctx context.Context, filter *SermonFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]Sermon, int, error)
		GetSermon(ctx context.Context, id string, exec ...core.DBExecutor) (Sermon, error)
		UpdateSermon(ctx context.Context, s Sermon, exec ...core.DBExecutor) (Sermon, error)
		DeleteSermonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		CreatePost(ctx context.Context, p Post, exec ...core.DBExecutor) (Post, error)
		// QueryPosts: PostFilter.Search does a case-insensitive match on one of title, excerpt or author.
		QueryPosts(ctx context.Context, filter *PostFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]Post, int, error)
		GetPost(ctx context.Context, id string, exec ...core.DBExecutor) (Post, error)
		GetPostBySlug(ctx context.Context, slug string, exec ...core.DBExecutor) (Post, error)
		// SlugsLike returns the slugs equal to `base` or starting with `base-`, leaving out post `excludeID`.
		SlugsLike(ctx context.Context, base, excludeID string, exec ...core.DBExecutor) ([]string, error)
		UpdatePost(ctx context.Context, p Post, exec ...core.DBExecutor) (Post, error)
		GetPostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]Post, error)
		DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CreateEvent(ctx context.Context, ne NewEvent) (Event, error)
		QueryEvents(ctx context.Context, filter *EventFilter, ordering []core.DBOrdering, page core.Pagination) ([]Event, int, error)
		// UpcomingEvents lists the published events not over yet, soonest first.
		UpcomingEvents(ctx context.Context, limit int) ([]Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		UpdateEvent(ctx context.Context, e Event, data NewEvent) (Event, error)
		DeleteEvents(ctx context.Context, ids ...string) error

		CreateSermon(ctx context.Context, ns NewSermon) (Sermon, error)
		QuerySermons(ctx context.Context, filter *SermonFilter, ordering []core.DBOrdering, page core.Pagination) ([]Sermon, int, error)
		GetSermon(ctx context.Context, id string) (Sermon, error)
		UpdateSermon(ctx context.Context, s Sermon, data NewSermon) (Sermon, error)
		DeleteSermons(ctx context.Context, ids ...string) error

		CreatePost(ctx context.Context, np NewPost, createdBy string) (Post, error)
		QueryPosts(ctx context.Context, filter *PostFilter, ordering []core.DBOrdering, page core.Pagination) ([]Post, int, error)
		GetPost(ctx context.Context, id string) (Post, error)
		GetPostBySlug(ctx context.Context, slug string) (Post, error)
		UpdatePost(ctx context.Context, p Post, data NewPost) (Post, error)
		PublishPost(ctx context.Context, p Post) (Post, error)
		UnpublishPost(ctx context.Context, p Post) (Post, error)
		DeletePosts(ctx context.Context, ids ...string) error
		SetCover(ctx context.Context, p Post, r io.Reader) (Post, error)
		GetCover(ctx context.Context, p Post) (core.BlobInfo, io.ReadCloser, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		blobs     core.BlobStore
		publisher core.Publisher
		conf      *core.Config
		logger    core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	blobs core.BlobStore,
	publisher core.Publisher,
	conf *core.Config,
	logger core.Logger,
) Service {
	return &service{
		db:        db,
		repo:      repo,
		blobs:     blobs,
		publisher: publisher,
		conf:      conf,
		logger:    logger,
	}
}

func (svc *service) CreateEvent(ctx context.Context, ne NewEvent) (Event, error) {
	now := core.NowFunc().UTC()
	e := Event{CreatedAt: now, UpdatedAt: now}
	ne.apply(&e)
	return svc.repo.CreateEvent(ctx, e)
}

func (svc *service) QueryEvents(ctx context.Context, filter *EventFilter, ordering []core.DBOrdering, page core.Pagination) ([]Event, int, error) {
	return svc.repo.QueryEvents(ctx, filter, ordering, page)
}

func (svc *service) UpcomingEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit < 1 {
		limit = DefaultUpcomingLimit
	}
	published := true
	filter := &EventFilter{Published: &published, EndsAfter: core.NowFunc().UTC()}
	ordering := []core.DBOrdering{{Field: "starts_at", Ascending: true}}
	events, _, err := svc.repo.QueryEvents(ctx, filter, ordering, core.Pagination{Page: 1, PageSize: limit})
	return events, err
}

func (svc *service) GetEvent(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *service) UpdateEvent(ctx context.Context, e Event, data NewEvent) (Event, error) {
	data.apply(&e)
	e.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateEvent(ctx, e)
}

func (svc *service) DeleteEvents(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteEventsByID(ctx, ids)
	return err
}

func (svc *service) CreateSermon(ctx context.Context, ns NewSermon) (Sermon, error) {
	now := core.NowFunc().UTC()
	s := Sermon{CreatedAt: now, UpdatedAt: now}
	ns.apply(&s)
	return svc.repo.CreateSermon(ctx, s)
}

func (svc *service) QuerySermons(ctx context.Context, filter *SermonFilter, ordering []core.DBOrdering, page core.Pagination) ([]Sermon, int, error) {
	return svc.repo.QuerySermons(ctx, filter, ordering, page)
}

func (svc *service) GetSermon(ctx context.Context, id string) (Sermon, error) {
	return svc.repo.GetSermon(ctx, id)
}

func (svc *service) UpdateSermon(ctx context.Context, s Sermon, data NewSermon) (Sermon, error) {
	data.apply(&s)
	s.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateSermon(ctx, s)
}

func (svc *service) DeleteSermons(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteSermonsByID(ctx, ids)
	return err
}

// uniqueSlug returns `base`, or the first free `base-N` when taken.
func (svc *service) uniqueSlug(ctx context.Context, tx core.DBExecutor, base, excludeID string) (string, error) {
	taken, err := svc.repo.SlugsLike(ctx, base, excludeID, tx)
	if err != nil {
		return "", errors.Wrap(err, "checking slug")
	}
	return NextSlug(base, taken), nil
}

// NextSlug returns `base` if it is not in `taken`, else the first of base-2, base-3... that is not.
func NextSlug(base string, taken []string) string {
	if !core.ContainsString(taken, base) {
		return base
	}
	for i := 2; ; i++ {
		slug := fmt.Sprintf("%s-%d", base, i)
		if !core.ContainsString(taken, slug) {
			return slug
		}
	}
}

// setStatus moves `p` to `status`, stamping the first publication & clearing it on unpublish.
// It reports whether the post just got published.
func setStatus(p *Post, status string, now time.Time) bool {
	wasPublished := p.IsPublished()
	p.Status = status
	switch {
	case status == StatusPublished && !wasPublished:
		p.PublishedAt = &now
		return true
	case status != StatusPublished:
		p.PublishedAt = nil
	}
	return false
}

func (svc *service) postPublished(ctx context.Context, p Post) {
	core.PostsPublished.Inc()
	if err := svc.publisher.Publish(ctx, core.SubjectPostPublished, p); err != nil {
		svc.logger.Warn(fmt.Sprintf("content: publishing %s: %v", core.SubjectPostPublished, err), err)
	}
}

func (svc *service) savePost(ctx context.Context, p Post, create bool) (Post, error) {
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		slug, err := svc.uniqueSlug(ctx, tx, p.Slug, p.ID)
		if err != nil {
			return err
		}
		p.Slug = slug
		if create {
			p, err = svc.repo.CreatePost(ctx, p, tx)
		} else {
			p, err = svc.repo.UpdatePost(ctx, p, tx)
		}
		return err
	})
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (svc *service) CreatePost(ctx context.Context, np NewPost, createdBy string) (Post, error) {
	now := core.NowFunc().UTC()
	p := Post{CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now}
	np.apply(&p)
	published := setStatus(&p, np.Status, now)

	p, err := svc.savePost(ctx, p, true)
	if err != nil {
		return Post{}, err
	}
	if published {
		svc.postPublished(ctx, p)
	}
	return p, nil
}

func (svc *service) QueryPosts(ctx context.Context, filter *PostFilter, ordering []core.DBOrdering, page core.Pagination) ([]Post, int, error) {
	return svc.repo.QueryPosts(ctx, filter, ordering, page)
}

func (svc *service) GetPost(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPost(ctx, id)
}

func (svc *service) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return svc.repo.GetPostBySlug(ctx, slug)
}

func (svc *service) UpdatePost(ctx context.Context, p Post, data NewPost) (Post, error) {
	now := core.NowFunc().UTC()
	data.apply(&p)
	p.UpdatedAt = now
	published := setStatus(&p, data.Status, now)

	p, err := svc.savePost(ctx, p, false)
	if err != nil {
		return Post{}, err
	}
	if published {
		svc.postPublished(ctx, p)
	}
	return p, nil
}

func (svc *service) PublishPost(ctx context.Context, p Post) (Post, error) {
	if p.IsPublished() {
		return p, nil
	}
	now := core.NowFunc().UTC()
	setStatus(&p, StatusPublished, now)
	p.UpdatedAt = now
	p, err := svc.repo.UpdatePost(ctx, p)
	if err != nil {
		return Post{}, errors.Wrap(err, "publishing post")
	}
	svc.postPublished(ctx, p)
	return p, nil
}

func (svc *service) UnpublishPost(ctx context.Context, p Post) (Post, error) {
	if !p.IsPublished() {
		return p, nil
	}
	now := core.NowFunc().UTC()
	setStatus(&p, StatusDraft, now)
	p.UpdatedAt = now
	return svc.repo.UpdatePost(ctx, p)
}

// DeletePosts removes posts & their covers.
func (svc *service) DeletePosts(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	posts, err := svc.repo.GetPostsByID(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "finding posts")
	}
	if _, err := svc.repo.DeletePostsByID(ctx, ids); err != nil {
		return errors.Wrap(err, "deleting posts")
	}
	for _, p := range posts {
		svc.deleteCover(ctx, p.CoverKey)
	}
	return nil
}

func (svc *service) deleteCover(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := svc.blobs.Delete(ctx, key); err != nil && !core.IsNotFound(err) {
		svc.logger.Warn(fmt.Sprintf("content: deleting cover %s: %v", key, err), err)
	}
}

// SetCover validates & stores a new cover image for `p`, replacing the previous one.
func (svc *service) SetCover(ctx context.Context, p Post, r io.Reader) (Post, error) {
	buf, contentType, err := core.ReadImage(r, "cover", svc.conf.Uploads.MaxImageBytes, svc.conf.Uploads.ImageTypes)
	if err != nil {
		return Post{}, err
	}

	key := fmt.Sprintf("posts/%s/cover-%s%s", p.ID, uuid.New().String()[:8], core.ImageExtension(contentType))
	if _, err := svc.blobs.Put(ctx, key, buf, int64(buf.Len()), contentType); err != nil {
		return Post{}, errors.Wrap(err, "storing cover")
	}

	oldKey := p.CoverKey
	p.CoverKey = key
	p.UpdatedAt = core.NowFunc().UTC()
	p, err = svc.repo.UpdatePost(ctx, p)
	if err != nil {
		svc.deleteCover(ctx, key)
		return Post{}, errors.Wrap(err, "updating post")
	}
	svc.deleteCover(ctx, oldKey)
	return p, nil
}

func (svc *service) GetCover(ctx context.Context, p Post) (core.BlobInfo, io.ReadCloser, error) {
	if !p.HasCover() {
		return core.BlobInfo{}, nil, ErrNoCover
	}
	info, rc, err := svc.blobs.Get(ctx, p.CoverKey)
	if err != nil {
		if core.IsNotFound(err) {
			return core.BlobInfo{}, nil, ErrNoCover
		}
		return core.BlobInfo{}, nil, errors.Wrap(err, "getting cover")
	}
	return info, rc, nil
}
