package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koinonia-app/koinonia/core"
)

// Event categories
const (
	CategoryService    = "service"
	CategoryConference = "conference"
	CategoryOutreach   = "outreach"
	CategoryFellowship = "fellowship"
	CategoryMeeting    = "meeting"
	CategoryOther      = "other"
)

// Post statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

const (
	excerptLength        = 200
	DefaultUpcomingLimit = 5
)

var (
	EventCategories = []string{CategoryService, CategoryConference, CategoryOutreach, CategoryFellowship, CategoryMeeting, CategoryOther}
	PostStatuses    = []string{StatusDraft, StatusPublished}
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	StartsAt    time.Time `json:"starts_at"` // UTC
	EndsAt      time.Time `json:"ends_at"`   // UTC
	AllDay      bool      `json:"all_day"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent contains information needed to create or update an Event.
type NewEvent struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Location    string    `json:"location" validate:"max=200"`
	Category    string    `json:"category" validate:"required,event_category"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at"`
	AllDay      bool      `json:"all_day"`
	Published   bool      `json:"published"`
}

func NewEventFrom(e Event) NewEvent {
	return NewEvent{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Category:    e.Category,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		AllDay:      e.AllDay,
		Published:   e.Published,
	}
}

// Clean trims text, defaults the category to "other" and the end to the start.
// All-day events span whole days.
func (ne *NewEvent) Clean() {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Location = core.CleanString(ne.Location)
	ne.Category = core.NormalizeEnum(ne.Category)
	if ne.Category == "" {
		ne.Category = CategoryOther
	}
	ne.StartsAt = ne.StartsAt.UTC()
	ne.EndsAt = ne.EndsAt.UTC()
	if ne.EndsAt.IsZero() {
		ne.EndsAt = ne.StartsAt
	}
	if ne.AllDay && !ne.StartsAt.IsZero() {
		ne.StartsAt = core.DateOf(ne.StartsAt).Time
		ne.EndsAt = core.DateOf(ne.EndsAt).AddDays(1).Add(-time.Second)
	}
}

func (ne NewEvent) apply(e *Event) {
	e.Title = ne.Title
	e.Description = ne.Description
	e.Location = ne.Location
	e.Category = ne.Category
	e.StartsAt = ne.StartsAt
	e.EndsAt = ne.EndsAt
	e.AllDay = ne.AllDay
	e.Published = ne.Published
}

type EventFilter struct {
	Search    string
	Category  string
	Period    core.DateRange // on the start date
	Published *bool
	EndsAfter time.Time
}

func (f *EventFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Category = core.NormalizeEnum(f.Category)
}

type Sermon struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preacher  string    `json:"preacher"`
	Scripture string    `json:"scripture"`
	Series    string    `json:"series"`
	Date      core.Date `json:"date"`
	Summary   string    `json:"summary"`
	MediaURL  string    `json:"media_url"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewSermon struct {
	Title     string    `json:"title" validate:"required,max=200"`
	Preacher  string    `json:"preacher" validate:"required,max=150"`
	Scripture string    `json:"scripture" validate:"max=200"`
	Series    string    `json:"series" validate:"max=150"`
	Date      core.Date `json:"date" validate:"required"`
	Summary   string    `json:"summary" validate:"max=5000"`
	MediaURL  string    `json:"media_url" validate:"omitempty,url,max=500"`
	Tags      []string  `json:"tags" validate:"max=20,dive,max=50"`
}

func NewSermonFrom(s Sermon) NewSermon {
	return NewSermon{
		Title:     s.Title,
		Preacher:  s.Preacher,
		Scripture: s.Scripture,
		Series:    s.Series,
		Date:      s.Date,
		Summary:   s.Summary,
		MediaURL:  s.MediaURL,
		Tags:      append([]string(nil), s.Tags...),
	}
}

// Clean trims text and lowers, dedupes & drops empty tags. Commas cannot be part of a tag.
func (ns *NewSermon) Clean() {
	ns.Title = core.CleanString(ns.Title)
	ns.Preacher = core.CleanString(ns.Preacher)
	ns.Scripture = core.CleanString(ns.Scripture)
	ns.Series = core.CleanString(ns.Series)
	ns.Summary = core.CleanString(ns.Summary)
	ns.MediaURL = core.CleanString(ns.MediaURL)

	tags := make([]string, 0, len(ns.Tags))
	for _, t := range ns.Tags {
		for _, part := range strings.Split(t, ",") {
			part = strings.Join(strings.Fields(strings.ToLower(part)), " ")
			if part != "" && !core.ContainsString(tags, part) {
				tags = append(tags, part)
			}
		}
	}
	ns.Tags = tags
}

func (ns NewSermon) apply(s *Sermon) {
	s.Title = ns.Title
	s.Preacher = ns.Preacher
	s.Scripture = ns.Scripture
	s.Series = ns.Series
	s.Date = ns.Date
	s.Summary = ns.Summary
	s.MediaURL = ns.MediaURL
	s.Tags = ns.Tags
}

type SermonFilter struct {
	Search   string
	Preacher string
	Series   string
	Tag      string
	Period   core.DateRange
}

func (f *SermonFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Preacher = core.CleanString(f.Preacher)
	f.Series = core.CleanString(f.Series)
	f.Tag = core.CleanString(f.Tag, true /* lower */)
}

type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body"`
	Author      string     `json:"author"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	CoverKey    string     `json:"cover_key,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p Post) IsPublished() bool { return p.Status == StatusPublished }
func (p Post) HasCover() bool    { return p.CoverKey != "" }

type NewPost struct {
	Title   string `json:"title" validate:"required,max=200"`
	Slug    string `json:"slug" validate:"max=200"`
	Excerpt string `json:"excerpt" validate:"max=500"`
	Body    string `json:"body" validate:"max=100000"`
	Author  string `json:"author" validate:"max=150"`
	Status  string `json:"status" validate:"required,post_status"`
}

func NewPostFrom(p Post) NewPost {
	return NewPost{
		Title:   p.Title,
		Slug:    p.Slug,
		Excerpt: p.Excerpt,
		Body:    p.Body,
		Author:  p.Author,
		Status:  p.Status,
	}
}

// Clean trims text, builds the slug from the title when missing and derives the excerpt from the body.
func (np *NewPost) Clean() {
	np.Title = core.CleanString(np.Title)
	np.Slug = Slugify(np.Slug)
	if np.Slug == "" {
		np.Slug = Slugify(np.Title)
	}
	if np.Slug == "" && np.Title != "" {
		// title in a script with no ASCII folding
		np.Slug = "post-" + strings.SplitN(uuid.New().String(), "-", 2)[0]
	}
	np.Body = core.CleanString(np.Body)
	np.Excerpt = core.CleanString(np.Excerpt)
	if np.Excerpt == "" {
		np.Excerpt = core.Truncate(np.Body, excerptLength)
	}
	np.Author = core.CleanString(np.Author)
	np.Status = core.NormalizeEnum(np.Status)
	if np.Status == "" {
		np.Status = StatusDraft
	}
}

func (np NewPost) apply(p *Post) {
	p.Title = np.Title
	p.Slug = np.Slug
	p.Excerpt = np.Excerpt
	p.Body = np.Body
	p.Author = np.Author
}

// Slugify is core.Slugify capped at 180 runes, leaving room for clash suffixes.
func Slugify(s string) string {
	slug := core.Slugify(s)
	if r := []rune(slug); len(r) > 180 {
		slug = strings.TrimRight(string(r[:180]), "-")
	}
	return slug
}

type PostFilter struct {
	Search string
	Status string
}

func (f *PostFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Status = core.NormalizeEnum(f.Status)
}
