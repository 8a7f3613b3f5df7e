package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/member"
	"github.com/koinonia-app/koinonia/core/user"
	"github.com/koinonia-app/koinonia/storage/database"
)

// PrepareDB opens a fresh migrated in-memory database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(core.NewTestConfig())
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	// one connection: no shared-cache table locks
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("db.Close() failed: %v", err)
		}
	})

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateMember saves an active member. `edit` tweaks it before saving.
func CreateMember(t *testing.T, repo member.Repository, first, last string, edit ...func(*member.Member)) member.Member {
	t.Helper()
	now := time.Now().UTC()
	m := member.Member{
		FirstName:  first,
		LastName:   last,
		Gender:     member.GenderFemale,
		Phone:      "+233240000000",
		Status:     member.StatusActive,
		Department: "choir",
		JoinDate:   core.NewDate(2020, time.January, 5),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, fn := range edit {
		fn(&m)
	}
	m, err := repo.CreateMember(context.Background(), m)
	if err != nil {
		t.Fatalf("CreateMember() failed: %v", err)
	}
	return m
}

// CreateEntry saves a finance entry as is: no balance check.
func CreateEntry(
	t *testing.T,
	repo finance.Repository,
	kind, category string,
	amount core.Money,
	date core.Date,
	memberID string,
) finance.Entry {
	t.Helper()
	now := time.Now().UTC()
	e := finance.Entry{
		Kind:          kind,
		Category:      category,
		Amount:        amount,
		Date:          date,
		MemberID:      memberID,
		PaymentMethod: finance.MethodCash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	e, err := repo.CreateEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	return e
}

func CreateEvent(t *testing.T, repo content.Repository, title, category string, startsAt time.Time, published bool) content.Event {
	t.Helper()
	now := time.Now().UTC()
	e := content.Event{
		Title:     title,
		Category:  category,
		StartsAt:  startsAt.UTC(),
		EndsAt:    startsAt.UTC().Add(2 * time.Hour),
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e, err := repo.CreateEvent(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return e
}

func CreateSermon(t *testing.T, repo content.Repository, title, preacher string, date core.Date, tags ...string) content.Sermon {
	t.Helper()
	now := time.Now().UTC()
	s := content.Sermon{
		Title:     title,
		Preacher:  preacher,
		Date:      date,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s, err := repo.CreateSermon(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateSermon() failed: %v", err)
	}
	return s
}

// CreatePost saves a post with `slug` as is. Published posts get published_at = now.
func CreatePost(t *testing.T, repo content.Repository, title, slug, status string) content.Post {
	t.Helper()
	now := time.Now().UTC()
	p := content.Post{
		Title:     title,
		Slug:      slug,
		Body:      "Body of " + title,
		Excerpt:   "Body of " + title,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == content.StatusPublished {
		p.PublishedAt = &now
	}
	p, err := repo.CreatePost(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}
	return p
}
