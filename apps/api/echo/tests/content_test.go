package tests

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/user"
	"github.com/koinonia-app/koinonia/tests"
)

func eventIDs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	var events []content.Event
	decode(t, rec.Body, &events)
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func sermonIDs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	var sermons []content.Sermon
	decode(t, rec.Body, &sermons)
	ids := make([]string, 0, len(sermons))
	for _, s := range sermons {
		ids = append(ids, s.ID)
	}
	return ids
}

func Test_contentApi_access(t *testing.T) {
	app := setup(t)

	_, secretaryToken := app.staff(t, "aserwaa", user.RoleSecretary)
	_, mediaToken := app.staff(t, "yboat", user.RoleMedia)
	_, pastorToken := app.staff(t, "pastor", user.RoleAdminPastor)

	body := []byte(`{"title":"Youth night","category":"fellowship","starts_at":"2024-03-08T18:00:00Z"}`)
	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: "/api/events", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "secretary can read", path: "/api/events", token: secretaryToken, wantData: marchallList(t)},
		{name: "secretary cannot write", method: http.MethodPost, path: "/api/events", token: secretaryToken, body: body, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "secretary cannot write posts", method: http.MethodPost, path: "/api/posts", token: secretaryToken, body: []byte(`{"title":"x"}`), wantCode: http.StatusForbidden},
		{name: "media can write", method: http.MethodPost, path: "/api/events", token: mediaToken, body: body, wantCode: http.StatusCreated},
		{name: "admin can write", method: http.MethodPost, path: "/api/sermons", token: pastorToken, body: []byte(`{"title":"Grace","preacher":"Rev. Mensah","date":"2024-03-10"}`), wantCode: http.StatusCreated},
	})
}

func Test_contentApi_events(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	_, token := app.staff(t, "yboat", user.RoleMedia)

	t.Run("invalid", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/events", token,
			[]byte(`{"category":"party","starts_at":"2024-03-10T10:00:00Z","ends_at":"2024-03-10T09:00:00Z"}`))
		app.do(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":    "this field is required",
				"category": "must be one of: service, conference, outreach, fellowship, meeting, other",
				"ends_at":  "an event cannot end before it starts",
			}),
		}, rec)
	})

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/events", token,
			[]byte(`{"title":"  Easter convention ","starts_at":"2024-03-29T15:00:00+01:00","all_day":true,"published":true}`))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var e content.Event
		decode(t, rec.Body, &e)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "Easter convention", e.Title)
		assert.Equal(t, content.CategoryOther, e.Category)
		assert.True(t, e.StartsAt.Equal(time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)), e.StartsAt)
		assert.True(t, e.EndsAt.Equal(time.Date(2024, 3, 29, 23, 59, 59, 0, time.UTC)), e.EndsAt)

		saved, err := app.contentRepo.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.True(t, saved.AllDay)
		assert.True(t, saved.Published)
	})

	t.Run("update", func(t *testing.T) {
		e := testutil.CreateEvent(t, app.contentRepo, "Prayer meeting", content.CategoryMeeting, time.Date(2024, 4, 3, 18, 0, 0, 0, time.UTC), false)
		detail := "/api/events/" + e.ID

		req, rec := newAuthRequest(http.MethodPut, detail, token, []byte(`{"location":"Main auditorium","published":true}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got content.Event
		decode(t, rec.Body, &got)
		assert.Equal(t, "Prayer meeting", got.Title)
		assert.Equal(t, "Main auditorium", got.Location)
		assert.True(t, got.Published)
		assert.True(t, got.StartsAt.Equal(e.StartsAt))

		req, rec = newAuthRequest(http.MethodPut, detail, token, []byte(`{"ends_at":"2024-04-02T18:00:00Z"}`))
		app.do(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"ends_at": "an event cannot end before it starts"}),
		}, rec)

		req, rec = newAuthRequest(http.MethodDelete, detail, token)
		app.do(req, rec)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, detail, token)
		app.do(req, rec)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_contentApi_queryEvents(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "aserwaa", user.RoleSecretary)

	service := testutil.CreateEvent(t, app.contentRepo, "Sunday service", content.CategoryService, time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC), true)
	retreat := testutil.CreateEvent(t, app.contentRepo, "Men's retreat", content.CategoryFellowship, time.Date(2024, 2, 16, 9, 0, 0, 0, time.UTC), false)
	outreach := testutil.CreateEvent(t, app.contentRepo, "Market outreach", content.CategoryOutreach, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), true)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"all, latest first", "", []string{outreach.ID, retreat.ID, service.ID}},
		{"search", "?search=RETREAT", []string{retreat.ID}},
		{"category", "?category=Outreach", []string{outreach.ID}},
		{"unpublished", "?published=false", []string{retreat.ID}},
		{"period", "?from=2024-02-01&to=2024-03-02", []string{outreach.ID, retreat.ID}},
		{"ordering", "?ordering=starts_at", []string{service.ID, retreat.ID, outreach.ID}},
		{"page", "?page=2&page_size=2", []string{service.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/events"+tt.query, token)
			app.do(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantIDs, eventIDs(t, rec))
		})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid period", path: "/api/events?from=2024-03-01&to=2024-02-01", token: token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"to": "cannot be before 2024-03-01"}),
		},
	})
}

func Test_contentApi_upcomingEvents(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "aserwaa", user.RoleSecretary)

	now := time.Now().UTC().Truncate(time.Minute)
	testutil.CreateEvent(t, app.contentRepo, "Past", content.CategoryService, now.Add(-72*time.Hour), true)
	later := testutil.CreateEvent(t, app.contentRepo, "Later", content.CategoryService, now.Add(96*time.Hour), true)
	soon := testutil.CreateEvent(t, app.contentRepo, "Soon", content.CategoryMeeting, now.Add(24*time.Hour), true)
	testutil.CreateEvent(t, app.contentRepo, "Hidden", content.CategoryMeeting, now.Add(48*time.Hour), false)
	// started an hour ago, ends in an hour
	ongoing := testutil.CreateEvent(t, app.contentRepo, "Ongoing", content.CategoryService, now.Add(-time.Hour), true)

	req, rec := newAuthRequest(http.MethodGet, "/api/events/upcoming", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{ongoing.ID, soon.ID, later.ID}, eventIDs(t, rec))

	req, rec = newAuthRequest(http.MethodGet, "/api/events/upcoming?limit=1", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{ongoing.ID}, eventIDs(t, rec))
}

func Test_contentApi_sermons(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "yboat", user.RoleMedia)

	t.Run("invalid", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/sermons", token, []byte(`{"media_url":"not a url"}`))
		app.do(req, rec)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var errs map[string]string
		decode(t, rec.Body, &errs)
		assert.Equal(t, "this field is required", errs["title"])
		assert.Equal(t, "this field is required", errs["preacher"])
		assert.Equal(t, "this field is required", errs["date"])
		assert.Contains(t, errs, "media_url")
	})

	var created content.Sermon
	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/sermons", token, []byte(`{
			"title": "Walking in faith",
			"preacher": "Rev. Mensah",
			"series": "Hebrews",
			"date": "2024-01-14",
			"tags": ["Faith, Hope", "faith", "  ", "Holy  Spirit"]
		}`))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec.Body, &created)
		assert.Equal(t, []string{"faith", "hope", "holy spirit"}, created.Tags)
		assert.Equal(t, "2024-01-14", created.Date.String())
	})

	other := testutil.CreateSermon(t, app.contentRepo, "The prodigal son", "Pastor Adjei", core.NewDate(2024, 2, 4), "grace")
	older := testutil.CreateSermon(t, app.contentRepo, "Hope restored", "Rev. Mensah", core.NewDate(2023, 12, 31), "hope")

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"all, latest first", "", []string{other.ID, created.ID, older.ID}},
		{"preacher", "?preacher=rev.%20mensah", []string{created.ID, older.ID}},
		{"series", "?series=hebrews", []string{created.ID}},
		{"tag", "?tag=Hope", []string{created.ID, older.ID}},
		{"tag is not a substring match", "?tag=faith", []string{created.ID}},
		{"search", "?search=prodigal", []string{other.ID}},
		{"period", "?from=2024-01-01&to=2024-01-31", []string{created.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/sermons"+tt.query, token)
			app.do(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantIDs, sermonIDs(t, rec))
		})
	}

	t.Run("update & delete", func(t *testing.T) {
		detail := "/api/sermons/" + older.ID
		req, rec := newAuthRequest(http.MethodPut, detail, token, []byte(`{"scripture":"Romans 15:13","tags":["HOPE","joy"]}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var s content.Sermon
		decode(t, rec.Body, &s)
		assert.Equal(t, "Romans 15:13", s.Scripture)
		assert.Equal(t, []string{"hope", "joy"}, s.Tags)
		assert.Equal(t, "Hope restored", s.Title)

		req, rec = newAuthRequest(http.MethodDelete, "/api/sermons?id="+older.ID+"&id="+other.ID, token)
		app.do(req, rec)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/api/sermons", token)
		app.do(req, rec)
		assert.Equal(t, []string{created.ID}, sermonIDs(t, rec))
	})
}

func Test_contentApi_posts(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	media, token := app.staff(t, "yboat", user.RoleMedia)
	_, readerToken := app.staff(t, "aserwaa", user.RoleSecretary)
	existing := testutil.CreatePost(t, app.contentRepo, "Harvest thanksgiving", "harvest-thanksgiving", content.StatusPublished)

	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid status", method: http.MethodPost, path: "/api/posts", token: token,
			body:     []byte(`{"title":"Hello","status":"archived"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "must be one of: draft, published"}),
		},
		{
			name: "title required", method: http.MethodPost, path: "/api/posts", token: token,
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
	})
	assert.Empty(t, app.events.Subjects())

	var draft content.Post
	t.Run("create draft", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/posts", token,
			[]byte(`{"title":"Harvest Thanksgiving!","body":"We give thanks for a fruitful year."}`))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec.Body, &draft)
		assert.Equal(t, "harvest-thanksgiving-2", draft.Slug)
		assert.Equal(t, content.StatusDraft, draft.Status)
		assert.Nil(t, draft.PublishedAt)
		assert.Equal(t, media.Name, draft.Author)
		assert.Equal(t, media.ID, draft.CreatedBy)
		assert.Equal(t, "We give thanks for a fruitful year.", draft.Excerpt)
		assert.Empty(t, app.events.Subjects())
	})

	t.Run("create published", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/posts", token,
			[]byte(`{"title":"Building fund","slug":"Harvest Thanksgiving","author":"Church office","status":"published"}`))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p content.Post
		decode(t, rec.Body, &p)
		assert.Equal(t, "harvest-thanksgiving-3", p.Slug)
		assert.Equal(t, "Church office", p.Author)
		assert.NotNil(t, p.PublishedAt)
		assert.Equal(t, []string{core.SubjectPostPublished}, app.events.Subjects())
	})

	t.Run("slug lookup", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/posts/slug/harvest-thanksgiving", readerToken)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p content.Post
		decode(t, rec.Body, &p)
		assert.Equal(t, existing.ID, p.ID)

		req, rec = newAuthRequest(http.MethodGet, "/api/posts/slug/nope", readerToken)
		app.do(req, rec)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/posts?status=draft", readerToken)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var posts []content.Post
		decode(t, rec.Body, &posts)
		require.Len(t, posts, 1)
		assert.Equal(t, draft.ID, posts[0].ID)

		req, rec = newAuthRequest(http.MethodGet, "/api/posts", readerToken)
		app.do(req, rec)
		assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	})

	detail := "/api/posts/" + draft.ID

	t.Run("update keeps the slug unique", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, detail, token, []byte(`{"slug":"harvest-thanksgiving"}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p content.Post
		decode(t, rec.Body, &p)
		// its own slug does not count as a clash
		assert.Equal(t, "harvest-thanksgiving-2", p.Slug)
		assert.Equal(t, content.StatusDraft, p.Status)
	})

	t.Run("publish & unpublish", func(t *testing.T) {
		app.events.Events = nil

		req, rec := newAuthRequest(http.MethodPost, detail+"/publish", token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p content.Post
		decode(t, rec.Body, &p)
		assert.Equal(t, content.StatusPublished, p.Status)
		require.NotNil(t, p.PublishedAt)
		assert.Equal(t, []string{core.SubjectPostPublished}, app.events.Subjects())

		// publishing twice is a no-op
		req, rec = newAuthRequest(http.MethodPost, detail+"/publish", token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, app.events.Subjects(), 1)

		req, rec = newAuthRequest(http.MethodPost, detail+"/unpublish", token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		p = content.Post{}
		decode(t, rec.Body, &p)
		assert.Equal(t, content.StatusDraft, p.Status)
		assert.Nil(t, p.PublishedAt)

		req, rec = newAuthRequest(http.MethodPost, detail+"/publish", readerToken)
		app.do(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("cover", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, detail+"/cover", readerToken)
		app.do(req, rec)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("cover", "harvest.png")
		require.NoError(t, err)
		_, err = fw.Write(pngData)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, rec = newUploadRequest(http.MethodPut, detail+"/cover", token, mw.FormDataContentType(), body.Bytes())
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p content.Post
		decode(t, rec.Body, &p)
		require.True(t, p.HasCover())
		firstKey := p.CoverKey
		assert.Len(t, app.blobs.Keys("posts/"+draft.ID+"/"), 1)

		req, rec = newAuthRequest(http.MethodGet, detail+"/cover", readerToken)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, pngData, rec.Body.Bytes())

		req, rec = newUploadRequest(http.MethodPut, detail+"/cover", token, "text/plain", []byte("hello"))
		app.do(req, rec)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		req, rec = newUploadRequest(http.MethodPut, detail+"/cover", token, "image/png", pngData)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		_, _, err = app.blobs.Get(ctx, firstKey)
		assert.True(t, core.IsNotFound(err))
		assert.Len(t, app.blobs.Keys("posts/"+draft.ID+"/"), 1)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, detail, token)
		app.do(req, rec)
		require.Equal(t, http.StatusNoContent, rec.Code)
		_, err := app.contentRepo.GetPost(ctx, draft.ID)
		assert.True(t, core.IsNotFound(err))
		assert.Empty(t, app.blobs.Keys("posts/"+draft.ID+"/"))

		req, rec = newAuthRequest(http.MethodDelete, "/api/posts?id="+existing.ID, token)
		app.do(req, rec)
		require.Equal(t, http.StatusNoContent, rec.Code)
		_, err = app.contentRepo.GetPost(ctx, existing.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func Test_contentApi_postSlugs(t *testing.T) {
	app := setup(t)
	_, token := app.staff(t, "yboat", user.RoleMedia)

	create := func(t *testing.T, title string) content.Post {
		req, rec := newAuthRequest(http.MethodPost, "/api/posts", token, marchallObj(t, map[string]string{"title": title}))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p content.Post
		decode(t, rec.Body, &p)
		return p
	}
	bySlug := func(t *testing.T, p content.Post) {
		req, rec := newAuthRequest(http.MethodGet, "/api/posts/slug/"+p.Slug, token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got content.Post
		decode(t, rec.Body, &got)
		assert.Equal(t, p.ID, got.ID)
	}

	t.Run("accented title", func(t *testing.T) {
		p := create(t, "Ɔdɔ Yɛ Dɛ")
		assert.Equal(t, "odo-ye-de", p.Slug)
		bySlug(t, p)
	})

	t.Run("title with nothing to fold", func(t *testing.T) {
		var slugs []string
		for _, title := range []string{"福音", "福音", "!!!"} {
			p := create(t, title)
			assert.Regexp(t, `^post-[0-9a-f]{8}$`, p.Slug)
			bySlug(t, p)
			slugs = append(slugs, p.Slug)
		}
		assert.NotEqual(t, slugs[0], slugs[1])
	})
}
