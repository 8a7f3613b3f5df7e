package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/member"
	"github.com/koinonia-app/koinonia/core/report"
	"github.com/koinonia-app/koinonia/core/user"
	"github.com/koinonia-app/koinonia/tests"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.PrepareDB(t))

	admin := testutil.CreateUser(t, repo, "Kofi Mensah", "kmensah", "kofi@koinonia.test", "secret", []string{user.RoleAdminPastor}, true)
	media := testutil.CreateUser(t, repo, "Yaa Boateng", "yboat", "yaa@koinonia.test", "", []string{user.RoleMedia}, false)

	t.Run("uniqueness", func(t *testing.T) {
		tests := []struct {
			name            string
			username, email string
			excluded        []user.User
			wantErr         error
		}{
			{name: "free", username: "ama", email: "ama@koinonia.test"},
			{name: "username taken", username: "kmensah", email: "other@koinonia.test", wantErr: user.ErrUsernameExists},
			{name: "email taken", username: "other", email: "yaa@koinonia.test", wantErr: user.ErrEmailExists},
			{name: "own record", username: "kmensah", email: "kofi@koinonia.test", excluded: []user.User{admin}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := repo.CheckUsernameUniqueness(ctx, tt.username, tt.email, tt.excluded)
				assert.Equal(t, tt.wantErr, err)
			})
		}
	})

	t.Run("query", func(t *testing.T) {
		yes, no := true, false
		tests := []struct {
			name     string
			filter   *user.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "all", ordering: []core.DBOrdering{{Field: "username", Ascending: true}}, want: []string{admin.ID, media.ID}},
			{name: "search", filter: &user.QueryFilter{Search: "BOAT"}, want: []string{media.ID}},
			{name: "role prefix", filter: &user.QueryFilter{Roles: []string{user.RoleAdmin}}, want: []string{admin.ID}},
			{name: "active", filter: &user.QueryFilter{IsActive: &yes}, want: []string{admin.ID}},
			{name: "inactive", filter: &user.QueryFilter{IsActive: &no}, want: []string{media.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.QueryUsers(ctx, tt.filter, tt.ordering)
				require.NoError(t, err)
				ids := make([]string, 0, len(users))
				for _, u := range users {
					ids = append(ids, u.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("get", func(t *testing.T) {
		usr, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "yaa@koinonia.test"})
		require.NoError(t, err)
		assert.Equal(t, media.ID, usr.ID)
		assert.Equal(t, []string{user.RoleMedia}, usr.Roles)

		_, err = repo.GetUser(ctx, user.GetFilter{ID: "not-a-uuid"})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUser(ctx, user.GetFilter{Username: "nobody"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("update & delete", func(t *testing.T) {
		media.Name = "Yaa Boateng-Mensah"
		_, err := repo.UpdateOrCreateUser(ctx, media)
		require.NoError(t, err)
		usr, err := repo.GetUser(ctx, user.GetFilter{ID: media.ID})
		require.NoError(t, err)
		assert.Equal(t, "Yaa Boateng-Mensah", usr.Name)

		n, err := repo.DeleteUsersByID(ctx, []string{media.ID, admin.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = repo.UpdateUser(ctx, media)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestMemberRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemberRepository(testutil.PrepareDB(t))

	esi := testutil.CreateMember(t, repo, "Esi", "Owusu", func(m *member.Member) {
		m.Email = "esi@koinonia.test"
		m.DateOfBirth = core.NewDate(1990, time.March, 12)
	})
	kwame := testutil.CreateMember(t, repo, "Kwame", "Asante", func(m *member.Member) {
		m.Gender = member.GenderMale
		m.Baptized = true
		m.DateOfBirth = core.NewDate(1985, time.March, 2)
		m.JoinDate = core.NewDate(2023, time.June, 1)
	})
	testutil.CreateMember(t, repo, "Abena", "Asante", func(m *member.Member) {
		m.Status = member.StatusDeceased
		m.DateOfBirth = core.NewDate(1940, time.March, 20)
	})

	t.Run("email uniqueness", func(t *testing.T) {
		assert.Equal(t, member.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "esi@koinonia.test", nil))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "esi@koinonia.test", []string{esi.ID}))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "new@koinonia.test", nil))
	})

	t.Run("query", func(t *testing.T) {
		yes := true
		tests := []struct {
			name      string
			filter    *member.QueryFilter
			page      core.Pagination
			wantNames []string
			wantTotal int
		}{
			{name: "all by name", wantNames: []string{"Abena", "Kwame", "Esi"}, wantTotal: 3},
			{name: "search", filter: &member.QueryFilter{Search: "asante"}, wantNames: []string{"Abena", "Kwame"}, wantTotal: 2},
			{name: "gender", filter: &member.QueryFilter{Gender: member.GenderMale}, wantNames: []string{"Kwame"}, wantTotal: 1},
			{name: "status", filter: &member.QueryFilter{Status: member.StatusDeceased}, wantNames: []string{"Abena"}, wantTotal: 1},
			{name: "baptized", filter: &member.QueryFilter{Baptized: &yes}, wantNames: []string{"Kwame"}, wantTotal: 1},
			{
				name:      "joined",
				filter:    &member.QueryFilter{Joined: core.DateRange{From: core.NewDate(2023, time.January, 1)}},
				wantNames: []string{"Kwame"},
				wantTotal: 1,
			},
			{name: "second page", page: core.Pagination{Page: 2, PageSize: 2}, wantNames: []string{"Esi"}, wantTotal: 3},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				members, total, err := repo.QueryMembers(ctx, tt.filter, nil, tt.page)
				require.NoError(t, err)
				names := make([]string, 0, len(members))
				for _, m := range members {
					names = append(names, m.FirstName)
				}
				assert.Equal(t, tt.wantNames, names)
				assert.Equal(t, tt.wantTotal, total)
			})
		}
	})

	t.Run("born in", func(t *testing.T) {
		members, err := repo.QueryMembersBornIn(ctx, time.March)
		require.NoError(t, err)
		assert.Len(t, members, 2)

		members, err = repo.QueryMembersBornIn(ctx, time.April)
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("get & update", func(t *testing.T) {
		m, err := repo.GetMember(ctx, kwame.ID)
		require.NoError(t, err)
		assert.Equal(t, "1985-03-02", m.DateOfBirth.String())
		assert.True(t, m.Baptized)

		m.PhotoKey = "members/" + m.ID + ".jpg"
		_, err = repo.UpdateMember(ctx, m)
		require.NoError(t, err)

		members, err := repo.GetMembersByID(ctx, []string{kwame.ID, "unknown"})
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.True(t, members[0].HasPhoto())

		_, err = repo.GetMember(ctx, "unknown")
		assert.Equal(t, member.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		n, err := repo.DeleteMembersByID(ctx, []string{esi.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = repo.DeleteMembersByID(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestFinanceRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := NewFinanceRepository(db)
	kwame := testutil.CreateMember(t, NewMemberRepository(db), "Kwame", "Asante")

	tithe := testutil.CreateEntry(t, repo, finance.KindTithe, "", 15000, core.NewDate(2024, time.January, 7), kwame.ID)
	testutil.CreateEntry(t, repo, finance.KindOffering, finance.CategorySundayService, 30000, core.NewDate(2024, time.January, 7), "")
	expense := testutil.CreateEntry(t, repo, finance.KindExpense, finance.CategoryUtilities, 12000, core.NewDate(2024, time.January, 20), "")

	t.Run("member name", func(t *testing.T) {
		e, err := repo.GetEntry(ctx, tithe.ID)
		require.NoError(t, err)
		assert.Equal(t, "Kwame Asante", e.MemberName)
		assert.Equal(t, core.Money(15000), e.Amount)

		e, err = repo.GetEntry(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "", e.MemberName)
	})

	t.Run("query", func(t *testing.T) {
		entries, total, err := repo.QueryEntries(ctx, &finance.QueryFilter{Kinds: []string{finance.KindTithe, finance.KindExpense}}, nil, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, entries, 2)
		assert.Equal(t, expense.ID, entries[0].ID)

		entries, _, err = repo.QueryEntries(ctx, &finance.QueryFilter{MemberID: kwame.ID}, nil, core.Pagination{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, tithe.ID, entries[0].ID)

		entries, _, err = repo.QueryEntries(ctx, nil, []core.DBOrdering{{Field: "amount", Ascending: true}}, core.Pagination{Page: 1, PageSize: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, expense.ID, entries[0].ID)
	})

	t.Run("sum", func(t *testing.T) {
		totals, err := repo.SumEntries(ctx, &finance.QueryFilter{
			Period: core.DateRange{From: core.NewDate(2024, time.January, 1), To: core.NewDate(2024, time.January, 10)},
		}, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []finance.KindTotal{
			{Kind: finance.KindTithe, Total: 15000, Count: 1},
			{Kind: finance.KindOffering, Category: finance.CategorySundayService, Total: 30000, Count: 1},
		}, totals)

		totals, err = repo.SumEntries(ctx, &finance.QueryFilter{Kinds: []string{finance.KindExpense}}, expense.ID)
		require.NoError(t, err)
		assert.Empty(t, totals)
	})

	t.Run("update & delete", func(t *testing.T) {
		expense.Amount = 9000
		_, err := repo.UpdateEntry(ctx, expense)
		require.NoError(t, err)
		e, err := repo.GetEntry(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, core.Money(9000), e.Amount)

		n, err := repo.DeleteEntriesByID(ctx, []string{expense.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		_, err = repo.GetEntry(ctx, expense.ID)
		assert.Equal(t, finance.ErrNotFound, err)
	})
}

func TestContentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository(testutil.PrepareDB(t))

	t.Run("events", func(t *testing.T) {
		start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
		service := testutil.CreateEvent(t, repo, "Sunday service", content.CategoryService, start, true)
		testutil.CreateEvent(t, repo, "Board meeting", content.CategoryMeeting, start.AddDate(0, 0, 1), false)

		events, total, err := repo.QueryEvents(ctx, &content.EventFilter{
			Period: core.DateRange{From: core.NewDate(2024, time.March, 10), To: core.NewDate(2024, time.March, 10)},
		}, nil, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, events, 1)
		assert.Equal(t, service.ID, events[0].ID)
		assert.True(t, events[0].StartsAt.Equal(start))

		events, _, err = repo.QueryEvents(ctx, &content.EventFilter{EndsAfter: start.Add(3 * time.Hour)}, nil, core.Pagination{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Board meeting", events[0].Title)

		_, err = repo.GetEvent(ctx, "unknown")
		assert.Equal(t, content.ErrEventNotFound, err)
	})

	t.Run("sermon tags", func(t *testing.T) {
		s := testutil.CreateSermon(t, repo, "Walking in faith", "Rev. Mensah", core.NewDate(2024, time.January, 14), "faith", "holy spirit")
		testutil.CreateSermon(t, repo, "Faithful giving", "Rev. Mensah", core.NewDate(2024, time.January, 21), "faithful")

		got, err := repo.GetSermon(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"faith", "holy spirit"}, got.Tags)

		sermons, total, err := repo.QuerySermons(ctx, &content.SermonFilter{Tag: "faith"}, nil, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, sermons, 1)
		assert.Equal(t, s.ID, sermons[0].ID)

		untagged := testutil.CreateSermon(t, repo, "Untitled", "Deacon Appiah", core.NewDate(2024, time.February, 4))
		got, err = repo.GetSermon(ctx, untagged.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{}, got.Tags)
	})

	t.Run("post slugs", func(t *testing.T) {
		harvest := testutil.CreatePost(t, repo, "Harvest", "harvest", content.StatusPublished)
		harvest2 := testutil.CreatePost(t, repo, "Harvest", "harvest-2", content.StatusDraft)
		testutil.CreatePost(t, repo, "Harvesting", "harvesting", content.StatusDraft)

		slugs, err := repo.SlugsLike(ctx, "harvest", "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"harvest", "harvest-2"}, slugs)

		slugs, err = repo.SlugsLike(ctx, "harvest", harvest2.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"harvest"}, slugs)

		p, err := repo.GetPostBySlug(ctx, "harvest")
		require.NoError(t, err)
		assert.Equal(t, harvest.ID, p.ID)
		require.NotNil(t, p.PublishedAt)

		_, err = repo.GetPostBySlug(ctx, "missing")
		assert.Equal(t, content.ErrPostNotFound, err)

		posts, err := repo.GetPostsByID(ctx, []string{harvest.ID, harvest2.ID})
		require.NoError(t, err)
		assert.Len(t, posts, 2)

		posts, total, err := repo.QueryPosts(ctx, &content.PostFilter{Status: content.StatusDraft}, nil, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, posts, 2)

		n, err := repo.DeletePostsByID(ctx, []string{harvest2.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestReportRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	members := NewMemberRepository(db)
	repo := NewReportRepository(db)

	testutil.CreateMember(t, members, "Esi", "Owusu", func(m *member.Member) {
		m.DateOfBirth = core.NewDate(1990, time.March, 12)
	})
	testutil.CreateMember(t, members, "Kwame", "Asante", func(m *member.Member) {
		m.Gender = member.GenderMale
		m.Status = member.StatusVisitor
	})
	testutil.CreateMember(t, members, "Abena", "Asante", func(m *member.Member) {
		m.Status = member.StatusDeceased
		m.DateOfBirth = core.NewDate(1940, time.March, 20)
	})

	counts, err := repo.CountMembersBy(ctx, "gender")
	require.NoError(t, err)
	assert.Equal(t, []report.GroupCount{{Value: member.GenderFemale, Count: 2}, {Value: member.GenderMale, Count: 1}}, counts)

	counts, err = repo.CountMembersBy(ctx, "status")
	require.NoError(t, err)
	assert.Len(t, counts, 3)

	_, err = repo.CountMembersBy(ctx, "email")
	assert.Error(t, err)

	dates, err := repo.MemberBirthDates(ctx)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "1990-03-12", dates[0].String())
}

func TestSeedRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	users := NewUserRepository(db)
	members := NewMemberRepository(db)
	contents := NewContentRepository(db)

	testutil.CreateUser(t, users, "Kofi Mensah", "kmensah", "kofi@koinonia.test", "secret", []string{user.RoleAdminOwner}, true)
	m := testutil.CreateMember(t, members, "Esi", "Owusu")
	testutil.CreateEntry(t, NewFinanceRepository(db), finance.KindTithe, "", 1000, core.NewDate(2024, time.January, 7), m.ID)
	testutil.CreatePost(t, contents, "Harvest", "harvest", content.StatusDraft)

	require.NoError(t, NewSeedRepository(db).ClearDomainData(ctx))

	_, total, err := members.QueryMembers(ctx, nil, nil, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	_, total, err = contents.QueryPosts(ctx, nil, nil, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	remaining, err := users.QueryUsers(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
