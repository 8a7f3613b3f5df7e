package tests

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/member"
	"github.com/koinonia-app/koinonia/core/user"
	"github.com/koinonia-app/koinonia/tests"
)

type financeFixtures struct {
	kwame                             member.Member
	tithe, offering, welfare, expense finance.Entry
}

func createFinanceFixtures(t *testing.T, app *testApp) financeFixtures {
	jan7 := core.NewDate(2024, time.January, 7)
	f := financeFixtures{kwame: testutil.CreateMember(t, app.memberRepo, "Kwame", "Owusu")}
	f.tithe = testutil.CreateEntry(t, app.financeRepo, finance.KindTithe, "", 15000, jan7, f.kwame.ID)
	f.offering = testutil.CreateEntry(t, app.financeRepo, finance.KindOffering, finance.CategorySundayService, 30000, jan7, "")
	f.welfare = testutil.CreateEntry(t, app.financeRepo, finance.KindWelfare, finance.CategoryContribution, 2000,
		core.NewDate(2024, time.February, 4), f.kwame.ID)
	f.expense = testutil.CreateEntry(t, app.financeRepo, finance.KindExpense, finance.CategoryUtilities, 12000,
		core.NewDate(2024, time.January, 10), "")
	return f
}

func entryIDs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	var entries []finance.Entry
	decode(t, rec.Body, &entries)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func Test_financeApi_access(t *testing.T) {
	app := setup(t)

	_, mediaToken := app.staff(t, "yboat", user.RoleMedia)
	_, secretaryToken := app.staff(t, "aserwaa", user.RoleSecretary)
	_, financeToken := app.staff(t, "kmensah", user.RoleFinance)
	_, pastorToken := app.staff(t, "posei", user.RoleAdminPastor)

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: "/api/finance/entries", wantCode: http.StatusUnauthorized},
		{name: "media", path: "/api/finance/entries", token: mediaToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "secretary", path: "/api/finance/entries", token: secretaryToken, wantCode: http.StatusForbidden},
		{name: "finance", path: "/api/finance/entries", token: financeToken, wantData: marchallList(t)},
		{name: "admin", path: "/api/finance/entries", token: pastorToken, wantData: marchallList(t)},
	})
}

func Test_financeApi_create(t *testing.T) {
	app := setup(t)

	treasurer, token := app.staff(t, "kmensah", user.RoleFinance)
	f := createFinanceFixtures(t, app)
	tomorrow := core.Today().AddDays(1).String()

	reqMsg := "this field is required"
	runHTTPTests(t, app, []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"kind": reqMsg, "amount": reqMsg}),
		},
		{
			name: "unknown kind", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{"kind":"lol","amount":"10"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"kind": "must be one of: tithe, offering, welfare, withdrawal, expense"}),
		},
		{
			name: "invalid amount", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{"kind":"offering","amount":"1.234"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "future date", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{"kind":"offering","amount":"10","date":"` + tomorrow + `"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date cannot be in the future"}),
		},
		{
			name: "tithe without member", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{"kind":"tithe","amount":"10"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"member_id": "a tithe must be linked to a member"}),
		},
		{
			name: "unknown member", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{"kind":"tithe","amount":"10","member_id":"lol"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"member_id": "member not found"}),
		},
		{
			name: "invalid category", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{"kind":"offering","amount":"10","category":"lol"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"category": "invalid category for this kind of entry"}),
		},
		{
			name: "expense without payee", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body: []byte(`{"kind":"expense","amount":"10","category":"supplies"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"payee": "enter who the money was paid to"}),
		},
		{
			name: "withdrawal above the balance", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body:     []byte(`{"kind":"withdrawal","amount":"500","payee":"Bank","date":"2024-01-10"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"amount": "amount exceeds the available balance of 330.00 on 2024-01-10"}),
		},
		{
			name: "balance is checked at the entry date", method: http.MethodPost, path: "/api/finance/entries", token: token,
			body:     []byte(`{"kind":"withdrawal","amount":"100","payee":"Bank","date":"2024-01-02"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"amount": "amount exceeds the available balance of 0.00 on 2024-01-02"}),
		},
	})
	assert.Len(t, app.events.Events, 0)

	t.Run("tithe recorded", func(t *testing.T) {
		body := []byte(`{"kind":"Tithe","amount":"1,250.50","member_id":"` + f.kwame.ID + `","date":"2024-03-03","payment_method":"Mobile Money"}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/finance/entries", token, body)
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var e finance.Entry
		decode(t, rec.Body, &e)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, finance.KindTithe, e.Kind)
		assert.Equal(t, core.Money(125050), e.Amount)
		assert.Equal(t, finance.MethodMobileMoney, e.PaymentMethod)
		assert.Equal(t, "Kwame Owusu", e.MemberName)
		assert.Equal(t, treasurer.ID, e.RecordedBy)
		assert.Equal(t, []string{core.SubjectFinanceEntryRecorded}, app.events.Subjects())
	})

	t.Run("withdrawal within the balance", func(t *testing.T) {
		body := []byte(`{"kind":"withdrawal","amount":"330","payee":"Bank","date":"2024-01-10"}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/finance/entries", token, body)
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}

func Test_financeApi_query(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "kmensah", user.RoleFinance)
	f := createFinanceFixtures(t, app)

	tests := []struct {
		name    string
		path    string
		wantIDs []string
	}{
		{name: "all", path: "/api/finance/entries", wantIDs: []string{f.welfare.ID, f.expense.ID, f.offering.ID, f.tithe.ID}},
		{name: "kinds", path: "/api/finance/entries?kind=tithe,offering", wantIDs: []string{f.offering.ID, f.tithe.ID}},
		{name: "member", path: "/api/finance/entries?member_id=" + f.kwame.ID, wantIDs: []string{f.welfare.ID, f.tithe.ID}},
		{name: "category", path: "/api/finance/entries?category=utilities", wantIDs: []string{f.expense.ID}},
		{name: "from", path: "/api/finance/entries?from=2024-01-08", wantIDs: []string{f.welfare.ID, f.expense.ID}},
		{name: "ordering", path: "/api/finance/entries?ordering=amount", wantIDs: []string{f.welfare.ID, f.expense.ID, f.tithe.ID, f.offering.ID}},
		{name: "page", path: "/api/finance/entries?page=2&page_size=3", wantIDs: []string{f.tithe.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, token)
			app.do(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantIDs, entryIDs(t, rec))
		})
	}

	t.Run("total count", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/finance/entries?page_size=1", token)
		app.do(req, rec)
		assert.Equal(t, "4", rec.Header().Get("X-Total-Count"))
	})

	t.Run("member name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/finance/entries/"+f.tithe.ID, token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var e finance.Entry
		decode(t, rec.Body, &e)
		assert.Equal(t, "Kwame Owusu", e.MemberName)
	})

	runHTTPTests(t, app, []httpTest{
		{name: "not found", path: "/api/finance/entries/lol", token: token, wantCode: http.StatusNotFound},
		{name: "invalid from", path: "/api/finance/entries?from=lol", token: token, wantCode: http.StatusBadRequest},
	})
}

func Test_financeApi_updateAndDelete(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "kmensah", user.RoleFinance)
	f := createFinanceFixtures(t, app)
	detail := "/api/finance/entries/" + f.expense.ID

	runHTTPTests(t, app, []httpTest{
		{
			name: "above the balance", method: http.MethodPut, path: detail, token: token,
			body: []byte(`{"amount":"500","payee":"ECG"}`), wantCode: http.StatusBadRequest,
			// the entry's own amount does not count
			wantData: marchallObj(t, map[string]string{"amount": "amount exceeds the available balance of 450.00 on 2024-01-10"}),
		},
	})

	t.Run("partial update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, detail, token, []byte(`{"amount":"400","payee":"ECG"}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var e finance.Entry
		decode(t, rec.Body, &e)
		assert.Equal(t, core.Money(40000), e.Amount)
		assert.Equal(t, "ECG", e.Payee)
		assert.Equal(t, finance.CategoryUtilities, e.Category)
		assert.Equal(t, f.expense.Date.String(), e.Date.String())
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, detail, token)
		app.do(req, rec)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, detail, token)
		app.do(req, rec)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_financeApi_summary(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "kmensah", user.RoleFinance)
	createFinanceFixtures(t, app)

	january := finance.Summary{
		From:       core.NewDate(2024, time.January, 1),
		To:         core.NewDate(2024, time.January, 31),
		Tithes:     15000,
		Offerings:  30000,
		Expenses:   12000,
		Income:     45000,
		Outflow:    12000,
		Balance:    33000,
		EntryCount: 3,
	}
	runHTTPTests(t, app, []httpTest{
		{name: "january", path: "/api/finance/summary?from=2024-01-01&to=2024-01-31", token: token, wantData: marchallObj(t, january)},
		{name: "invalid range", path: "/api/finance/summary?from=2024-02-01&to=2024-01-31", token: token, wantCode: http.StatusBadRequest},
	})

	t.Run("current month by default", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/finance/summary", token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var s finance.Summary
		decode(t, rec.Body, &s)
		month := core.MonthRange(core.Today())
		assert.Equal(t, month.From.String(), s.From.String())
		assert.Equal(t, month.To.String(), s.To.String())
		assert.Equal(t, 0, s.EntryCount)
	})
}

func Test_financeApi_statement(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "kmensah", user.RoleFinance)
	f := createFinanceFixtures(t, app)

	t.Run("statement", func(t *testing.T) {
		path := "/api/finance/members/" + f.kwame.ID + "/statement?from=2024-01-01&to=2024-12-31"
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var st finance.Statement
		decode(t, rec.Body, &st)
		assert.Equal(t, "Kwame Owusu", st.MemberName)
		require.Len(t, st.Entries, 2)
		assert.Equal(t, f.tithe.ID, st.Entries[0].ID)
		assert.Equal(t, f.welfare.ID, st.Entries[1].ID)
		assert.Equal(t, core.Money(15000), st.Summary.Tithes)
		assert.Equal(t, core.Money(2000), st.Summary.WelfareContributions)
		assert.Equal(t, core.Money(17000), st.Summary.Income)
	})

	runHTTPTests(t, app, []httpTest{
		{name: "empty year", path: "/api/finance/members/" + f.kwame.ID + "/statement?from=2023-01-01&to=2023-12-31", token: token},
		{name: "unknown member", path: "/api/finance/members/lol/statement", token: token, wantCode: http.StatusNotFound},
	})
}

func Test_financeApi_export(t *testing.T) {
	app := setup(t)

	_, token := app.staff(t, "kmensah", user.RoleFinance)
	f := createFinanceFixtures(t, app)

	req, rec := newAuthRequest(http.MethodGet, "/api/finance/entries/export?kind=tithe,welfare&ordering=date", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"finance-entries-")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, []string{f.tithe.ID, "2024-01-07", "tithe", "", "150.00"}, records[1][:5])
	assert.Equal(t, f.welfare.ID, records[2][0])
	assert.Equal(t, "Kwame Owusu", records[2][7])
}
