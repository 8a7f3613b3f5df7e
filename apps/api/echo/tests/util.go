package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/koinonia-app/koinonia/apps/api/echo"
	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/member"
	"github.com/koinonia-app/koinonia/core/report"
	"github.com/koinonia-app/koinonia/core/user"
	emailsvc "github.com/koinonia-app/koinonia/services/email"
	eventsvc "github.com/koinonia-app/koinonia/services/events"
	logsvc "github.com/koinonia-app/koinonia/services/logger"
	"github.com/koinonia-app/koinonia/storage/blob"
	sqlxrepos "github.com/koinonia-app/koinonia/storage/database/sqlx"
	"github.com/koinonia-app/koinonia/tests"
)

var (
	conf   = core.NewTestConfig()
	logger = logsvc.NewNopLogger()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)
	os.Exit(m.Run())
}

// testApp is a server over a fresh database, with its repositories exposed for fixtures.
type testApp struct {
	*echoapi.Server
	db          *sqlx.DB
	usrRepo     user.Repository
	memberRepo  member.Repository
	financeRepo finance.Repository
	contentRepo content.Repository
	blobs       *blob.MemoryStore
	events      *eventsvc.Recorder
}

func setup(t *testing.T) *testApp {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	app := &testApp{
		db:          db,
		usrRepo:     sqlxrepos.NewUserRepository(db),
		memberRepo:  sqlxrepos.NewMemberRepository(db),
		financeRepo: sqlxrepos.NewFinanceRepository(db),
		contentRepo: sqlxrepos.NewContentRepository(db),
		blobs:       blob.NewMemoryStore(),
		events:      new(eventsvc.Recorder),
	}

	// set up services
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	finance.InitValidators(validate, translator)
	content.InitValidators(validate, translator)

	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	deps := &echoapi.Deps{
		Conf:       conf,
		Logger:     logger,
		DB:         db,
		Validate:   validate,
		Translator: translator,
		UserSvc:    user.NewServiceMock(app.usrRepo, conf, mailSvc, logger),
		MemberSvc:  member.NewService(app.memberRepo, app.blobs, app.events, mailSvc, conf, logger),
		FinanceSvc: finance.NewService(db, app.financeRepo, app.memberRepo, app.events, logger),
		ContentSvc: content.NewService(db, app.contentRepo, app.blobs, app.events, conf, logger),
		ReportSvc: report.NewService(
			sqlxrepos.NewReportRepository(db), app.memberRepo, app.financeRepo, app.contentRepo, logger,
		),
	}

	// set up server
	app.Server = echoapi.NewServer(deps, nil)
	return app
}

// staff creates an active user holding `roles` & returns them with a token.
func (app *testApp) staff(t *testing.T, uname string, roles ...string) (user.User, string) {
	usr := testutil.CreateUser(t, app.usrRepo, uname, uname, uname+"@test.gh", "", roles, true)
	return usr, getToken(t, usr)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest sends `data` as the raw request body.
func newUploadRequest(method, path, token, contentType string, data []byte) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(conf, usr)
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, r io.Reader, dest interface{}) {
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		t.Fatalf("decode() failed: %v", err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "status code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}
}
