package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/member"
	"github.com/koinonia-app/koinonia/core/report"
	"github.com/koinonia-app/koinonia/core/user"
)

const healthTimeout = 2 * time.Second

type (
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		DB         core.DB
		Validate   *validator.Validate
		Translator ut.Translator
		UserSvc    user.Service
		MemberSvc  member.Service
		FinanceSvc finance.Service
		ContentSvc content.Service
		ReportSvc  report.Service
	}

	Server struct {
		deps     *Deps
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

var _ http.Handler = (*Server)(nil)

// NewServer builds the API. A nil `shutdown` channel is replaced by a fresh one, see ShutdownSignal.
func NewServer(deps *Deps, shutdown chan os.Signal) *Server {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: shutdown,
		errors:   make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if len(conf.Server.CORSOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  conf.Server.CORSOrigins,
			ExposeHeaders: []string{totalCountHeader, echo.HeaderContentDisposition},
		}))
	}
	s.app.Use(metricsMiddleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(api, jwt, conf, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerMemberAPI(api, jwt, conf, s.deps.MemberSvc, s.deps.Validate)
	registerFinanceAPI(api, jwt, s.deps.FinanceSvc, s.deps.UserSvc, s.deps.Validate)
	registerContentAPI(api, jwt, s.deps.ContentSvc, s.deps.UserSvc, s.deps.Validate)
	registerReportAPI(api, jwt, s.deps.ReportSvc)
}

// Start blocks until the server stops. A listener failure is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

// Shutdown stops accepting requests and waits for the outstanding ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

type healthResponse struct {
	Status string `json:"status"`
	Build  string `json:"build"`
}

func (s *Server) health(ctx echo.Context) error {
	c, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()

	res := healthResponse{Status: "ok", Build: s.deps.Conf.Build}
	if err := s.deps.DB.PingContext(c); err != nil {
		s.deps.Logger.Warn("health check: database not ready", err)
		res.Status = "db not ready"
		return ctx.JSON(http.StatusServiceUnavailable, res)
	}
	return ctx.JSON(http.StatusOK, res)
}
