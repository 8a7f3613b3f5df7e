package dig_container

import (
	"context"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

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
	"github.com/koinonia-app/koinonia/storage/database"
	sqlxrepos "github.com/koinonia-app/koinonia/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// PublisherCloserParam drains the event publisher on shutdown.
type PublisherCloserParam struct {
	dig.In
	Close func() `name:"publisherCloser"`
}

type publisherResult struct {
	dig.Out
	Publisher core.Publisher
	Closer    func() `name:"publisherCloser"`
}

func newLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl, "API", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl, "DB", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal("setting up database: "+err.Error(), err)
	}
	return db, db, db
}

func newBlobStore(conf *core.Config, logger core.Logger) core.BlobStore {
	store, err := blob.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal("setting up blob store: "+err.Error(), err)
	}
	return store
}

func newPublisher(conf *core.Config, logger core.Logger) publisherResult {
	pub, closeFn, err := eventsvc.NewPublisher(conf, logger)
	if err != nil {
		// events are best effort: run without them
		logger.Error("connecting to NATS: "+err.Error(), err)
		return publisherResult{Publisher: eventsvc.NopPublisher{}, Closer: func() {}}
	}
	return publisherResult{Publisher: pub, Closer: closeFn}
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	finance.InitValidators(validate, translator)
	content.InitValidators(validate, translator)
	return validate
}

type serverParams struct {
	dig.In

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

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		DB:         p.DB,
		Validate:   p.Validate,
		Translator: p.Translator,
		UserSvc:    p.UserSvc,
		MemberSvc:  p.MemberSvc,
		FinanceSvc: p.FinanceSvc,
		ContentSvc: p.ContentSvc,
		ReportSvc:  p.ReportSvc,
	}, nil)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(logsvc.NewZapLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))

	// infrastructure
	must(c.Provide(newDB))
	must(c.Provide(newBlobStore))
	must(c.Provide(newPublisher))
	must(c.Provide(emailsvc.NewService))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewMemberRepository, dig.As(new(member.Repository))))
	must(c.Provide(sqlxrepos.NewFinanceRepository, dig.As(new(finance.Repository))))
	must(c.Provide(sqlxrepos.NewContentRepository, dig.As(new(content.Repository))))
	must(c.Provide(sqlxrepos.NewReportRepository, dig.As(new(report.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(member.NewService))
	must(c.Provide(finance.NewService))
	must(c.Provide(content.NewService))
	must(c.Provide(report.NewService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
