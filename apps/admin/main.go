package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/seed"
	logsvc "github.com/koinonia-app/koinonia/services/logger"
	"github.com/koinonia-app/koinonia/storage/database"
	sqlxrepos "github.com/koinonia-app/koinonia/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl := logsvc.NewZapLogger(conf)
	logger := logsvc.NewRollbarLogger(zl, "ADMIN", conf)
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	// opening does not connect: createdb runs before the database exists
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	cli := commandLine{
		conf:    conf,
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		seeder: seed.NewSeeder(
			db,
			sqlxrepos.NewSeedRepository(db),
			sqlxrepos.NewMemberRepository(db),
			sqlxrepos.NewFinanceRepository(db),
			sqlxrepos.NewContentRepository(db),
			logger.Named("SEED"),
		),
		logger: logger,
		stdout: os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.run(ctx, os.Args[1:])
	stop()
	_ = db.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
