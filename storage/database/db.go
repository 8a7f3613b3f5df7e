package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/fs"
)

const migrationsDir = "migrations"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	goose.SetBaseFS(appfs.FS)
}

func postgresURL(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// sqliteDSN builds a modernc.org/sqlite DSN. ":memory:" gets a uniquely named shared-cache database
// so that every pooled connection sees the same data.
func sqliteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if path == "" || path == ":memory:" {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", uuid.New().String(), pragmas)
	}
	return fmt.Sprintf("file:%s?%s", path, pragmas)
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	if conf.Database.IsSQLite() {
		db, err := sqlx.Open("sqlite", sqliteDSN(conf.Database.SQLitePath))
		if err != nil {
			return nil, err
		}
		// an idle connection keeps in-memory databases alive
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(0)
		return db, nil
	}
	return sqlx.Open("postgres", postgresURL(dbName, admin, conf))
}

// Open opens the configured database. It does not wait for the server to be up: see Ping.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, db core.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func queryExists(db *sqlx.DB, q string, args ...interface{}) (bool, error) {
	var exists bool
	rows, err := db.Query(q, args...)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err = rows.Scan(&exists); err != nil {
			return false, err
		}
	}
	return exists, rows.Err()
}

// quoteIdent quotes a Postgres identifier (role & database names cannot be bound as parameters).
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	// check if app user exists
	exists, err := queryExists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}

	// create app user if not exist
	if !exists {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s",
			quoteIdent(conf.Database.User), quoteLiteral(conf.Database.Password))
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	// check if DB exists
	exists, err := queryExists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", quoteIdent(conf.Database.Name))); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the app role & database on Postgres. SQLite files are created on open.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	if conf.Database.IsSQLite() {
		return nil
	}

	// connect as admin
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = Ping(ctx, db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	appDB, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()

	if err = createDB(appDB, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

// Dialect returns the goose dialect matching the db driver.
func Dialect(db *sqlx.DB) string {
	if db.DriverName() == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

// RunMigrations runs a goose command (up, down, status, redo...) against the embedded migrations.
func RunMigrations(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	if err := goose.SetDialect(Dialect(db)); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.RunContext(ctx, command, db.DB, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migrations %q", command)
	}
	return nil
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return errors.Wrap(RunMigrations(ctx, db, "up"), "migrating database")
}
