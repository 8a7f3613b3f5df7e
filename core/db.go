package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
	MaxPage         = 1000000
)

type (
	// DBExecutor is anything that can run queries: *sqlx.DB or *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		PingContext(ctx context.Context) error
	}
)

// WithTx runs fn inside a transaction, committing on success and rolling back on error or panic.
func WithTx(ctx context.Context, db DB, fn func(tx DBExecutor) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Pagination is a 1-based page request. The zero value means "everything".
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) IsZero() bool { return p.Page == 0 && p.PageSize == 0 }

// Clean applies defaults & bounds.
func (p Pagination) Clean() Pagination {
	if p.IsZero() {
		return p
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

func (p Pagination) Limit() int  { return p.PageSize }
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }
