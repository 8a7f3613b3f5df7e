// Package sqlxrepos implements the domain repositories on top of jmoiron/sqlx.
// Queries are written with `?` placeholders and rebound for the executor's driver,
// so the same SQL runs on Postgres and SQLite.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps sql "no rows" err to the domain not-found error
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func get(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, exec, dest, exec.Rebind(query), args...)
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(query), args...)
}

func execute(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int64, error) {
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// namedExec runs an INSERT/UPDATE with `:field` parameters bound from a row struct.
func namedExec(ctx context.Context, exec core.DBExecutor, query string, arg interface{}) (int64, error) {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return 0, err
	}
	return execute(ctx, exec, q, args...)
}

// where accumulates AND-ed conditions & their arguments.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// in adds a `col IN (...)` condition. An empty list matches nothing.
func (w *where) in(col string, vals []string) {
	if len(vals) == 0 {
		w.add("1 = 0")
		return
	}
	q, args, _ := sqlx.In(col+" IN (?)", vals)
	w.add(q, args...)
}

func (w *where) notIn(col string, vals []string) {
	if len(vals) == 0 {
		return
	}
	q, args, _ := sqlx.In(col+" NOT IN (?)", vals)
	w.add(q, args...)
}

// search adds a case-insensitive substring match over any of `cols`.
func (w *where) search(term string, cols ...string) {
	term = core.CleanString(term, true /* lower */)
	if term == "" || len(cols) == 0 {
		return
	}
	pattern := "%" + term + "%"
	ors := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		ors = append(ors, "LOWER("+col+") LIKE ?")
		args = append(args, pattern)
	}
	w.add("("+strings.Join(ors, " OR ")+")", args...)
}

// dateRange adds inclusive bounds on a DATE column.
func (w *where) dateRange(col string, rng core.DateRange) {
	if !rng.From.IsZero() {
		w.add(col+" >= ?", rng.From)
	}
	if !rng.To.IsZero() {
		w.add(col+" <= ?", rng.To)
	}
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy builds an ORDER BY clause out of the requested orderings. Only fields in `allowed`
// ({api field: column}) are used; `dflt` applies when none is left.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, dflt string) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(orderList) == 0 {
		if dflt == "" {
			return ""
		}
		return " ORDER BY " + dflt
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func limitOffset(page core.Pagination) (string, []interface{}) {
	page = page.Clean()
	if page.IsZero() {
		return "", nil
	}
	return " LIMIT ? OFFSET ?", []interface{}{page.Limit(), page.Offset()}
}

func count(ctx context.Context, exec core.DBExecutor, table string, w where) (int, error) {
	var total int
	if err := get(ctx, exec, &total, "SELECT COUNT(*) FROM "+table+w.String(), w.args...); err != nil {
		return 0, err
	}
	return total, nil
}

func deleteByID(ctx context.Context, exec core.DBExecutor, table string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var w where
	w.in("id", ids)
	n, err := execute(ctx, exec, "DELETE FROM "+table+w.String(), w.args...)
	return int(n), err
}

func joinList(vals []string) string {
	return strings.Join(vals, ",")
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	vals := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			vals = append(vals, p)
		}
	}
	return vals
}
