package echoapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/koinonia-app/koinonia/core"
)

const (
	orderingParam    = "ordering"
	pageParam        = "page"
	pageSizeParam    = "page_size"
	totalCountHeader = "X-Total-Count"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryParams coerces query string values, collecting the errors per parameter.
type queryParams struct {
	ctx  echo.Context
	errs []core.FieldError
}

func newQueryParams(ctx echo.Context) *queryParams {
	return &queryParams{ctx: ctx}
}

func (q *queryParams) addError(name, msg string) {
	q.errs = append(q.errs, core.FieldError{Field: name, Error: msg})
}

func (q *queryParams) String(name string) string {
	return strings.TrimSpace(q.ctx.QueryParam(name))
}

// Strings accepts both repeated (`?kind=a&kind=b`) & comma separated (`?kind=a,b`) values.
func (q *queryParams) Strings(name string) []string {
	var vals []string
	for _, v := range q.ctx.QueryParams()[name] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				vals = append(vals, s)
			}
		}
	}
	return vals
}

func (q *queryParams) Bool(name string) *bool {
	s := q.String(name)
	if s == "" {
		return nil
	}
	b, err := core.ParseBool(s)
	if err != nil {
		q.addError(name, "enter a valid boolean")
		return nil
	}
	return &b
}

func (q *queryParams) Int(name string, dflt int) int {
	s := q.String(name)
	if s == "" {
		return dflt
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.addError(name, "enter a whole number")
		return dflt
	}
	return n
}

func (q *queryParams) Date(name string) core.Date {
	d, err := core.ParseDate(q.String(name))
	if err != nil {
		q.addError(name, "enter a valid date")
	}
	return d
}

// DateRange reads an inclusive range out of the `from` & `to` params.
func (q *queryParams) DateRange(from, to string) core.DateRange {
	rng := core.DateRange{From: q.Date(from), To: q.Date(to)}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		q.addError(to, "cannot be before "+from)
	}
	return rng
}

// Pagination defaults to the first page of core.DefaultPageSize items.
func (q *queryParams) Pagination() core.Pagination {
	page := core.Pagination{Page: q.Int(pageParam, 1), PageSize: q.Int(pageSizeParam, core.DefaultPageSize)}
	if page.Page < 1 {
		q.addError(pageParam, "must be 1 or more")
	}
	if page.Page > core.MaxPage {
		q.addError(pageParam, fmt.Sprintf("must be %d or less", core.MaxPage))
	}
	if page.PageSize < 1 {
		q.addError(pageSizeParam, "must be 1 or more")
	}
	return page.Clean()
}

func (q *queryParams) Err() error {
	if len(q.errs) == 0 {
		return nil
	}
	return core.NewValidationError(nil, q.errs...)
}

func setTotalCount(ctx echo.Context, total int) {
	ctx.Response().Header().Set(totalCountHeader, strconv.Itoa(total))
}

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
