package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/user"
)

type financeApi struct {
	svc      finance.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerFinanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc finance.Service,
	userSvc user.Service,
	validate *validator.Validate,
) {
	api := financeApi{svc: svc, userSvc: userSvc, validate: validate}

	fg := g.Group("/finance", jwt, financeMiddleware)
	fg.GET("/summary", api.summary)
	fg.GET("/members/:id/statement", api.statement)

	eg := fg.Group("/entries")
	eg.POST("", api.create)
	eg.GET("", api.query)
	eg.GET("/export", api.export)

	dg := eg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *financeApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding entry by ID")
		}
		ctx.Set(objectKey, e)
		return next(ctx)
	}
}

func contextEntry(ctx echo.Context) (finance.Entry, error) {
	e, ok := ctx.Get(objectKey).(finance.Entry)
	if !ok {
		return finance.Entry{}, errors.New("entry object not found in echo.Context")
	}
	return e, nil
}

func (api *financeApi) create(ctx echo.Context) error {
	var data finance.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	c := ctx.Request().Context()
	if err := data.Validate(c, api.validate, api.svc); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	e, err := api.svc.Create(c, data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "recording entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func bindEntryFilter(ctx echo.Context) (*finance.QueryFilter, error) {
	q := newQueryParams(ctx)
	filter := &finance.QueryFilter{
		Search:        q.String("search"),
		Kinds:         q.Strings("kind"),
		MemberID:      q.String("member_id"),
		Category:      q.String("category"),
		PaymentMethod: q.String("payment_method"),
		Period:        q.DateRange("from", "to"),
	}
	if err := q.Err(); err != nil {
		return nil, err
	}
	filter.Clean()
	return filter, nil
}

func (api *financeApi) query(ctx echo.Context) error {
	filter, err := bindEntryFilter(ctx)
	if err != nil {
		return err
	}
	q := newQueryParams(ctx)
	page := q.Pagination()
	if err := q.Err(); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying entries")
	}
	if entries == nil {
		entries = []finance.Entry{}
	}
	setTotalCount(ctx, total)
	return ctx.JSON(http.StatusOK, entries)
}

// export streams the entries matching the query as CSV. Pagination does not apply.
func (api *financeApi) export(ctx echo.Context) error {
	filter, err := bindEntryFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	filename := "finance-entries-" + core.Today().String() + ".csv"
	h := ctx.Response().Header()
	h.Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	h.Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	ctx.Response().WriteHeader(http.StatusOK)

	if err := api.svc.ExportCSV(ctx.Request().Context(), ctx.Response(), filter, ordering.Orderings); err != nil {
		return errors.Wrap(err, "exporting entries")
	}
	return nil
}

func (api *financeApi) retrieve(ctx echo.Context) error {
	e, err := contextEntry(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

// update is partial: fields missing from the body keep their current values.
func (api *financeApi) update(ctx echo.Context) error {
	e, err := contextEntry(ctx)
	if err != nil {
		return err
	}

	data := finance.NewEntryFrom(e)
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	c := ctx.Request().Context()
	if err := data.Validate(c, api.validate, api.svc); err != nil {
		return err
	}

	e, err = api.svc.Update(c, e, data)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *financeApi) destroy(ctx echo.Context) error {
	e, err := contextEntry(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), e.ID); err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// summary totals the entries of `?from=&to=`, the current month by default.
func (api *financeApi) summary(ctx echo.Context) error {
	q := newQueryParams(ctx)
	period := q.DateRange("from", "to")
	if err := q.Err(); err != nil {
		return err
	}
	if period.From.IsZero() && period.To.IsZero() {
		period = core.MonthRange(core.Today())
	}

	s, err := api.svc.Summary(ctx.Request().Context(), period)
	if err != nil {
		return errors.Wrap(err, "summing entries")
	}
	return ctx.JSON(http.StatusOK, s)
}

// statement returns a member's giving over `?from=&to=`, the current year by default.
func (api *financeApi) statement(ctx echo.Context) error {
	q := newQueryParams(ctx)
	period := q.DateRange("from", "to")
	if err := q.Err(); err != nil {
		return err
	}
	if period.From.IsZero() && period.To.IsZero() {
		period = core.YearRange(core.Today().Year())
	}

	st, err := api.svc.Statement(ctx.Request().Context(), ctx.Param("id"), period)
	if err != nil {
		return errors.Wrap(err, "building statement")
	}
	if st.Entries == nil {
		st.Entries = []finance.Entry{}
	}
	return ctx.JSON(http.StatusOK, st)
}
