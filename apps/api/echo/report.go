package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core/report"
)

type reportApi struct {
	svc report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt, staffMiddleware)
	rg.GET("/dashboard", api.dashboard)
	rg.GET("/charts", api.chartNames)
	rg.GET("/charts/:name", api.chart)
}

func (api *reportApi) dashboard(ctx echo.Context) error {
	q := newQueryParams(ctx)
	on := q.Date("date")
	if err := q.Err(); err != nil {
		return err
	}
	d, err := api.svc.Dashboard(ctx.Request().Context(), on)
	if err != nil {
		return errors.Wrap(err, "computing dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *reportApi) chartNames(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, report.ChartNames)
}

// chart renders `:name`. `?options=` is a JSON object deep-merged over the chart's default options.
func (api *reportApi) chart(ctx echo.Context) error {
	q := newQueryParams(ctx)
	params := report.ChartParams{
		Year:   q.Int("year", 0),
		Period: q.DateRange("from", "to"),
	}
	if err := q.Err(); err != nil {
		return err
	}
	opts, err := report.ParseOptions(ctx.QueryParam("options"))
	if err != nil {
		return err
	}
	params.Options = opts

	chart, err := api.svc.Chart(ctx.Request().Context(), ctx.Param("name"), params)
	if err != nil {
		return errors.Wrap(err, "building chart")
	}
	return ctx.JSON(http.StatusOK, chart)
}
