package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/koinonia-app/koinonia/core/user"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "koinonia",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests, by method, route & status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "koinonia",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latencies, by method, route & status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// metricsMiddleware records every request in httpRequests & httpDuration.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		if err != nil {
			// let the error handler write the response so the status is final
			ctx.Error(err)
		}

		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ctx.Response().Status)
		httpRequests.WithLabelValues(ctx.Request().Method, route, status).Inc()
		httpDuration.WithLabelValues(ctx.Request().Method, route, status).Observe(time.Since(start).Seconds())
		return nil
	}
}

// adminMiddleware only lets admins through. With `roles`, the admin must hold one of them.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && (len(roles) == 0 || claims.HasRole(roles...)) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// roleMiddleware lets admins & users holding a role starting with one of `prefixes` through.
func roleMiddleware(prefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || claims.HasRole(prefixes...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

var (
	financeMiddleware   = roleMiddleware(user.RoleFinance)
	secretaryMiddleware = roleMiddleware(user.RoleSecretary)
	mediaMiddleware     = roleMiddleware(user.RoleMedia)
	staffMiddleware     = roleMiddleware(user.AllRoles...)
)
