package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/itroad/users-service/internal/pkg/metrics"
)

// Metrics records request counts and latencies per matched route. Errors are
// rendered here so the recorded status is the one sent to the client, then
// passed on for the request logger; the error handler skips committed
// responses so nothing is written twice.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			code := strconv.Itoa(c.Response().Status)

			metrics.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
