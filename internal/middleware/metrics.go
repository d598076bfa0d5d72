package middleware

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/metrics"
)

// Metrics records request counts and latency per route template.
// Unmatched paths are folded into one label to bound cardinality.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)

            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            status := c.Response().Status
            if err != nil {
                var he *echo.HTTPError
                if errors.As(err, &he) {
                    status = he.Code
                } else if status < http.StatusBadRequest {
                    status = http.StatusInternalServerError
                }
            }
            method := c.Request().Method
            metrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
            metrics.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
