package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/airplane-seat-booking/internal/metrics"
)

// Metrics records request count, latency and in-flight gauges per route
// pattern.  Unmatched routes are grouped under "unknown" to keep label
// cardinality bounded.
func Metrics(m *metrics.Registry) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        if m == nil {
            return next
        }
        return func(c echo.Context) error {
            route := c.Path()
            if route == "" {
                route = "unknown"
            }
            method := c.Request().Method

            m.HTTPRequestsInFlight.WithLabelValues(route).Inc()
            defer m.HTTPRequestsInFlight.WithLabelValues(route).Dec()

            start := time.Now()
            err := next(c)
            if err != nil {
                // Let echo write the error response so the status is final.
                c.Error(err)
            }

            status := strconv.Itoa(c.Response().Status)
            m.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
            m.HTTPRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}
