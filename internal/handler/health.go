package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/jmoiron/sqlx"
    "github.com/labstack/echo/v4"
)

// Health answers load balancer probes.  With a database handle it also
// pings the store and reports 503 when the ping fails.
func Health(db *sqlx.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db == nil {
            return c.String(http.StatusOK, "ok")
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "database": "unreachable"})
        }
        return c.String(http.StatusOK, "ok")
    }
}
