package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/airplane-seat-booking/internal/logging"
)

// ContextRequestID is the echo context key holding the request id.
const ContextRequestID = "request_id"

// RequestID takes X-Request-ID from the request or generates one, stores it
// in the context and echoes it back in the response header.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(echo.HeaderXRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Set(ContextRequestID, id)
            c.Response().Header().Set(echo.HeaderXRequestID, id)
            return next(c)
        }
    }
}

// RequestLogger logs every request once on completion.  Register it after
// RequestID; the user id is read after the handler chain so routes behind
// JWTAuth report the caller.
func RequestLogger(log *zap.SugaredLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            rid, _ := c.Get(ContextRequestID).(string)
            fields := []interface{}{
                "request_id", rid,
                "method", c.Request().Method,
                "route", c.Path(),
                "status", c.Response().Status,
                "latency_ms", time.Since(start).Milliseconds(),
                "user_id", currentUserID(c),
            }
            l := logging.Or(log)
            if c.Response().Status >= 500 {
                l.Errorw("HTTP request completed", append(fields, "error", err)...)
            } else {
                l.Infow("HTTP request completed", fields...)
            }
            return nil
        }
    }
}
