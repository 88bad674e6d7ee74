package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/jmoiron/sqlx"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/airplane-seat-booking/internal/handler"
    "github.com/iliyamo/airplane-seat-booking/internal/metrics"
    "github.com/iliyamo/airplane-seat-booking/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: the health probe and
// the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db *sqlx.DB, m *metrics.Registry) {
    e.GET("/healthz", handler.Health(db))
    e.GET("/metrics", echo.WrapHandler(m.Handler()))
}

// RegisterAuth registers account and session routes.  Creating a user and
// opening or refreshing a session need no token; reading or closing the
// current session does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    e.POST("/api/users", a.Register)

    g := e.Group("/api/sessions")
    g.POST("", a.Login)
    g.POST("/refresh", a.Refresh)

    cur := g.Group("/current", middleware.JWTAuth(jwtSecret))
    cur.GET("", a.Current)
    cur.DELETE("", a.Logout)
}

// RegisterPublic registers the airplane browse endpoints.  The seat map
// accepts an optional token so signed-in callers see their own seats.
func RegisterPublic(e *echo.Echo, h *handler.AirplaneHandler, jwtSecret string) {
    g := e.Group("/api/airplanes")
    g.GET("", h.ListAirplanes)
    g.GET("/:id", h.GetSeatStatus)
    g.GET("/:id/seats", h.GetSeatMap, middleware.OptionalJWT(jwtSecret))
    g.GET("/:id/suggestions", h.SuggestSeats)
}
