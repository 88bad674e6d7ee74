package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/airplane-seat-booking/internal/handler"
    "github.com/iliyamo/airplane-seat-booking/internal/middleware"
)

// RegisterCustomer registers the booking endpoints under /api/bookings.  All
// routes require a valid JWT; the mutations also pass through limiter so a
// single caller cannot hammer the allocator.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group("/api/bookings", middleware.JWTAuth(jwtSecret))
    g.GET("/:airplane_id", h.GetUserSeats)
    g.POST("", h.CreateBooking, limiter)
    g.DELETE("/:airplane_id", h.DeleteBooking, limiter)
}
