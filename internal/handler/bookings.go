package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/airplane-seat-booking/internal/service"
)

// BookingHandler serves the authenticated booking endpoints.
type BookingHandler struct {
    Allocator *service.Allocator
    Catalog   *service.Catalog
    Timeout   time.Duration // per-request budget for Allocate and Release
}

func NewBookingHandler(alloc *service.Allocator, catalog *service.Catalog, timeout time.Duration) *BookingHandler {
    if alloc == nil || catalog == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    if timeout <= 0 {
        timeout = 5 * time.Second
    }
    return &BookingHandler{Allocator: alloc, Catalog: catalog, Timeout: timeout}
}

type createBookingReq struct {
    AirplaneID uint64   `json:"airplane_id"`
    Seats      []string `json:"seats"`
}

type bookingResp struct {
    Booked       bool     `json:"booked"`
    SeatCount    int      `json:"seat_count,omitempty"`
    Seats        []string `json:"seats,omitempty"`
    AlreadyTaken []string `json:"already_taken,omitempty"`
}

// GetUserSeats: GET /api/bookings/:airplane_id
func (h *BookingHandler) GetUserSeats(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
    }
    airplaneID, ok := parseID(c, "airplane_id")
    if !ok {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid airplane id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    mine, err := h.Catalog.UserSeats(ctx, uid, airplaneID)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"airplane_id": airplaneID, "seats": codesOrEmpty(mine)})
}

// CreateBooking: POST /api/bookings
//
// 201 with the committed seats, or 409 listing the requested seats that
// someone else already holds.  Nothing is booked in the 409 case.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
    }
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid body")
    }
    if req.AirplaneID == 0 {
        return fail(c, http.StatusBadRequest, "bad_request", "airplane_id required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
    defer cancel()

    res, err := h.Allocator.Allocate(ctx, uid, req.AirplaneID, req.Seats)
    if err != nil {
        return serviceError(c, err)
    }
    if !res.Booked() {
        taken := res.AlreadyTaken
        if taken == nil {
            taken = []string{}
        }
        return c.JSON(http.StatusConflict, echo.Map{
            "booked":        false,
            "code":          "seats_taken",
            "error":         "some seats are already booked",
            "already_taken": taken,
        })
    }
    return c.JSON(http.StatusCreated, bookingResp{Booked: true, SeatCount: res.SeatCount, Seats: res.Seats})
}

// DeleteBooking: DELETE /api/bookings/:airplane_id
//
// Releases every seat the caller holds on the airplane.  Releasing nothing
// is not an error.
func (h *BookingHandler) DeleteBooking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
    }
    airplaneID, ok := parseID(c, "airplane_id")
    if !ok {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid airplane id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
    defer cancel()

    n, err := h.Allocator.Release(ctx, uid, airplaneID)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"released": n})
}
