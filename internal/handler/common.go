package handler // handler holds the echo HTTP glue over the booking services

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/airplane-seat-booking/internal/logging"
    "github.com/iliyamo/airplane-seat-booking/internal/middleware"
    "github.com/iliyamo/airplane-seat-booking/internal/service"
)

var errNoUser = errors.New("no authenticated user in context")

// getUserID returns the caller resolved by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    if id, ok := middleware.UserID(c); ok {
        return id, nil
    }
    return 0, errNoUser
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

func fail(c echo.Context, status int, code, msg string) error {
    return c.JSON(status, echo.Map{"error": msg, "code": code})
}

// serviceError maps an error from the service layer to a JSON response.
func serviceError(c echo.Context, err error) error {
    var invalid *service.InvalidSeatError
    switch {
    case errors.Is(err, service.ErrUnknownAirplane):
        return fail(c, http.StatusNotFound, "unknown_airplane", "airplane not found")
    case errors.As(err, &invalid):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error": err.Error(), "code": "invalid_seat", "seat": invalid.Code,
        })
    case errors.Is(err, service.ErrNoSeatsRequested):
        return fail(c, http.StatusUnprocessableEntity, "no_seats", "at least one seat is required")
    case errors.Is(err, service.ErrInvalidCount):
        return fail(c, http.StatusUnprocessableEntity, "invalid_count", "count must be a positive integer")
    case errors.Is(err, service.ErrDuplicateActiveBooking):
        return fail(c, http.StatusConflict, "duplicate_booking", "you already hold seats on this airplane")
    case errors.Is(err, service.ErrNotEnoughSeats):
        return fail(c, http.StatusConflict, "not_enough_seats", "not enough free seats")
    case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
        return fail(c, http.StatusServiceUnavailable, "timeout", "request timed out, try again")
    case errors.Is(err, service.ErrStorage):
        logging.L().Errorw("storage failure", "route", c.Path(), "error", err)
        return fail(c, http.StatusServiceUnavailable, "storage_error", "storage temporarily unavailable")
    default:
        logging.L().Errorw("unexpected handler error", "route", c.Path(), "error", err)
        return fail(c, http.StatusInternalServerError, "internal", "internal error")
    }
}
