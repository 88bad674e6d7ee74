package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/airplane-seat-booking/internal/model"
    "github.com/iliyamo/airplane-seat-booking/internal/seatmap"
    "github.com/iliyamo/airplane-seat-booking/internal/service"
)

// AirplaneHandler serves the public read views of the fleet.
type AirplaneHandler struct {
    Catalog *service.Catalog
}

func NewAirplaneHandler(catalog *service.Catalog) *AirplaneHandler {
    if catalog == nil {
        panic("nil catalog passed to NewAirplaneHandler")
    }
    return &AirplaneHandler{Catalog: catalog}
}

type seatStatusResp struct {
    Airplane    model.Airplane `json:"airplane"`
    BookedSeats []string       `json:"booked_seats"`
}

type seatMapResp struct {
    Airplane  model.Airplane  `json:"airplane"`
    FreeCount int             `json:"free_count"`
    Seats     []seatmap.Entry `json:"seats"`
}

// ListAirplanes: GET /api/airplanes
func (h *AirplaneHandler) ListAirplanes(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    list, err := h.Catalog.ListAirplanes(ctx)
    if err != nil {
        return serviceError(c, err)
    }
    if list == nil {
        list = []model.AirplaneOccupancy{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// GetSeatStatus: GET /api/airplanes/:id
func (h *AirplaneHandler) GetSeatStatus(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid airplane id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    st, err := h.Catalog.SeatStatus(ctx, id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, seatStatusResp{Airplane: st.Airplane, BookedSeats: codesOrEmpty(st.BookedSeats)})
}

// GetSeatMap: GET /api/airplanes/:id/seats (caller optional)
func (h *AirplaneHandler) GetSeatMap(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid airplane id")
    }
    uid, _ := getUserID(c) // 0 renders the anonymous view

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    m, err := h.Catalog.SeatMap(ctx, id, uid)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, seatMapResp{Airplane: m.Airplane, FreeCount: m.FreeCount, Seats: m.Entries})
}

// SuggestSeats: GET /api/airplanes/:id/suggestions?count=N
func (h *AirplaneHandler) SuggestSeats(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid airplane id")
    }
    count, err := strconv.Atoi(c.QueryParam("count"))
    if err != nil {
        return fail(c, http.StatusUnprocessableEntity, "invalid_count", "count must be a positive integer")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    seats, err := h.Catalog.SuggestSeats(ctx, id, count)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

func codesOrEmpty(b []model.Booking) []string {
    codes := model.SeatCodes(b)
    if codes == nil {
        return []string{}
    }
    return codes
}
