package service

import (
	"context"
	"errors"

	"github.com/iliyamo/airplane-seat-booking/internal/model"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
	"github.com/iliyamo/airplane-seat-booking/internal/seatmap"
)

// AirplaneCatalog is the read side of the airplane repository.
type AirplaneCatalog interface {
	AirplaneReader
	ListWithOccupancy(ctx context.Context) ([]model.AirplaneOccupancy, error)
}

// BookingReader is the read side of the booking repository.
type BookingReader interface {
	ListByAirplane(ctx context.Context, airplaneID uint64) ([]model.Booking, error)
	ListByUserAndAirplane(ctx context.Context, userID, airplaneID uint64) ([]model.Booking, error)
}

// Catalog serves the read views: fleet listing, seat status, a user's
// seats and the projected seat map.  Nothing here is cached except
// airplane geometry inside the repository.
type Catalog struct {
	airplanes AirplaneCatalog
	bookings  BookingReader
}

func NewCatalog(airplanes AirplaneCatalog, bookings BookingReader) *Catalog {
	return &Catalog{airplanes: airplanes, bookings: bookings}
}

// SeatStatus is an airplane with every seat currently booked on it.
type SeatStatus struct {
	Airplane    model.Airplane
	BookedSeats []model.Booking
}

// SeatMap is the projected grid for one airplane and caller.
type SeatMap struct {
	Airplane  model.Airplane
	Entries   []seatmap.Entry
	FreeCount int
}

// ListAirplanes returns every airplane with its current number of taken seats.
func (c *Catalog) ListAirplanes(ctx context.Context) ([]model.AirplaneOccupancy, error) {
	list, err := c.airplanes.ListWithOccupancy(ctx)
	if err != nil {
		return nil, storageErr("list airplanes", err)
	}
	return list, nil
}

// SeatStatus returns the airplane and all of its booked seats.
func (c *Catalog) SeatStatus(ctx context.Context, airplaneID uint64) (SeatStatus, error) {
	a, err := c.airplane(ctx, airplaneID)
	if err != nil {
		return SeatStatus{}, err
	}
	all, err := c.bookings.ListByAirplane(ctx, airplaneID)
	if err != nil {
		return SeatStatus{}, storageErr("list airplane bookings", err)
	}
	return SeatStatus{Airplane: a, BookedSeats: all}, nil
}

// UserSeats returns the seats the user holds on the airplane.
func (c *Catalog) UserSeats(ctx context.Context, userID, airplaneID uint64) ([]model.Booking, error) {
	if _, err := c.airplane(ctx, airplaneID); err != nil {
		return nil, err
	}
	mine, err := c.bookings.ListByUserAndAirplane(ctx, userID, airplaneID)
	if err != nil {
		return nil, storageErr("list user bookings", err)
	}
	return mine, nil
}

// SeatMap projects the full grid of the airplane.  userID 0 is the
// anonymous view, in which no seat is owned by the caller.
func (c *Catalog) SeatMap(ctx context.Context, airplaneID, userID uint64) (SeatMap, error) {
	a, err := c.airplane(ctx, airplaneID)
	if err != nil {
		return SeatMap{}, err
	}
	all, err := c.bookings.ListByAirplane(ctx, airplaneID)
	if err != nil {
		return SeatMap{}, storageErr("list airplane bookings", err)
	}
	var mine []model.Booking
	if userID != 0 {
		for _, b := range all {
			if b.UserID == userID {
				mine = append(mine, b)
			}
		}
	}
	entries := seatmap.Project(a, all, mine)
	return SeatMap{Airplane: a, Entries: entries, FreeCount: seatmap.FreeCount(entries)}, nil
}

// SuggestSeats picks the first count free seats in row-major order.
func (c *Catalog) SuggestSeats(ctx context.Context, airplaneID uint64, count int) ([]string, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	m, err := c.SeatMap(ctx, airplaneID, 0)
	if err != nil {
		return nil, err
	}
	if m.FreeCount < count {
		return nil, ErrNotEnoughSeats
	}
	return seatmap.FirstFree(m.Entries, count), nil
}

func (c *Catalog) airplane(ctx context.Context, id uint64) (model.Airplane, error) {
	a, err := c.airplanes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAirplaneNotFound) {
			return model.Airplane{}, ErrUnknownAirplane
		}
		return model.Airplane{}, storageErr("lookup airplane", err)
	}
	return a, nil
}
