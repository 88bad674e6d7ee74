package service

import (
	"context"
	"sync"

	"github.com/iliyamo/airplane-seat-booking/internal/model"
	"github.com/iliyamo/airplane-seat-booking/internal/queue"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
)

// fakeAirplanes serves airplanes from a map; getFn overrides it when set.
type fakeAirplanes struct {
	planes map[uint64]model.Airplane
	getFn  func(ctx context.Context, id uint64) (model.Airplane, error)
	listFn func(ctx context.Context) ([]model.AirplaneOccupancy, error)
}

func (f *fakeAirplanes) GetByID(ctx context.Context, id uint64) (model.Airplane, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	a, ok := f.planes[id]
	if !ok {
		return model.Airplane{}, repository.ErrAirplaneNotFound
	}
	return a, nil
}

func (f *fakeAirplanes) ListWithOccupancy(ctx context.Context) ([]model.AirplaneOccupancy, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

// fakeBookings is an in-memory booking table. Each *Fn field, when set,
// replaces the default behavior of its method.
type fakeBookings struct {
	mu   sync.Mutex
	rows []model.Booking

	listByAirplaneFn func(ctx context.Context, airplaneID uint64) ([]model.Booking, error)
	listByUserFn     func(ctx context.Context, userID, airplaneID uint64) ([]model.Booking, error)
	insertManyFn     func(ctx context.Context, airplaneID, userID uint64, codes []string) error
	deleteFn         func(ctx context.Context, userID, airplaneID uint64) (int64, error)

	inserts int
}

func (f *fakeBookings) ListByAirplane(ctx context.Context, airplaneID uint64) ([]model.Booking, error) {
	if f.listByAirplaneFn != nil {
		return f.listByAirplaneFn(ctx, airplaneID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.rows {
		if b.AirplaneID == airplaneID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) ListByUserAndAirplane(ctx context.Context, userID, airplaneID uint64) ([]model.Booking, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID, airplaneID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.rows {
		if b.AirplaneID == airplaneID && b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) InsertMany(ctx context.Context, airplaneID, userID uint64, codes []string) error {
	f.mu.Lock()
	f.inserts++
	f.mu.Unlock()
	if f.insertManyFn != nil {
		return f.insertManyFn(ctx, airplaneID, userID, codes)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range codes {
		f.rows = append(f.rows, model.Booking{ID: uint64(len(f.rows) + 1), AirplaneID: airplaneID, UserID: userID, SeatCode: c})
	}
	return nil
}

func (f *fakeBookings) DeleteByUserAndAirplane(ctx context.Context, userID, airplaneID uint64) (int64, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, airplaneID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var n int64
	for _, b := range f.rows {
		if b.AirplaneID == airplaneID && b.UserID == userID {
			n++
			continue
		}
		kept = append(kept, b)
	}
	f.rows = kept
	return n, nil
}

func (f *fakeBookings) insertCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}
