package service

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/iliyamo/airplane-seat-booking/internal/metrics"
	"github.com/iliyamo/airplane-seat-booking/internal/model"
	"github.com/iliyamo/airplane-seat-booking/internal/queue"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
)

var smallPlane = model.Airplane{ID: 1, Type: "local", TotalRows: 2, TotalColumns: 2}

func newTestAllocator(b *fakeBookings, opts ...AllocatorOption) *Allocator {
	planes := &fakeAirplanes{planes: map[uint64]model.Airplane{smallPlane.ID: smallPlane}}
	opts = append([]AllocatorOption{WithLogger(zap.NewNop().Sugar())}, opts...)
	return NewAllocator(planes, b, opts...)
}

func TestAllocateEmptySeatListNeverReachesStorage(t *testing.T) {
	planes := &fakeAirplanes{getFn: func(context.Context, uint64) (model.Airplane, error) {
		t.Fatal("airplane repository called")
		return model.Airplane{}, nil
	}}
	b := &fakeBookings{
		listByAirplaneFn: func(context.Context, uint64) ([]model.Booking, error) {
			t.Fatal("booking repository called")
			return nil, nil
		},
		listByUserFn: func(context.Context, uint64, uint64) ([]model.Booking, error) {
			t.Fatal("booking repository called")
			return nil, nil
		},
	}
	a := NewAllocator(planes, b, WithLogger(zap.NewNop().Sugar()))

	for _, seats := range [][]string{nil, {}} {
		if _, err := a.Allocate(context.Background(), 1, 1, seats); !errors.Is(err, ErrNoSeatsRequested) {
			t.Fatalf("Allocate(%v) err = %v, want ErrNoSeatsRequested", seats, err)
		}
	}
	if b.insertCalls() != 0 {
		t.Fatal("InsertMany called")
	}
}

func TestAllocateUnknownAirplane(t *testing.T) {
	b := &fakeBookings{}
	a := newTestAllocator(b)
	if _, err := a.Allocate(context.Background(), 1, 42, []string{"1A"}); !errors.Is(err, ErrUnknownAirplane) {
		t.Fatalf("err = %v, want ErrUnknownAirplane", err)
	}
	if _, err := a.Release(context.Background(), 1, 42); !errors.Is(err, ErrUnknownAirplane) {
		t.Fatalf("Release err = %v, want ErrUnknownAirplane", err)
	}
}

func TestAllocateInvalidSeatRejectsWholeRequest(t *testing.T) {
	for _, bad := range []string{"3A", "1C", "0A", "A1", "1", "1AA"} {
		t.Run(bad, func(t *testing.T) {
			b := &fakeBookings{}
			a := newTestAllocator(b)
			_, err := a.Allocate(context.Background(), 1, smallPlane.ID, []string{"1A", bad})
			if !errors.Is(err, ErrInvalidSeatFormat) {
				t.Fatalf("err = %v, want ErrInvalidSeatFormat", err)
			}
			var ise *InvalidSeatError
			if !errors.As(err, &ise) || ise.Code != bad {
				t.Fatalf("err = %#v, want InvalidSeatError for %q", err, bad)
			}
			if b.insertCalls() != 0 {
				t.Fatal("InsertMany called for invalid request")
			}
		})
	}
}

func TestAllocateDuplicateActiveBooking(t *testing.T) {
	b := &fakeBookings{rows: []model.Booking{{ID: 1, AirplaneID: 1, UserID: 7, SeatCode: "2B"}}}
	a := newTestAllocator(b)

	// any request, even for free seats or the seat already held, is rejected
	for _, seats := range [][]string{{"1A"}, {"2B"}, {"1A", "1B", "2A"}} {
		if _, err := a.Allocate(context.Background(), 7, 1, seats); !errors.Is(err, ErrDuplicateActiveBooking) {
			t.Fatalf("Allocate(%v) err = %v, want ErrDuplicateActiveBooking", seats, err)
		}
	}
	if b.insertCalls() != 0 {
		t.Fatal("InsertMany called")
	}
}

func TestAllocateConflictReportsExactlyTakenSubset(t *testing.T) {
	b := &fakeBookings{rows: []model.Booking{
		{ID: 1, AirplaneID: 1, UserID: 8, SeatCode: "1B"},
		{ID: 2, AirplaneID: 1, UserID: 8, SeatCode: "2A"},
	}}
	a := newTestAllocator(b)

	res, err := a.Allocate(context.Background(), 7, 1, []string{"2a", "1A", "1b"})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if res.Outcome != OutcomeConflict || res.Booked() {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if !reflect.DeepEqual(res.AlreadyTaken, []string{"2A", "1B"}) {
		t.Fatalf("AlreadyTaken = %v, want [2A 1B]", res.AlreadyTaken)
	}
	if b.insertCalls() != 0 || len(b.rows) != 2 {
		t.Fatalf("table changed: inserts=%d rows=%d", b.insertCalls(), len(b.rows))
	}
}

func TestAllocateBookedCanonicalAndDeduplicated(t *testing.T) {
	b := &fakeBookings{}
	a := newTestAllocator(b)

	res, err := a.Allocate(context.Background(), 7, 1, []string{"1a", "01A", "2b"})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if !res.Booked() || res.SeatCount != 2 {
		t.Fatalf("result = %+v, want 2 booked seats", res)
	}
	if !reflect.DeepEqual(model.SeatCodes(b.rows), []string{"1A", "2B"}) {
		t.Fatalf("rows = %v", b.rows)
	}
	for _, r := range b.rows {
		if r.UserID != 7 || r.AirplaneID != 1 {
			t.Fatalf("row %+v has wrong owner", r)
		}
	}
}

// The occupancy check passes, then another request commits 1A before our
// insert: the unique constraint fires and must surface as a conflict.
func TestAllocateInsertUniqueViolationBecomesConflict(t *testing.T) {
	calls := 0
	b := &fakeBookings{}
	b.listByAirplaneFn = func(context.Context, uint64) ([]model.Booking, error) {
		calls++
		if calls == 1 {
			return nil, nil
		}
		return []model.Booking{{ID: 9, AirplaneID: 1, UserID: 8, SeatCode: "1A"}}, nil
	}
	b.insertManyFn = func(context.Context, uint64, uint64, []string) error {
		return repository.ErrSeatTaken
	}
	a := newTestAllocator(b)

	res, err := a.Allocate(context.Background(), 7, 1, []string{"1A", "1B"})
	if err != nil {
		t.Fatalf("err = %v, want conflict result", err)
	}
	if res.Outcome != OutcomeConflict || !reflect.DeepEqual(res.AlreadyTaken, []string{"1A"}) {
		t.Fatalf("result = %+v", res)
	}
	if calls != 2 {
		t.Fatalf("taken list derived %d times, want 2", calls)
	}
}

func TestAllocateInsertActiveBookingBecomesDuplicate(t *testing.T) {
	b := &fakeBookings{insertManyFn: func(context.Context, uint64, uint64, []string) error {
		return repository.ErrActiveBookingExists
	}}
	a := newTestAllocator(b)
	if _, err := a.Allocate(context.Background(), 7, 1, []string{"1A"}); !errors.Is(err, ErrDuplicateActiveBooking) {
		t.Fatalf("err = %v, want ErrDuplicateActiveBooking", err)
	}
}

func TestAllocateStorageErrors(t *testing.T) {
	boom := sql.ErrConnDone
	cases := map[string]func(b *fakeBookings){
		"list user": func(b *fakeBookings) {
			b.listByUserFn = func(context.Context, uint64, uint64) ([]model.Booking, error) { return nil, boom }
		},
		"list airplane": func(b *fakeBookings) {
			b.listByAirplaneFn = func(context.Context, uint64) ([]model.Booking, error) { return nil, boom }
		},
		"insert": func(b *fakeBookings) {
			b.insertManyFn = func(context.Context, uint64, uint64, []string) error { return boom }
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			b := &fakeBookings{}
			setup(b)
			a := newTestAllocator(b)
			_, err := a.Allocate(context.Background(), 7, 1, []string{"1A"})
			if !errors.Is(err, ErrStorage) || !errors.Is(err, boom) {
				t.Fatalf("err = %v, want StorageError wrapping %v", err, boom)
			}
			var se *StorageError
			if !errors.As(err, &se) || se.Op == "" {
				t.Fatalf("err = %#v, want *StorageError with op", err)
			}
		})
	}
}

func TestAllocateCancelledBeforeInsertWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &fakeBookings{}
	b.listByAirplaneFn = func(context.Context, uint64) ([]model.Booking, error) {
		cancel() // caller gives up while the occupancy check runs
		return nil, nil
	}
	a := newTestAllocator(b)

	_, err := a.Allocate(ctx, 7, 1, []string{"1A"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrStorage) {
		t.Fatal("cancellation reported as storage error")
	}
	if b.insertCalls() != 0 {
		t.Fatal("InsertMany called after cancellation")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	b := &fakeBookings{rows: []model.Booking{
		{ID: 1, AirplaneID: 1, UserID: 7, SeatCode: "1A"},
		{ID: 2, AirplaneID: 1, UserID: 7, SeatCode: "1B"},
		{ID: 3, AirplaneID: 1, UserID: 8, SeatCode: "2A"},
	}}
	pub := &fakePublisher{}
	a := newTestAllocator(b, WithPublisher(pub))

	n, err := a.Release(context.Background(), 7, 1)
	if err != nil || n != 2 {
		t.Fatalf("first Release = %d, %v; want 2", n, err)
	}
	n, err = a.Release(context.Background(), 7, 1)
	if err != nil || n != 0 {
		t.Fatalf("second Release = %d, %v; want 0", n, err)
	}
	if len(b.rows) != 1 || b.rows[0].UserID != 8 {
		t.Fatalf("rows = %+v", b.rows)
	}
	if len(pub.events) != 1 || pub.events[0].Type != queue.EventBookingReleased || pub.events[0].SeatCount != 2 {
		t.Fatalf("events = %+v, want one release event", pub.events)
	}
}

func TestAllocatePublishesEventAndIgnoresPublishFailure(t *testing.T) {
	b := &fakeBookings{}
	pub := &fakePublisher{err: errors.New("broker down")}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := newTestAllocator(b, WithPublisher(pub), WithClock(func() time.Time { return at }))

	res, err := a.Allocate(context.Background(), 7, 1, []string{"1A", "1B"})
	if err != nil || !res.Booked() {
		t.Fatalf("Allocate = %+v, %v", res, err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != queue.EventBookingCreated || ev.AirplaneType != "local" || ev.UserID != 7 ||
		!reflect.DeepEqual(ev.Seats, []string{"1A", "1B"}) || ev.OccurredAt != "2024-05-01T12:00:00Z" || ev.ID == "" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestAllocateRecordsOutcomeMetrics(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry())
	b := &fakeBookings{}
	a := newTestAllocator(b, WithMetrics(reg))
	ctx := context.Background()

	_, _ = a.Allocate(ctx, 7, 1, []string{"1A"})
	_, _ = a.Allocate(ctx, 8, 1, []string{"1A"})
	_, _ = a.Allocate(ctx, 8, 1, []string{"9Z"})
	_, _ = a.Allocate(ctx, 8, 1, nil)

	for outcome, want := range map[string]float64{"booked": 1, "conflict": 1, "invalid": 2} {
		if got := testutil.ToFloat64(reg.AllocationsTotal.WithLabelValues(outcome)); got != want {
			t.Fatalf("%s = %v, want %v", outcome, got, want)
		}
	}
	if got := testutil.ToFloat64(reg.SeatsBookedTotal); got != 1 {
		t.Fatalf("seats booked = %v", got)
	}
}
