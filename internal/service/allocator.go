package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/airplane-seat-booking/internal/logging"
	"github.com/iliyamo/airplane-seat-booking/internal/metrics"
	"github.com/iliyamo/airplane-seat-booking/internal/model"
	"github.com/iliyamo/airplane-seat-booking/internal/queue"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
	"github.com/iliyamo/airplane-seat-booking/internal/seatmap"
)

// AirplaneReader resolves airplane geometry.
type AirplaneReader interface {
	GetByID(ctx context.Context, id uint64) (model.Airplane, error)
}

// BookingStore is the subset of the booking repository the allocator uses.
type BookingStore interface {
	ListByAirplane(ctx context.Context, airplaneID uint64) ([]model.Booking, error)
	ListByUserAndAirplane(ctx context.Context, userID, airplaneID uint64) ([]model.Booking, error)
	InsertMany(ctx context.Context, airplaneID, userID uint64, seatCodes []string) error
	DeleteByUserAndAirplane(ctx context.Context, userID, airplaneID uint64) (int64, error)
}

// EventPublisher delivers booking events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Outcome tags an allocation result.
type Outcome string

const (
	OutcomeBooked   Outcome = "booked"
	OutcomeConflict Outcome = "conflict"
)

// Result is the non-error outcome of Allocate.  Booked results carry the
// committed seats; conflict results carry the requested seats that were
// already taken, in request order.
type Result struct {
	Outcome      Outcome
	SeatCount    int
	Seats        []string
	AlreadyTaken []string
}

// Booked reports whether the seats were committed.
func (r Result) Booked() bool { return r.Outcome == OutcomeBooked }

// Allocator validates booking requests and commits them all-or-nothing.
// It is safe for concurrent use; all shared state lives in the store.
type Allocator struct {
	airplanes    AirplaneReader
	bookings     BookingStore
	publisher    EventPublisher
	metrics      *metrics.Registry
	log          *zap.SugaredLogger
	now          func() time.Time
	publishLimit time.Duration
}

// AllocatorOption configures an Allocator.
type AllocatorOption func(*Allocator)

// WithPublisher sends booking events after commits and releases.
func WithPublisher(p EventPublisher) AllocatorOption {
	return func(a *Allocator) { a.publisher = p }
}

// WithMetrics records allocation outcomes on reg.
func WithMetrics(reg *metrics.Registry) AllocatorOption {
	return func(a *Allocator) { a.metrics = reg }
}

// WithLogger replaces the global logger.
func WithLogger(l *zap.SugaredLogger) AllocatorOption {
	return func(a *Allocator) { a.log = l }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) AllocatorOption {
	return func(a *Allocator) { a.now = now }
}

// NewAllocator wires an Allocator over the given repositories.
func NewAllocator(airplanes AirplaneReader, bookings BookingStore, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		airplanes:    airplanes,
		bookings:     bookings,
		now:          time.Now,
		publishLimit: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logging.Or(a.log)
	return a
}

// Allocate books seatCodes on the airplane for the user.  It returns a
// Result for booked and conflict outcomes, and an error for everything
// else: ErrNoSeatsRequested, ErrUnknownAirplane, *InvalidSeatError,
// ErrDuplicateActiveBooking or *StorageError.  A cancelled ctx aborts the
// request up to the moment the insert starts; the insert itself always
// runs to commit or rollback.
func (a *Allocator) Allocate(ctx context.Context, userID, airplaneID uint64, seatCodes []string) (res Result, err error) {
	start := time.Now()
	defer func() { a.observe(start, res, err) }()

	if len(seatCodes) == 0 {
		return Result{}, ErrNoSeatsRequested
	}
	log := a.log.With("airplane_id", airplaneID, "user_id", userID)

	if err := ctx.Err(); err != nil {
		return Result{}, aborted(err)
	}
	airplane, err := a.airplanes.GetByID(ctx, airplaneID)
	if err != nil {
		if errors.Is(err, repository.ErrAirplaneNotFound) {
			return Result{}, ErrUnknownAirplane
		}
		return Result{}, a.fault(ctx, log, "lookup airplane", err)
	}

	seats, err := canonicalize(seatCodes, airplane)
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, aborted(err)
	}
	held, err := a.bookings.ListByUserAndAirplane(ctx, userID, airplaneID)
	if err != nil {
		return Result{}, a.fault(ctx, log, "list user bookings", err)
	}
	if len(held) > 0 {
		log.Infow("allocation rejected: active booking exists", "held", len(held))
		return Result{}, ErrDuplicateActiveBooking
	}

	if err := ctx.Err(); err != nil {
		return Result{}, aborted(err)
	}
	taken, err := a.bookings.ListByAirplane(ctx, airplaneID)
	if err != nil {
		return Result{}, a.fault(ctx, log, "list airplane bookings", err)
	}
	if conflict := intersect(seats, taken); len(conflict) > 0 {
		log.Infow("allocation conflict", "already_taken", conflict)
		return Result{Outcome: OutcomeConflict, AlreadyTaken: conflict}, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, aborted(err)
	}
	err = a.bookings.InsertMany(ctx, airplaneID, userID, seats)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrSeatTaken):
		// lost a race after the occupancy check; report what is taken now
		taken, lerr := a.bookings.ListByAirplane(context.WithoutCancel(ctx), airplaneID)
		if lerr != nil {
			return Result{}, a.fault(context.Background(), log, "list airplane bookings", lerr)
		}
		conflict := intersect(seats, taken)
		log.Infow("allocation conflict at insert", "already_taken", conflict)
		return Result{Outcome: OutcomeConflict, AlreadyTaken: conflict}, nil
	case errors.Is(err, repository.ErrActiveBookingExists):
		log.Infow("allocation rejected at insert: active booking exists")
		return Result{}, ErrDuplicateActiveBooking
	case errors.Is(err, repository.ErrAirplaneNotFound):
		return Result{}, ErrUnknownAirplane
	default:
		return Result{}, a.fault(context.Background(), log, "insert bookings", err)
	}

	log.Infow("seats booked", "seats", seats)
	a.publish(ctx, log, queue.BookingEvent{
		Type:         queue.EventBookingCreated,
		AirplaneID:   airplaneID,
		AirplaneType: airplane.Type,
		UserID:       userID,
		Seats:        seats,
		SeatCount:    len(seats),
	})
	return Result{Outcome: OutcomeBooked, SeatCount: len(seats), Seats: seats}, nil
}

// Release deletes every seat the user holds on the airplane and returns the
// number removed.  Releasing with nothing held succeeds with zero.
func (a *Allocator) Release(ctx context.Context, userID, airplaneID uint64) (int64, error) {
	log := a.log.With("airplane_id", airplaneID, "user_id", userID)
	airplane, err := a.airplanes.GetByID(ctx, airplaneID)
	if err != nil {
		if errors.Is(err, repository.ErrAirplaneNotFound) {
			return 0, ErrUnknownAirplane
		}
		return 0, a.fault(ctx, log, "lookup airplane", err)
	}
	n, err := a.bookings.DeleteByUserAndAirplane(ctx, userID, airplaneID)
	if err != nil {
		return 0, a.fault(ctx, log, "delete bookings", err)
	}
	a.metrics.ObserveRelease(n)
	if n == 0 {
		return 0, nil
	}
	log.Infow("seats released", "count", n)
	a.publish(ctx, log, queue.BookingEvent{
		Type:         queue.EventBookingReleased,
		AirplaneID:   airplaneID,
		AirplaneType: airplane.Type,
		UserID:       userID,
		SeatCount:    int(n),
	})
	return n, nil
}

// canonicalize parses every code against the airplane and returns the
// canonical codes in request order with duplicates removed.
func canonicalize(codes []string, airplane model.Airplane) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		c, err := seatmap.Canonical(code, airplane.TotalRows, airplane.TotalColumns)
		if err != nil {
			return nil, &InvalidSeatError{Code: code}
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// intersect returns the members of requested present in taken, in
// requested order.
func intersect(requested []string, taken []model.Booking) []string {
	set := make(map[string]struct{}, len(taken))
	for _, b := range taken {
		set[b.SeatCode] = struct{}{}
	}
	var out []string
	for _, code := range requested {
		if _, ok := set[code]; ok {
			out = append(out, code)
		}
	}
	return out
}

func aborted(err error) error {
	return fmt.Errorf("allocation aborted: %w", err)
}

// fault classifies a repository failure: the caller's own cancellation is
// reported as such, anything else is a storage error.
func (a *Allocator) fault(ctx context.Context, log *zap.SugaredLogger, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return aborted(ctxErr)
	}
	log.Errorw("storage failure", "op", op, "error", err)
	return storageErr(op, err)
}

func (a *Allocator) publish(ctx context.Context, log *zap.SugaredLogger, ev queue.BookingEvent) {
	if a.publisher == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = a.now().UTC().Format(time.RFC3339)
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.publishLimit)
	defer cancel()
	if err := a.publisher.Publish(pctx, ev); err != nil {
		log.Warnw("publish booking event failed", "event", ev.Type, "error", err)
	}
}

func (a *Allocator) observe(start time.Time, res Result, err error) {
	if a.metrics == nil {
		return
	}
	outcome := string(res.Outcome)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSeatsRequested), errors.Is(err, ErrInvalidSeatFormat):
		outcome = "invalid"
	case errors.Is(err, ErrUnknownAirplane):
		outcome = "unknown_airplane"
	case errors.Is(err, ErrDuplicateActiveBooking):
		outcome = "duplicate"
	case errors.Is(err, ErrStorage):
		outcome = "storage_error"
	default:
		outcome = "aborted"
	}
	a.metrics.ObserveAllocation(outcome, time.Since(start), res.SeatCount)
}
