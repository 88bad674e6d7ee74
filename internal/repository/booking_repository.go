package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/airplane-seat-booking/internal/database"
	"github.com/iliyamo/airplane-seat-booking/internal/model"
)

// BookingRepo owns the lifecycle of rows in the bookings table.
type BookingRepo struct {
	db      *sqlx.DB
	dialect database.Dialect
}

// NewBookingRepo constructs a BookingRepo for db's driver.
func NewBookingRepo(db *sqlx.DB) (*BookingRepo, error) {
	d, err := database.DialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	return &BookingRepo{db: db, dialect: d}, nil
}

const bookingColumns = `booking_id, airplane_id, user_id, seatcode`

// ListByAirplane returns every booked seat on the airplane, any user,
// in insertion order.
func (r *BookingRepo) ListByAirplane(ctx context.Context, airplaneID uint64) ([]model.Booking, error) {
	out := []model.Booking{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT `+bookingColumns+` FROM bookings WHERE airplane_id = ? ORDER BY booking_id`), airplaneID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUserAndAirplane returns the seats one user holds on one airplane.
func (r *BookingRepo) ListByUserAndAirplane(ctx context.Context, userID, airplaneID uint64) ([]model.Booking, error) {
	out := []model.Booking{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? AND airplane_id = ? ORDER BY booking_id`),
		userID, airplaneID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMany books every seat in seatCodes for the user in one
// transaction: either all rows are committed or none are.  Inside the
// transaction the airplane row is locked, so concurrent batches for the
// same airplane run one after another, and the user's existing seats are
// re-checked.  Returns ErrActiveBookingExists when the user already holds
// seats, ErrSeatTaken when any seat is booked, ErrAirplaneNotFound when the
// airplane is gone.
//
// The transaction ignores cancellation of ctx: once started it always
// commits or rolls back.
func (r *BookingRepo) InsertMany(ctx context.Context, airplaneID, userID uint64, seatCodes []string) error {
	if len(seatCodes) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	err = tx.GetContext(ctx, &locked, tx.Rebind(
		`SELECT airplane_id FROM airplanes WHERE airplane_id = ?`+r.dialect.ForUpdate()), airplaneID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAirplaneNotFound
		}
		return fmt.Errorf("lock airplane %d: %w", airplaneID, err)
	}

	var held int
	if err := tx.GetContext(ctx, &held, tx.Rebind(
		`SELECT COUNT(*) FROM bookings WHERE user_id = ? AND airplane_id = ?`), userID, airplaneID); err != nil {
		return fmt.Errorf("count held seats: %w", err)
	}
	if held > 0 {
		return ErrActiveBookingExists
	}

	if err := insertBookingsTx(ctx, tx, airplaneID, userID, seatCodes); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSeatTaken
		}
		return fmt.Errorf("insert bookings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bookings: %w", err)
	}
	committed = true
	return nil
}

// insertBookingsTx writes all seats with one multi-row INSERT.
func insertBookingsTx(ctx context.Context, tx *sqlx.Tx, airplaneID, userID uint64, seatCodes []string) error {
	var b strings.Builder
	b.WriteString(`INSERT INTO bookings (airplane_id, user_id, seatcode) VALUES `)
	args := make([]any, 0, len(seatCodes)*3)
	for i, code := range seatCodes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, airplaneID, userID, code)
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(b.String()), args...)
	return err
}

// DeleteByUserAndAirplane removes every seat the user holds on the
// airplane and returns how many rows were deleted.
func (r *BookingRepo) DeleteByUserAndAirplane(ctx context.Context, userID, airplaneID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM bookings WHERE user_id = ? AND airplane_id = ?`), userID, airplaneID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
