package service

import (
	"errors"
	"fmt"
)

// Errors returned by the allocator and catalog.  Seat conflicts are not
// errors: they come back as a Result with OutcomeConflict.
var (
	// ErrUnknownAirplane: no airplane with the requested id.
	ErrUnknownAirplane = errors.New("unknown airplane")
	// ErrNoSeatsRequested: an allocation asked for zero seats.
	ErrNoSeatsRequested = errors.New("no seats requested")
	// ErrInvalidSeatFormat is matched by every *InvalidSeatError.
	ErrInvalidSeatFormat = errors.New("invalid seat format")
	// ErrDuplicateActiveBooking: the user already holds seats on the airplane.
	ErrDuplicateActiveBooking = errors.New("user already holds a booking on this airplane")
	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("storage error")
	// ErrInvalidCount: a seat suggestion asked for a non-positive count.
	ErrInvalidCount = errors.New("seat count must be positive")
	// ErrNotEnoughSeats: fewer free seats than requested by a suggestion.
	ErrNotEnoughSeats = errors.New("not enough free seats")
)

// InvalidSeatError names the first seat code that failed to parse.
type InvalidSeatError struct {
	Code string
}

func (e *InvalidSeatError) Error() string {
	return fmt.Sprintf("invalid seat code %q", e.Code)
}

func (e *InvalidSeatError) Is(target error) bool { return target == ErrInvalidSeatFormat }

// StorageError wraps an infrastructure failure from a repository call.
// It matches both ErrStorage and the underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
