// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// allocator and handlers to distinguish between different failure
// scenarios without inspecting driver errors.  For example,
// ErrSeatTaken means a batch insert hit the (airplane, seat) uniqueness
// constraint, which the allocator turns into a conflict result rather
// than a storage fault.
package repository

import "errors"

// ErrAirplaneNotFound is returned when no airplane has the requested id.
var ErrAirplaneNotFound = errors.New("airplane not found")

// ErrSeatTaken is returned by InsertMany when at least one seat of the
// batch is already booked.  Nothing from the batch is persisted.
var ErrSeatTaken = errors.New("seat already taken")

// ErrActiveBookingExists is returned by InsertMany when the user already
// holds seats on the airplane at commit time.
var ErrActiveBookingExists = errors.New("user already holds seats on this airplane")

// ErrEmailExists is returned when registering an email that is in use.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenInvalid is returned for unknown, revoked or expired refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")
