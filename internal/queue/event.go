// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// QueueName is the durable queue booking events are published to.
const QueueName = "booking.events"

// Event types.
const (
    EventBookingCreated  = "booking.created"
    EventBookingReleased = "booking.released"
)

// BookingEvent is published after a booking commits or a release deletes at
// least one seat.  It carries enough for downstream consumers to log or
// notify without querying the primary database.
type BookingEvent struct {
    ID           string   `json:"id"`
    Type         string   `json:"type"`
    AirplaneID   uint64   `json:"airplane_id"`
    AirplaneType string   `json:"airplane_type"`
    UserID       uint64   `json:"user_id"`
    Seats        []string `json:"seats,omitempty"`
    SeatCount    int      `json:"seat_count"`
    OccurredAt   string   `json:"occurred_at"` // RFC 3339, UTC
}
