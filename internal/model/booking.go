package model

// Booking is one booked seat: a row of the `bookings` table.  A user's
// "booking" on an airplane is the set of such rows sharing airplane and
// user.  SeatCode is always stored in canonical form (e.g. "12C").
type Booking struct {
    ID         uint64 `db:"booking_id" json:"booking_id"`
    AirplaneID uint64 `db:"airplane_id" json:"airplane_id"`
    UserID     uint64 `db:"user_id" json:"user_id"`
    SeatCode   string `db:"seatcode" json:"seat_code"`
}

// SeatCodes returns the seat codes of bs in their original order.
func SeatCodes(bs []Booking) []string {
    out := make([]string, 0, len(bs))
    for _, b := range bs {
        out = append(out, b.SeatCode)
    }
    return out
}
