package seatmap

import "github.com/iliyamo/airplane-seat-booking/internal/model"

// Entry is one seat of a projected seat map.
type Entry struct {
	Code            string `json:"seat_code"`
	Row             int    `json:"row"`
	Letter          string `json:"column"`
	IsBooked        bool   `json:"is_booked"`
	IsOwnedByCaller bool   `json:"is_owned_by_caller"`
}

// Project enumerates every seat of the airplane in row-major order (row 1
// first, A..last letter within a row) and flags each one against all
// bookings on the airplane and the caller's own bookings. Anonymous callers
// pass a nil caller slice. The result always has Capacity() entries.
func Project(a model.Airplane, all, caller []model.Booking) []Entry {
	mustGeometry(a.TotalRows, a.TotalColumns)

	booked := codeSet(all)
	owned := codeSet(caller)

	out := make([]Entry, 0, a.Capacity())
	for row := 1; row <= a.TotalRows; row++ {
		for col := 0; col < a.TotalColumns; col++ {
			letter := Letter(col)
			code := Format(row, letter)
			_, mine := owned[code]
			_, taken := booked[code]
			out = append(out, Entry{
				Code:            code,
				Row:             row,
				Letter:          string(letter),
				IsBooked:        taken || mine,
				IsOwnedByCaller: mine,
			})
		}
	}
	return out
}

// FreeCount returns how many entries are not booked.
func FreeCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if !e.IsBooked {
			n++
		}
	}
	return n
}

// FirstFree returns the codes of the first n free seats in map order, or
// fewer if the airplane does not have n free seats.
func FirstFree(entries []Entry, n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for _, e := range entries {
		if len(out) == n {
			break
		}
		if !e.IsBooked {
			out = append(out, e.Code)
		}
	}
	return out
}

func codeSet(bs []model.Booking) map[string]struct{} {
	m := make(map[string]struct{}, len(bs))
	for _, b := range bs {
		m[b.SeatCode] = struct{}{}
	}
	return m
}
