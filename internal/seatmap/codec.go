// Package seatmap parses seat codes against an airplane's geometry and
// projects bookings onto the full seat grid.
package seatmap

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxColumns is the widest supported row: columns are lettered A..Z.
const MaxColumns = 26

// ErrInvalidFormat is returned by Parse for any code that is not a valid
// seat on the given airplane.
var ErrInvalidFormat = errors.New("invalid seat code")

// SeatRef identifies one seat. Letter is always upper case.
type SeatRef struct {
	Row    int
	Letter byte
}

// Code returns the canonical seat code, e.g. "12C".
func (s SeatRef) Code() string { return Format(s.Row, s.Letter) }

// ColumnIndex returns the 0-based column of the seat.
func (s SeatRef) ColumnIndex() int { return int(s.Letter - 'A') }

// Format renders a row and column letter as a seat code.
func Format(row int, letter byte) string {
	return strconv.Itoa(row) + string(upper(letter))
}

// Letter returns the column letter for a 0-based column index.
func Letter(column int) byte { return byte('A' + column) }

// Parse validates code against an airplane with totalRows rows and
// totalColumns seats per row. The code must be a decimal row number
// followed by exactly one letter; the letter is case-insensitive. Leading
// zeros in the row are accepted, so "01a" parses to row 1, letter 'A'.
//
// Parse panics if the geometry itself is invalid.
func Parse(code string, totalRows, totalColumns int) (SeatRef, error) {
	mustGeometry(totalRows, totalColumns)

	if len(code) < 2 {
		return SeatRef{}, ErrInvalidFormat
	}
	digits, last := code[:len(code)-1], upper(code[len(code)-1])
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return SeatRef{}, ErrInvalidFormat
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		// only overflow gets here
		return SeatRef{}, ErrInvalidFormat
	}
	if row < 1 || row > totalRows {
		return SeatRef{}, ErrInvalidFormat
	}
	if last < 'A' || last >= Letter(totalColumns) {
		return SeatRef{}, ErrInvalidFormat
	}
	return SeatRef{Row: row, Letter: last}, nil
}

// Canonical parses code and returns its canonical form.
func Canonical(code string, totalRows, totalColumns int) (string, error) {
	ref, err := Parse(code, totalRows, totalColumns)
	if err != nil {
		return "", err
	}
	return ref.Code(), nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func mustGeometry(rows, cols int) {
	if rows < 1 || cols < 1 || cols > MaxColumns {
		panic(fmt.Sprintf("seatmap: invalid geometry %d rows x %d columns", rows, cols))
	}
}
