package model

// Airplane represents one row in the `airplanes` table.  Its geometry
// (rows and columns) is fixed once the airplane exists, which is what
// lets the repository cache it.
//
// Fields:
//  ID           – primary key identifier of the airplane.
//  Type         – display label such as "local" or "international".
//  TotalRows    – number of seat rows, rows are numbered 1..TotalRows.
//  TotalColumns – seats per row, 1..26, lettered A onwards.
type Airplane struct {
    ID           uint64 `db:"airplane_id" json:"airplane_id"`   // airplanes.airplane_id
    Type         string `db:"type" json:"type"`                 // airplanes.type
    TotalRows    int    `db:"totalrows" json:"totalrows"`       // airplanes.totalrows
    TotalColumns int    `db:"totalcolumns" json:"totalcolumns"` // airplanes.totalcolumns
}

// Capacity returns the total number of seats on the airplane.
func (a Airplane) Capacity() int { return a.TotalRows * a.TotalColumns }

// AirplaneOccupancy is an airplane together with the number of seats
// currently booked on it.  It is produced by one aggregate query and
// never cached.
type AirplaneOccupancy struct {
    Airplane
    TotalTaken int `db:"totaltaken" json:"totaltaken"`
}
