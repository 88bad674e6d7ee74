package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/airplane-seat-booking/internal/database"
)

var memSeq atomic.Int64

// NewTestDB returns a migrated, empty database. By default each call gets
// its own in-memory SQLite database. Setting TEST_DB_DRIVER and TEST_DB_DSN
// runs the same tests against MySQL or Postgres; those are skipped when the
// server is unreachable.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver := os.Getenv("TEST_DB_DRIVER")
	dsn := os.Getenv("TEST_DB_DSN")
	if driver == "" || (driver == database.DriverSQLite && dsn == "") {
		driver = database.DriverSQLite
		dsn = fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_foreign_keys=on", memSeq.Add(1))
	}

	db, err := database.Open(ctx, driver, dsn)
	if err != nil {
		if driver != database.DriverSQLite {
			t.Skipf("skipping %s integration tests: %v", driver, err)
		}
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if driver != database.DriverSQLite {
		TruncateAll(t, db)
	}
	return db
}

// TruncateAll removes every row the booking tests create, children first.
func TruncateAll(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, table := range []string{"bookings", "refresh_tokens", "airplanes", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

// InsertAirplane adds an airplane and returns its id.
func InsertAirplane(t *testing.T, db *sqlx.DB, kind string, rows, cols int) uint64 {
	t.Helper()
	id, err := database.InsertID(context.Background(), db, "airplane_id",
		"INSERT INTO airplanes (type, totalrows, totalcolumns) VALUES (?, ?, ?)", kind, rows, cols)
	if err != nil {
		t.Fatalf("insert airplane: %v", err)
	}
	return id
}

// InsertUser adds a user with a throwaway password hash and returns its id.
func InsertUser(t *testing.T, db *sqlx.DB, email string) uint64 {
	t.Helper()
	id, err := database.InsertID(context.Background(), db, "id",
		"INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)", email, email, "x")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// InsertBooking stores one seat directly, bypassing the allocator.
func InsertBooking(t *testing.T, db *sqlx.DB, airplaneID, userID uint64, seat string) {
	t.Helper()
	if _, err := db.Exec(db.Rebind("INSERT INTO bookings (airplane_id, user_id, seatcode) VALUES (?, ?, ?)"),
		airplaneID, userID, seat); err != nil {
		t.Fatalf("insert booking %s: %v", seat, err)
	}
}

// CountBookings returns the number of rows in bookings for one airplane.
func CountBookings(t *testing.T, db *sqlx.DB, airplaneID uint64) int {
	t.Helper()
	var n int
	if err := db.Get(&n, db.Rebind("SELECT COUNT(*) FROM bookings WHERE airplane_id = ?"), airplaneID); err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	return n
}
