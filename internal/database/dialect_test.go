package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/iliyamo/airplane-seat-booking/internal/database"
	"github.com/iliyamo/airplane-seat-booking/internal/testutil"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452}, false},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres fk", &pq.Error{Code: "23503"}, false},
		{"wrapped mysql", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := database.IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	db := testutil.NewTestDB(t)
	plane := testutil.InsertAirplane(t, db, "local", 3, 2)
	user := testutil.InsertUser(t, db, "a@example.com")
	testutil.InsertBooking(t, db, plane, user, "1A")

	_, err := db.Exec(db.Rebind("INSERT INTO bookings (airplane_id, user_id, seatcode) VALUES (?, ?, ?)"), plane, user, "1A")
	if err == nil {
		t.Fatal("expected duplicate seat insert to fail")
	}
	if !database.IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation(%v) = false", err)
	}
}

func TestDialectFor(t *testing.T) {
	for _, driver := range []string{database.DriverMySQL, database.DriverPostgres} {
		d, err := database.DialectFor(driver)
		if err != nil {
			t.Fatalf("DialectFor(%s): %v", driver, err)
		}
		if d.ForUpdate() != " FOR UPDATE" {
			t.Fatalf("%s ForUpdate = %q", driver, d.ForUpdate())
		}
	}
	d, err := database.DialectFor(database.DriverSQLite)
	if err != nil || d.ForUpdate() != "" {
		t.Fatalf("sqlite dialect = %+v, %v", d, err)
	}
	if _, err := database.DialectFor("oracle"); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := database.Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := database.MySQLDSN("app", "pw", "db", "3306", "airplanes")
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", dsn, err)
	}
	if cfg.User != "app" || cfg.Passwd != "pw" || cfg.Addr != "db:3306" || cfg.DBName != "airplanes" || !cfg.ParseTime {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
