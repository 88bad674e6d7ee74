package repository_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/iliyamo/airplane-seat-booking/internal/model"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
	"github.com/iliyamo/airplane-seat-booking/internal/testutil"
)

func TestInsertManyCommitsAllSeats(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, err := repository.NewBookingRepo(db)
	if err != nil {
		t.Fatalf("NewBookingRepo: %v", err)
	}
	ctx := context.Background()
	plane := testutil.InsertAirplane(t, db, "local", 2, 2)
	user := testutil.InsertUser(t, db, "u@example.com")

	if err := repo.InsertMany(ctx, plane, user, []string{"1A", "1B"}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	got, err := repo.ListByUserAndAirplane(ctx, user, plane)
	if err != nil {
		t.Fatalf("ListByUserAndAirplane: %v", err)
	}
	if codes := model.SeatCodes(got); !reflect.DeepEqual(codes, []string{"1A", "1B"}) {
		t.Fatalf("codes = %v", codes)
	}
	for _, b := range got {
		if b.UserID != user || b.AirplaneID != plane {
			t.Fatalf("row %+v has wrong owner", b)
		}
	}
}

func TestInsertManyIsAtomicOnSeatConflict(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, _ := repository.NewBookingRepo(db)
	ctx := context.Background()
	plane := testutil.InsertAirplane(t, db, "local", 2, 2)
	u1 := testutil.InsertUser(t, db, "u1@example.com")
	u2 := testutil.InsertUser(t, db, "u2@example.com")
	testutil.InsertBooking(t, db, plane, u1, "2B")

	// 1A and 1B are free, 2B is not: nothing of the batch may survive.
	err := repo.InsertMany(ctx, plane, u2, []string{"1A", "1B", "2B"})
	if !errors.Is(err, repository.ErrSeatTaken) {
		t.Fatalf("err = %v, want ErrSeatTaken", err)
	}
	if n := testutil.CountBookings(t, db, plane); n != 1 {
		t.Fatalf("bookings = %d, want 1", n)
	}
	held, _ := repo.ListByUserAndAirplane(ctx, u2, plane)
	if len(held) != 0 {
		t.Fatalf("u2 holds %v after failed batch", held)
	}
}

func TestInsertManyRejectsSecondBatchForSameUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, _ := repository.NewBookingRepo(db)
	ctx := context.Background()
	plane := testutil.InsertAirplane(t, db, "local", 2, 2)
	user := testutil.InsertUser(t, db, "u@example.com")

	if err := repo.InsertMany(ctx, plane, user, []string{"1A"}); err != nil {
		t.Fatalf("first InsertMany: %v", err)
	}
	err := repo.InsertMany(ctx, plane, user, []string{"2A"})
	if !errors.Is(err, repository.ErrActiveBookingExists) {
		t.Fatalf("err = %v, want ErrActiveBookingExists", err)
	}
	if n := testutil.CountBookings(t, db, plane); n != 1 {
		t.Fatalf("bookings = %d, want 1", n)
	}
}

func TestInsertManyUnknownAirplane(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, _ := repository.NewBookingRepo(db)
	user := testutil.InsertUser(t, db, "u@example.com")

	err := repo.InsertMany(context.Background(), 999, user, []string{"1A"})
	if !errors.Is(err, repository.ErrAirplaneNotFound) {
		t.Fatalf("err = %v, want ErrAirplaneNotFound", err)
	}
}

func TestInsertManyIgnoresCancelledContext(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, _ := repository.NewBookingRepo(db)
	plane := testutil.InsertAirplane(t, db, "local", 2, 2)
	user := testutil.InsertUser(t, db, "u@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := repo.InsertMany(ctx, plane, user, []string{"1A"}); err != nil {
		t.Fatalf("InsertMany with cancelled ctx: %v", err)
	}
	if n := testutil.CountBookings(t, db, plane); n != 1 {
		t.Fatalf("bookings = %d, want 1", n)
	}
}

func TestDeleteByUserAndAirplane(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo, _ := repository.NewBookingRepo(db)
	ctx := context.Background()
	plane := testutil.InsertAirplane(t, db, "local", 2, 2)
	other := testutil.InsertAirplane(t, db, "regional", 2, 2)
	u1 := testutil.InsertUser(t, db, "u1@example.com")
	u2 := testutil.InsertUser(t, db, "u2@example.com")
	testutil.InsertBooking(t, db, plane, u1, "1A")
	testutil.InsertBooking(t, db, plane, u1, "1B")
	testutil.InsertBooking(t, db, plane, u2, "2A")
	testutil.InsertBooking(t, db, other, u1, "1A")

	n, err := repo.DeleteByUserAndAirplane(ctx, u1, plane)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByUserAndAirplane = %d, %v; want 2", n, err)
	}
	n, err = repo.DeleteByUserAndAirplane(ctx, u1, plane)
	if err != nil || n != 0 {
		t.Fatalf("second delete = %d, %v; want 0", n, err)
	}

	left, _ := repo.ListByAirplane(ctx, plane)
	if codes := model.SeatCodes(left); !reflect.DeepEqual(codes, []string{"2A"}) {
		t.Fatalf("remaining on plane = %v", codes)
	}
	if n := testutil.CountBookings(t, db, other); n != 1 {
		t.Fatalf("other airplane touched: %d rows", n)
	}
}
