package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/iliyamo/airplane-seat-booking/internal/model"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
	"github.com/iliyamo/airplane-seat-booking/internal/testutil"
)

func TestAirplaneGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewAirplaneRepo(db)
	ctx := context.Background()
	id := testutil.InsertAirplane(t, db, "regional", 20, 5)

	a, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	want := model.Airplane{ID: id, Type: "regional", TotalRows: 20, TotalColumns: 5}
	if a != want {
		t.Fatalf("GetByID = %+v, want %+v", a, want)
	}

	if _, err := repo.GetByID(ctx, id+100); !errors.Is(err, repository.ErrAirplaneNotFound) {
		t.Fatalf("missing airplane err = %v", err)
	}
}

func TestAirplaneGeometryCache(t *testing.T) {
	db := testutil.NewTestDB(t)
	c := cache.New(time.Minute, 2*time.Minute)
	repo := repository.NewAirplaneRepo(db, repository.WithGeometryCache(c))
	ctx := context.Background()
	id := testutil.InsertAirplane(t, db, "local", 15, 4)

	if _, err := repo.GetByID(ctx, id+1); !errors.Is(err, repository.ErrAirplaneNotFound) {
		t.Fatalf("err = %v", err)
	}
	if c.ItemCount() != 0 {
		t.Fatal("miss was cached")
	}

	if _, err := repo.GetByID(ctx, id); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	// served from cache even after the row is gone
	if _, err := db.Exec(db.Rebind("DELETE FROM airplanes WHERE airplane_id = ?"), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	a, err := repo.GetByID(ctx, id)
	if err != nil || a.TotalRows != 15 {
		t.Fatalf("cached GetByID = %+v, %v", a, err)
	}
}

func TestListWithOccupancy(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewAirplaneRepo(db, repository.WithGeometryCache(cache.New(time.Minute, time.Minute)))
	ctx := context.Background()
	p1 := testutil.InsertAirplane(t, db, "local", 2, 2)
	p2 := testutil.InsertAirplane(t, db, "international", 3, 6)
	u := testutil.InsertUser(t, db, "u@example.com")

	list, err := repo.ListWithOccupancy(ctx)
	if err != nil {
		t.Fatalf("ListWithOccupancy: %v", err)
	}
	if len(list) != 2 || list[0].TotalTaken != 0 || list[1].TotalTaken != 0 {
		t.Fatalf("empty occupancy = %+v", list)
	}

	testutil.InsertBooking(t, db, p1, u, "1A")
	testutil.InsertBooking(t, db, p1, u, "2B")

	list, err = repo.ListWithOccupancy(ctx)
	if err != nil {
		t.Fatalf("ListWithOccupancy: %v", err)
	}
	if list[0].ID != p1 || list[0].TotalTaken != 2 {
		t.Fatalf("p1 = %+v", list[0])
	}
	if list[1].ID != p2 || list[1].TotalTaken != 0 || list[1].TotalColumns != 6 || list[1].Type != "international" {
		t.Fatalf("p2 = %+v", list[1])
	}
}

func TestAirplaneCreateAndCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewAirplaneRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, model.Airplane{Type: "local", TotalRows: 15, TotalColumns: 4})
	if err != nil || id == 0 {
		t.Fatalf("Create = %d, %v", id, err)
	}
	if n, err := repo.Count(ctx); err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	if _, err := repo.Create(ctx, model.Airplane{Type: "bad", TotalRows: 1, TotalColumns: 27}); err == nil {
		t.Fatal("expected CHECK constraint to reject 27 columns")
	}
}
