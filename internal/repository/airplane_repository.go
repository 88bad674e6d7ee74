package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/patrickmn/go-cache"

	"github.com/iliyamo/airplane-seat-booking/internal/database"
	"github.com/iliyamo/airplane-seat-booking/internal/model"
)

// AirplaneRepo provides read access to the airplanes table.  Geometry
// lookups may be served from an in-process cache because airplanes are
// immutable reference data; occupancy counts always hit the database.
type AirplaneRepo struct {
	db       *sqlx.DB
	geometry *cache.Cache
}

// AirplaneRepoOption configures an AirplaneRepo.
type AirplaneRepoOption func(*AirplaneRepo)

// WithGeometryCache serves GetByID from c after the first database hit.
func WithGeometryCache(c *cache.Cache) AirplaneRepoOption {
	return func(r *AirplaneRepo) { r.geometry = c }
}

// NewAirplaneRepo constructs an AirplaneRepo.
func NewAirplaneRepo(db *sqlx.DB, opts ...AirplaneRepoOption) *AirplaneRepo {
	r := &AirplaneRepo{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetByID returns the airplane with the given id or ErrAirplaneNotFound.
// Misses are not cached.
func (r *AirplaneRepo) GetByID(ctx context.Context, id uint64) (model.Airplane, error) {
	key := strconv.FormatUint(id, 10)
	if r.geometry != nil {
		if v, ok := r.geometry.Get(key); ok {
			return v.(model.Airplane), nil
		}
	}
	var a model.Airplane
	err := r.db.GetContext(ctx, &a, r.db.Rebind(
		`SELECT airplane_id, type, totalrows, totalcolumns FROM airplanes WHERE airplane_id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Airplane{}, ErrAirplaneNotFound
		}
		return model.Airplane{}, err
	}
	if r.geometry != nil {
		r.geometry.SetDefault(key, a)
	}
	return a, nil
}

// ListWithOccupancy returns every airplane with the number of seats
// currently booked on it, ordered by id.  The count comes from an
// aggregate join evaluated at call time.
func (r *AirplaneRepo) ListWithOccupancy(ctx context.Context) ([]model.AirplaneOccupancy, error) {
	const q = `
SELECT a.airplane_id, a.type, a.totalrows, a.totalcolumns,
       COALESCE(b.totaltaken, 0) AS totaltaken
FROM airplanes a
LEFT JOIN (
    SELECT airplane_id, COUNT(*) AS totaltaken
    FROM bookings
    GROUP BY airplane_id
) b ON b.airplane_id = a.airplane_id
ORDER BY a.airplane_id`
	out := []model.AirplaneOccupancy{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts an airplane and returns its id.  Used by the seed
// command; the booking flow never writes airplanes.
func (r *AirplaneRepo) Create(ctx context.Context, a model.Airplane) (uint64, error) {
	return database.InsertID(ctx, r.db, "airplane_id",
		`INSERT INTO airplanes (type, totalrows, totalcolumns) VALUES (?, ?, ?)`,
		a.Type, a.TotalRows, a.TotalColumns)
}

// Count returns the number of airplanes.
func (r *AirplaneRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM airplanes`)
	return n, err
}
