package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// RegionRow is one cached region blob pair. Terrain and Objects hold the
// streams exactly as fetched from the data source (gzipped).
type RegionRow struct {
	X         int
	Y         int
	Terrain   []byte
	Objects   []byte
	UpdatedAt time.Time
}

// RegionRepo stores raw region byte streams so the client does not refetch
// map data it has already seen.
type RegionRepo struct {
	db *DB
}

func NewRegionRepo(db *DB) *RegionRepo {
	return &RegionRepo{db: db}
}

// Load returns the blobs for one region, or nil if the region was never
// cached.
func (r *RegionRepo) Load(ctx context.Context, x, y int) (*RegionRow, error) {
	row := &RegionRow{X: x, Y: y}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT terrain, objects, updated_at
		 FROM regions WHERE region_x = $1 AND region_y = $2`, x, y,
	).Scan(&row.Terrain, &row.Objects, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Save upserts the blobs for one region.
func (r *RegionRepo) Save(ctx context.Context, x, y int, terrain, objects []byte) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO regions (region_x, region_y, terrain, objects, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (region_x, region_y)
		 DO UPDATE SET terrain = $3, objects = $4, updated_at = NOW()`,
		x, y, terrain, objects,
	)
	return err
}

// Count reports how many regions are cached.
func (r *RegionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM regions`).Scan(&n)
	return n, err
}
