package shipping

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for shipping config.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindRate returns the active rate row for (methodID, regionID) joined with
// the active flags of its method and region.
func (r *Repository) FindRate(ctx context.Context, methodID, regionID int64) (Rate, error) {
	var rate Rate
	var methodActive, regionActive bool
	err := r.pool.QueryRow(ctx, `SELECT sr.id, sr.method_id, sr.region_id, sr.base_rate, sr.per_item_fee,
COALESCE(sr.free_shipping_threshold, 0), sr.is_active, sm.is_active, rg.is_active
FROM shipping_rates sr
JOIN shipping_methods sm ON sm.id = sr.method_id
JOIN regions rg ON rg.id = sr.region_id
WHERE sr.method_id=$1 AND sr.region_id=$2`, methodID, regionID).
		Scan(&rate.ID, &rate.MethodID, &rate.RegionID, &rate.BaseRate, &rate.PerItemFee,
			&rate.FreeShippingThreshold, &rate.IsActive, &methodActive, &regionActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rate{}, ErrNotFound
		}
		return Rate{}, err
	}
	if !rate.IsActive || !methodActive || !regionActive {
		return Rate{}, ErrNotAvailable
	}
	return rate, nil
}

// ListMethods returns all shipping methods.
func (r *Repository) ListMethods(ctx context.Context) ([]Method, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, is_active FROM shipping_methods ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var methods []Method
	for rows.Next() {
		var m Method
		if err := rows.Scan(&m.ID, &m.Name, &m.IsActive); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// ListRegions returns all regions.
func (r *Repository) ListRegions(ctx context.Context) ([]Region, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, is_active FROM regions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var regions []Region
	for rows.Next() {
		var rg Region
		if err := rows.Scan(&rg.ID, &rg.Name, &rg.IsActive); err != nil {
			return nil, err
		}
		regions = append(regions, rg)
	}
	return regions, rows.Err()
}

// ToggleRegion flips a region's active flag and returns the new state.
func (r *Repository) ToggleRegion(ctx context.Context, regionID int64) (bool, error) {
	var isActive bool
	err := r.pool.QueryRow(ctx, `UPDATE regions SET is_active = NOT is_active WHERE id=$1 RETURNING is_active`, regionID).Scan(&isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return isActive, nil
}

// UpsertRate creates or replaces the rate for a (method, region) pair.
func (r *Repository) UpsertRate(ctx context.Context, rate Rate) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO shipping_rates (method_id, region_id, base_rate, per_item_fee, free_shipping_threshold, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (method_id, region_id) DO UPDATE
SET base_rate=EXCLUDED.base_rate, per_item_fee=EXCLUDED.per_item_fee,
    free_shipping_threshold=EXCLUDED.free_shipping_threshold, is_active=EXCLUDED.is_active
RETURNING id`,
		rate.MethodID, rate.RegionID, rate.BaseRate, rate.PerItemFee, rate.FreeShippingThreshold, rate.IsActive).Scan(&id)
	return id, err
}
