package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zellow-enterprises/zellow/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SweepExpired deactivates active coupons whose end date has passed.
// Idempotent; safe to run from both the validator path and the worker.
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE coupons SET status=$1 WHERE status=$2 AND end_date < $3`,
		StatusInactive, StatusActive, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// FindActiveByCode returns the active coupon matching code within its date window.
func (r *Repository) FindActiveByCode(ctx context.Context, code string, now time.Time) (Coupon, error) {
	var c Coupon
	err := r.pool.QueryRow(ctx, `SELECT id, code, discount_type, discount_value, start_date, end_date,
COALESCE(min_order_amount,0), COALESCE(usage_limit_total,0), COALESCE(usage_limit_per_user,0), times_used, status
FROM coupons
WHERE code=$1 AND status=$2 AND start_date <= $3 AND end_date >= $3`, code, StatusActive, now).
		Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.StartDate, &c.EndDate,
			&c.MinOrderAmount, &c.UsageLimitTotal, &c.UsageLimitPerUser, &c.TimesUsed, &c.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, err
	}
	return c, nil
}

// Get returns a coupon by id.
func (r *Repository) Get(ctx context.Context, id int64) (Coupon, error) {
	var c Coupon
	err := r.pool.QueryRow(ctx, `SELECT id, code, discount_type, discount_value, start_date, end_date,
COALESCE(min_order_amount,0), COALESCE(usage_limit_total,0), COALESCE(usage_limit_per_user,0), times_used, status
FROM coupons WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.StartDate, &c.EndDate,
			&c.MinOrderAmount, &c.UsageLimitTotal, &c.UsageLimitPerUser, &c.TimesUsed, &c.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, err
	}
	return c, nil
}

// CountUsage returns the total number of redemptions.
func (r *Repository) CountUsage(ctx context.Context, couponID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usage WHERE coupon_id=$1`, couponID).Scan(&count)
	return count, err
}

// CountUserUsage returns the number of redemptions by one user.
func (r *Repository) CountUserUsage(ctx context.Context, couponID, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usage WHERE coupon_id=$1 AND user_id=$2`, couponID, userID).Scan(&count)
	return count, err
}

// Deactivate flips a coupon to inactive.
func (r *Repository) Deactivate(ctx context.Context, couponID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE coupons SET status=$1 WHERE id=$2`, StatusInactive, couponID)
	return err
}

// RecordUsage inserts a usage row and maintains the denormalized counter in
// one transaction. The coupon row is locked so concurrent redemptions cannot
// race past the usage cap.
func (r *Repository) RecordUsage(ctx context.Context, couponID, userID, orderID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var limitTotal, timesUsed int
		err := tx.QueryRow(ctx, `SELECT COALESCE(usage_limit_total,0), times_used FROM coupons WHERE id=$1 FOR UPDATE`, couponID).
			Scan(&limitTotal, &timesUsed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO coupon_usage (coupon_id, user_id, order_id, used_at) VALUES ($1,$2,$3,NOW())`,
			couponID, userID, orderID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE coupons SET times_used = times_used + 1 WHERE id=$1`, couponID); err != nil {
			return err
		}

		var total int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usage WHERE coupon_id=$1`, couponID).Scan(&total); err != nil {
			return err
		}
		if limitTotal > 0 && total >= limitTotal {
			if _, err := tx.Exec(ctx, `UPDATE coupons SET status=$1 WHERE id=$2`, StatusInactive, couponID); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns coupons newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Coupon, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, discount_type, discount_value, start_date, end_date,
COALESCE(min_order_amount,0), COALESCE(usage_limit_total,0), COALESCE(usage_limit_per_user,0), times_used, status
FROM coupons ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var coupons []Coupon
	for rows.Next() {
		var c Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.StartDate, &c.EndDate,
			&c.MinOrderAmount, &c.UsageLimitTotal, &c.UsageLimitPerUser, &c.TimesUsed, &c.Status); err != nil {
			return nil, 0, err
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// Create inserts a coupon.
func (r *Repository) Create(ctx context.Context, c Coupon) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO coupons
(code, discount_type, discount_value, start_date, end_date, min_order_amount, usage_limit_total, usage_limit_per_user, times_used, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,$9) RETURNING id`,
		c.Code, c.DiscountType, c.DiscountValue, c.StartDate, c.EndDate,
		c.MinOrderAmount, c.UsageLimitTotal, c.UsageLimitPerUser, StatusActive).Scan(&id)
	return id, err
}
