package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zellow-enterprises/zellow/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for stock rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the stock row for a product.
func (r *Repository) Get(ctx context.Context, productID int64) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx, `SELECT i.product_id, COALESCE(p.name,''), i.stock_quantity, COALESCE(i.last_restocked, NOW()), COALESCE(i.updated_by, 0)
FROM inventory i
LEFT JOIN products p ON p.id = i.product_id
WHERE i.product_id=$1`, productID).
		Scan(&item.ProductID, &item.ProductName, &item.StockQuantity, &item.LastRestocked, &item.UpdatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// List returns stock rows, optionally filtered to items at or below threshold.
func (r *Repository) List(ctx context.Context, lowStockThreshold int, limit, offset int) ([]Item, int, error) {
	countSQL := `SELECT COUNT(*) FROM inventory`
	dataSQL := `SELECT i.product_id, COALESCE(p.name,''), i.stock_quantity, COALESCE(i.last_restocked, NOW()), COALESCE(i.updated_by, 0)
FROM inventory i
LEFT JOIN products p ON p.id = i.product_id`
	args := []any{}
	if lowStockThreshold > 0 {
		countSQL += ` WHERE stock_quantity <= $1`
		dataSQL += ` WHERE i.stock_quantity <= $1`
		args = append(args, lowStockThreshold)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += ` ORDER BY i.stock_quantity ASC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.StockQuantity, &item.LastRestocked, &item.UpdatedBy); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Adjust applies a manual correction to a stock row. The row is locked for
// the duration of the transaction so concurrent adjustments serialize.
func (r *Repository) Adjust(ctx context.Context, input AdjustmentInput, allowNegative bool) (int, error) {
	var newQty int
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current int
		err := tx.QueryRow(ctx, `SELECT stock_quantity FROM inventory WHERE product_id=$1 FOR UPDATE`, input.ProductID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if current+input.Delta < 0 && !allowNegative {
			return ErrNegativeStock
		}
		return tx.QueryRow(ctx, `UPDATE inventory
SET stock_quantity = stock_quantity + $1, updated_by = $2, last_restocked = CASE WHEN $1 > 0 THEN NOW() ELSE last_restocked END
WHERE product_id = $3
RETURNING stock_quantity`, input.Delta, input.ActorID, input.ProductID).Scan(&newQty)
	})
	if err != nil {
		return 0, err
	}
	return newQty, nil
}

func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}
