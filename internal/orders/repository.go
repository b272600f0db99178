package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zellow-enterprises/zellow/internal/ledger"
)

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
// Every multi-table order mutation runs through one of these inside a
// single transaction.
type TxRepository interface {
	CustomerExists(ctx context.Context, customerID int64) (bool, error)
	InsertOrder(ctx context.Context, o Order) (int64, error)
	InsertItems(ctx context.Context, orderID int64, items []Item) error
	DeductStock(ctx context.Context, productID int64, qty int) (int, error)
	RecordCouponUsage(ctx context.Context, couponID, userID, orderID int64) error
	GetForUpdate(ctx context.Context, orderID int64) (Order, error)
	ApplyStatus(ctx context.Context, orderID int64, status Status, payment PaymentStatus) error
	ReverseCouponUsage(ctx context.Context, couponID, orderID int64) error
	ClearCoupon(ctx context.Context, orderID int64) error
	InsertLedger(ctx context.Context, input ledger.Input) error
	DeleteOrder(ctx context.Context, orderID int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, customer_id, status, payment_status, subtotal, discount_amount,
shipping_fee, total_amount, COALESCE(coupon_id,0), COALESCE(tracking_number,''),
COALESCE(payment_method,''), created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.PaymentStatus, &o.Subtotal,
		&o.DiscountAmount, &o.ShippingFee, &o.TotalAmount, &o.CouponID,
		&o.TrackingNumber, &o.PaymentMethod, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// Get returns an order with its items.
func (r *Repository) Get(ctx context.Context, orderID int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return Order{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, subtotal,
COALESCE(service_type,''), COALESCE(service_cost,0), COALESCE(status,'')
FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice,
			&it.Subtotal, &it.ServiceType, &it.ServiceCost, &it.Status); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// List returns orders matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "payment_status = "+arg(f.PaymentStatus))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, "(CAST(id AS TEXT) ILIKE "+p+" OR COALESCE(tracking_number,'') ILIKE "+p+")")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SetTracking stamps a tracking number on an order.
func (r *Repository) SetTracking(ctx context.Context, orderID int64, trackingNumber string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET tracking_number=$1 WHERE id=$2`, trackingNumber, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id=$1)`, customerID).Scan(&exists)
	return exists, err
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO orders
(customer_id, status, payment_status, subtotal, discount_amount, shipping_fee, total_amount,
coupon_id, payment_method, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,0),$9,NOW()) RETURNING id`,
		o.CustomerID, o.Status, o.PaymentStatus, o.Subtotal, o.DiscountAmount,
		o.ShippingFee, o.TotalAmount, o.CouponID, o.PaymentMethod).Scan(&id)
	return id, err
}

func (t *txRepo) InsertItems(ctx context.Context, orderID int64, items []Item) error {
	for _, it := range items {
		if _, err := t.tx.Exec(ctx, `INSERT INTO order_items
(order_id, product_id, quantity, unit_price, subtotal, service_type, service_cost, status)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,'pending')`,
			orderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
			it.ServiceType, it.ServiceCost); err != nil {
			return err
		}
	}
	return nil
}

// DeductStock subtracts qty from the product's stock and returns the new
// level. The row is locked so concurrent orders cannot oversell.
func (t *txRepo) DeductStock(ctx context.Context, productID int64, qty int) (int, error) {
	var current int
	err := t.tx.QueryRow(ctx,
		`SELECT stock_quantity FROM inventory WHERE product_id=$1 FOR UPDATE`, productID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientStock
		}
		return 0, err
	}
	if current < qty {
		return 0, ErrInsufficientStock
	}
	newStock := current - qty
	_, err = t.tx.Exec(ctx, `UPDATE inventory SET stock_quantity=$1 WHERE product_id=$2`, newStock, productID)
	return newStock, err
}

func (t *txRepo) RecordCouponUsage(ctx context.Context, couponID, userID, orderID int64) error {
	var limitTotal int
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(usage_limit_total,0) FROM coupons WHERE id=$1 FOR UPDATE`, couponID).Scan(&limitTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrValidation
		}
		return err
	}
	if _, err := t.tx.Exec(ctx, `INSERT INTO coupon_usage (coupon_id, user_id, order_id, used_at)
VALUES ($1,$2,$3,NOW())`, couponID, userID, orderID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `UPDATE coupons SET times_used = times_used + 1 WHERE id=$1`, couponID); err != nil {
		return err
	}
	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usage WHERE coupon_id=$1`, couponID).Scan(&total); err != nil {
		return err
	}
	if limitTotal > 0 && total >= limitTotal {
		if _, err := t.tx.Exec(ctx, `UPDATE coupons SET status='inactive' WHERE id=$1`, couponID); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, orderID int64) (Order, error) {
	return scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
}

func (t *txRepo) ApplyStatus(ctx context.Context, orderID int64, status Status, payment PaymentStatus) error {
	if payment != "" {
		_, err := t.tx.Exec(ctx, `UPDATE orders SET status=$1, payment_status=$2 WHERE id=$3`,
			status, payment, orderID)
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE orders SET status=$1 WHERE id=$2`, status, orderID)
	return err
}

func (t *txRepo) ReverseCouponUsage(ctx context.Context, couponID, orderID int64) error {
	if _, err := t.tx.Exec(ctx,
		`DELETE FROM coupon_usage WHERE coupon_id=$1 AND order_id=$2`, couponID, orderID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE coupons SET times_used = GREATEST(times_used - 1, 0) WHERE id=$1`, couponID)
	return err
}

func (t *txRepo) ClearCoupon(ctx context.Context, orderID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET coupon_id=NULL WHERE id=$1`, orderID)
	return err
}

func (t *txRepo) InsertLedger(ctx context.Context, input ledger.Input) error {
	return ledger.RecordTx(ctx, t.tx, input)
}

func (t *txRepo) DeleteOrder(ctx context.Context, orderID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, orderID); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
