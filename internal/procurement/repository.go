package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zellow-enterprises/zellow/internal/ledger"
	"github.com/zellow-enterprises/zellow/internal/platform/db"
)

// Repository persists purchase orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
// Receiving touches purchase_order_items, inventory, purchase_orders and
// invoices; the whole sequence shares one transaction.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, poID, itemID int64) (Item, error)
	ListItemsForUpdate(ctx context.Context, poID int64) ([]Item, error)
	AddReceived(ctx context.Context, itemID int64, qty int) error
	AddStock(ctx context.Context, productID int64, qty int) (int, error)
	GetOrder(ctx context.Context, poID int64) (PurchaseOrder, error)
	SetOrderStatus(ctx context.Context, poID int64, status Status) error
	SetPayment(ctx context.Context, poID int64, amountPaid float64, status PaymentStatus) error
	ReceivedTotals(ctx context.Context, poID int64) (ordered, received int, err error)
	HasInvoice(ctx context.Context, poID int64) (bool, error)
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	InsertLedger(ctx context.Context, input ledger.Input) error
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

const itemColumns = `id, purchase_order_id, product_id, quantity, received_quantity, unit_price,
COALESCE(last_received_date, 'epoch'::timestamptz)`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity,
		&it.ReceivedQuantity, &it.UnitPrice, &it.LastReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// Get returns a purchase order with its items.
func (r *Repository) Get(ctx context.Context, poID int64) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := r.pool.QueryRow(ctx, `SELECT id, supplier_id, total_amount, status, payment_status,
COALESCE(amount_paid,0), created_at FROM purchase_orders WHERE id=$1`, poID).
		Scan(&po.ID, &po.SupplierID, &po.TotalAmount, &po.Status, &po.PaymentStatus,
			&po.AmountPaid, &po.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM purchase_order_items WHERE purchase_order_id=$1 ORDER BY id`, poID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return PurchaseOrder{}, err
		}
		po.Items = append(po.Items, it)
	}
	if err := rows.Err(); err != nil {
		return PurchaseOrder{}, err
	}
	return po, nil
}

// List returns purchase orders, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status Status, limit, offset int) ([]PurchaseOrder, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = " WHERE status=$1"
		args = append(args, status)
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT id, supplier_id, total_amount, status, payment_status, COALESCE(amount_paid,0), created_at
FROM purchase_orders` + where + fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.SupplierID, &po.TotalAmount, &po.Status, &po.PaymentStatus,
			&po.AmountPaid, &po.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, po)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts a purchase order with its items.
func (r *Repository) Create(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO purchase_orders
(supplier_id, total_amount, status, payment_status, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`,
			po.SupplierID, po.TotalAmount, StatusPending, PaymentUnpaid).Scan(&id); err != nil {
			return err
		}
		for _, it := range po.Items {
			if _, err := tx.Exec(ctx, `INSERT INTO purchase_order_items
(purchase_order_id, product_id, quantity, received_quantity, unit_price)
VALUES ($1,$2,$3,0,$4)`, id, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (t *txRepo) GetItemForUpdate(ctx context.Context, poID, itemID int64) (Item, error) {
	return scanItem(t.tx.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM purchase_order_items WHERE id=$1 AND purchase_order_id=$2 FOR UPDATE`,
		itemID, poID))
}

func (t *txRepo) ListItemsForUpdate(ctx context.Context, poID int64) ([]Item, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+itemColumns+` FROM purchase_order_items WHERE purchase_order_id=$1 ORDER BY id FOR UPDATE`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items, nil
}

func (t *txRepo) AddReceived(ctx context.Context, itemID int64, qty int) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchase_order_items
SET received_quantity = received_quantity + $1, last_received_date = NOW() WHERE id=$2`, qty, itemID)
	return err
}

func (t *txRepo) AddStock(ctx context.Context, productID int64, qty int) (int, error) {
	var newStock int
	err := t.tx.QueryRow(ctx, `UPDATE inventory
SET stock_quantity = stock_quantity + $1, last_restocked = NOW()
WHERE product_id=$2 RETURNING stock_quantity`, qty, productID).Scan(&newStock)
	if errors.Is(err, pgx.ErrNoRows) {
		err = t.tx.QueryRow(ctx, `INSERT INTO inventory (product_id, stock_quantity, last_restocked)
VALUES ($1,$2,NOW()) RETURNING stock_quantity`, productID, qty).Scan(&newStock)
	}
	return newStock, err
}

func (t *txRepo) GetOrder(ctx context.Context, poID int64) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := t.tx.QueryRow(ctx, `SELECT id, supplier_id, total_amount, status, payment_status,
COALESCE(amount_paid,0), created_at FROM purchase_orders WHERE id=$1 FOR UPDATE`, poID).
		Scan(&po.ID, &po.SupplierID, &po.TotalAmount, &po.Status, &po.PaymentStatus,
			&po.AmountPaid, &po.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrNotFound
	}
	return po, err
}

func (t *txRepo) SetOrderStatus(ctx context.Context, poID int64, status Status) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status=$1 WHERE id=$2`, status, poID)
	return err
}

func (t *txRepo) SetPayment(ctx context.Context, poID int64, amountPaid float64, status PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET amount_paid=$1, payment_status=$2 WHERE id=$3`,
		amountPaid, status, poID)
	return err
}

func (t *txRepo) ReceivedTotals(ctx context.Context, poID int64) (int, int, error) {
	var ordered, received int
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(quantity),0), COALESCE(SUM(received_quantity),0)
FROM purchase_order_items WHERE purchase_order_id=$1`, poID).Scan(&ordered, &received)
	return ordered, received, err
}

func (t *txRepo) HasInvoice(ctx context.Context, poID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE purchase_order_id=$1)`, poID).Scan(&exists)
	return exists, err
}

func (t *txRepo) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO invoices
(invoice_number, purchase_order_id, supplier_id, amount, due_date, status)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		inv.Number, inv.PurchaseOrderID, inv.SupplierID, inv.Amount, inv.DueDate, inv.Status).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLedger(ctx context.Context, input ledger.Input) error {
	return ledger.RecordTx(ctx, t.tx, input)
}
