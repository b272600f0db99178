package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Exists reports whether a row with the same order and type already exists.
func (r *Repository) Exists(ctx context.Context, orderID int64, t Type) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE order_id=$1 AND transaction_type=$2)`,
		orderID, t).Scan(&exists)
	return exists, err
}

// Insert appends a ledger row.
func (r *Repository) Insert(ctx context.Context, tr Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO transactions
(reference_id, transaction_type, order_id, total_amount, payment_method, payment_status, transaction_date)
VALUES ($1,$2,NULLIF($3,0),$4,$5,$6,$7) RETURNING id`,
		tr.ReferenceID, tr.Type, tr.OrderID, tr.Amount, tr.PaymentMethod, tr.PaymentStatus, tr.Date).Scan(&id)
	return id, err
}

// RecordTx appends a ledger row inside an enclosing transaction, applying
// the sign convention and the payment duplicate guard. Used by the order
// refund and purchase payment paths so the ledger write commits or rolls
// back with the rest of the mutation.
func RecordTx(ctx context.Context, tx pgx.Tx, input Input) error {
	if input.Type == "" || input.ReferenceID == "" {
		return ErrValidation
	}
	if isPayment(input.Type) && input.OrderID > 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM transactions WHERE order_id=$1 AND transaction_type=$2)`,
			input.OrderID, input.Type).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}
	}
	status := input.PaymentStatus
	if status == "" {
		status = StatusCompleted
	}
	_, err := tx.Exec(ctx, `INSERT INTO transactions
(reference_id, transaction_type, order_id, total_amount, payment_method, payment_status, transaction_date)
VALUES ($1,$2,NULLIF($3,0),$4,$5,$6,NOW())`,
		input.ReferenceID, input.Type, input.OrderID, applySign(input.Type, input.Amount),
		input.PaymentMethod, status)
	return err
}

// filterClause builds the WHERE clause shared by List and Aggregate.
func filterClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !f.From.IsZero() {
		conds = append(conds, "transaction_date >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "transaction_date <= "+arg(f.To))
	}
	if f.PaymentMethod != "" {
		conds = append(conds, "payment_method = "+arg(f.PaymentMethod))
	}
	if f.Status != "" {
		conds = append(conds, "payment_status = "+arg(f.Status))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, "(reference_id ILIKE "+p+" OR CAST(order_id AS TEXT) ILIKE "+p+")")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns transactions matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Transaction, int, error) {
	where, args := filterClause(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, reference_id, transaction_type, COALESCE(order_id,0), total_amount,
payment_method, payment_status, transaction_date
FROM transactions` + where +
		fmt.Sprintf(" ORDER BY transaction_date DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tr Transaction
		if err := rows.Scan(&tr.ID, &tr.ReferenceID, &tr.Type, &tr.OrderID, &tr.Amount,
			&tr.PaymentMethod, &tr.PaymentStatus, &tr.Date); err != nil {
			return nil, 0, err
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Aggregates holds the raw numbers the summary is derived from.
type Aggregates struct {
	Total     int
	Completed int
	MoneyIn   float64
	MoneyOut  float64
}

// Aggregate computes totals over transactions matching the filter.
func (r *Repository) Aggregate(ctx context.Context, f Filter) (Aggregates, error) {
	where, args := filterClause(f)
	var agg Aggregates
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*),
COUNT(*) FILTER (WHERE payment_status = 'completed'),
COALESCE(SUM(total_amount) FILTER (WHERE total_amount > 0), 0),
COALESCE(SUM(total_amount) FILTER (WHERE total_amount < 0), 0)
FROM transactions`+where, args...).
		Scan(&agg.Total, &agg.Completed, &agg.MoneyIn, &agg.MoneyOut)
	return agg, err
}
