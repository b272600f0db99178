package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows   []Transaction
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{}
}

func (r *memoryRepo) Exists(ctx context.Context, orderID int64, t Type) (bool, error) {
	for _, tr := range r.rows {
		if tr.OrderID == orderID && tr.Type == t {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(ctx context.Context, tr Transaction) (int64, error) {
	r.nextID++
	tr.ID = r.nextID
	r.rows = append(r.rows, tr)
	return tr.ID, nil
}

func (r *memoryRepo) List(ctx context.Context, f Filter) ([]Transaction, int, error) {
	out := make([]Transaction, len(r.rows))
	copy(out, r.rows)
	return out, len(out), nil
}

func (r *memoryRepo) Aggregate(ctx context.Context, f Filter) (Aggregates, error) {
	var agg Aggregates
	for _, tr := range r.rows {
		agg.Total++
		if tr.PaymentStatus == StatusCompleted {
			agg.Completed++
		}
		if tr.Amount > 0 {
			agg.MoneyIn += tr.Amount
		} else {
			agg.MoneyOut += tr.Amount
		}
	}
	return agg, nil
}

func TestRecordAppliesSignConvention(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	payment, err := svc.Record(ctx, Input{ReferenceID: "TXN-1", Type: TypeOrderPayment, OrderID: 1, Amount: 100})
	require.NoError(t, err)
	require.InDelta(t, 100.0, payment.Amount, 0.0001)

	refund, err := svc.Record(ctx, Input{ReferenceID: "TXN-2", Type: TypeRefund, OrderID: 2, Amount: 80})
	require.NoError(t, err)
	require.InDelta(t, -80.0, refund.Amount, 0.0001)

	// callers passing a pre-signed magnitude still land on the convention
	expense, err := svc.Record(ctx, Input{ReferenceID: "TXN-3", Type: TypeExpense, Amount: -40})
	require.NoError(t, err)
	require.InDelta(t, -40.0, expense.Amount, 0.0001)

	adj, err := svc.Record(ctx, Input{ReferenceID: "TXN-4", Type: TypeAdjustment, Amount: 10})
	require.NoError(t, err)
	require.InDelta(t, 10.0, adj.Amount, 0.0001)
}

func TestRecordDuplicatePaymentIsNoOp(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.Record(ctx, Input{ReferenceID: "TXN-1", Type: TypeOrderPayment, OrderID: 9, Amount: 100})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := svc.Record(ctx, Input{ReferenceID: "TXN-1B", Type: TypeOrderPayment, OrderID: 9, Amount: 100})
	require.NoError(t, err)
	require.Zero(t, second.ID)
	require.Len(t, repo.rows, 1)

	// a refund for the same order is not a duplicate
	refund, err := svc.Record(ctx, Input{ReferenceID: "TXN-2", Type: TypeRefund, OrderID: 9, Amount: 100})
	require.NoError(t, err)
	require.NotZero(t, refund.ID)
	require.Len(t, repo.rows, 2)
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, Input{ReferenceID: "", Type: TypeExpense, Amount: 10})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Record(ctx, Input{ReferenceID: "TXN-1", Type: "Bogus", Amount: 10})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Record(ctx, Input{ReferenceID: "TXN-1", Type: TypeExpense, Amount: 0})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSummarySuccessRate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, Input{ReferenceID: "TXN-1", Type: TypeOrderPayment, OrderID: 1, Amount: 100})
	require.NoError(t, err)
	_, err = svc.Record(ctx, Input{ReferenceID: "TXN-2", Type: TypeOrderPayment, OrderID: 2, Amount: 50, PaymentStatus: StatusFailed})
	require.NoError(t, err)
	_, err = svc.Record(ctx, Input{ReferenceID: "TXN-3", Type: TypeRefund, OrderID: 1, Amount: 30})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, sum.Total)
	require.InDelta(t, 150.0, sum.MoneyIn, 0.0001)
	require.InDelta(t, -30.0, sum.MoneyOut, 0.0001)
	require.InDelta(t, 120.0, sum.Net, 0.0001)
	require.InDelta(t, 40.0, sum.Average, 0.0001)
	require.InDelta(t, 66.7, sum.SuccessRate, 0.0001)
}

func TestSummaryEmpty(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	sum, err := svc.Summary(context.Background(), Filter{})
	require.NoError(t, err)
	require.Zero(t, sum.Total)
	require.Zero(t, sum.SuccessRate)
	require.Zero(t, sum.Average)
}
