package ledger

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Exists(ctx context.Context, orderID int64, t Type) (bool, error)
	Insert(ctx context.Context, tr Transaction) (int64, error)
	List(ctx context.Context, f Filter) ([]Transaction, int, error)
	Aggregate(ctx context.Context, f Filter) (Aggregates, error)
}

// Service records and reports on ledger transactions.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// applySign enforces the sign convention. Payments are money in, refunds and
// the expense family are money out regardless of the sign the caller passed.
// Adjustments keep their sign.
func applySign(t Type, amount float64) float64 {
	switch {
	case isPayment(t):
		return math.Abs(amount)
	case isOutflow(t):
		return -math.Abs(amount)
	default:
		return amount
	}
}

// Record appends a ledger entry. Recording a payment for an order that
// already has one of the same type is a no-op.
func (s *Service) Record(ctx context.Context, input Input) (Transaction, error) {
	if strings.TrimSpace(input.ReferenceID) == "" || input.Amount == 0 {
		return Transaction{}, ErrValidation
	}
	switch input.Type {
	case TypeOrderPayment, TypeCustomerPayment, TypeRefund, TypeExpense,
		TypeInvoicePayment, TypePurchasePayment, TypeAdjustment:
	default:
		return Transaction{}, ErrValidation
	}

	if isPayment(input.Type) && input.OrderID > 0 {
		exists, err := s.repo.Exists(ctx, input.OrderID, input.Type)
		if err != nil {
			return Transaction{}, err
		}
		if exists {
			if s.logger != nil {
				s.logger.Info("duplicate payment ignored",
					slog.Int64("order_id", input.OrderID), slog.String("type", string(input.Type)))
			}
			return Transaction{}, nil
		}
	}

	status := input.PaymentStatus
	if status == "" {
		status = StatusCompleted
	}
	tr := Transaction{
		ReferenceID:   strings.TrimSpace(input.ReferenceID),
		Type:          input.Type,
		OrderID:       input.OrderID,
		Amount:        applySign(input.Type, input.Amount),
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: status,
		Date:          s.now(),
	}
	id, err := s.repo.Insert(ctx, tr)
	if err != nil {
		return Transaction{}, err
	}
	tr.ID = id
	return tr, nil
}

// List returns transactions matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Transaction, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return s.repo.List(ctx, f)
}

// Summary derives totals and the success rate for transactions matching the
// filter. Success rate is completed over total as a percentage with one
// decimal, zero when nothing matches.
func (s *Service) Summary(ctx context.Context, f Filter) (Summary, error) {
	agg, err := s.repo.Aggregate(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		Total:    agg.Total,
		MoneyIn:  agg.MoneyIn,
		MoneyOut: agg.MoneyOut,
	}
	in := decimal.NewFromFloat(agg.MoneyIn)
	out := decimal.NewFromFloat(agg.MoneyOut)
	sum.Net, _ = in.Add(out).Round(2).Float64()
	if agg.Total > 0 {
		avg := in.Add(out).Div(decimal.NewFromInt(int64(agg.Total)))
		sum.Average, _ = avg.Round(2).Float64()
		rate := decimal.NewFromInt(int64(agg.Completed)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(agg.Total)))
		sum.SuccessRate, _ = rate.Round(1).Float64()
	}
	return sum, nil
}
