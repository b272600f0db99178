package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/zellow-enterprises/zellow/internal/ledger"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, orderID int64) (Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	SetTracking(ctx context.Context, orderID int64, trackingNumber string) error
}

// Service orchestrates order creation and lifecycle updates.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs the order service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID   int64
	Quantity    int
	UnitPrice   float64
	ServiceType string
	ServiceCost float64
}

// CreateInput describes a new order.
type CreateInput struct {
	CustomerID     int64
	Items          []ItemInput
	ShippingFee    float64
	DiscountAmount float64
	CouponID       int64
	PaymentMethod  string
}

// Create inserts the order header and its items, deducts stock and records
// coupon usage in one transaction. Any failure rolls the whole order back.
func (s *Service) Create(ctx context.Context, input CreateInput) (Order, error) {
	if input.CustomerID <= 0 || len(input.Items) == 0 {
		return Order{}, ErrValidation
	}
	if input.ShippingFee < 0 || input.DiscountAmount < 0 {
		return Order{}, ErrValidation
	}
	for _, it := range input.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 || it.UnitPrice < 0 || it.ServiceCost < 0 {
			return Order{}, ErrValidation
		}
	}

	subtotal := decimal.Zero
	items := make([]Item, 0, len(input.Items))
	for _, it := range input.Items {
		line := decimal.NewFromFloat(it.UnitPrice).
			Mul(decimal.NewFromInt(int64(it.Quantity))).
			Add(decimal.NewFromFloat(it.ServiceCost)).
			Round(2)
		subtotal = subtotal.Add(line)
		lineF, _ := line.Float64()
		items = append(items, Item{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    lineF,
			ServiceType: it.ServiceType,
			ServiceCost: it.ServiceCost,
		})
	}
	total := subtotal.
		Add(decimal.NewFromFloat(input.ShippingFee)).
		Sub(decimal.NewFromFloat(input.DiscountAmount)).
		Round(2)
	subtotalF, _ := subtotal.Float64()
	totalF, _ := total.Float64()

	order := Order{
		CustomerID:     input.CustomerID,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		Subtotal:       subtotalF,
		DiscountAmount: input.DiscountAmount,
		ShippingFee:    input.ShippingFee,
		TotalAmount:    totalF,
		CouponID:       input.CouponID,
		PaymentMethod:  input.PaymentMethod,
		Items:          items,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.CustomerExists(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrCustomerNotFound
		}
		id, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		if err := tx.InsertItems(ctx, id, items); err != nil {
			return err
		}
		for _, it := range items {
			if _, err := tx.DeductStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if input.CouponID > 0 {
			if err := tx.RecordCouponUsage(ctx, input.CouponID, input.CustomerID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("order created",
		slog.Int64("order_id", order.ID),
		slog.Int64("customer_id", order.CustomerID),
		slog.Float64("total", order.TotalAmount))
	return order, nil
}

// UpdateStatus transitions an order. Cancelling or refunding an order that
// carries a coupon reverses the coupon usage; refunds also append the
// ledger rows reversing the money movement. All side effects share one
// transaction with the status update.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status Status, payment PaymentStatus) (Order, error) {
	if orderID <= 0 || !ValidStatus(status) {
		return Order{}, ErrValidation
	}
	if payment != "" && !ValidPaymentStatus(payment) {
		return Order{}, ErrValidation
	}

	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.CouponID > 0 && (status == StatusCancelled || payment == PaymentRefunded) {
			if err := tx.ReverseCouponUsage(ctx, order.CouponID, order.ID); err != nil {
				return err
			}
			if err := tx.ClearCoupon(ctx, order.ID); err != nil {
				return err
			}
			order.CouponID = 0
		}

		if err := tx.ApplyStatus(ctx, orderID, status, payment); err != nil {
			return err
		}

		if payment == PaymentRefunded {
			if err := tx.InsertLedger(ctx, ledger.Input{
				ReferenceID:   fmt.Sprintf("REF-%d", order.ID),
				Type:          ledger.TypeRefund,
				OrderID:       order.ID,
				Amount:        order.TotalAmount,
				PaymentMethod: order.PaymentMethod,
				PaymentStatus: ledger.StatusCompleted,
			}); err != nil {
				return err
			}
			if order.DiscountAmount > 0 {
				if err := tx.InsertLedger(ctx, ledger.Input{
					ReferenceID:   fmt.Sprintf("ADJ-%d", order.ID),
					Type:          ledger.TypeAdjustment,
					OrderID:       order.ID,
					Amount:        order.DiscountAmount,
					PaymentMethod: order.PaymentMethod,
					PaymentStatus: ledger.StatusCompleted,
				}); err != nil {
					return err
				}
			}
		}

		order.Status = status
		if payment != "" {
			order.PaymentStatus = payment
		}
		updated = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("order status updated",
		slog.Int64("order_id", orderID),
		slog.String("status", string(status)),
		slog.String("payment_status", string(payment)))
	return updated, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, orderID int64) (Order, error) {
	if orderID <= 0 {
		return Order{}, ErrValidation
	}
	return s.repo.Get(ctx, orderID)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return s.repo.List(ctx, f)
}

// Delete removes an order and its items.
func (s *Service) Delete(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return ErrValidation
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteOrder(ctx, orderID)
	})
}

// SetTracking stamps a tracking number on an order.
func (s *Service) SetTracking(ctx context.Context, orderID int64, trackingNumber string) error {
	if orderID <= 0 || trackingNumber == "" {
		return ErrValidation
	}
	return s.repo.SetTracking(ctx, orderID, trackingNumber)
}
