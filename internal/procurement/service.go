package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zellow-enterprises/zellow/internal/ledger"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, poID int64) (PurchaseOrder, error)
	List(ctx context.Context, status Status, limit, offset int) ([]PurchaseOrder, int, error)
	Create(ctx context.Context, po PurchaseOrder) (int64, error)
}

// Service orchestrates purchase order receiving and payment.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the procurement service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// InvoiceNumber formats the invoice number for a purchase order.
func InvoiceNumber(year int, poID int64) string {
	return fmt.Sprintf("INV-%d-%05d", year, poID)
}

// ReceiveItem receives qty units against one purchase order line. The line
// is locked, the quantity checked against what remains, inventory stock
// incremented, the order status re-derived and the supplier invoice created
// on the first receipt. One transaction per call.
func (s *Service) ReceiveItem(ctx context.Context, poID, itemID int64, qty int) (Receipt, error) {
	if poID <= 0 || itemID <= 0 || qty <= 0 {
		return Receipt{}, ErrValidation
	}
	var receipt Receipt
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, poID, itemID)
		if err != nil {
			return err
		}
		if qty > item.Remaining() {
			return ErrExceedsRemaining
		}
		r, err := s.receiveLocked(ctx, tx, item, qty)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	s.logger.Info("items received",
		slog.Int64("po_id", poID), slog.Int64("item_id", itemID), slog.Int("quantity", qty))
	return receipt, nil
}

// ReceiveAll receives every outstanding unit on a purchase order in one
// transaction.
func (s *Service) ReceiveAll(ctx context.Context, poID int64) (Receipt, error) {
	if poID <= 0 {
		return Receipt{}, ErrValidation
	}
	var receipt Receipt
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items, err := tx.ListItemsForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		var last *Receipt
		for _, item := range items {
			remaining := item.Remaining()
			if remaining == 0 {
				continue
			}
			r, err := s.receiveLocked(ctx, tx, item, remaining)
			if err != nil {
				return err
			}
			last = &r
		}
		if last == nil {
			return ErrNothingToReceive
		}
		receipt = *last
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	s.logger.Info("purchase order fully received", slog.Int64("po_id", poID))
	return receipt, nil
}

// receiveLocked applies one receipt to an already locked item. Callers have
// verified qty against the remaining quantity.
func (s *Service) receiveLocked(ctx context.Context, tx TxRepository, item Item, qty int) (Receipt, error) {
	if err := tx.AddReceived(ctx, item.ID, qty); err != nil {
		return Receipt{}, err
	}
	newStock, err := tx.AddStock(ctx, item.ProductID, qty)
	if err != nil {
		return Receipt{}, err
	}
	ordered, received, err := tx.ReceivedTotals(ctx, item.PurchaseOrderID)
	if err != nil {
		return Receipt{}, err
	}
	status := deriveStatus(ordered, received)
	if err := tx.SetOrderStatus(ctx, item.PurchaseOrderID, status); err != nil {
		return Receipt{}, err
	}

	hasInvoice, err := tx.HasInvoice(ctx, item.PurchaseOrderID)
	if err != nil {
		return Receipt{}, err
	}
	if !hasInvoice {
		po, err := tx.GetOrder(ctx, item.PurchaseOrderID)
		if err != nil {
			return Receipt{}, err
		}
		now := s.now()
		if _, err := tx.CreateInvoice(ctx, Invoice{
			Number:          InvoiceNumber(now.Year(), po.ID),
			PurchaseOrderID: po.ID,
			SupplierID:      po.SupplierID,
			Amount:          po.TotalAmount,
			DueDate:         now.AddDate(0, 0, 30),
			Status:          "Unpaid",
		}); err != nil {
			return Receipt{}, err
		}
	}

	var progress float64
	if ordered > 0 {
		p, _ := decimal.NewFromInt(int64(received)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(ordered))).
			Round(1).Float64()
		progress = p
	}
	return Receipt{
		Status:    status,
		NewStock:  newStock,
		Received:  item.ReceivedQuantity + qty,
		Remaining: item.Remaining() - qty,
		Progress:  progress,
	}, nil
}

// CreateInput describes a new purchase order.
type CreateInput struct {
	SupplierID int64
	Items      []ItemInput
}

// ItemInput is one requested purchase order line.
type ItemInput struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

// Create inserts a purchase order with its items.
func (s *Service) Create(ctx context.Context, input CreateInput) (PurchaseOrder, error) {
	if input.SupplierID <= 0 || len(input.Items) == 0 {
		return PurchaseOrder{}, ErrValidation
	}
	total := decimal.Zero
	items := make([]Item, 0, len(input.Items))
	for _, it := range input.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 || it.UnitPrice < 0 {
			return PurchaseOrder{}, ErrValidation
		}
		total = total.Add(decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	totalF, _ := total.Round(2).Float64()
	po := PurchaseOrder{
		SupplierID:    input.SupplierID,
		TotalAmount:   totalF,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Items:         items,
	}
	id, err := s.repo.Create(ctx, po)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.ID = id
	s.logger.Info("purchase order created", slog.Int64("po_id", id), slog.Int64("supplier_id", input.SupplierID))
	return po, nil
}

// Get returns a purchase order with its items.
func (s *Service) Get(ctx context.Context, poID int64) (PurchaseOrder, error) {
	if poID <= 0 {
		return PurchaseOrder{}, ErrValidation
	}
	return s.repo.Get(ctx, poID)
}

// List returns purchase orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]PurchaseOrder, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, status, limit, offset)
}

// RecordPayment applies a supplier payment to a purchase order and appends
// the matching ledger entry in the same transaction.
func (s *Service) RecordPayment(ctx context.Context, poID int64, amount float64, method string) (PaymentStatus, error) {
	if poID <= 0 || amount <= 0 {
		return "", ErrValidation
	}
	var status PaymentStatus
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetOrder(ctx, poID)
		if err != nil {
			return err
		}
		paid := decimal.NewFromFloat(po.AmountPaid).Add(decimal.NewFromFloat(amount))
		if paid.GreaterThan(decimal.NewFromFloat(po.TotalAmount)) {
			return ErrValidation
		}
		status = PaymentPartial
		if paid.GreaterThanOrEqual(decimal.NewFromFloat(po.TotalAmount)) {
			status = PaymentPaid
		}
		paidF, _ := paid.Round(2).Float64()
		if err := tx.SetPayment(ctx, poID, paidF, status); err != nil {
			return err
		}
		return tx.InsertLedger(ctx, ledger.Input{
			ReferenceID:   fmt.Sprintf("PO-%d", poID),
			Type:          ledger.TypePurchasePayment,
			Amount:        amount,
			PaymentMethod: method,
			PaymentStatus: ledger.StatusCompleted,
		})
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("purchase payment recorded",
		slog.Int64("po_id", poID), slog.Float64("amount", amount), slog.String("status", string(status)))
	return status, nil
}
