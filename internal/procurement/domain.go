package procurement

import (
	"errors"
	"time"
)

// Status of a purchase order, derived from its items' received quantities.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPartial  Status = "partial"
	StatusReceived Status = "received"
)

// PaymentStatus of a purchase order.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// PurchaseOrder placed with a supplier for stock replenishment.
type PurchaseOrder struct {
	ID            int64
	SupplierID    int64
	TotalAmount   float64
	Status        Status
	PaymentStatus PaymentStatus
	AmountPaid    float64
	CreatedAt     time.Time
	Items         []Item
}

// Item is one purchase order line.
type Item struct {
	ID               int64
	PurchaseOrderID  int64
	ProductID        int64
	Quantity         int
	ReceivedQuantity int
	UnitPrice        float64
	LastReceivedAt   time.Time
}

// Remaining units not yet received.
func (it Item) Remaining() int {
	return it.Quantity - it.ReceivedQuantity
}

// Invoice auto-created on the first receipt against a purchase order.
type Invoice struct {
	ID              int64
	Number          string
	PurchaseOrderID int64
	SupplierID      int64
	Amount          float64
	DueDate         time.Time
	Status          string
}

// Receipt reports the outcome of a receiving call.
type Receipt struct {
	Status    Status  `json:"status"`
	NewStock  int     `json:"new_stock"`
	Received  int     `json:"received"`
	Remaining int     `json:"remaining"`
	Progress  float64 `json:"progress"`
}

var (
	// ErrNotFound indicates no matching purchase order or item.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
	// ErrExceedsRemaining indicates a receive quantity beyond what is outstanding.
	ErrExceedsRemaining = errors.New("procurement: quantity exceeds remaining")
	// ErrNothingToReceive indicates every line is already fully received.
	ErrNothingToReceive = errors.New("procurement: nothing to receive")
)

// deriveStatus compares total received against total ordered.
func deriveStatus(totalOrdered, totalReceived int) Status {
	switch {
	case totalReceived == 0:
		return StatusPending
	case totalReceived >= totalOrdered:
		return StatusReceived
	default:
		return StatusPartial
	}
}
