package ledger

import (
	"errors"
	"time"
)

// Type enumerates money movement kinds. Payments flow in, the rest flow out
// except Adjustment which keeps its caller-supplied sign.
type Type string

const (
	TypeOrderPayment    Type = "Order Payment"
	TypeCustomerPayment Type = "Customer Payment"
	TypeRefund          Type = "Refund"
	TypeExpense         Type = "Expense"
	TypeInvoicePayment  Type = "Invoice Payment"
	TypePurchasePayment Type = "Purchase Payment"
	TypeAdjustment      Type = "Adjustment"
)

// PaymentStatus of a ledger entry.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
)

// Transaction is one append-only ledger row. Never updated once inserted.
type Transaction struct {
	ID            int64
	ReferenceID   string
	Type          Type
	OrderID       int64 // 0 when not tied to an order
	Amount        float64
	PaymentMethod string
	PaymentStatus PaymentStatus
	Date          time.Time
}

// Input describes a ledger entry to record. Amount is the magnitude; the
// sign convention is applied by the service.
type Input struct {
	ReferenceID   string
	Type          Type
	OrderID       int64
	Amount        float64
	PaymentMethod string
	PaymentStatus PaymentStatus
}

// Filter narrows list and summary queries.
type Filter struct {
	From          time.Time
	To            time.Time
	PaymentMethod string
	Status        PaymentStatus
	Search        string
	Limit         int
	Offset        int
}

// Summary aggregates ledger rows matching a filter.
type Summary struct {
	Total       int     `json:"total"`
	MoneyIn     float64 `json:"money_in"`
	MoneyOut    float64 `json:"money_out"`
	Net         float64 `json:"net"`
	Average     float64 `json:"average"`
	SuccessRate float64 `json:"success_rate"`
}

var (
	// ErrNotFound indicates no matching transaction.
	ErrNotFound = errors.New("ledger: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("ledger: invalid input")
)

// isPayment reports whether t records money in for an order.
func isPayment(t Type) bool {
	return t == TypeOrderPayment || t == TypeCustomerPayment
}

// isOutflow reports whether t always records money out.
func isOutflow(t Type) bool {
	switch t {
	case TypeRefund, TypeExpense, TypeInvoicePayment, TypePurchasePayment:
		return true
	}
	return false
}
