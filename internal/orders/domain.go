package orders

import (
	"errors"
	"time"
)

// Status of a customer order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
	StatusRefunded   Status = "Refunded"
)

// PaymentStatus of a customer order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

// Order is a customer order header.
type Order struct {
	ID             int64
	CustomerID     int64
	Status         Status
	PaymentStatus  PaymentStatus
	Subtotal       float64
	DiscountAmount float64
	ShippingFee    float64
	TotalAmount    float64
	CouponID       int64 // 0 when no coupon applied
	TrackingNumber string
	PaymentMethod  string
	CreatedAt      time.Time
	Items          []Item
}

// Item is one order line. Immutable after creation.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	Quantity    int
	UnitPrice   float64
	Subtotal    float64
	ServiceType string
	ServiceCost float64
	Status      string
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Search        string
	Limit         int
	Offset        int
}

var (
	// ErrNotFound indicates no matching order.
	ErrNotFound = errors.New("orders: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("orders: invalid input")
	// ErrCustomerNotFound indicates the referenced customer does not exist.
	ErrCustomerNotFound = errors.New("orders: customer not found")
	// ErrInsufficientStock indicates an item cannot be fulfilled.
	ErrInsufficientStock = errors.New("orders: insufficient stock")
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether p is a known payment status.
func ValidPaymentStatus(p PaymentStatus) bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
