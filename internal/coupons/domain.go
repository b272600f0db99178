package coupons

import (
	"errors"
	"time"
)

// DiscountType enumerates supported discount kinds.
type DiscountType string

const (
	// DiscountPercentage discounts a percentage of the order subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed discounts a fixed amount.
	DiscountFixed DiscountType = "fixed"
)

// Status of a coupon. Transitions one way, active to inactive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Coupon is a marketing discount code.
type Coupon struct {
	ID                int64
	Code              string
	DiscountType      DiscountType
	DiscountValue     float64
	StartDate         time.Time
	EndDate           time.Time
	MinOrderAmount    float64
	UsageLimitTotal   int
	UsageLimitPerUser int
	TimesUsed         int
	Status            Status
}

// Usage records one successful redemption.
type Usage struct {
	CouponID int64
	UserID   int64
	OrderID  int64
	UsedAt   time.Time
}

// Validation is the outcome of validating a code against an order.
type Validation struct {
	Valid         bool         `json:"valid"`
	Message       string       `json:"message"`
	CouponID      int64        `json:"coupon_id,omitempty"`
	DiscountType  DiscountType `json:"discount_type,omitempty"`
	DiscountValue float64      `json:"discount_value,omitempty"`
}

var (
	// ErrNotFound indicates no matching coupon.
	ErrNotFound = errors.New("coupons: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("coupons: invalid input")
)
