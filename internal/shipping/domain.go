package shipping

import "errors"

// Method is a shipping method (standard, express, pickup).
type Method struct {
	ID       int64
	Name     string
	IsActive bool
}

// Region is a delivery region that rates are keyed against.
type Region struct {
	ID       int64
	Name     string
	IsActive bool
}

// Rate configures the fee for a (method, region) pair.
type Rate struct {
	ID                    int64
	MethodID              int64
	RegionID              int64
	BaseRate              float64
	PerItemFee            float64
	FreeShippingThreshold float64
	IsActive              bool
}

var (
	// ErrNotFound indicates no rate configured for the pair.
	ErrNotFound = errors.New("shipping: not found")
	// ErrNotAvailable indicates the method or region is disabled.
	ErrNotAvailable = errors.New("shipping: not available for this destination")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("shipping: invalid input")
)
