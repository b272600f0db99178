package inventory

import (
	"errors"
	"time"
)

// Item summarises stock on hand for a product.
type Item struct {
	ProductID     int64
	ProductName   string
	StockQuantity int
	LastRestocked time.Time
	UpdatedBy     int64
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ProductID int64
	Delta     int
	ActorID   int64
	Note      string
}

var (
	// ErrNegativeStock triggered when a movement would drive stock below zero.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInvalidQuantity indicates a zero delta.
	ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")
	// ErrNotFound indicates the product has no inventory row.
	ErrNotFound = errors.New("inventory: not found")
)
