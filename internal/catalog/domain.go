package catalog

import "errors"

// Product is a sellable item.
type Product struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CategoryID int64   `json:"category_id"`
	Price      float64 `json:"price"`
	IsActive   bool    `json:"is_active"`
}

// Category groups products.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Customer places orders.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Supplier fulfils purchase orders.
type Supplier struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ErrNotFound indicates a missing masterdata row.
var ErrNotFound = errors.New("catalog: not found")
