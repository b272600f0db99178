package inventory

import (
	"context"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, productID int64) (Item, error)
	List(ctx context.Context, lowStockThreshold int, limit, offset int) ([]Item, int, error)
	Adjust(ctx context.Context, input AdjustmentInput, allowNegative bool) (int, error)
}

// Service coordinates inventory reads and manual adjustments. Stock changes
// driven by orders and purchase-order receiving run inside those modules'
// transactions, not through this service.
type Service struct {
	repo     RepositoryPort
	allowNeg bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// NewService builds a Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	return &Service{repo: repo, allowNeg: cfg.AllowNegativeStock}
}

// Get returns the stock row for a product.
func (s *Service) Get(ctx context.Context, productID int64) (Item, error) {
	return s.repo.Get(ctx, productID)
}

// List returns stock rows with an optional low-stock filter.
func (s *Service) List(ctx context.Context, lowStockThreshold, limit, offset int) ([]Item, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, lowStockThreshold, limit, offset)
}

// Adjust applies a manual stock correction.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (int, error) {
	if input.Delta == 0 {
		return 0, ErrInvalidQuantity
	}
	return s.repo.Adjust(ctx, input, s.allowNeg)
}
