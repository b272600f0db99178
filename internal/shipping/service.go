package shipping

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	FindRate(ctx context.Context, methodID, regionID int64) (Rate, error)
	ListMethods(ctx context.Context) ([]Method, error)
	ListRegions(ctx context.Context) ([]Region, error)
	ToggleRegion(ctx context.Context, regionID int64) (bool, error)
	UpsertRate(ctx context.Context, rate Rate) (int64, error)
}

// Service resolves shipping fees from configured rates.
type Service struct {
	repo   RepositoryPort
	cache  *RateCache
	logger *slog.Logger
}

// NewService constructs the shipping service. cache may be nil.
func NewService(repo RepositoryPort, cache *RateCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Calculate resolves the shipping fee for a (method, region) pair.
// Returns ErrNotAvailable when no active rate exists. The fee follows
// base_rate + per_item_fee x (itemCount-1), waived entirely once the order
// total reaches the free-shipping threshold.
func (s *Service) Calculate(ctx context.Context, methodID, regionID int64, itemCount int, orderTotal float64) (float64, error) {
	if methodID <= 0 || regionID <= 0 || itemCount < 1 || orderTotal < 0 {
		return 0, ErrValidation
	}

	rate, ok := s.cache.Get(ctx, methodID, regionID)
	if !ok {
		var err error
		rate, err = s.repo.FindRate(ctx, methodID, regionID)
		if err != nil {
			if err == ErrNotFound {
				return 0, ErrNotAvailable
			}
			return 0, err
		}
		if err := s.cache.Set(ctx, rate); err != nil && s.logger != nil {
			s.logger.Warn("cache shipping rate", slog.Any("error", err))
		}
	}

	return ComputeFee(rate, itemCount, orderTotal), nil
}

// ComputeFee applies the fee formula to a rate row with 2-decimal rounding.
func ComputeFee(rate Rate, itemCount int, orderTotal float64) float64 {
	if rate.FreeShippingThreshold > 0 && orderTotal >= rate.FreeShippingThreshold {
		return 0
	}
	extra := itemCount - 1
	if extra < 0 {
		extra = 0
	}
	fee := decimal.NewFromFloat(rate.BaseRate).
		Add(decimal.NewFromFloat(rate.PerItemFee).Mul(decimal.NewFromInt(int64(extra))))
	f, _ := fee.Round(2).Float64()
	return f
}

// ToggleRegion flips a region's active flag, dropping any cached rates for it.
func (s *Service) ToggleRegion(ctx context.Context, regionID int64) (bool, error) {
	if regionID <= 0 {
		return false, ErrValidation
	}
	isActive, err := s.repo.ToggleRegion(ctx, regionID)
	if err != nil {
		return false, err
	}
	if err := s.cache.InvalidateRegion(ctx, regionID); err != nil && s.logger != nil {
		s.logger.Warn("invalidate region rates", slog.Any("error", err), slog.Int64("region_id", regionID))
	}
	return isActive, nil
}

// ListMethods returns all shipping methods.
func (s *Service) ListMethods(ctx context.Context) ([]Method, error) {
	return s.repo.ListMethods(ctx)
}

// ListRegions returns all regions.
func (s *Service) ListRegions(ctx context.Context) ([]Region, error) {
	return s.repo.ListRegions(ctx)
}

// SaveRate creates or updates a rate and refreshes the cache entry.
func (s *Service) SaveRate(ctx context.Context, rate Rate) (int64, error) {
	if rate.MethodID <= 0 || rate.RegionID <= 0 || rate.BaseRate < 0 || rate.PerItemFee < 0 {
		return 0, ErrValidation
	}
	id, err := s.repo.UpsertRate(ctx, rate)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(ctx, rate.MethodID, rate.RegionID); err != nil && s.logger != nil {
		s.logger.Warn("invalidate shipping rate", slog.Any("error", err))
	}
	return id, nil
}
