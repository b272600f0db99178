package coupons

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	FindActiveByCode(ctx context.Context, code string, now time.Time) (Coupon, error)
	Get(ctx context.Context, id int64) (Coupon, error)
	CountUsage(ctx context.Context, couponID int64) (int, error)
	CountUserUsage(ctx context.Context, couponID, userID int64) (int, error)
	Deactivate(ctx context.Context, couponID int64) error
	RecordUsage(ctx context.Context, couponID, userID, orderID int64) error
	List(ctx context.Context, limit, offset int) ([]Coupon, int, error)
	Create(ctx context.Context, c Coupon) (int64, error)
}

// Service validates coupon codes and records usage.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the coupon service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SweepExpired deactivates coupons past their end date. Failures are logged
// and swallowed on the validation path; the date-window query filters expired
// coupons regardless.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	return s.repo.SweepExpired(ctx, s.now())
}

// Validate checks a code against the order total and usage caps.
// userID 0 means anonymous; the per-user cap is skipped.
func (s *Service) Validate(ctx context.Context, code string, userID int64, orderTotal float64) (Validation, error) {
	code = strings.TrimSpace(code)
	if code == "" || orderTotal < 0 {
		return Validation{}, ErrValidation
	}

	if _, err := s.repo.SweepExpired(ctx, s.now()); err != nil && s.logger != nil {
		s.logger.Warn("coupon expiry sweep", slog.Any("error", err))
	}

	coupon, err := s.repo.FindActiveByCode(ctx, code, s.now())
	if err != nil {
		if err == ErrNotFound {
			return Validation{Valid: false, Message: "Invalid or expired coupon"}, nil
		}
		return Validation{}, err
	}

	if orderTotal < coupon.MinOrderAmount {
		return Validation{
			Valid:   false,
			Message: fmt.Sprintf("Order total must be at least %.2f to use this coupon", coupon.MinOrderAmount),
		}, nil
	}

	if coupon.UsageLimitTotal > 0 {
		total, err := s.repo.CountUsage(ctx, coupon.ID)
		if err != nil {
			return Validation{}, err
		}
		if total >= coupon.UsageLimitTotal {
			if err := s.repo.Deactivate(ctx, coupon.ID); err != nil {
				return Validation{}, err
			}
			return Validation{Valid: false, Message: "Coupon has reached its maximum usage limit"}, nil
		}
	}

	if userID > 0 && coupon.UsageLimitPerUser > 0 {
		used, err := s.repo.CountUserUsage(ctx, coupon.ID, userID)
		if err != nil {
			return Validation{}, err
		}
		if used >= coupon.UsageLimitPerUser {
			return Validation{Valid: false, Message: "You have reached the usage limit for this coupon"}, nil
		}
	}

	return Validation{
		Valid:         true,
		Message:       "Coupon applied",
		CouponID:      coupon.ID,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
	}, nil
}

// RecordUsage records a redemption. Call only after the owning order commits.
func (s *Service) RecordUsage(ctx context.Context, couponID, userID, orderID int64) error {
	if couponID <= 0 || orderID <= 0 {
		return ErrValidation
	}
	return s.repo.RecordUsage(ctx, couponID, userID, orderID)
}

// Discount computes the discount amount a coupon yields for a subtotal.
func Discount(c Coupon, subtotal float64) float64 {
	switch c.DiscountType {
	case DiscountPercentage:
		return subtotal * c.DiscountValue / 100
	case DiscountFixed:
		if c.DiscountValue > subtotal {
			return subtotal
		}
		return c.DiscountValue
	default:
		return 0
	}
}

// CreateInput describes a new coupon.
type CreateInput struct {
	Code              string
	DiscountType      DiscountType
	DiscountValue     float64
	StartDate         time.Time
	EndDate           time.Time
	MinOrderAmount    float64
	UsageLimitTotal   int
	UsageLimitPerUser int
}

// Create validates and persists a new coupon.
func (s *Service) Create(ctx context.Context, input CreateInput) (Coupon, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if input.Code == "" || input.DiscountValue <= 0 {
		return Coupon{}, ErrValidation
	}
	if input.DiscountType != DiscountPercentage && input.DiscountType != DiscountFixed {
		return Coupon{}, ErrValidation
	}
	if input.DiscountType == DiscountPercentage && input.DiscountValue > 100 {
		return Coupon{}, ErrValidation
	}
	if input.EndDate.Before(input.StartDate) {
		return Coupon{}, ErrValidation
	}
	coupon := Coupon{
		Code:              input.Code,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		MinOrderAmount:    input.MinOrderAmount,
		UsageLimitTotal:   input.UsageLimitTotal,
		UsageLimitPerUser: input.UsageLimitPerUser,
		Status:            StatusActive,
	}
	id, err := s.repo.Create(ctx, coupon)
	if err != nil {
		return Coupon{}, err
	}
	coupon.ID = id
	return coupon, nil
}

// List returns coupons for admin screens.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Coupon, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset)
}
