package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	coupons map[int64]*Coupon
	usage   []Usage
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{coupons: make(map[int64]*Coupon)}
}

func (r *memoryRepo) add(c Coupon) *Coupon {
	r.nextID++
	c.ID = r.nextID
	r.coupons[c.ID] = &c
	return &c
}

func (r *memoryRepo) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var n int
	for _, c := range r.coupons {
		if c.Status == StatusActive && c.EndDate.Before(now) {
			c.Status = StatusInactive
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) FindActiveByCode(ctx context.Context, code string, now time.Time) (Coupon, error) {
	for _, c := range r.coupons {
		if c.Code == code && c.Status == StatusActive && !now.Before(c.StartDate) && !now.After(c.EndDate) {
			return *c, nil
		}
	}
	return Coupon{}, ErrNotFound
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Coupon, error) {
	if c, ok := r.coupons[id]; ok {
		return *c, nil
	}
	return Coupon{}, ErrNotFound
}

func (r *memoryRepo) CountUsage(ctx context.Context, couponID int64) (int, error) {
	var n int
	for _, u := range r.usage {
		if u.CouponID == couponID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) CountUserUsage(ctx context.Context, couponID, userID int64) (int, error) {
	var n int
	for _, u := range r.usage {
		if u.CouponID == couponID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, couponID int64) error {
	if c, ok := r.coupons[couponID]; ok {
		c.Status = StatusInactive
	}
	return nil
}

func (r *memoryRepo) RecordUsage(ctx context.Context, couponID, userID, orderID int64) error {
	c, ok := r.coupons[couponID]
	if !ok {
		return ErrNotFound
	}
	r.usage = append(r.usage, Usage{CouponID: couponID, UserID: userID, OrderID: orderID})
	c.TimesUsed++
	if c.UsageLimitTotal > 0 && c.TimesUsed >= c.UsageLimitTotal {
		c.Status = StatusInactive
	}
	return nil
}

func (r *memoryRepo) List(ctx context.Context, limit, offset int) ([]Coupon, int, error) {
	var out []Coupon
	for _, c := range r.coupons {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Create(ctx context.Context, c Coupon) (int64, error) {
	return r.add(c).ID, nil
}

func activeCoupon(code string) Coupon {
	now := time.Now()
	return Coupon{
		Code:          code,
		DiscountType:  DiscountPercentage,
		DiscountValue: 10,
		StartDate:     now.Add(-24 * time.Hour),
		EndDate:       now.Add(24 * time.Hour),
		Status:        StatusActive,
	}
}

func TestValidateAppliesActiveCoupon(t *testing.T) {
	repo := newMemoryRepo()
	c := repo.add(activeCoupon("SAVE10"))
	svc := NewService(repo, nil)
	ctx := context.Background()

	result, err := svc.Validate(ctx, "SAVE10", 1, 100)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, c.ID, result.CouponID)
	require.Equal(t, DiscountPercentage, result.DiscountType)
	require.InDelta(t, 10.0, result.DiscountValue, 0.0001)
}

func TestValidateUnknownCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	result, err := svc.Validate(context.Background(), "NOPE", 1, 100)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, "Invalid or expired coupon", result.Message)
}

func TestValidateExpiredCouponDeactivated(t *testing.T) {
	repo := newMemoryRepo()
	c := activeCoupon("OLD")
	c.StartDate = time.Now().Add(-72 * time.Hour)
	c.EndDate = time.Now().Add(-24 * time.Hour)
	stored := repo.add(c)
	svc := NewService(repo, nil)

	result, err := svc.Validate(context.Background(), "OLD", 1, 100)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, StatusInactive, repo.coupons[stored.ID].Status)
}

func TestValidateMinOrderAmount(t *testing.T) {
	repo := newMemoryRepo()
	c := activeCoupon("BIG50")
	c.MinOrderAmount = 50
	repo.add(c)
	svc := NewService(repo, nil)

	result, err := svc.Validate(context.Background(), "BIG50", 1, 40)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Contains(t, result.Message, "50.00")

	result, err = svc.Validate(context.Background(), "BIG50", 1, 50)
	require.NoError(t, err)
	require.True(t, result.Valid)
}

func TestValidateGlobalCapDeactivates(t *testing.T) {
	repo := newMemoryRepo()
	c := activeCoupon("CAP3")
	c.UsageLimitTotal = 3
	stored := repo.add(c)
	svc := NewService(repo, nil)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		result, err := svc.Validate(ctx, "CAP3", i, 100)
		require.NoError(t, err)
		require.True(t, result.Valid)
		require.NoError(t, svc.RecordUsage(ctx, stored.ID, i, 100+i))
	}

	result, err := svc.Validate(ctx, "CAP3", 4, 100)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, StatusInactive, repo.coupons[stored.ID].Status)
}

func TestValidatePerUserCap(t *testing.T) {
	repo := newMemoryRepo()
	c := activeCoupon("ONCE")
	c.UsageLimitPerUser = 1
	stored := repo.add(c)
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.RecordUsage(ctx, stored.ID, 7, 500))

	result, err := svc.Validate(ctx, "ONCE", 7, 100)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, "You have reached the usage limit for this coupon", result.Message)
	require.Equal(t, StatusActive, repo.coupons[stored.ID].Status)

	result, err = svc.Validate(ctx, "ONCE", 8, 100)
	require.NoError(t, err)
	require.True(t, result.Valid)
}

func TestDiscountAmounts(t *testing.T) {
	pct := Coupon{DiscountType: DiscountPercentage, DiscountValue: 25}
	require.InDelta(t, 25.0, Discount(pct, 100), 0.0001)

	fixed := Coupon{DiscountType: DiscountFixed, DiscountValue: 30}
	require.InDelta(t, 30.0, Discount(fixed, 100), 0.0001)
	require.InDelta(t, 20.0, Discount(fixed, 20), 0.0001)
}

func TestCreateRejectsBadInput(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.Create(ctx, CreateInput{Code: "", DiscountType: DiscountFixed, DiscountValue: 5, StartDate: now, EndDate: now.Add(time.Hour)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Code: "PCT", DiscountType: DiscountPercentage, DiscountValue: 150, StartDate: now, EndDate: now.Add(time.Hour)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Code: "REV", DiscountType: DiscountFixed, DiscountValue: 5, StartDate: now, EndDate: now.Add(-time.Hour)})
	require.ErrorIs(t, err, ErrValidation)

	coupon, err := svc.Create(ctx, CreateInput{Code: " save5 ", DiscountType: DiscountFixed, DiscountValue: 5, StartDate: now, EndDate: now.Add(time.Hour)})
	require.NoError(t, err)
	require.Equal(t, "SAVE5", coupon.Code)
	require.Equal(t, StatusActive, coupon.Status)
}
