package shipping

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rates     map[[2]int64]Rate
	regions   map[int64]*Region
	findCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rates:   make(map[[2]int64]Rate),
		regions: make(map[int64]*Region),
	}
}

func (r *memoryRepo) FindRate(ctx context.Context, methodID, regionID int64) (Rate, error) {
	r.findCalls++
	if rate, ok := r.rates[[2]int64{methodID, regionID}]; ok {
		return rate, nil
	}
	return Rate{}, ErrNotFound
}

func (r *memoryRepo) ListMethods(ctx context.Context) ([]Method, error) {
	return nil, nil
}

func (r *memoryRepo) ListRegions(ctx context.Context) ([]Region, error) {
	return nil, nil
}

func (r *memoryRepo) ToggleRegion(ctx context.Context, regionID int64) (bool, error) {
	rg, ok := r.regions[regionID]
	if !ok {
		return false, ErrNotFound
	}
	rg.IsActive = !rg.IsActive
	return rg.IsActive, nil
}

func (r *memoryRepo) UpsertRate(ctx context.Context, rate Rate) (int64, error) {
	r.rates[[2]int64{rate.MethodID, rate.RegionID}] = rate
	return 1, nil
}

func testCache(t *testing.T) (*RateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateCache(client, time.Minute), mr
}

func TestComputeFee(t *testing.T) {
	rate := Rate{BaseRate: 10, PerItemFee: 2.5}

	require.InDelta(t, 10.0, ComputeFee(rate, 1, 50), 0.0001)
	require.InDelta(t, 17.5, ComputeFee(rate, 4, 50), 0.0001)

	rate.FreeShippingThreshold = 100
	require.InDelta(t, 0.0, ComputeFee(rate, 4, 100), 0.0001)
	require.InDelta(t, 17.5, ComputeFee(rate, 4, 99.99), 0.0001)
}

func TestCalculateUsesCache(t *testing.T) {
	repo := newMemoryRepo()
	repo.rates[[2]int64{1, 2}] = Rate{MethodID: 1, RegionID: 2, BaseRate: 10, PerItemFee: 2}
	cache, _ := testCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	fee, err := svc.Calculate(ctx, 1, 2, 3, 50)
	require.NoError(t, err)
	require.InDelta(t, 14.0, fee, 0.0001)
	require.Equal(t, 1, repo.findCalls)

	// second call is served from the cache
	fee, err = svc.Calculate(ctx, 1, 2, 3, 50)
	require.NoError(t, err)
	require.InDelta(t, 14.0, fee, 0.0001)
	require.Equal(t, 1, repo.findCalls)
}

func TestCalculateWithoutCache(t *testing.T) {
	repo := newMemoryRepo()
	repo.rates[[2]int64{1, 2}] = Rate{MethodID: 1, RegionID: 2, BaseRate: 8}
	svc := NewService(repo, nil, nil)

	fee, err := svc.Calculate(context.Background(), 1, 2, 1, 10)
	require.NoError(t, err)
	require.InDelta(t, 8.0, fee, 0.0001)
}

func TestCalculateNotAvailable(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.Calculate(context.Background(), 1, 2, 1, 10)
	require.ErrorIs(t, err, ErrNotAvailable)
}

func TestCalculateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Calculate(ctx, 0, 2, 1, 10)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Calculate(ctx, 1, 2, 0, 10)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Calculate(ctx, 1, 2, 1, -1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSaveRateInvalidatesCache(t *testing.T) {
	repo := newMemoryRepo()
	repo.rates[[2]int64{1, 2}] = Rate{MethodID: 1, RegionID: 2, BaseRate: 10}
	cache, _ := testCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	fee, err := svc.Calculate(ctx, 1, 2, 1, 10)
	require.NoError(t, err)
	require.InDelta(t, 10.0, fee, 0.0001)

	_, err = svc.SaveRate(ctx, Rate{MethodID: 1, RegionID: 2, BaseRate: 12})
	require.NoError(t, err)

	fee, err = svc.Calculate(ctx, 1, 2, 1, 10)
	require.NoError(t, err)
	require.InDelta(t, 12.0, fee, 0.0001)
}

func TestToggleRegionDropsCachedRates(t *testing.T) {
	repo := newMemoryRepo()
	repo.rates[[2]int64{1, 2}] = Rate{MethodID: 1, RegionID: 2, BaseRate: 10}
	repo.regions[2] = &Region{ID: 2, IsActive: true}
	cache, mr := testCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	_, err := svc.Calculate(ctx, 1, 2, 1, 10)
	require.NoError(t, err)
	require.True(t, mr.Exists("shiprate:1:2"))

	isActive, err := svc.ToggleRegion(ctx, 2)
	require.NoError(t, err)
	require.False(t, isActive)
	require.False(t, mr.Exists("shiprate:1:2"))
}
