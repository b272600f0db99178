package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items map[int64]*Item
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]*Item)}
}

func (r *memoryRepo) Get(ctx context.Context, productID int64) (Item, error) {
	if it, ok := r.items[productID]; ok {
		return *it, nil
	}
	return Item{}, ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, lowStockThreshold, limit, offset int) ([]Item, int, error) {
	var out []Item
	for _, it := range r.items {
		if lowStockThreshold > 0 && it.StockQuantity >= lowStockThreshold {
			continue
		}
		out = append(out, *it)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Adjust(ctx context.Context, input AdjustmentInput, allowNegative bool) (int, error) {
	it, ok := r.items[input.ProductID]
	if !ok {
		return 0, ErrNotFound
	}
	next := it.StockQuantity + input.Delta
	if next < 0 && !allowNegative {
		return 0, ErrNegativeStock
	}
	it.StockQuantity = next
	it.UpdatedBy = input.ActorID
	return next, nil
}

func TestAdjust(t *testing.T) {
	repo := newMemoryRepo()
	repo.items[1] = &Item{ProductID: 1, ProductName: "Widget", StockQuantity: 10}
	svc := NewService(repo, ServiceConfig{})
	ctx := context.Background()

	stock, err := svc.Adjust(ctx, AdjustmentInput{ProductID: 1, Delta: -4, ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, 6, stock)
	require.Equal(t, int64(9), repo.items[1].UpdatedBy)

	stock, err = svc.Adjust(ctx, AdjustmentInput{ProductID: 1, Delta: 14, ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, 20, stock)
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	svc := NewService(newMemoryRepo(), ServiceConfig{})

	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 1, Delta: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAdjustGuardsNegativeStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.items[1] = &Item{ProductID: 1, StockQuantity: 3}
	svc := NewService(repo, ServiceConfig{})

	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 1, Delta: -5})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.Equal(t, 3, repo.items[1].StockQuantity)
}

func TestAdjustAllowsNegativeWhenConfigured(t *testing.T) {
	repo := newMemoryRepo()
	repo.items[1] = &Item{ProductID: 1, StockQuantity: 3}
	svc := NewService(repo, ServiceConfig{AllowNegativeStock: true})

	stock, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 1, Delta: -5})
	require.NoError(t, err)
	require.Equal(t, -2, stock)
}

func TestAdjustUnknownProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), ServiceConfig{})

	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 99, Delta: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListLowStockFilter(t *testing.T) {
	repo := newMemoryRepo()
	repo.items[1] = &Item{ProductID: 1, StockQuantity: 2}
	repo.items[2] = &Item{ProductID: 2, StockQuantity: 50}
	svc := NewService(repo, ServiceConfig{})

	items, total, err := svc.List(context.Background(), 10, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, int64(1), items[0].ProductID)
}
