package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zellow-enterprises/zellow/internal/ledger"
)

type usageKey struct {
	couponID int64
	orderID  int64
}

type memoryRepo struct {
	customers map[int64]bool
	stock     map[int64]int
	orders    map[int64]*Order
	usage     map[usageKey]bool
	timesUsed map[int64]int
	ledger    []ledger.Input
	nextID    int64
	failOn    string
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers: make(map[int64]bool),
		stock:     make(map[int64]int),
		orders:    make(map[int64]*Order),
		usage:     make(map[usageKey]bool),
		timesUsed: make(map[int64]int),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	// snapshot so a failed callback leaves no partial state behind
	snap := r.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		*r = *snap
		return err
	}
	return nil
}

func (r *memoryRepo) clone() *memoryRepo {
	c := newMemoryRepo()
	for k, v := range r.customers {
		c.customers[k] = v
	}
	for k, v := range r.stock {
		c.stock[k] = v
	}
	for k, v := range r.orders {
		o := *v
		c.orders[k] = &o
	}
	for k, v := range r.usage {
		c.usage[k] = v
	}
	for k, v := range r.timesUsed {
		c.timesUsed[k] = v
	}
	c.ledger = append(c.ledger, r.ledger...)
	c.nextID = r.nextID
	c.failOn = r.failOn
	return c
}

func (r *memoryRepo) Get(ctx context.Context, orderID int64) (Order, error) {
	if o, ok := r.orders[orderID]; ok {
		return *o, nil
	}
	return Order{}, ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	var out []Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (r *memoryRepo) SetTracking(ctx context.Context, orderID int64, trackingNumber string) error {
	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.TrackingNumber = trackingNumber
	return nil
}

func (t *memoryTx) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	return t.repo.customers[customerID], nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, o Order) (int64, error) {
	t.repo.nextID++
	o.ID = t.repo.nextID
	t.repo.orders[o.ID] = &o
	return o.ID, nil
}

func (t *memoryTx) InsertItems(ctx context.Context, orderID int64, items []Item) error {
	if t.repo.failOn == "InsertItems" {
		return errInjected
	}
	o := t.repo.orders[orderID]
	o.Items = append(o.Items, items...)
	return nil
}

func (t *memoryTx) DeductStock(ctx context.Context, productID int64, qty int) (int, error) {
	current, ok := t.repo.stock[productID]
	if !ok || current < qty {
		return 0, ErrInsufficientStock
	}
	t.repo.stock[productID] = current - qty
	return current - qty, nil
}

func (t *memoryTx) RecordCouponUsage(ctx context.Context, couponID, userID, orderID int64) error {
	t.repo.usage[usageKey{couponID, orderID}] = true
	t.repo.timesUsed[couponID]++
	return nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, orderID int64) (Order, error) {
	if o, ok := t.repo.orders[orderID]; ok {
		return *o, nil
	}
	return Order{}, ErrNotFound
}

func (t *memoryTx) ApplyStatus(ctx context.Context, orderID int64, status Status, payment PaymentStatus) error {
	o := t.repo.orders[orderID]
	o.Status = status
	if payment != "" {
		o.PaymentStatus = payment
	}
	return nil
}

func (t *memoryTx) ReverseCouponUsage(ctx context.Context, couponID, orderID int64) error {
	delete(t.repo.usage, usageKey{couponID, orderID})
	if t.repo.timesUsed[couponID] > 0 {
		t.repo.timesUsed[couponID]--
	}
	return nil
}

func (t *memoryTx) ClearCoupon(ctx context.Context, orderID int64) error {
	t.repo.orders[orderID].CouponID = 0
	return nil
}

func (t *memoryTx) InsertLedger(ctx context.Context, input ledger.Input) error {
	t.repo.ledger = append(t.repo.ledger, input)
	return nil
}

func (t *memoryTx) DeleteOrder(ctx context.Context, orderID int64) error {
	if _, ok := t.repo.orders[orderID]; !ok {
		return ErrNotFound
	}
	delete(t.repo.orders, orderID)
	return nil
}

var errInjected = io.ErrUnexpectedEOF

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateComputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 100
	repo.stock[20] = 100
	svc := NewService(repo, testLogger())

	order, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items: []ItemInput{
			{ProductID: 10, Quantity: 2, UnitPrice: 100},
			{ProductID: 20, Quantity: 1, UnitPrice: 50},
		},
		ShippingFee:    20,
		DiscountAmount: 10,
	})
	require.NoError(t, err)
	require.InDelta(t, 250.0, order.Subtotal, 0.0001)
	require.InDelta(t, 260.0, order.TotalAmount, 0.0001)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, PaymentPending, order.PaymentStatus)
	require.Equal(t, 98, repo.stock[10])
	require.Equal(t, 99, repo.stock[20])
}

func TestCreateIncludesServiceCost(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 5
	svc := NewService(repo, testLogger())

	order, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items: []ItemInput{
			{ProductID: 10, Quantity: 1, UnitPrice: 100, ServiceType: "engraving", ServiceCost: 15},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 115.0, order.Subtotal, 0.0001)
	require.InDelta(t, 115.0, order.TotalAmount, 0.0001)
}

func TestCreateUnknownCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, testLogger())

	_, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 42,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 5}},
	})
	require.ErrorIs(t, err, ErrCustomerNotFound)
	require.Empty(t, repo.orders)
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 5
	repo.failOn = "InsertItems"
	svc := NewService(repo, testLogger())

	_, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 2, UnitPrice: 10}},
	})
	require.Error(t, err)
	require.Empty(t, repo.orders)
	require.Equal(t, 5, repo.stock[10])
}

func TestCreateInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 1
	svc := NewService(repo, testLogger())

	_, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 2, UnitPrice: 10}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, repo.orders)
	require.Equal(t, 1, repo.stock[10])
}

func TestCreateRecordsCouponUsage(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 5
	svc := NewService(repo, testLogger())

	order, err := svc.Create(context.Background(), CreateInput{
		CustomerID:     1,
		Items:          []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
		DiscountAmount: 10,
		CouponID:       7,
	})
	require.NoError(t, err)
	require.True(t, repo.usage[usageKey{7, order.ID}])
	require.Equal(t, 1, repo.timesUsed[7])
}

func TestCancelReversesCoupon(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 5
	svc := NewService(repo, testLogger())
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateInput{
		CustomerID:     1,
		Items:          []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
		DiscountAmount: 10,
		CouponID:       7,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, StatusCancelled, "")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, updated.Status)
	require.Zero(t, updated.CouponID)
	require.False(t, repo.usage[usageKey{7, order.ID}])
	require.Zero(t, repo.timesUsed[7])
	require.Zero(t, repo.orders[order.ID].CouponID)

	// reversing twice never drives the counter negative
	_, err = svc.UpdateStatus(ctx, order.ID, StatusCancelled, "")
	require.NoError(t, err)
	require.Zero(t, repo.timesUsed[7])
}

func TestRefundWritesLedgerRows(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 5
	svc := NewService(repo, testLogger())
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateInput{
		CustomerID:     1,
		Items:          []ItemInput{{ProductID: 10, Quantity: 2, UnitPrice: 100}},
		ShippingFee:    20,
		DiscountAmount: 10,
		CouponID:       7,
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, StatusRefunded, PaymentRefunded)
	require.NoError(t, err)
	require.Len(t, repo.ledger, 2)

	refund := repo.ledger[0]
	require.Equal(t, ledger.TypeRefund, refund.Type)
	require.Equal(t, order.ID, refund.OrderID)
	require.InDelta(t, order.TotalAmount, refund.Amount, 0.0001)

	adj := repo.ledger[1]
	require.Equal(t, ledger.TypeAdjustment, adj.Type)
	require.InDelta(t, 10.0, adj.Amount, 0.0001)

	require.False(t, repo.usage[usageKey{7, order.ID}])
}

func TestRefundWithoutDiscountSkipsAdjustment(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 5
	svc := NewService(repo, testLogger())
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, StatusRefunded, PaymentRefunded)
	require.NoError(t, err)
	require.Len(t, repo.ledger, 1)
	require.Equal(t, ledger.TypeRefund, repo.ledger[0].Type)
}

func TestUpdateStatusValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), testLogger())
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, 1, "Bogus", "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateStatus(ctx, 1, StatusShipped, "Bogus")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateStatus(ctx, 99, StatusShipped, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOrder(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers[1] = true
	repo.stock[10] = 5
	svc := NewService(repo, testLogger())
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, order.ID))
	_, err = svc.Get(ctx, order.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, order.ID), ErrNotFound)
}
