package mutation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Create(ctx context.Context, c model.OrderCreate) (model.Order, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockBackend) Update(ctx context.Context, id string, u model.OrderUpdate) (model.Order, error) {
	args := m.Called(ctx, id, u)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockBackend) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) BulkUpdate(ctx context.Context, ids []string, u model.OrderUpdate) (model.BulkResult, error) {
	args := m.Called(ctx, ids, u)
	return args.Get(0).(model.BulkResult), args.Error(1)
}

func (m *mockBackend) BulkDelete(ctx context.Context, ids []string) (model.BulkResult, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(model.BulkResult), args.Error(1)
}

func (m *mockBackend) Import(ctx context.Context, filename string, r io.Reader) (model.ImportResult, error) {
	args := m.Called(ctx, filename, r)
	return args.Get(0).(model.ImportResult), args.Error(1)
}

type countingCache struct {
	n atomic.Int64
}

func (c *countingCache) Invalidate() { c.n.Add(1) }

func ptr[T any](v T) *T { return &v }

func TestBulkUpdate_PartialFailureStillInvalidates(t *testing.T) {
	backend := &mockBackend{}
	orders, analytics := &countingCache{}, &countingCache{}
	c := New(backend, orders)
	c.Register(analytics)

	ctx := context.Background()
	ids := []string{"a", "b", "c"}
	upd := model.OrderUpdate{Status: ptr(model.StatusDelivered)}
	backend.On("BulkUpdate", ctx, ids, upd).Return(model.BulkResult{
		Count:     2,
		FailedIDs: []string{"b"},
		Message:   "Updated 2 orders",
	}, nil)

	res, err := c.BulkUpdate(ctx, ids, upd)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"b"}, res.FailedIDs)
	assert.Equal(t, "Updated 2 orders", res.Message)
	assert.True(t, res.Partial())
	assert.ErrorIs(t, res.Err(), common.ErrPartialFailure)

	assert.Equal(t, PhaseSuccess, c.Phase())
	assert.Equal(t, int64(1), orders.n.Load())
	assert.Equal(t, int64(1), analytics.n.Load())
	backend.AssertExpectations(t)
}

func TestPendingBlocksSecondMutation(t *testing.T) {
	backend := &mockBackend{}
	c := New(backend)

	release := make(chan struct{})
	started := make(chan struct{})
	backend.On("Delete", mock.Anything, "a").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(nil)

	done := make(chan error, 1)
	go func() { done <- c.Delete(context.Background(), "a") }()
	<-started

	assert.Equal(t, PhasePending, c.Phase())
	err := c.Delete(context.Background(), "b")
	require.ErrorIs(t, err, common.ErrMutationPending)

	c.Dismiss()
	assert.Equal(t, PhasePending, c.Phase())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, PhaseSuccess, c.Phase())
	backend.AssertNotCalled(t, "Delete", mock.Anything, "b")
}

func TestFailureDoesNotInvalidate(t *testing.T) {
	backend := &mockBackend{}
	cache := &countingCache{}
	c := New(backend, cache)

	netErr := &common.NetworkError{Op: "delete order", Err: errors.New("connection reset")}
	backend.On("Delete", mock.Anything, "a").Return(netErr)

	err := c.Delete(context.Background(), "a")
	require.ErrorIs(t, err, common.ErrNetwork)
	assert.Equal(t, PhaseError, c.Phase())
	assert.Zero(t, cache.n.Load())

	c.Dismiss()
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestRetryAfterErrorIsAllowed(t *testing.T) {
	backend := &mockBackend{}
	cache := &countingCache{}
	c := New(backend, cache)

	backend.On("BulkDelete", mock.Anything, []string{"a"}).Return(model.BulkResult{}, errors.New("boom")).Once()
	backend.On("BulkDelete", mock.Anything, []string{"a"}).Return(model.BulkResult{Count: 1}, nil).Once()

	_, err := c.BulkDelete(context.Background(), []string{"a"})
	require.Error(t, err)

	res, err := c.BulkDelete(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, model.BulkDeleteOp, res.Op)
	assert.NoError(t, res.Err())
	assert.Equal(t, int64(1), cache.n.Load())
}

func TestValidationFailsBeforePending(t *testing.T) {
	backend := &mockBackend{}
	c := New(backend)

	_, err := c.Create(context.Background(), model.OrderCreate{ProductName: "ETB", Quantity: 1})
	require.ErrorIs(t, err, common.ErrValidation)

	current := model.Order{ID: "a", CostPerItem: decimal.NewFromInt(10), Quantity: 1}
	_, err = c.Update(context.Background(), current, model.OrderUpdate{AmountPaid: ptr(decimal.NewFromInt(11))})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = c.BulkUpdate(context.Background(), []string{"a"}, model.OrderUpdate{})
	require.ErrorIs(t, err, common.ErrNoChanges)

	_, err = c.BulkDelete(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrNoSelection)

	assert.Equal(t, PhaseIdle, c.Phase())
	backend.AssertExpectations(t)
}

func TestCreateUpdateImportInvalidate(t *testing.T) {
	backend := &mockBackend{}
	cache := &countingCache{}
	c := New(backend, cache)
	ctx := context.Background()

	in := model.OrderCreate{
		ProductName: "Surging Sparks Booster Bundle",
		StoreName:   "Big W",
		CostPerItem: decimal.RequireFromString("39.00"),
		Quantity:    2,
	}
	backend.On("Create", ctx, in).Return(model.Order{ID: "new"}, nil)

	created, err := c.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	c.Dismiss()

	upd := model.OrderUpdate{Notes: ptr("preordered")}
	backend.On("Update", ctx, "new", upd).Return(model.Order{ID: "new", Notes: upd.Notes}, nil)
	_, err = c.Update(ctx, created, upd)
	require.NoError(t, err)

	body := strings.NewReader("product_name,store_name\n")
	backend.On("Import", ctx, "orders.csv", body).Return(model.ImportResult{ImportedCount: 1}, nil)
	imported, err := c.Import(ctx, "orders.csv", body)
	require.NoError(t, err)
	assert.Equal(t, 1, imported.ImportedCount)

	assert.Equal(t, int64(3), cache.n.Load())
	assert.Equal(t, "success", c.Phase().String())
}
