package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vstoleru/storefront/internal/order"
)

type mockOrderRepository struct {
	checkoutCartFunc func(ctx context.Context, userID int64) (*order.Order, error)
	getByIDFunc      func(ctx context.Context, id int64) (*order.Order, error)
	listByUserIDFunc func(ctx context.Context, userID int64) ([]order.Order, error)
	listFunc         func(ctx context.Context) ([]order.Order, error)
	updateStatusFunc func(ctx context.Context, orderID int64, current, next order.Status) error
}

func (m *mockOrderRepository) CheckoutCart(ctx context.Context, userID int64) (*order.Order, error) {
	return m.checkoutCartFunc(ctx, userID)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrderRepository) ListByUserID(ctx context.Context, userID int64) ([]order.Order, error) {
	return m.listByUserIDFunc(ctx, userID)
}

func (m *mockOrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return m.listFunc(ctx)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID int64, current, next order.Status) error {
	return m.updateStatusFunc(ctx, orderID, current, next)
}

type mockCartCleaner struct {
	removed []int64
	err     error
}

func (m *mockCartCleaner) RemoveItem(ctx context.Context, userID, productID int64) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, productID)
	return nil
}

func TestOrderService_Checkout(t *testing.T) {
	created := &order.Order{
		ID:         10,
		UserID:     1,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TotalPrice: 25,
		Status:     order.StatusPending,
		Items: []order.OrderItem{
			{ID: 1, OrderID: 10, ProductID: 100, Quantity: 2, Price: 10},
			{ID: 2, OrderID: 10, ProductID: 200, Quantity: 1, Price: 5},
		},
	}

	tests := []struct {
		name        string
		checkoutErr error
		wantOrder   *order.Order
		wantErrIs   error
		wantPurged  []int64
	}{
		{
			name:      "success",
			wantOrder: created,
		},
		{
			name:        "empty_cart",
			checkoutErr: order.ErrEmptyCart,
			wantErrIs:   order.ErrEmptyCart,
		},
		{
			name:        "stock_conflict_purges_offending_lines",
			checkoutErr: &order.StockConflictError{ProductIDs: []int64{100, 300}},
			wantErrIs:   order.ErrInsufficientStock,
			wantPurged:  []int64{100, 300},
		},
		{
			name:        "persistence_failure",
			checkoutErr: errors.New("connection reset"),
			wantErrIs:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockOrderRepository{
				checkoutCartFunc: func(ctx context.Context, userID int64) (*order.Order, error) {
					if tt.checkoutErr != nil {
						return nil, tt.checkoutErr
					}
					return created, nil
				},
			}
			cleaner := &mockCartCleaner{}

			svc := order.NewService(mockRepo, cleaner)
			ord, err := svc.Checkout(context.Background(), 1)

			if tt.wantOrder != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOrder, ord)
				assert.Empty(t, cleaner.removed)
				return
			}

			assert.Error(t, err)
			assert.Nil(t, ord)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
			assert.Equal(t, tt.wantPurged, cleaner.removed)
		})
	}
}

func TestOrderService_Checkout_TotalMatchesItems(t *testing.T) {
	created := &order.Order{
		ID:         11,
		UserID:     1,
		TotalPrice: 25,
		Status:     order.StatusPending,
		Items: []order.OrderItem{
			{ProductID: 100, Quantity: 2, Price: 10},
			{ProductID: 200, Quantity: 1, Price: 5},
		},
	}

	mockRepo := &mockOrderRepository{
		checkoutCartFunc: func(ctx context.Context, userID int64) (*order.Order, error) {
			return created, nil
		},
	}

	svc := order.NewService(mockRepo, &mockCartCleaner{})
	ord, err := svc.Checkout(context.Background(), 1)
	require.NoError(t, err)

	var sum float64
	for _, item := range ord.Items {
		sum += float64(item.Quantity) * item.Price
	}
	assert.Equal(t, sum, ord.TotalPrice)
	assert.Len(t, ord.Items, 2)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name          string
		currentStatus order.Status
		newStatus     order.Status
		updateErr     error
		wantErrIs     error
		wantUpdated   bool
	}{
		{
			name:          "pending_to_completed",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusCompleted,
			wantUpdated:   true,
		},
		{
			name:          "pending_to_cancelled",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusCancelled,
			wantUpdated:   true,
		},
		{
			name:          "completed_is_terminal",
			currentStatus: order.StatusCompleted,
			newStatus:     order.StatusCancelled,
			wantErrIs:     order.ErrInvalidStatusTransition,
		},
		{
			name:          "cancelled_is_terminal",
			currentStatus: order.StatusCancelled,
			newStatus:     order.StatusCompleted,
			wantErrIs:     order.ErrInvalidStatusTransition,
		},
		{
			name:          "same_status_is_noop",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusPending,
		},
		{
			name:          "concurrent_change_reported_as_invalid_transition",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusCompleted,
			updateErr:     order.ErrStatusConflict,
			wantErrIs:     order.ErrInvalidStatusTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var updated bool

			mockRepo := &mockOrderRepository{
				getByIDFunc: func(ctx context.Context, id int64) (*order.Order, error) {
					return &order.Order{ID: id, UserID: 1, Status: tt.currentStatus}, nil
				},
				updateStatusFunc: func(ctx context.Context, orderID int64, current, next order.Status) error {
					if tt.updateErr != nil {
						return tt.updateErr
					}
					updated = true
					assert.Equal(t, tt.currentStatus, current)
					assert.Equal(t, tt.newStatus, next)
					return nil
				},
			}

			svc := order.NewService(mockRepo, &mockCartCleaner{})
			err := svc.UpdateOrderStatus(context.Background(), 10, tt.newStatus)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, updated)
		})
	}
}

func TestOrderService_UpdateOrderStatus_NotFound(t *testing.T) {
	mockRepo := &mockOrderRepository{
		getByIDFunc: func(ctx context.Context, id int64) (*order.Order, error) {
			return nil, order.ErrNotFound
		},
	}

	svc := order.NewService(mockRepo, &mockCartCleaner{})
	err := svc.UpdateOrderStatus(context.Background(), 999, order.StatusCompleted)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestStockConflictError_MatchesSentinel(t *testing.T) {
	err := &order.StockConflictError{ProductIDs: []int64{3}}
	assert.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "3")
}
