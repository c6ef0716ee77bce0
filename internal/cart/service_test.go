package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vstoleru/storefront/internal/cart"
)

type mockCartRepository struct {
	getOrCreateCartIDFunc func(ctx context.Context, userID int64) (int64, error)
	getItemFunc           func(ctx context.Context, cartID, productID int64) (*cart.Item, error)
	insertItemFunc        func(ctx context.Context, cartID, productID int64, quantity int) error
	setItemQuantityFunc   func(ctx context.Context, cartID, productID int64, quantity int) error
	deleteItemFunc        func(ctx context.Context, cartID, productID int64) error
	clearFunc             func(ctx context.Context, cartID int64) error
	listLinesFunc         func(ctx context.Context, userID int64) ([]cart.Line, error)
}

func (m *mockCartRepository) GetOrCreateCartID(ctx context.Context, userID int64) (int64, error) {
	return m.getOrCreateCartIDFunc(ctx, userID)
}

func (m *mockCartRepository) GetItem(ctx context.Context, cartID, productID int64) (*cart.Item, error) {
	return m.getItemFunc(ctx, cartID, productID)
}

func (m *mockCartRepository) InsertItem(ctx context.Context, cartID, productID int64, quantity int) error {
	return m.insertItemFunc(ctx, cartID, productID, quantity)
}

func (m *mockCartRepository) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	return m.setItemQuantityFunc(ctx, cartID, productID, quantity)
}

func (m *mockCartRepository) DeleteItem(ctx context.Context, cartID, productID int64) error {
	return m.deleteItemFunc(ctx, cartID, productID)
}

func (m *mockCartRepository) Clear(ctx context.Context, cartID int64) error {
	return m.clearFunc(ctx, cartID)
}

func (m *mockCartRepository) ListLines(ctx context.Context, userID int64) ([]cart.Line, error) {
	return m.listLinesFunc(ctx, userID)
}

func newMockRepo() *mockCartRepository {
	return &mockCartRepository{
		getOrCreateCartIDFunc: func(ctx context.Context, userID int64) (int64, error) { return 7, nil },
		getItemFunc: func(ctx context.Context, cartID, productID int64) (*cart.Item, error) {
			return nil, cart.ErrItemNotFound
		},
		insertItemFunc:      func(ctx context.Context, cartID, productID int64, quantity int) error { return nil },
		setItemQuantityFunc: func(ctx context.Context, cartID, productID int64, quantity int) error { return nil },
		deleteItemFunc:      func(ctx context.Context, cartID, productID int64) error { return nil },
		clearFunc:           func(ctx context.Context, cartID int64) error { return nil },
		listLinesFunc:       func(ctx context.Context, userID int64) ([]cart.Line, error) { return []cart.Line{}, nil },
	}
}

func TestCartService_AddItem(t *testing.T) {
	tests := []struct {
		name         string
		quantity     int
		existing     *cart.Item
		wantErrIs    error
		wantInserted int
		wantSet      int
	}{
		{
			name:         "new_line_inserted",
			quantity:     2,
			existing:     nil,
			wantInserted: 2,
		},
		{
			name:     "existing_line_merged_additively",
			quantity: 3,
			existing: &cart.Item{ID: 1, CartID: 7, ProductID: 42, Quantity: 2},
			wantSet:  5,
		},
		{
			name:      "zero_quantity_rejected",
			quantity:  0,
			wantErrIs: cart.ErrInvalidQuantity,
		},
		{
			name:      "negative_quantity_rejected",
			quantity:  -1,
			wantErrIs: cart.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inserted, set int

			mockRepo := newMockRepo()
			mockRepo.getItemFunc = func(ctx context.Context, cartID, productID int64) (*cart.Item, error) {
				if tt.existing == nil {
					return nil, cart.ErrItemNotFound
				}
				return tt.existing, nil
			}
			mockRepo.insertItemFunc = func(ctx context.Context, cartID, productID int64, quantity int) error {
				inserted = quantity
				return nil
			}
			mockRepo.setItemQuantityFunc = func(ctx context.Context, cartID, productID int64, quantity int) error {
				set = quantity
				return nil
			}

			svc := cart.NewService(mockRepo)
			err := svc.AddItem(context.Background(), 1, 42, tt.quantity)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Zero(t, inserted)
				assert.Zero(t, set)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantInserted, inserted)
			assert.Equal(t, tt.wantSet, set)
		})
	}
}

func TestCartService_AddItem_Twice_MergesQuantities(t *testing.T) {
	// addItem(p, 2), потом addItem(p, 3) — одна строка с количеством 5.
	var stored *cart.Item

	mockRepo := newMockRepo()
	mockRepo.getItemFunc = func(ctx context.Context, cartID, productID int64) (*cart.Item, error) {
		if stored == nil {
			return nil, cart.ErrItemNotFound
		}
		return stored, nil
	}
	mockRepo.insertItemFunc = func(ctx context.Context, cartID, productID int64, quantity int) error {
		stored = &cart.Item{ID: 1, CartID: 7, ProductID: productID, Quantity: quantity}
		return nil
	}
	mockRepo.setItemQuantityFunc = func(ctx context.Context, cartID, productID int64, quantity int) error {
		stored.Quantity = quantity
		return nil
	}

	svc := cart.NewService(mockRepo)

	require.NoError(t, svc.AddItem(context.Background(), 1, 42, 2))
	require.NoError(t, svc.AddItem(context.Background(), 1, 42, 3))

	require.NotNil(t, stored)
	assert.Equal(t, int64(42), stored.ProductID)
	assert.Equal(t, 5, stored.Quantity)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name        string
		quantity    int
		setErr      error
		wantDeleted bool
		wantSet     int
		wantErrIs   error
	}{
		{
			name:     "positive_quantity_set_exactly",
			quantity: 4,
			wantSet:  4,
		},
		{
			name:        "zero_quantity_removes_line",
			quantity:    0,
			wantDeleted: true,
		},
		{
			name:        "negative_quantity_removes_line",
			quantity:    -2,
			wantDeleted: true,
		},
		{
			name:      "missing_line_reported",
			quantity:  4,
			setErr:    cart.ErrItemNotFound,
			wantErrIs: cart.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deleted bool
			var set int

			mockRepo := newMockRepo()
			mockRepo.setItemQuantityFunc = func(ctx context.Context, cartID, productID int64, quantity int) error {
				if tt.setErr != nil {
					return tt.setErr
				}
				set = quantity
				return nil
			}
			mockRepo.deleteItemFunc = func(ctx context.Context, cartID, productID int64) error {
				deleted = true
				return nil
			}

			svc := cart.NewService(mockRepo)
			err := svc.UpdateQuantity(context.Background(), 1, 42, tt.quantity)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, deleted)
			assert.Equal(t, tt.wantSet, set)
		})
	}
}

func TestCartService_RemoveItem_AbsentLineIsNoop(t *testing.T) {
	mockRepo := newMockRepo()
	mockRepo.deleteItemFunc = func(ctx context.Context, cartID, productID int64) error {
		// Репозиторий молчит об отсутствии строки.
		return nil
	}

	svc := cart.NewService(mockRepo)
	assert.NoError(t, svc.RemoveItem(context.Background(), 1, 999))
}

func TestCartService_Clear(t *testing.T) {
	var clearedCartID int64

	mockRepo := newMockRepo()
	mockRepo.clearFunc = func(ctx context.Context, cartID int64) error {
		clearedCartID = cartID
		return nil
	}

	svc := cart.NewService(mockRepo)
	require.NoError(t, svc.Clear(context.Background(), 1))

	// Чистится корзина пользователя, а не произвольная.
	assert.Equal(t, int64(7), clearedCartID)
}

func TestCartService_Clear_PropagatesRepositoryError(t *testing.T) {
	repoErr := errors.New("connection refused")

	mockRepo := newMockRepo()
	mockRepo.clearFunc = func(ctx context.Context, cartID int64) error {
		return repoErr
	}

	svc := cart.NewService(mockRepo)
	assert.ErrorIs(t, svc.Clear(context.Background(), 1), repoErr)
}

func TestCartService_List_PropagatesRepositoryError(t *testing.T) {
	repoErr := errors.New("connection refused")

	mockRepo := newMockRepo()
	mockRepo.listLinesFunc = func(ctx context.Context, userID int64) ([]cart.Line, error) {
		return nil, repoErr
	}

	svc := cart.NewService(mockRepo)
	_, err := svc.List(context.Background(), 1)
	assert.ErrorIs(t, err, repoErr)
}
