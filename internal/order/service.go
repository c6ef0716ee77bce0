package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

// CartCleaner — то, что движку заказов нужно от корзины: убрать
// строки, не прошедшие проверку остатков.
type CartCleaner interface {
	RemoveItem(ctx context.Context, userID, productID int64) error
}

type Service interface {
	Checkout(ctx context.Context, userID int64) (*Order, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus Status) error
}

type service struct {
	repo Repository
	cart CartCleaner
}

func NewService(repo Repository, cart CartCleaner) Service {
	return &service{repo: repo, cart: cart}
}

// Checkout превращает корзину пользователя в заказ. При нехватке
// остатков заказ не создаётся, а строки-нарушители вычищаются из
// корзины, чтобы устаревшее состояние не повторило отказ молча.
func (s *service) Checkout(ctx context.Context, userID int64) (*Order, error) {
	ord, err := s.repo.CheckoutCart(ctx, userID)
	if err != nil {
		var stockErr *StockConflictError
		if errors.As(err, &stockErr) {
			log.Warn().Int64("user_id", userID).Ints64("product_ids", stockErr.ProductIDs).
				Msg("service: checkout rejected, purging stale cart lines")
			for _, productID := range stockErr.ProductIDs {
				if rmErr := s.cart.RemoveItem(ctx, userID, productID); rmErr != nil {
					log.Error().Err(rmErr).Int64("user_id", userID).Int64("product_id", productID).
						Msg("service: failed to purge stale cart line")
				}
			}
			return nil, stockErr
		}
		if errors.Is(err, ErrEmptyCart) {
			return nil, ErrEmptyCart
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("service: checkout failed")
		return nil, fmt.Errorf("service: failed to checkout: %w", err)
	}

	log.Info().Int64("order_id", ord.ID).Int64("user_id", userID).
		Float64("total_price", ord.TotalPrice).Msg("service: order created")

	return ord, nil
}

func (s *service) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	ord, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return ord, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch orders")
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus Status) error {
	currentOrder, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if currentOrder.Status == newStatus {
		log.Info().Int64("order_id", orderID).Stringer("status", newStatus).
			Msg("service: order status is already the same, no update needed")
		return nil
	}

	transitions, ok := allowedTransitions[currentOrder.Status]
	if !ok || !transitions[newStatus] {
		log.Warn().Int64("order_id", orderID).
			Stringer("current_status", currentOrder.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, currentOrder.Status, newStatus)
	}

	err = s.repo.UpdateStatus(ctx, orderID, currentOrder.Status, newStatus)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		if errors.Is(err, ErrStatusConflict) {
			// Статус сменили между чтением и записью.
			return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, currentOrder.Status, newStatus)
		}
		log.Error().Err(err).Int64("order_id", orderID).Stringer("new_status", newStatus).
			Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Int64("order_id", orderID).
		Stringer("old_status", currentOrder.Status).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")
	return nil
}
