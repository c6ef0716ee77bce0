package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

type Service interface {
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
	List(ctx context.Context, userID int64) ([]Line, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AddItem добавляет товар в корзину. Если строка для товара уже есть,
// количество суммируется. Остаток на складе здесь не проверяется:
// корзина оптимистична, авторитетная проверка происходит при checkout.
func (s *service) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to resolve cart")
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	existing, err := s.repo.GetItem(ctx, cartID, productID)
	switch {
	case err == nil:
		if err := s.repo.SetItemQuantity(ctx, cartID, productID, existing.Quantity+quantity); err != nil {
			return fmt.Errorf("service: failed to increment cart item: %w", err)
		}
	case errors.Is(err, ErrItemNotFound):
		if err := s.repo.InsertItem(ctx, cartID, productID, quantity); err != nil {
			return fmt.Errorf("service: failed to insert cart item: %w", err)
		}
	default:
		return fmt.Errorf("service: failed to look up cart item: %w", err)
	}

	return nil
}

// UpdateQuantity выставляет точное количество. Ноль и меньше
// эквивалентны удалению строки.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	err = s.repo.SetItemQuantity(ctx, cartID, productID, quantity)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("service: failed to set cart item quantity: %w", err)
	}

	return nil
}

// RemoveItem удаляет строку. Отсутствие строки не ошибка.
func (s *service) RemoveItem(ctx context.Context, userID, productID int64) error {
	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	if err := s.repo.DeleteItem(ctx, cartID, productID); err != nil {
		return fmt.Errorf("service: failed to delete cart item: %w", err)
	}

	return nil
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	if err := s.repo.Clear(ctx, cartID); err != nil {
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	return nil
}

func (s *service) List(ctx context.Context, userID int64) ([]Line, error) {
	lines, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to list cart lines")
		return nil, fmt.Errorf("service: failed to list cart lines: %w", err)
	}

	return lines, nil
}
