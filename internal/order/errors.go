package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockConflictError перечисляет товары, количество которых в корзине
// превышает доступный остаток. Сопоставляется с ErrInsufficientStock
// через errors.Is.
type StockConflictError struct {
	ProductIDs []int64
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for products %v", e.ProductIDs)
}

func (e *StockConflictError) Is(target error) bool {
	return target == ErrInsufficientStock
}
