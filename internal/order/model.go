package order

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

type OrderItem struct {
	ID        int64   `json:"id" db:"id"`
	OrderID   int64   `json:"order_id" db:"order_id"`
	ProductID int64   `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"` // Цена на момент покупки, от текущей цены товара не зависит
}

type Order struct {
	ID         int64       `json:"id" db:"id"`
	UserID     int64       `json:"user_id" db:"user_id"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	TotalPrice float64     `json:"total_price" db:"total_price"`
	Status     Status      `json:"status" db:"status"`
	Items      []OrderItem `json:"items" db:"-"` // Получается отдельным запросом
}
