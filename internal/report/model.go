package report

// Типизированные строки отчётных запросов: каждая проекция — явная
// структура с полным списком полей, без ad hoc форм.

type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int64  `json:"count" db:"count"`
}

type Summary struct {
	Orders    int64   `json:"orders" db:"orders"`
	Revenue   float64 `json:"revenue" db:"revenue"`
	Customers int64   `json:"customers" db:"customers"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month" db:"month"`
	Revenue float64 `json:"revenue" db:"revenue"`
}

type LowStockProduct struct {
	ID                int64  `json:"id" db:"id"`
	Name              string `json:"name" db:"name"`
	QuantityAvailable int    `json:"quantity_available" db:"quantity_available"`
}

// Dashboard — всё, что рисует админский экран, одним ответом.
type Dashboard struct {
	Summary      Summary           `json:"summary"`
	StatusCounts []StatusCount     `json:"status_counts"`
	Revenue      []MonthlyRevenue  `json:"revenue_by_month"`
	LowStock     []LowStockProduct `json:"low_stock"`
}
