package catalog

// Product — позиция каталога. quantity_available — единственный
// источник правды о доступном остатке.
type Product struct {
	ID                int64   `json:"id" db:"id"`
	Name              string  `json:"name" db:"name"`
	Description       string  `json:"description" db:"description"`
	Price             float64 `json:"price" db:"price"`
	QuantityAvailable int     `json:"quantity_available" db:"quantity_available"`
	Image             string  `json:"image" db:"image"`
}
