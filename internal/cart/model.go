package cart

// Item — строка корзины, как она хранится в cart_items.
// Пара (cart_id, product_id) уникальна: повторное добавление товара
// увеличивает количество, а не создаёт дубликат.
type Item struct {
	ID        int64 `json:"id" db:"id"`
	CartID    int64 `json:"cart_id" db:"cart_id"`
	ProductID int64 `json:"product_id" db:"product_id"`
	Quantity  int   `json:"quantity" db:"quantity"`
}

// Line — строка корзины, соединённая с актуальными данными товара.
// QuantityAvailable всегда отражает текущий остаток, а не остаток
// на момент добавления в корзину.
type Line struct {
	ID                int64   `json:"id" db:"id"`
	ProductID         int64   `json:"product_id" db:"product_id"`
	Name              string  `json:"name" db:"name"`
	Description       string  `json:"description" db:"description"`
	Price             float64 `json:"price" db:"price"`
	Image             string  `json:"image" db:"image"`
	Quantity          int     `json:"quantity" db:"quantity"`
	QuantityAvailable int     `json:"quantity_available" db:"quantity_available"`
}
