package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrStatusConflict = errors.New("order status changed concurrently")

type Repository interface {
	CheckoutCart(ctx context.Context, userID int64) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID int64, current, next Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// checkoutLine — типизированная строка запроса корзина+товар,
// прочитанная под блокировкой строки товара.
type checkoutLine struct {
	ProductID         int64
	Quantity          int
	Price             float64
	QuantityAvailable int
}

// CheckoutCart атомарно превращает корзину пользователя в заказ.
// Строки товаров блокируются FOR UPDATE, поэтому два параллельных
// checkout на один товар сериализуются: проигравший либо видит
// уменьшенный остаток, либо получает чистый отказ. Порядок по
// product_id исключает взаимные блокировки.
func (r *postgresRepository) CheckoutCart(ctx context.Context, userID int64) (ord *Order, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Int64("user_id", userID).Msg("Failed to rollback checkout transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Int64("user_id", userID).Msg("Failed to rollback checkout transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit checkout transaction: %w", commitErr)
				ord = nil
			}
		}
	}()

	// 1. Читаем корзину вместе с остатками, блокируя строки товаров.
	linesQuery := `
		SELECT ci.product_id, ci.quantity, p.price, p.quantity_available
		FROM cart_items ci
		JOIN cart c ON ci.cart_id = c.id
		JOIN products p ON ci.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF p
	`

	rows, err := tx.Query(ctx, linesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart lines for checkout: %w", err)
	}

	var lines []checkoutLine
	for rows.Next() {
		var l checkoutLine
		if err = rows.Scan(&l.ProductID, &l.Quantity, &l.Price, &l.QuantityAvailable); err != nil {
			rows.Close()
			return nil, fmt.Errorf("repository: failed to scan checkout line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating checkout lines: %w", err)
	}

	if len(lines) == 0 {
		err = ErrEmptyCart
		return nil, err
	}

	// 2. Валидация: весь checkout отклоняется, если хотя бы одна строка
	// превышает остаток. Частичных заказов не бывает.
	var short []int64
	total := 0.0
	for _, l := range lines {
		if l.Quantity > l.QuantityAvailable {
			short = append(short, l.ProductID)
		}
		total += float64(l.Quantity) * l.Price
	}
	if len(short) > 0 {
		err = &StockConflictError{ProductIDs: short}
		return nil, err
	}

	// 3. Резервируем остаток под заказ.
	for _, l := range lines {
		_, err = tx.Exec(ctx,
			`UPDATE products SET quantity_available = quantity_available - $1 WHERE id = $2`,
			l.Quantity, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to decrement stock for product %d: %w", l.ProductID, err)
		}
	}

	// 4. Заказ и снимок строк с зафиксированными ценами.
	newOrder := &Order{
		UserID:     userID,
		TotalPrice: total,
		Status:     StatusPending,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, total_price, status) VALUES ($1, $2, $3) RETURNING id, created_at`,
		userID, total, string(StatusPending)).Scan(&newOrder.ID, &newOrder.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	for _, l := range lines {
		item := OrderItem{
			OrderID:   newOrder.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to insert order item for order %d: %w", newOrder.ID, err)
		}
		newOrder.Items = append(newOrder.Items, item)
	}

	// 5. Очищаем корзину в той же транзакции.
	_, err = tx.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM cart WHERE user_id = $1)`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to clear cart for user %d: %w", userID, err)
	}

	return newOrder, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	query := `
		SELECT id, user_id, created_at, total_price, status
		FROM orders
		WHERE id = $1
	`

	var ord Order
	err := r.db.QueryRow(ctx, query, id).
		Scan(&ord.ID, &ord.UserID, &ord.CreatedAt, &ord.TotalPrice, &ord.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	items, err := r.itemsByOrderIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	ord.Items = items[id]

	return &ord, nil
}

func (r *postgresRepository) ListByUserID(ctx context.Context, userID int64) ([]Order, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *postgresRepository) List(ctx context.Context) ([]Order, error) {
	return r.list(ctx, ``)
}

func (r *postgresRepository) list(ctx context.Context, where string, args ...any) ([]Order, error) {
	query := `
		SELECT id, user_id, created_at, total_price, status
		FROM orders ` + where + `
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []int64
	for rows.Next() {
		var ord Order
		err := rows.Scan(&ord.ID, &ord.UserID, &ord.CreatedAt, &ord.TotalPrice, &ord.Status)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ord.Items = make([]OrderItem, 0)
		orders = append(orders, ord)
		orderIDs = append(orderIDs, ord.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.itemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if items, ok := itemsByOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}

	return orders, nil
}

func (r *postgresRepository) itemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[int64][]OrderItem)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return itemsByOrder, nil
}

// UpdateStatus переводит заказ из current в next по принципу
// compare-and-swap: статус меняется только если он всё ещё current.
// Отмена ожидающего заказа возвращает зарезервированный остаток на
// склад в той же транзакции.
func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID int64, current, next Status) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Int64("order_id", orderID).Msg("Failed to rollback status update transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit status update transaction: %w", commitErr)
			}
		}
	}()

	cmdTag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		string(next), orderID, string(current))
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %d: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); checkErr != nil {
			err = fmt.Errorf("repository: failed to check order %d existence: %w", orderID, checkErr)
			return err
		}
		if !exists {
			err = ErrNotFound
			return err
		}
		err = ErrStatusConflict
		return err
	}

	if current == StatusPending && next == StatusCancelled {
		_, err = tx.Exec(ctx, `
			UPDATE products p
			SET quantity_available = p.quantity_available + oi.quantity
			FROM order_items oi
			WHERE oi.order_id = $1 AND oi.product_id = p.id
		`, orderID)
		if err != nil {
			return fmt.Errorf("repository: failed to restore stock for cancelled order %d: %w", orderID, err)
		}
	}

	return nil
}
