package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrItemNotFound = errors.New("cart item not found")

type Repository interface {
	GetOrCreateCartID(ctx context.Context, userID int64) (int64, error)
	GetItem(ctx context.Context, cartID, productID int64) (*Item, error)
	InsertItem(ctx context.Context, cartID, productID int64, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID int64) error
	Clear(ctx context.Context, cartID int64) error
	ListLines(ctx context.Context, userID int64) ([]Line, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// GetOrCreateCartID возвращает id корзины пользователя, создавая её при
// первом обращении. ON CONFLICT защищает от гонки двух параллельных созданий.
func (r *postgresRepository) GetOrCreateCartID(ctx context.Context, userID int64) (int64, error) {
	var cartID int64
	err := r.db.QueryRow(ctx, `SELECT id FROM cart WHERE user_id = $1`, userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("repository: failed to select cart for user %d: %w", userID, err)
	}

	query := `
		INSERT INTO cart (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query, userID).Scan(&cartID)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to create cart for user %d: %w", userID, err)
	}

	return cartID, nil
}

func (r *postgresRepository) GetItem(ctx context.Context, cartID, productID int64) (*Item, error) {
	query := `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`

	var item Item
	err := r.db.QueryRow(ctx, query, cartID, productID).
		Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart item: %w", err)
	}

	return &item, nil
}

func (r *postgresRepository) InsertItem(ctx context.Context, cartID, productID int64, quantity int) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	_, err := r.db.Exec(ctx, query, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("repository: failed to insert cart item: %w", err)
	}

	return nil
}

func (r *postgresRepository) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $1
		WHERE cart_id = $2 AND product_id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, quantity, cartID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item quantity: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, cartID, productID int64) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	_, err := r.db.Exec(ctx, query, cartID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item: %w", err)
	}

	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, cartID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart %d: %w", cartID, err)
	}

	return nil
}

func (r *postgresRepository) ListLines(ctx context.Context, userID int64) ([]Line, error) {
	query := `
		SELECT ci.id, ci.product_id, p.name, p.description, p.price, p.image,
		       ci.quantity, p.quantity_available
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		JOIN cart c ON ci.cart_id = c.id
		WHERE c.user_id = $1
		ORDER BY ci.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart lines for user %d: %w", userID, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		err := rows.Scan(&l.ID, &l.ProductID, &l.Name, &l.Description, &l.Price, &l.Image,
			&l.Quantity, &l.QuantityAvailable)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines: %w", err)
	}

	return lines, nil
}
