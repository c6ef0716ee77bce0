package report

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	RevenueByMonth(ctx context.Context, months int) ([]MonthlyRevenue, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error)
}

type sqlxRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlxRepository{db: db}
}

func (r *sqlxRepository) Summary(ctx context.Context) (*Summary, error) {
	query := `
		SELECT count(*) AS orders,
		       coalesce(sum(total_price) FILTER (WHERE status != 'cancelled'), 0) AS revenue,
		       count(DISTINCT user_id) AS customers
		FROM orders
	`

	var s Summary
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("repository: failed to select orders summary: %w", err)
	}

	return &s, nil
}

func (r *sqlxRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	query := `
		SELECT status, count(*) AS count
		FROM orders
		GROUP BY status
		ORDER BY status
	`

	counts := make([]StatusCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("repository: failed to select order status counts: %w", err)
	}

	return counts, nil
}

// RevenueByMonth — помесячная выручка за последние months месяцев,
// от старых к новым. Отменённые заказы в выручку не входят.
func (r *sqlxRepository) RevenueByMonth(ctx context.Context, months int) ([]MonthlyRevenue, error) {
	query := `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
		       coalesce(sum(total_price), 0) AS revenue
		FROM orders
		WHERE status != 'cancelled'
		  AND created_at >= date_trunc('month', now()) - ($1 - 1) * interval '1 month'
		GROUP BY month
		ORDER BY month
	`

	revenue := make([]MonthlyRevenue, 0)
	if err := r.db.SelectContext(ctx, &revenue, query, months); err != nil {
		return nil, fmt.Errorf("repository: failed to select monthly revenue: %w", err)
	}

	return revenue, nil
}

func (r *sqlxRepository) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	query := `
		SELECT id, name, quantity_available
		FROM products
		WHERE quantity_available <= $1
		ORDER BY quantity_available, id
	`

	products := make([]LowStockProduct, 0)
	if err := r.db.SelectContext(ctx, &products, query, threshold); err != nil {
		return nil, fmt.Errorf("repository: failed to select low stock products: %w", err)
	}

	return products, nil
}
