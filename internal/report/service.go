package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Ниже этого остатка товар попадает в список "заканчивается".
const lowStockThreshold = 5

// Глубина графика выручки на дашборде.
const revenueMonths = 6

type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to build orders summary")
		return nil, fmt.Errorf("service: failed to build dashboard: %w", err)
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to build dashboard: %w", err)
	}

	revenue, err := s.repo.RevenueByMonth(ctx, revenueMonths)
	if err != nil {
		return nil, fmt.Errorf("service: failed to build dashboard: %w", err)
	}

	lowStock, err := s.repo.LowStock(ctx, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("service: failed to build dashboard: %w", err)
	}

	return &Dashboard{
		Summary:      *summary,
		StatusCounts: counts,
		Revenue:      revenue,
		LowStock:     lowStock,
	}, nil
}
