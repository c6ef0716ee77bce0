package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCodeNotFound = errors.New("verification code not found")

type Repository interface {
	InsertCode(ctx context.Context, userID int64, code string) (*Code, error)
	// ConsumeCode гасит последний непогашенный код пользователя, если он
	// совпадает и ещё не протух. Возвращает ErrCodeNotFound при
	// несовпадении, повторном использовании или истёкшем окне.
	ConsumeCode(ctx context.Context, userID int64, code string, ttl time.Duration) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) InsertCode(ctx context.Context, userID int64, code string) (*Code, error) {
	query := `
		INSERT INTO verification_codes (user_id, code)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	c := &Code{UserID: userID, Code: code}
	err := r.db.QueryRow(ctx, query, userID, code).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert verification code: %w", err)
	}

	return c, nil
}

// Одно атомарное UPDATE: конкурентные проверки одного кода не могут
// погасить его дважды.
func (r *postgresRepository) ConsumeCode(ctx context.Context, userID int64, code string, ttl time.Duration) error {
	query := `
		UPDATE verification_codes
		SET consumed_at = now()
		WHERE id = (
			SELECT id FROM verification_codes
			WHERE user_id = $1
			  AND code = $2
			  AND consumed_at IS NULL
			  AND created_at > now() - ($3 * interval '1 second')
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, userID, code, ttl.Seconds()).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("repository: failed to consume verification code: %w", err)
	}

	return nil
}
