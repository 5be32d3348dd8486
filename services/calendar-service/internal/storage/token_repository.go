package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/timely-app/timely-backend/libs/db"
)

// TokenRepository stores the Google refresh token per user. One row per user;
// re-linking overwrites the previous credential.
type TokenRepository struct {
	pool *db.Pool
}

func NewTokenRepository(pool *db.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Get(ctx context.Context, userID string) (string, bool, error) {
	var token string
	err := r.pool.QueryRow(ctx, `
		SELECT refresh_token
		FROM google_tokens
		WHERE user_id = $1
	`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return token, true, nil
}

func (r *TokenRepository) Put(ctx context.Context, userID, refreshToken string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO google_tokens (user_id, refresh_token)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET refresh_token = EXCLUDED.refresh_token,
		              updated_at = now()
	`, userID, refreshToken)
	return err
}

// Delete removes a revoked credential so the next sync attempt tells the
// client to re-run consent.
func (r *TokenRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM google_tokens WHERE user_id = $1`, userID)
	return err
}
