package postgres

import (
	"context"
	"time"

	"rideshare/internal/ports"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenBlacklistRepo records logged-out tokens. Unlike the other repositories
// it runs directly on the pool: the auth middleware consults it on every
// request and must not require a surrounding transaction.
type TokenBlacklistRepo struct {
	pool *pgxpool.Pool
}

// NewTokenBlacklistRepo constructs a blacklist repo on the given pool.
func NewTokenBlacklistRepo(pool *pgxpool.Pool) ports.TokenBlacklistRepository {
	return &TokenBlacklistRepo{pool: pool}
}

// Add records a revoked token.
func (repo *TokenBlacklistRepo) Add(ctx context.Context, token string, createdAt time.Time) error {
	_, err := repo.pool.Exec(ctx, `
		INSERT INTO blacklisted_tokens (token, created_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`, token, createdAt)
	return err
}

// IsBlacklisted reports whether the token has been revoked.
func (repo *TokenBlacklistRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := repo.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE token = $1)
	`, token).Scan(&exists)
	return exists, err
}

// DeleteOlderThan removes blacklist rows created before cutoff. Tokens expire
// on their own, so rows older than the JWT TTL are dead weight.
func (repo *TokenBlacklistRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := repo.pool.Exec(ctx, `
		DELETE FROM blacklisted_tokens WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
