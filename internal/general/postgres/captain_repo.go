package postgres

import (
	"context"
	"errors"
	"time"

	"rideshare/internal/domain/user"
	"rideshare/internal/ports"

	"github.com/jackc/pgx/v5"
)

// CaptainRepo persists captains using pgx and plain SQL.
type CaptainRepo struct{}

// NewCaptainRepo constructs a new CaptainRepo.
func NewCaptainRepo() ports.CaptainRepository {
	return &CaptainRepo{}
}

// CreateCaptain inserts a new captain row.
func (repo *CaptainRepo) CreateCaptain(ctx context.Context, c *user.Captain) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO captains (id, name, email, password_hash, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		c.ID, c.Name, c.Email, c.PasswordHash, c.IsAvailable, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByEmail returns one captain by email.
func (repo *CaptainRepo) GetByEmail(ctx context.Context, email string) (*user.Captain, error) {
	return repo.getBy(ctx, "email", email)
}

// GetByID returns one captain by id.
func (repo *CaptainRepo) GetByID(ctx context.Context, id string) (*user.Captain, error) {
	return repo.getBy(ctx, "id", id)
}

// SetAvailability updates the captain's availability flag.
func (repo *CaptainRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE captains SET is_available = $2, updated_at = $3 WHERE id = $1
	`, id, available, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *CaptainRepo) getBy(ctx context.Context, column, value string) (*user.Captain, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out user.Captain
	err = tx.QueryRow(ctx, `
		SELECT id, name, email, password_hash, is_available, created_at, updated_at
		FROM captains
		WHERE `+column+` = $1
	`, value).Scan(
		&out.ID, &out.Name, &out.Email, &out.PasswordHash, &out.IsAvailable, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &out, nil
}
