package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideshare/internal/domain/ride"
	"rideshare/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RideRepo persists rides using pgx and plain SQL.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

// CreateRide inserts a new ride row.
func (repo *RideRepo) CreateRide(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rides (id, user_id, captain_id, pickup, destination, status, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
	`,
		r.ID, r.UserID, r.CaptainID, r.Pickup, r.Destination, r.Status.String(), r.CreatedAt, r.UpdatedAt,
	)
	return err
}

// GetByID returns one ride by id.
func (repo *RideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out        ride.Ride
		captainID  sql.NullString
		statusText string
	)

	err = tx.QueryRow(ctx, `
		SELECT id, user_id, captain_id, pickup, destination, status, created_at, updated_at
		FROM rides
		WHERE id = $1
	`, id).Scan(
		&out.ID, &out.UserID, &captainID, &out.Pickup, &out.Destination, &statusText, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	out.CaptainID = captainID.String
	out.Status, err = ride.ParseStatus(statusText)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// UpdateStatus persists the current status and captain assignment of a ride.
func (repo *RideRepo) UpdateStatus(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET captain_id = NULLIF($2, ''), status = $3, updated_at = $4
		WHERE id = $1
	`, r.ID, r.CaptainID, r.Status.String(), r.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
