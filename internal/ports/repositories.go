package ports

import (
	"context"
	"time"

	"rideshare/internal/domain/ride"
	"rideshare/internal/domain/user"
)

// UnitOfWork runs a function within a single database transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists rider accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// CaptainRepository persists captain accounts.
type CaptainRepository interface {
	CreateCaptain(ctx context.Context, c *user.Captain) error
	GetByEmail(ctx context.Context, email string) (*user.Captain, error)
	GetByID(ctx context.Context, id string) (*user.Captain, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

// RideRepository persists rides.
type RideRepository interface {
	CreateRide(ctx context.Context, r *ride.Ride) error
	GetByID(ctx context.Context, id string) (*ride.Ride, error)
	UpdateStatus(ctx context.Context, r *ride.Ride) error
}

// TokenBlacklistRepository records logged-out tokens until they expire.
type TokenBlacklistRepository interface {
	Add(ctx context.Context, token string, createdAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
