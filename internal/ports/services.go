package ports

import (
	"context"
	"time"

	"rideshare/internal/general/contracts"
)

// ----- DTOs for account services (users & captains) -----

// RegisterInput is the validated input to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput carries the credentials for a login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned on successful register/login.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// ProfileResult is the public view of an account.
type ProfileResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	IsAvailable *bool  `json:"is_available,omitempty"` // captains only
}

// ----- DTOs for the ride service -----

// CreateRideInput is the validated input required to create a ride.
type CreateRideInput struct {
	UserID      string
	Pickup      string
	Destination string
}

// RideResult is the common response shape for ride mutations.
type RideResult struct {
	RideID      string `json:"ride_id"`
	UserID      string `json:"user_id"`
	CaptainID   string `json:"captain_id,omitempty"`
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
}

// ----- Service interfaces -----

// UserService exposes the boundary for the user service.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, in LoginInput) (AuthResult, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, userID string) (ProfileResult, error)
	// AwaitRideUpdate blocks until the ride identified by (userID, rideID)
	// is accepted or cancelled, or until the configured wait timeout. A nil
	// update means nothing happened yet and the rider should retry.
	AwaitRideUpdate(ctx context.Context, userID, rideID string) (*contracts.RideUpdateMessage, error)
	RunBackgroundConsumers(ctx context.Context)
}

// CaptainService exposes the boundary for the captain service.
type CaptainService interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, in LoginInput) (AuthResult, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, captainID string) (ProfileResult, error)
	ToggleAvailability(ctx context.Context, captainID string) (ProfileResult, error)
	RunBackgroundConsumers(ctx context.Context)
}

// RideService exposes the boundary for the ride service.
type RideService interface {
	CreateRide(ctx context.Context, in CreateRideInput) (RideResult, error)
	AcceptRide(ctx context.Context, rideID, captainID string) (RideResult, error)
	CancelRideByUser(ctx context.Context, rideID, userID string) (RideResult, error)
	CancelRideByCaptain(ctx context.Context, rideID, captainID string) (RideResult, error)
}
