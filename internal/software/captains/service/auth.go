package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"rideshare/internal/domain/user"
	"rideshare/internal/general/postgres"
	"rideshare/internal/ports"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a captain account and returns a signed token.
func (service *captainService) Register(ctx context.Context, in ports.RegisterInput) (ports.AuthResult, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return ports.AuthResult{}, err
	}

	c, err := user.NewCaptain(in.Name, in.Email, string(hashed))
	if err != nil {
		return ports.AuthResult{}, err
	}
	c.ID = uuid.NewString()

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		existing, err := service.captainRepo.GetByEmail(txCtx, c.Email)
		if err != nil && !errors.Is(err, postgres.ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
		return service.captainRepo.CreateCaptain(txCtx, c)
	})
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			service.logger.Error(ctx, "captain_register_failed", "Failed to register captain", err,
				map[string]any{"email": c.Email})
		}
		return ports.AuthResult{}, err
	}

	token, claims, err := service.auth.IssueToken(c.ID, user.RoleCaptain)
	if err != nil {
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "captain_registered", "Captain registered successfully",
		map[string]any{"captain_id": c.ID})

	return ports.AuthResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
	}, nil
}

// Login verifies credentials and returns a signed token.
func (service *captainService) Login(ctx context.Context, in ports.LoginInput) (ports.AuthResult, error) {
	var c *user.Captain

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		found, err := service.captainRepo.GetByEmail(txCtx, strings.TrimSpace(in.Email))
		if err != nil {
			return err
		}
		c = found
		return nil
	})
	if errors.Is(err, postgres.ErrNotFound) {
		return ports.AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return ports.AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(in.Password)); err != nil {
		return ports.AuthResult{}, ErrInvalidCredentials
	}

	token, claims, err := service.auth.IssueToken(c.ID, user.RoleCaptain)
	if err != nil {
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "captain_logged_in", "Captain logged in",
		map[string]any{"captain_id": c.ID})

	return ports.AuthResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
	}, nil
}

// Logout blacklists the presented token until it expires on its own.
func (service *captainService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return service.blacklist.Add(ctx, token, time.Now().UTC())
}

// Profile returns the captain's public account view.
func (service *captainService) Profile(ctx context.Context, captainID string) (ports.ProfileResult, error) {
	var c *user.Captain

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		found, err := service.captainRepo.GetByID(txCtx, captainID)
		if err != nil {
			return err
		}
		c = found
		return nil
	})
	if err != nil {
		return ports.ProfileResult{}, err
	}

	available := c.IsAvailable
	return ports.ProfileResult{ID: c.ID, Name: c.Name, Email: c.Email, IsAvailable: &available}, nil
}

// ToggleAvailability flips the captain's availability flag and returns the
// updated profile.
func (service *captainService) ToggleAvailability(ctx context.Context, captainID string) (ports.ProfileResult, error) {
	var c *user.Captain

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		found, err := service.captainRepo.GetByID(txCtx, captainID)
		if err != nil {
			return err
		}
		found.ToggleAvailability()
		if err := service.captainRepo.SetAvailability(txCtx, found.ID, found.IsAvailable); err != nil {
			return err
		}
		c = found
		return nil
	})
	if err != nil {
		return ports.ProfileResult{}, err
	}

	service.logger.Info(ctx, "captain_availability_toggled", "Captain availability changed",
		map[string]any{"captain_id": c.ID, "is_available": c.IsAvailable})

	available := c.IsAvailable
	return ports.ProfileResult{ID: c.ID, Name: c.Name, Email: c.Email, IsAvailable: &available}, nil
}
