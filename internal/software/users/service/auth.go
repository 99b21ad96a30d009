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

// Register creates a rider account and returns a signed token.
func (service *userService) Register(ctx context.Context, in ports.RegisterInput) (ports.AuthResult, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return ports.AuthResult{}, err
	}

	u, err := user.NewUser(in.Name, in.Email, string(hashed))
	if err != nil {
		return ports.AuthResult{}, err
	}
	u.ID = uuid.NewString()

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		existing, err := service.userRepo.GetByEmail(txCtx, u.Email)
		if err != nil && !errors.Is(err, postgres.ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
		return service.userRepo.CreateUser(txCtx, u)
	})
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			service.logger.Error(ctx, "user_register_failed", "Failed to register user", err,
				map[string]any{"email": u.Email})
		}
		return ports.AuthResult{}, err
	}

	token, claims, err := service.auth.IssueToken(u.ID, user.RoleRider)
	if err != nil {
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "user_registered", "User registered successfully",
		map[string]any{"user_id": u.ID})

	return ports.AuthResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
	}, nil
}

// Login verifies credentials and returns a signed token.
func (service *userService) Login(ctx context.Context, in ports.LoginInput) (ports.AuthResult, error) {
	var u *user.User

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		found, err := service.userRepo.GetByEmail(txCtx, strings.TrimSpace(in.Email))
		if err != nil {
			return err
		}
		u = found
		return nil
	})
	if errors.Is(err, postgres.ErrNotFound) {
		return ports.AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return ports.AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return ports.AuthResult{}, ErrInvalidCredentials
	}

	token, claims, err := service.auth.IssueToken(u.ID, user.RoleRider)
	if err != nil {
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "user_logged_in", "User logged in",
		map[string]any{"user_id": u.ID})

	return ports.AuthResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
	}, nil
}

// Logout blacklists the presented token until it expires on its own.
func (service *userService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return service.blacklist.Add(ctx, token, time.Now().UTC())
}

// Profile returns the rider's public account view.
func (service *userService) Profile(ctx context.Context, userID string) (ports.ProfileResult, error) {
	var u *user.User

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		found, err := service.userRepo.GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		u = found
		return nil
	})
	if err != nil {
		return ports.ProfileResult{}, err
	}

	return ports.ProfileResult{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}
