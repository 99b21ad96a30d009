package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is the domain entity corresponding to the `users` table (riders).
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrEmptyPasswordHash = errors.New("password hash cannot be empty")
)

// NewUser constructs a rider account. Caller provides an already-hashed password.
func NewUser(name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: strings.TrimSpace(passwordHash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks invariants of the User entity.
func (u *User) Validate() error {
	if u.Name == "" {
		return ErrEmptyName
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	if u.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	return nil
}
