package user

import (
	"net/mail"
	"strings"
	"time"
)

// Captain is the domain entity corresponding to the `captains` table (drivers).
type Captain struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsAvailable  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCaptain constructs a captain account. Caller provides an already-hashed password.
func NewCaptain(name, email, passwordHash string) (*Captain, error) {
	now := time.Now().UTC()
	c := &Captain{
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: strings.TrimSpace(passwordHash),
		IsAvailable:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks invariants of the Captain entity.
func (c *Captain) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return ErrInvalidEmail
	}
	if c.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	return nil
}

// ToggleAvailability flips the captain's availability flag.
func (c *Captain) ToggleAvailability() {
	c.IsAvailable = !c.IsAvailable
	c.UpdatedAt = time.Now().UTC()
}
