package ride

import (
	"errors"
	"strings"
	"time"
)

// Ride is the domain entity corresponding to the `rides` table.
type Ride struct {
	ID          string
	UserID      string
	CaptainID   string // empty until a captain accepts
	Pickup      string
	Destination string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	ErrEmptyUserID      = errors.New("ride user id cannot be empty")
	ErrEmptyPickup      = errors.New("pickup address cannot be empty")
	ErrEmptyDestination = errors.New("destination address cannot be empty")
	ErrRideTerminal     = errors.New("ride is already in a terminal state")
	ErrNotOwner         = errors.New("ride belongs to another user")
	ErrCaptainMismatch  = errors.New("ride is assigned to another captain")
)

// NewRide constructs a ride in the requested state for the given rider.
func NewRide(userID, pickup, destination string) (*Ride, error) {
	now := time.Now().UTC()
	r := &Ride{
		UserID:      strings.TrimSpace(userID),
		Pickup:      strings.TrimSpace(pickup),
		Destination: strings.TrimSpace(destination),
		Status:      StatusRequested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks invariants of the Ride entity.
func (r *Ride) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if r.Pickup == "" {
		return ErrEmptyPickup
	}
	if r.Destination == "" {
		return ErrEmptyDestination
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Accept assigns a captain and moves the ride to accepted.
func (r *Ride) Accept(captainID string) error {
	if !r.Status.CanTransitionTo(StatusAccepted) {
		return ErrRideTerminal
	}
	r.CaptainID = strings.TrimSpace(captainID)
	r.Status = StatusAccepted
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// CancelByUser cancels the ride on behalf of the owning rider.
func (r *Ride) CancelByUser(userID string) error {
	if r.UserID != userID {
		return ErrNotOwner
	}
	return r.cancel()
}

// CancelByCaptain cancels the ride on behalf of a captain. An unassigned ride
// may be cancelled by any captain, who then takes ownership of the cancellation.
func (r *Ride) CancelByCaptain(captainID string) error {
	if r.CaptainID != "" && r.CaptainID != captainID {
		return ErrCaptainMismatch
	}
	if err := r.cancel(); err != nil {
		return err
	}
	r.CaptainID = captainID
	return nil
}

func (r *Ride) cancel() error {
	if r.Status.Terminal() {
		return ErrRideTerminal
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now().UTC()
	return nil
}
