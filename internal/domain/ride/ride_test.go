package ride

import (
	"errors"
	"testing"
)

func TestNewRide(t *testing.T) {
	t.Run("Given valid input When creating a ride Then it starts in requested", func(t *testing.T) {
		r, err := NewRide("user-1", " 12 Main St ", "Airport")
		if err != nil {
			t.Fatalf("NewRide: %v", err)
		}
		if r.Status != StatusRequested {
			t.Errorf("status = %s, want %s", r.Status, StatusRequested)
		}
		if r.Pickup != "12 Main St" {
			t.Errorf("pickup not trimmed: %q", r.Pickup)
		}
		if r.CaptainID != "" {
			t.Errorf("new ride should have no captain, got %q", r.CaptainID)
		}
	})

	t.Run("Given missing fields When creating a ride Then it is rejected", func(t *testing.T) {
		cases := []struct {
			name                        string
			userID, pickup, destination string
			want                        error
		}{
			{"no user", "", "a", "b", ErrEmptyUserID},
			{"no pickup", "u", "  ", "b", ErrEmptyPickup},
			{"no destination", "u", "a", "", ErrEmptyDestination},
		}
		for _, tc := range cases {
			if _, err := NewRide(tc.userID, tc.pickup, tc.destination); !errors.Is(err, tc.want) {
				t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
			}
		}
	})
}

func TestRideTransitions(t *testing.T) {
	newRequested := func(t *testing.T) *Ride {
		t.Helper()
		r, err := NewRide("user-1", "a", "b")
		if err != nil {
			t.Fatalf("NewRide: %v", err)
		}
		return r
	}

	t.Run("Given a requested ride When a captain accepts Then it becomes accepted", func(t *testing.T) {
		r := newRequested(t)
		if err := r.Accept("captain-1"); err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if r.Status != StatusAccepted || r.CaptainID != "captain-1" {
			t.Errorf("after accept: status=%s captain=%s", r.Status, r.CaptainID)
		}
	})

	t.Run("Given a cancelled ride When a captain accepts Then it is rejected", func(t *testing.T) {
		r := newRequested(t)
		if err := r.CancelByUser("user-1"); err != nil {
			t.Fatalf("CancelByUser: %v", err)
		}
		if err := r.Accept("captain-1"); !errors.Is(err, ErrRideTerminal) {
			t.Errorf("accept after cancel: err = %v, want %v", err, ErrRideTerminal)
		}
	})

	t.Run("Given another rider's ride When cancelling Then ownership is enforced", func(t *testing.T) {
		r := newRequested(t)
		if err := r.CancelByUser("someone-else"); !errors.Is(err, ErrNotOwner) {
			t.Errorf("err = %v, want %v", err, ErrNotOwner)
		}
		if r.Status != StatusRequested {
			t.Errorf("failed cancel must not change status, got %s", r.Status)
		}
	})

	t.Run("Given an accepted ride When the assigned captain cancels Then it becomes cancelled", func(t *testing.T) {
		r := newRequested(t)
		if err := r.Accept("captain-1"); err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if err := r.CancelByCaptain("captain-1"); err != nil {
			t.Fatalf("CancelByCaptain: %v", err)
		}
		if r.Status != StatusCancelled {
			t.Errorf("status = %s, want %s", r.Status, StatusCancelled)
		}
	})

	t.Run("Given an accepted ride When a different captain cancels Then it is rejected", func(t *testing.T) {
		r := newRequested(t)
		if err := r.Accept("captain-1"); err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if err := r.CancelByCaptain("captain-2"); !errors.Is(err, ErrCaptainMismatch) {
			t.Errorf("err = %v, want %v", err, ErrCaptainMismatch)
		}
	})

	t.Run("Given a cancelled ride When cancelling again Then it is rejected", func(t *testing.T) {
		r := newRequested(t)
		if err := r.CancelByUser("user-1"); err != nil {
			t.Fatalf("CancelByUser: %v", err)
		}
		if err := r.CancelByUser("user-1"); !errors.Is(err, ErrRideTerminal) {
			t.Errorf("err = %v, want %v", err, ErrRideTerminal)
		}
	})
}

func TestStatus(t *testing.T) {
	t.Run("Given mixed-case input When parsing Then status is normalized", func(t *testing.T) {
		s, err := ParseStatus(" Accepted ")
		if err != nil {
			t.Fatalf("ParseStatus: %v", err)
		}
		if s != StatusAccepted {
			t.Errorf("got %s, want %s", s, StatusAccepted)
		}
	})

	t.Run("Given an unknown status When parsing Then it is rejected", func(t *testing.T) {
		if _, err := ParseStatus("en-route"); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("err = %v, want %v", err, ErrInvalidStatus)
		}
	})

	t.Run("Given terminal statuses Then no further transitions are allowed", func(t *testing.T) {
		for _, s := range []Status{StatusCancelled, StatusCompleted} {
			if !s.Terminal() {
				t.Errorf("%s should be terminal", s)
			}
			if s.CanTransitionTo(StatusAccepted) {
				t.Errorf("%s should not transition to accepted", s)
			}
		}
	})
}
