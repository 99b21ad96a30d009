package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rideshare/internal/domain/user"
	"rideshare/internal/general/contracts"
	"rideshare/internal/general/jwt"
	"rideshare/internal/general/logger"
	"rideshare/internal/ports"
	"rideshare/internal/relay"
)

// stubUserService returns canned results for the long-poll endpoint.
type stubUserService struct {
	update *contracts.RideUpdateMessage
	err    error
}

func (s *stubUserService) Register(context.Context, ports.RegisterInput) (ports.AuthResult, error) {
	return ports.AuthResult{}, nil
}

func (s *stubUserService) Login(context.Context, ports.LoginInput) (ports.AuthResult, error) {
	return ports.AuthResult{}, nil
}

func (s *stubUserService) Logout(context.Context, string) error { return nil }

func (s *stubUserService) Profile(context.Context, string) (ports.ProfileResult, error) {
	return ports.ProfileResult{}, nil
}

func (s *stubUserService) AwaitRideUpdate(context.Context, string, string) (*contracts.RideUpdateMessage, error) {
	return s.update, s.err
}

func (s *stubUserService) RunBackgroundConsumers(context.Context) {}

func pollUpdates(t *testing.T, svc ports.UserService, target string) *httptest.ResponseRecorder {
	t.Helper()

	mgr := jwt.NewManager("test-secret", time.Hour)
	h := NewUserHTTPHandler(svc, logger.New("test"), mgr, nil)

	r := httptest.NewRequest(http.MethodGet, target, nil)
	claims := jwt.NewClaims("user-1", user.RoleRider, time.Hour)
	r = r.WithContext(jwt.InjectClaims(r.Context(), claims))

	w := httptest.NewRecorder()
	h.handleRideUpdates(w, r)
	return w
}

func TestHandleRideUpdates(t *testing.T) {
	t.Run("Given a delivered update Then 200 with the update body", func(t *testing.T) {
		update := &contracts.RideUpdateMessage{
			RideID: "ride-1",
			UserID: "user-1",
			Status: "accepted",
		}
		w := pollUpdates(t, &stubUserService{update: update}, "/users/rides/updates?ride_id=ride-1")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var got contracts.RideUpdateMessage
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.RideID != "ride-1" || got.Status != "accepted" {
			t.Errorf("body mismatch: %+v", got)
		}
	})

	t.Run("Given a timeout (no update) Then 204 with an empty body", func(t *testing.T) {
		w := pollUpdates(t, &stubUserService{}, "/users/rides/updates?ride_id=ride-1")

		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("204 must have an empty body, got %q", w.Body.String())
		}
	})

	t.Run("Given a missing ride_id Then 400", func(t *testing.T) {
		w := pollUpdates(t, &stubUserService{}, "/users/rides/updates")

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("Given a full waiter registry Then 429", func(t *testing.T) {
		w := pollUpdates(t, &stubUserService{err: relay.ErrTooManyWaiters}, "/users/rides/updates?ride_id=ride-1")

		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want 429", w.Code)
		}
	})

	t.Run("Given a cancelled request Then nothing is written", func(t *testing.T) {
		w := pollUpdates(t, &stubUserService{err: context.Canceled}, "/users/rides/updates?ride_id=ride-1")

		// httptest defaults to 200 when the handler writes nothing.
		if w.Body.Len() != 0 {
			t.Errorf("cancelled poll must not write a body, got %q", w.Body.String())
		}
	})
}
