package jwt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rideshare/internal/domain/user"
)

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	return s.revoked[token], s.err
}

func TestManager(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	t.Run("Given an issued token When validated Then claims round-trip", func(t *testing.T) {
		signed, claims, err := mgr.IssueToken("user-1", user.RoleRider)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if claims.Subject != "user-1" || claims.Role != user.RoleRider {
			t.Errorf("issued claims mismatch: %+v", claims)
		}

		parsed, err := mgr.ParseAndValidate(signed)
		if err != nil {
			t.Fatalf("ParseAndValidate: %v", err)
		}
		if parsed.Subject != "user-1" || parsed.Role != user.RoleRider {
			t.Errorf("parsed claims mismatch: %+v", parsed)
		}
	})

	t.Run("Given a token from another secret When validated Then it is rejected", func(t *testing.T) {
		other := NewManager("different-secret", time.Hour)
		signed, _, err := other.IssueToken("user-1", user.RoleRider)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if _, err := mgr.ParseAndValidate(signed); err == nil {
			t.Fatal("expected signature validation to fail")
		}
	})

	t.Run("Given an expired token When validated Then it is rejected", func(t *testing.T) {
		shortLived := NewManager("test-secret", -time.Minute)
		signed, _, err := shortLived.IssueToken("user-1", user.RoleRider)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if _, err := mgr.ParseAndValidate(signed); err == nil {
			t.Fatal("expected expiry validation to fail")
		}
	})

	t.Run("Given an invalid role When issuing Then it is rejected", func(t *testing.T) {
		if _, _, err := mgr.IssueToken("user-1", user.Role("admin")); err == nil {
			t.Fatal("expected invalid role error")
		}
	})
}

func TestFromAuthorization(t *testing.T) {
	t.Run("Given a bearer header Then the token is extracted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer abc.def.ghi")

		tkn, err := FromAuthorization(r)
		if err != nil {
			t.Fatalf("FromAuthorization: %v", err)
		}
		if tkn != "abc.def.ghi" {
			t.Errorf("token = %q", tkn)
		}
	})

	t.Run("Given only a token cookie Then the cookie is used", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})

		tkn, err := FromAuthorization(r)
		if err != nil {
			t.Fatalf("FromAuthorization: %v", err)
		}
		if tkn != "cookie-token" {
			t.Errorf("token = %q", tkn)
		}
	})

	t.Run("Given no credentials Then ErrNoAuthHeader is returned", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := FromAuthorization(r); !errors.Is(err, ErrNoAuthHeader) {
			t.Errorf("err = %v, want %v", err, ErrNoAuthHeader)
		}
	})

	t.Run("Given an empty bearer value Then ErrEmptyToken is returned", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer ")
		if _, err := FromAuthorization(r); !errors.Is(err, ErrEmptyToken) {
			t.Errorf("err = %v, want %v", err, ErrEmptyToken)
		}
	})
}

func TestAuthMiddlewareFunc(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	issue := func(t *testing.T, role user.Role) string {
		t.Helper()
		signed, _, err := mgr.IssueToken("subject-1", role)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		return signed
	}

	protected := func(blacklist BlacklistChecker, roles ...user.Role) (http.HandlerFunc, *bool) {
		called := false
		next := func(w http.ResponseWriter, r *http.Request) {
			called = true
			if c := RequireClaims(r); c == nil || c.Subject != "subject-1" {
				t.Errorf("claims missing in protected handler: %+v", c)
			}
		}
		return AuthMiddlewareFunc(mgr, blacklist, roles...)(next), &called
	}

	t.Run("Given a valid rider token Then the request passes through", func(t *testing.T) {
		h, called := protected(&stubBlacklist{}, user.RoleRider)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+issue(t, user.RoleRider))
		w := httptest.NewRecorder()
		h(w, r)

		if !*called {
			t.Error("next handler was not called")
		}
		if w.Code != http.StatusOK {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("Given a captain token on a rider route Then 403 is returned", func(t *testing.T) {
		h, called := protected(&stubBlacklist{}, user.RoleRider)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+issue(t, user.RoleCaptain))
		w := httptest.NewRecorder()
		h(w, r)

		if *called {
			t.Error("next handler should not run")
		}
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("Given a blacklisted token Then 401 is returned", func(t *testing.T) {
		tkn := issue(t, user.RoleRider)
		h, called := protected(&stubBlacklist{revoked: map[string]bool{tkn: true}}, user.RoleRider)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tkn)
		w := httptest.NewRecorder()
		h(w, r)

		if *called {
			t.Error("next handler should not run")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("Given no credentials Then 401 is returned", func(t *testing.T) {
		h, called := protected(&stubBlacklist{}, user.RoleRider)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		h(w, r)

		if *called {
			t.Error("next handler should not run")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("Given a blacklist lookup failure Then 500 is returned", func(t *testing.T) {
		h, called := protected(&stubBlacklist{err: errors.New("db down")}, user.RoleRider)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+issue(t, user.RoleRider))
		w := httptest.NewRecorder()
		h(w, r)

		if *called {
			t.Error("next handler should not run")
		}
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}
