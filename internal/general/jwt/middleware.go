package jwt

import (
	"context"
	"net/http"

	"rideshare/internal/domain/user"
)

// BlacklistChecker reports whether a raw token has been revoked (logout).
// Implemented by the postgres token blacklist repository.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// AuthMiddlewareFunc validates tokens, rejects blacklisted ones, and injects
// claims into the request context. Used for HTTP routes.
func AuthMiddlewareFunc(mgr *Manager, blacklist BlacklistChecker, allowedRoles ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// extract token from Authorization header or cookie
			raw, err := FromAuthorization(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			// parse and validate token
			claims, err := mgr.ParseAndValidate(raw)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			// logged-out tokens stay invalid until they expire
			if blacklist != nil {
				revoked, err := blacklist.IsBlacklisted(r.Context(), raw)
				if err != nil {
					http.Error(w, "authorization check failed", http.StatusInternalServerError)
					return
				}
				if revoked {
					http.Error(w, ErrTokenRevoked.Error(), http.StatusUnauthorized)
					return
				}
			}

			// enforce role-based access control
			if err := RoleAllowed(claims, allowedRoles...); err != nil {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}

			ctx := InjectClaims(r.Context(), claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireClaims extracts JWT claims from the request context.
func RequireClaims(r *http.Request) *Claims {
	c, _ := FromContext(r.Context())
	return c
}
