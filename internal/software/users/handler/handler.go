package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"rideshare/internal/domain/user"
	"rideshare/internal/general/jwt"
	"rideshare/internal/general/logger"
	"rideshare/internal/ports"
)

// UserHTTPHandler adapts HTTP requests to the UserService.
type UserHTTPHandler struct {
	svc       ports.UserService
	logger    *logger.Logger
	auth      *jwt.Manager
	blacklist jwt.BlacklistChecker
}

// NewUserHTTPHandler wires an HTTP handler around the UserService.
func NewUserHTTPHandler(
	svc ports.UserService,
	log *logger.Logger,
	auth *jwt.Manager,
	blacklist jwt.BlacklistChecker,
) *UserHTTPHandler {
	return &UserHTTPHandler{svc: svc, logger: log, auth: auth, blacklist: blacklist}
}

// RegisterRoutes mounts user endpoints on the provided mux.
func (handler *UserHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, handler.blacklist, user.RoleRider)(next)
	}

	mux.HandleFunc("POST /users/register", handler.handleRegister)
	mux.HandleFunc("POST /users/login", handler.handleLogin)
	mux.HandleFunc("POST /users/logout", authed(handler.handleLogout))
	mux.HandleFunc("GET /users/profile", authed(handler.handleProfile))
	mux.HandleFunc("GET /users/rides/updates", authed(handler.handleRideUpdates))

	mux.HandleFunc("GET /users/health", handler.handleHealth)
}

func (handler *UserHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse encodes data to an HTTP response, controlling status on failure.
func (handler *UserHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *UserHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *UserHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
