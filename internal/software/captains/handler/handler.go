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
	"rideshare/internal/software/captains/ws"
)

// CaptainHTTPHandler adapts HTTP requests to the CaptainService.
type CaptainHTTPHandler struct {
	svc       ports.CaptainService
	logger    *logger.Logger
	auth      *jwt.Manager
	blacklist jwt.BlacklistChecker
	feed      *ws.Feed
}

// NewCaptainHTTPHandler wires an HTTP handler around the CaptainService.
func NewCaptainHTTPHandler(
	svc ports.CaptainService,
	log *logger.Logger,
	auth *jwt.Manager,
	blacklist jwt.BlacklistChecker,
	feed *ws.Feed,
) *CaptainHTTPHandler {
	return &CaptainHTTPHandler{svc: svc, logger: log, auth: auth, blacklist: blacklist, feed: feed}
}

// RegisterRoutes mounts captain endpoints on the provided mux.
func (handler *CaptainHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, handler.blacklist, user.RoleCaptain)(next)
	}

	mux.HandleFunc("POST /captains/register", handler.handleRegister)
	mux.HandleFunc("POST /captains/login", handler.handleLogin)
	mux.HandleFunc("POST /captains/logout", authed(handler.handleLogout))
	mux.HandleFunc("GET /captains/profile", authed(handler.handleProfile))
	mux.HandleFunc("PATCH /captains/availability", authed(handler.handleToggleAvailability))
	mux.HandleFunc("GET /captains/ws", authed(handler.feed.HandleConnect))

	mux.HandleFunc("GET /captains/health", handler.handleHealth)
}

func (handler *CaptainHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (handler *CaptainHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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

func (handler *CaptainHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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

func (handler *CaptainHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
