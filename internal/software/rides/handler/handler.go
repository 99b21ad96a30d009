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

// RideHTTPHandler adapts HTTP requests to the RideService.
type RideHTTPHandler struct {
	svc       ports.RideService
	logger    *logger.Logger
	auth      *jwt.Manager
	blacklist jwt.BlacklistChecker
}

// NewRideHTTPHandler wires an HTTP handler around the RideService.
func NewRideHTTPHandler(
	svc ports.RideService,
	log *logger.Logger,
	auth *jwt.Manager,
	blacklist jwt.BlacklistChecker,
) *RideHTTPHandler {
	return &RideHTTPHandler{svc: svc, logger: log, auth: auth, blacklist: blacklist}
}

// RegisterRoutes mounts ride endpoints on the provided mux.
func (handler *RideHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	asRider := func(next http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, handler.blacklist, user.RoleRider)(next)
	}
	asCaptain := func(next http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, handler.blacklist, user.RoleCaptain)(next)
	}

	mux.HandleFunc("POST /rides", asRider(handler.handleCreateRide))
	mux.HandleFunc("PUT /rides/accept", asCaptain(handler.handleAcceptRide))
	mux.HandleFunc("PUT /rides/cancel/user", asRider(handler.handleCancelByUser))
	mux.HandleFunc("PUT /rides/cancel/captain", asCaptain(handler.handleCancelByCaptain))

	mux.HandleFunc("GET /rides/health", handler.handleHealth)
}

func (handler *RideHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (handler *RideHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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

func (handler *RideHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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

func (handler *RideHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
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
