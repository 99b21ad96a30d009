package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"rideshare/internal/general/jwt"
	"rideshare/internal/relay"
)

// ----- Handler: GET /users/rides/updates -----

// handleRideUpdates is a long poll: it parks the caller until their ride is
// accepted or cancelled, then answers with the update. A timeout answers
// 204 so clients can immediately poll again.
func (handler *UserHTTPHandler) handleRideUpdates(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	ctx = handler.logger.WithUserID(ctx, claims.Subject)

	rideID := strings.TrimSpace(r.URL.Query().Get("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", nil)
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	update, err := handler.svc.AwaitRideUpdate(ctx, claims.Subject, rideID)
	if err != nil {
		switch {
		case errors.Is(err, relay.ErrTooManyWaiters):
			handler.httpError(ctx, w, http.StatusTooManyRequests, "too many concurrent update requests", err)
		case errors.Is(err, relay.ErrEmptyKey):
			handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Caller disconnected; nothing to write.
		default:
			handler.serviceError(ctx, w, err)
		}
		return
	}

	if update == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, update)
}
