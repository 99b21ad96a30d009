package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"rideshare/internal/domain/ride"
	"rideshare/internal/general/jwt"
	"rideshare/internal/general/postgres"
	"rideshare/internal/ports"
)

type createRideRequest struct {
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
}

// ----- Handler: POST /rides -----

func (handler *RideHTTPHandler) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	ctx = handler.logger.WithUserID(ctx, claims.Subject)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	var req createRideRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	res, err := handler.svc.CreateRide(ctx, ports.CreateRideInput{
		UserID:      claims.Subject,
		Pickup:      req.Pickup,
		Destination: req.Destination,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, res)
}

// ----- Handler: PUT /rides/accept -----

func (handler *RideHTTPHandler) handleAcceptRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	ctx = handler.logger.WithUserID(ctx, claims.Subject)

	rideID, ok := handler.rideIDFromQuery(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	res, err := handler.svc.AcceptRide(ctx, rideID, claims.Subject)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: PUT /rides/cancel/user -----

func (handler *RideHTTPHandler) handleCancelByUser(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	ctx = handler.logger.WithUserID(ctx, claims.Subject)

	rideID, ok := handler.rideIDFromQuery(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	res, err := handler.svc.CancelRideByUser(ctx, rideID, claims.Subject)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: PUT /rides/cancel/captain -----

func (handler *RideHTTPHandler) handleCancelByCaptain(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	ctx = handler.logger.WithUserID(ctx, claims.Subject)

	rideID, ok := handler.rideIDFromQuery(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	res, err := handler.svc.CancelRideByCaptain(ctx, rideID, claims.Subject)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- shared helpers -----

func (handler *RideHTTPHandler) rideIDFromQuery(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	rideID := strings.TrimSpace(r.URL.Query().Get("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", nil)
		return "", false
	}
	return rideID, true
}

// serviceError maps service and domain failures onto HTTP statuses.
func (handler *RideHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, "ride not found", err)
	case errors.Is(err, ride.ErrNotOwner), errors.Is(err, ride.ErrCaptainMismatch):
		handler.httpError(ctx, w, http.StatusForbidden, err.Error(), err)
	case errors.Is(err, ride.ErrRideTerminal):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, ride.ErrEmptyUserID),
		errors.Is(err, ride.ErrEmptyPickup),
		errors.Is(err, ride.ErrEmptyDestination):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
