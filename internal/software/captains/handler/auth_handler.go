package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"rideshare/internal/general/jwt"
	"rideshare/internal/general/postgres"
	"rideshare/internal/ports"
	"rideshare/internal/software/captains/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ----- Handler: POST /captains/register -----

func (handler *CaptainHTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	var req registerRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	if strings.TrimSpace(req.Password) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "password is required", nil)
		return
	}

	res, err := handler.svc.Register(ctx, ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			handler.httpError(ctx, w, http.StatusBadRequest, "captain already exists", err)
			return
		}
		handler.serviceError(ctx, w, err)
		return
	}

	handler.setAuthCookie(w, res.Token, res.ExpiresAt)
	handler.jsonResponse(ctx, w, http.StatusCreated, res)
}

// ----- Handler: POST /captains/login -----

func (handler *CaptainHTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	res, err := handler.svc.Login(ctx, ports.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			handler.httpError(ctx, w, http.StatusUnauthorized, "invalid email or password", err)
			return
		}
		handler.serviceError(ctx, w, err)
		return
	}

	handler.setAuthCookie(w, res.Token, res.ExpiresAt)
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: POST /captains/logout -----

func (handler *CaptainHTTPHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	raw, err := jwt.FromAuthorization(r)
	if err != nil {
		raw = "" // Logout treats a missing token as a no-op
	}

	if err := handler.svc.Logout(ctx, raw); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.clearAuthCookie(w)
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// ----- Handler: GET /captains/profile -----

func (handler *CaptainHTTPHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	ctx = handler.logger.WithUserID(ctx, claims.Subject)

	res, err := handler.svc.Profile(ctx, claims.Subject)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: PATCH /captains/availability -----

func (handler *CaptainHTTPHandler) handleToggleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	ctx = handler.logger.WithUserID(ctx, claims.Subject)

	res, err := handler.svc.ToggleAvailability(ctx, claims.Subject)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- shared helpers -----

func (handler *CaptainHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, postgres.ErrNotFound) {
		handler.httpError(ctx, w, http.StatusNotFound, "not found", err)
		return
	}
	handler.httpError(ctx, w, http.StatusInternalServerError, "internal server error", err)
}

func (handler *CaptainHTTPHandler) setAuthCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
	})
}

func (handler *CaptainHTTPHandler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
