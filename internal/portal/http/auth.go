package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// AuthHandler handles account and credential endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	SessionID   string `json:"session_id"`
	MFARequired bool   `json:"mfa_required"`
}

// HandleSignUp handles POST /v1/auth/signup.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.AuthService.SignUp(ctx, req.Email, req.Password, req.FullName)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email already registered")
		return
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("failed to sign up", "err", err)
		writeServerError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// HandleSignIn handles POST /v1/auth/signin.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.AuthService.SignIn(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case err != nil:
		log.Error("failed to sign in", "err", err)
		writeServerError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, signInResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		SessionID:   result.Session.ID,
		MFARequired: result.MFARequired,
	})
}

// HandleSignOut handles POST /v1/auth/signout.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID := httpx.SessionIDFromContext(ctx)
	if err := h.AuthService.SignOut(ctx, sessionID); err != nil {
		log.Error("failed to sign out", "session_id", sessionID, "err", err)
		writeServerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
