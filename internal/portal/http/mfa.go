package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// MFAHandler handles TOTP enrollment and the step-up verification flow.
type MFAHandler struct {
	MFAService *service.MFAService
}

type enrollRequest struct {
	FriendlyName string `json:"friendly_name"`
}

type challengeRequest struct {
	FactorID string `json:"factor_id"`
}

type verifyRequest struct {
	FactorID    string `json:"factor_id"`
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// HandleEnroll handles POST /v1/mfa/totp/enroll.
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	userID := httpx.UserIDFromContext(ctx)
	resp, err := h.MFAService.Enroll(ctx, userID, req.FriendlyName)
	if err != nil {
		log.Error("failed to enroll factor", "user_id", userID, "err", err)
		writeServerError(w, err)
		return
	}

	// The secret and otpauth URL appear in this response only.
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// HandleChallenge handles POST /v1/mfa/challenge.
func (h *MFAHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FactorID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "factor_id is required")
		return
	}

	userID := httpx.UserIDFromContext(ctx)
	challenge, err := h.MFAService.Challenge(ctx, userID, req.FactorID)
	switch {
	case errors.Is(err, service.ErrFactorNotFound):
		httpx.WriteError(w, http.StatusNotFound, "factor not found")
		return
	case err != nil:
		log.Error("failed to create challenge", "user_id", userID, "err", err)
		writeServerError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"challenge_id": challenge.ID,
		"expires_at":   challenge.ExpiresAt,
	})
}

// HandleVerify handles POST /v1/mfa/verify.
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FactorID == "" || req.ChallengeID == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "factor_id, challenge_id and code are required")
		return
	}

	token, err := h.MFAService.Verify(ctx, service.VerifyParams{
		UserID:      httpx.UserIDFromContext(ctx),
		SessionID:   httpx.SessionIDFromContext(ctx),
		FactorID:    req.FactorID,
		ChallengeID: req.ChallengeID,
		Code:        req.Code,
	})
	switch {
	case errors.Is(err, service.ErrFactorNotFound):
		httpx.WriteError(w, http.StatusNotFound, "factor not found")
		return
	case errors.Is(err, service.ErrChallengeInvalid):
		httpx.WriteError(w, http.StatusBadRequest, "challenge expired or already used")
		return
	case errors.Is(err, service.ErrInvalidTOTPCode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid TOTP code")
		return
	case err != nil:
		log.Error("failed to verify factor", "err", err)
		writeServerError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "Bearer",
	})
}

// HandleListFactors handles GET /v1/mfa/factors.
func (h *MFAHandler) HandleListFactors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	factors, err := h.MFAService.ListFactors(ctx, userID)
	if err != nil {
		log.Error("failed to list factors", "user_id", userID, "err", err)
		writeServerError(w, err)
		return
	}

	type factorView struct {
		ID           string `json:"id"`
		Type         string `json:"type"`
		FriendlyName string `json:"friendly_name,omitempty"`
		Status       string `json:"status"`
	}
	views := make([]factorView, 0, len(factors))
	for _, f := range factors {
		views = append(views, factorView{
			ID:           f.ID,
			Type:         f.Type,
			FriendlyName: f.FriendlyName,
			Status:       f.Status,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"factors": views})
}

// HandleUnenroll handles DELETE /v1/mfa/totp/{id}.
func (h *MFAHandler) HandleUnenroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	userID := httpx.UserIDFromContext(ctx)
	err := h.MFAService.Unenroll(ctx, userID, r.PathValue("id"), req.Code)
	switch {
	case errors.Is(err, service.ErrFactorNotFound):
		httpx.WriteError(w, http.StatusNotFound, "factor not found")
		return
	case errors.Is(err, service.ErrFactorUnverified), errors.Is(err, service.ErrInvalidTOTPCode):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("failed to unenroll factor", "user_id", userID, "err", err)
		writeServerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
