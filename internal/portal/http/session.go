package http

import (
	"errors"
	"net/http"

	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// SessionHandler exposes the session status poll and the "stay signed in"
// extension used by the idle-warning prompt.
type SessionHandler struct {
	AuthService *service.AuthService
}

// HandleStatus handles GET /v1/auth/session.
func (h *SessionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID := httpx.SessionIDFromContext(ctx)
	status, err := h.AuthService.SessionStatus(ctx, sessionID)
	switch {
	case errors.Is(err, service.ErrSessionExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "session expired")
		return
	case err != nil:
		log.Error("failed to load session status", "session_id", sessionID, "err", err)
		writeServerError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, status)
}

// HandleExtend handles POST /v1/session/extend.
func (h *SessionHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID := httpx.SessionIDFromContext(ctx)
	err := h.AuthService.Extend(ctx, sessionID)
	switch {
	case errors.Is(err, service.ErrSessionExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "session expired")
		return
	case err != nil:
		log.Error("failed to extend session", "session_id", sessionID, "err", err)
		writeServerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
