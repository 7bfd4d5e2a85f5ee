package http

import (
	"net/http"

	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// ActivityHandler exposes the caller's own audit trail.
type ActivityHandler struct {
	AuthService *service.AuthService
}

// HandleOwnActivity handles GET /v1/activity.
func (h *ActivityHandler) HandleOwnActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	entries, err := h.AuthService.ListActivity(ctx, userID, queryLimit(r))
	if err != nil {
		log.Error("failed to list activity", "user_id", userID, "err", err)
		writeServerError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activity": entries})
}
