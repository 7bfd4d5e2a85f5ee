package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// AdminHandler handles the admin-only endpoints.
type AdminHandler struct {
	AdminService *service.AdminService
}

type deleteUserRequest struct {
	UserID string `json:"user_id"`
}

// HandleDeleteUser handles POST /v1/admin/delete-user.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req deleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	callerID := httpx.UserIDFromContext(ctx)
	err := h.AdminService.DeleteUser(ctx, callerID, req.UserID)
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, service.ErrSelfDelete):
		httpx.WriteError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		log.Error("failed to delete user", "target_id", req.UserID, "err", err)
		writeServerError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleRecentActivity handles GET /v1/admin/activity.
func (h *AdminHandler) HandleRecentActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	callerID := httpx.UserIDFromContext(ctx)
	entries, err := h.AdminService.ListRecentActivity(ctx, callerID, queryLimit(r))
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
		return
	case err != nil:
		log.Error("failed to list activity", "err", err)
		writeServerError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

// HandleUserActivity handles GET /v1/admin/users/{id}/activity.
func (h *AdminHandler) HandleUserActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	callerID := httpx.UserIDFromContext(ctx)
	userID := r.PathValue("id")
	entries, err := h.AdminService.ListUserActivity(ctx, callerID, userID, queryLimit(r))
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
		return
	case err != nil:
		log.Error("failed to list user activity", "user_id", userID, "err", err)
		writeServerError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

func queryLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}
