package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voltgrid/investorportal/internal/portal/mail"
	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// EmailHandler handles the transactional email endpoint.
type EmailHandler struct {
	EmailService *service.EmailService
}

type sendEmailRequest struct {
	To        string         `json:"to"`
	Template  string         `json:"template"`
	Subject   string         `json:"subject,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// HandleSend handles POST /v1/send-email.
func (h *EmailHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.To == "" || req.Template == "" {
		httpx.WriteError(w, http.StatusBadRequest, "to and template are required")
		return
	}

	receipt, err := h.EmailService.Send(ctx, service.SendParams{
		To:        req.To,
		Template:  req.Template,
		Subject:   req.Subject,
		Variables: req.Data,
	})

	var apiErr *mail.APIError
	switch {
	case errors.Is(err, service.ErrInvalidRecipient):
		httpx.WriteError(w, http.StatusBadRequest, "invalid recipient address")
		return
	case errors.Is(err, mail.ErrUnknownTemplate):
		httpx.WriteError(w, http.StatusBadRequest, "unknown template")
		return
	case errors.As(err, &apiErr):
		// Surface the provider's own message to the caller.
		log.Warn("mail provider rejected message", "status", apiErr.StatusCode, "err", apiErr.Message)
		httpx.WriteError(w, http.StatusInternalServerError, apiErr.Message)
		return
	case errors.Is(err, mail.ErrNotConfigured):
		httpx.WriteError(w, http.StatusServiceUnavailable, "email delivery not configured")
		return
	case err != nil:
		log.Error("failed to send email", "err", err)
		writeServerError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, receipt)
}
