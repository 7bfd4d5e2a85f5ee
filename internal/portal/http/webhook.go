package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// signatureHeader carries the base64 HMAC-SHA256 of the raw body, keyed
// with the Connect secret configured on the DocuSign side.
const signatureHeader = "X-DocuSign-Signature-1"

// maxWebhookBody bounds the payload read; Connect envelopes are small.
const maxWebhookBody = 1 << 20

// WebhookHandler receives DocuSign Connect envelope events.
type WebhookHandler struct {
	SignatureService *service.SignatureService
	Secret           string
}

// HandleEnvelope handles POST /v1/webhooks/docusign. When a secret is
// configured the signature is mandatory; without one, deliveries are
// accepted and the gap is logged so it cannot pass silently in production.
func (h *WebhookHandler) HandleEnvelope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if h.Secret != "" {
		if !verifySignature(h.Secret, body, r.Header.Get(signatureHeader)) {
			log.Warn("webhook signature mismatch")
			httpx.WriteError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	} else {
		log.Warn("webhook secret not configured, accepting unsigned delivery")
	}

	var evt domain.EnvelopeEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.SignatureService.ProcessEnvelope(ctx, evt)
	if err != nil {
		log.Error("failed to process envelope", "envelope_id", evt.Data.EnvelopeID, "err", err)
		writeServerError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

func verifySignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}
