package http

import (
	"net/http"

	"github.com/voltgrid/investorportal/pkg/errclass"
	"github.com/voltgrid/investorportal/pkg/httpx"
)

// writeServerError renders an unexpected error through the classifier so
// clients get a displayable message and a retry hint instead of raw
// internals. The raw error stays in the logs only.
func writeServerError(w http.ResponseWriter, err error) {
	c := errclass.Classify(err)
	httpx.WriteJSON(w, http.StatusInternalServerError, map[string]any{
		"error":      c.Message,
		"category":   c.Category,
		"suggestion": c.Suggestion,
		"retryable":  c.Retryable,
	})
}
