package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when the client has no API endpoint. The
// portal treats outbound mail as best-effort in that state.
var ErrNotConfigured = errors.New("mail: client not configured")

// Message is a single outbound transactional email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

// Receipt is the provider's acknowledgement of an accepted message.
type Receipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// APIError carries the provider's rejection back to the caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mail: provider returned %d: %s", e.StatusCode, e.Message)
}

// Client delivers mail through an HTTP email API. The zero value is an
// unconfigured client whose Send always fails with ErrNotConfigured.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message to the provider and returns its receipt.
func (c *Client) Send(ctx context.Context, msg Message) (Receipt, error) {
	if c == nil || c.BaseURL == "" {
		return Receipt{}, ErrNotConfigured
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to reach mail provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(raw),
		}
	}

	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		// Some providers answer 2xx with an empty body; the send still
		// succeeded.
		return Receipt{Status: "sent"}, nil
	}
	if receipt.Status == "" {
		receipt.Status = "sent"
	}
	return receipt, nil
}

// providerMessage digs a human-readable error out of the provider's JSON
// body, falling back to the raw body.
func providerMessage(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(raw)
}
