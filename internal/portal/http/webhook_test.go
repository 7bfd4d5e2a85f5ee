package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voltgrid/investorportal/internal/portal/domain"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func envelopeBody(t *testing.T, envelopeID, signerEmail string) []byte {
	t.Helper()

	evt := domain.EnvelopeEvent{
		Event: domain.EnvelopeCompleted,
		Data: domain.EnvelopeData{
			EnvelopeID: envelopeID,
			EnvelopeSummary: domain.EnvelopeSummary{
				Status: domain.EnvelopeCompleted,
				Recipients: domain.Recipients{
					Signers: []domain.Signer{
						{Email: signerEmail, Name: "Signer", Status: domain.SignerCompleted},
					},
				},
			},
		},
	}
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	return body
}

func postWebhook(t *testing.T, env *testEnv, body []byte, signature string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/v1/webhooks/docusign", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestWebhookSignature(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	body := envelopeBody(t, "env-1", "nobody@example.com")

	t.Run("missing signature is rejected", func(t *testing.T) {
		resp := postWebhook(t, env, body, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong signature is rejected", func(t *testing.T) {
		resp := postWebhook(t, env, body, signBody("wrong-secret", body))
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid signature is accepted", func(t *testing.T) {
		resp := postWebhook(t, env, body, signBody(testWebhookSecret, body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestWebhookMarksNDA(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t)
	_, _ = env.signUpAndIn(t, "signer@example.com", domain.RoleInvestor)

	body := envelopeBody(t, "env-2", "signer@example.com")

	t.Run("first delivery marks the profile", func(t *testing.T) {
		resp := postWebhook(t, env, body, signBody(testWebhookSecret, body))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Updated []string `json:"updated"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Equal(t, []string{"signer@example.com"}, result.Updated)

		profile, err := env.store.Profiles().GetProfileByEmail(ctx, "signer@example.com")
		require.NoError(t, err)
		require.True(t, profile.NDASigned)
	})

	t.Run("redelivery reports already signed", func(t *testing.T) {
		resp := postWebhook(t, env, body, signBody(testWebhookSecret, body))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Updated       []string `json:"updated"`
			AlreadySigned []string `json:"already_signed"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Empty(t, result.Updated)
		require.Equal(t, []string{"signer@example.com"}, result.AlreadySigned)
	})
}
