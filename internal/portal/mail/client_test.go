package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("posts the message with the API key", func(t *testing.T) {
		t.Parallel()

		var got Message
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Receipt{ID: "msg-1", Status: "queued"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		receipt, err := c.Send(ctx, Message{To: "a@b.test", Subject: "Hi", HTML: "<p>hi</p>"})
		require.NoError(t, err)
		require.Equal(t, "msg-1", receipt.ID)
		require.Equal(t, "queued", receipt.Status)
		require.Equal(t, "a@b.test", got.To)
	})

	t.Run("surfaces the provider error message", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"invalid recipient domain"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		_, err := c.Send(ctx, Message{To: "bad@", Subject: "Hi", HTML: "x"})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		require.Equal(t, "invalid recipient domain", apiErr.Message)
	})

	t.Run("empty 2xx body still counts as sent", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		receipt, err := c.Send(ctx, Message{To: "a@b.test", Subject: "Hi", HTML: "x"})
		require.NoError(t, err)
		require.Equal(t, "sent", receipt.Status)
	})

	t.Run("unconfigured client refuses to send", func(t *testing.T) {
		t.Parallel()

		var c *Client
		_, err := c.Send(ctx, Message{To: "a@b.test"})
		require.ErrorIs(t, err, ErrNotConfigured)

		_, err = (&Client{}).Send(ctx, Message{To: "a@b.test"})
		require.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("welcome fills name and site", func(t *testing.T) {
		subject, html, err := Render(RenderParams{
			Template:  TemplateWelcome,
			Variables: map[string]any{"Name": "Ada", "SiteURL": "https://portal.test"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, subject)
		require.Contains(t, html, "Ada")
		require.Contains(t, html, "https://portal.test")
	})

	t.Run("custom requires a subject", func(t *testing.T) {
		_, _, err := Render(RenderParams{
			Template:  TemplateCustom,
			Variables: map[string]any{"Body": "hello"},
		})
		require.Error(t, err)

		subject, html, err := Render(RenderParams{
			Template:  TemplateCustom,
			Subject:   "Custom subject",
			Variables: map[string]any{"Body": "hello"},
		})
		require.NoError(t, err)
		require.Equal(t, "Custom subject", subject)
		require.Contains(t, html, "hello")
	})

	t.Run("unknown template is an error", func(t *testing.T) {
		_, _, err := Render(RenderParams{Template: "nope"})
		require.ErrorIs(t, err, ErrUnknownTemplate)
	})

	t.Run("custom escapes markup", func(t *testing.T) {
		_, html, err := Render(RenderParams{
			Template:  TemplateCustom,
			Subject:   "s",
			Variables: map[string]any{"Body": "<script>x</script>"},
		})
		require.NoError(t, err)
		require.NotContains(t, html, "<script>")
	})
}
