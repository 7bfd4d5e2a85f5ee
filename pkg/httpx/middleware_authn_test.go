package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltgrid/investorportal/pkg/jwtx"
)

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()
	signer, err := jwtx.NewSigner("0123456789abcdef0123456789abcdef", "voltgrid-test")
	require.NoError(t, err)
	return signer
}

func mintToken(t *testing.T, signer *jwtx.Signer, role, aal string) string {
	t.Helper()
	raw, err := signer.Sign(jwtx.NewClaims("user-1", "sess-1", role, aal, []string{jwtx.AMRPassword}, "", time.Minute))
	require.NoError(t, err)
	return raw
}

func TestAuthnMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	h := Chain(okHandler(), AuthnMiddleware(signer))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthnMiddlewareInjectsClaims(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	var gotUser, gotSession string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotSession = SessionIDFromContext(r.Context())
	}), AuthnMiddleware(signer))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, signer, "investor", jwtx.AAL1))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "user-1", gotUser)
	require.Equal(t, "sess-1", gotSession)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	h := Chain(okHandler(), AuthnMiddleware(signer), RequireRole("admin"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, signer, "investor", jwtx.AAL1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, signer, "admin", jwtx.AAL1))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAAL(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	h := Chain(okHandler(), AuthnMiddleware(signer), RequireAAL(jwtx.AAL2))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, signer, "investor", jwtx.AAL1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, signer, "investor", jwtx.AAL2))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
