package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/internal/portal/store/drivers/sqlite"
	"github.com/voltgrid/investorportal/pkg/jwtx"
	"github.com/voltgrid/investorportal/pkg/sessionwatch"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "portal.db") + "?_busy_timeout=5000"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()

	signer, err := jwtx.NewSigner(testSecret, "portal-test")
	require.NoError(t, err)
	return signer
}

func newTestAuth(t *testing.T, st store.Store) *AuthService {
	t.Helper()

	return &AuthService{
		Store:      st,
		Signer:     newTestSigner(t),
		Watch:      sessionwatch.NewRegistry(),
		Logger:     testLogger(),
		SessionTTL: 12 * time.Hour,
		Timeout:    30 * time.Minute,
		Warning:    5 * time.Minute,
	}
}

func newTestMFA(t *testing.T, st store.Store) *MFAService {
	t.Helper()

	return &MFAService{
		Store:      st,
		Signer:     newTestSigner(t),
		Logger:     testLogger(),
		Issuer:     "Portal Test",
		SessionTTL: 12 * time.Hour,
	}
}
