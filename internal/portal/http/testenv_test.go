package http

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/internal/portal/store/drivers/sqlite"
	"github.com/voltgrid/investorportal/pkg/jwtx"
	"github.com/voltgrid/investorportal/pkg/sessionwatch"
)

const (
	testSecret        = "0123456789abcdef0123456789abcdef"
	testWebhookSecret = "webhook-secret"
	testPassword      = "a long enough password"
)

// testEnv wires a full router against a temp SQLite database.
type testEnv struct {
	store  store.Store
	signer *jwtx.Signer
	auth   *service.AuthService
	email  *service.EmailService
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "portal.db") + "?_busy_timeout=5000"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	signer, err := jwtx.NewSigner(testSecret, "portal-test")
	require.NoError(t, err)
	watch := sessionwatch.NewRegistry()
	t.Cleanup(watch.StopAll)

	auth := &service.AuthService{
		Store:      st,
		Signer:     signer,
		Watch:      watch,
		Logger:     logger,
		SessionTTL: 12 * time.Hour,
		Timeout:    30 * time.Minute,
		Warning:    5 * time.Minute,
	}

	router := NewRouter(signer, "test", "*", testWebhookSecret, st, logger)
	router.AuthService = auth
	router.MFAService = &service.MFAService{
		Store: st, Signer: signer, Logger: logger,
		Issuer: "Portal Test", SessionTTL: 12 * time.Hour,
	}
	router.AdminService = &service.AdminService{Store: st, Watch: watch, Logger: logger}
	router.SignatureService = &service.SignatureService{
		Store: st, Logger: logger, SiteURL: "https://portal.test",
	}
	email := &service.EmailService{Logger: logger, SiteURL: "https://portal.test"}
	router.EmailService = email
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{store: st, signer: signer, auth: auth, email: email, server: srv}
}

// signUpAndIn creates an account with the given role and returns its bearer
// token and session.
func (e *testEnv) signUpAndIn(t *testing.T, email, role string) (string, domain.Session) {
	t.Helper()
	ctx := context.Background()

	user, err := e.auth.SignUp(ctx, email, testPassword, "Test User")
	require.NoError(t, err)

	if role != domain.RoleInvestor {
		e.promote(t, user.ID, role)
	}

	result, err := e.auth.SignIn(ctx, email, testPassword)
	require.NoError(t, err)
	return result.Token, result.Session
}

// promote rewrites the user's role directly; there is deliberately no API
// for this.
func (e *testEnv) promote(t *testing.T, userID, role string) {
	t.Helper()
	ctx := context.Background()

	user, err := e.store.Users().GetUserByID(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, e.store.Users().DeleteUser(ctx, userID))
	user.Role = role
	require.NoError(t, e.store.Users().CreateUser(ctx, user))
	require.NoError(t, e.store.Profiles().CreateProfile(ctx, domain.Profile{
		UserID: user.ID, Email: user.Email,
		CreatedAt: user.CreatedAt, UpdatedAt: user.UpdatedAt,
	}))
}
