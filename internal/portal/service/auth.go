package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/pkg/cryptox"
	"github.com/voltgrid/investorportal/pkg/idx"
	"github.com/voltgrid/investorportal/pkg/jwtx"
	"github.com/voltgrid/investorportal/pkg/sessionwatch"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrWeakPassword       = errors.New("password must be at least 12 characters")
)

const minPasswordLength = 12

// AuthService owns accounts and sessions. A session is a database row plus
// an idle monitor; bearer tokens only reference the row via the sid claim,
// so revoking the row invalidates the token before its JWT expiry.
type AuthService struct {
	Store      store.Store
	Signer     *jwtx.Signer
	Watch      *sessionwatch.Registry
	Logger     *slog.Logger
	SessionTTL time.Duration
	Timeout    time.Duration // idle window before a session expires
	Warning    time.Duration // warning lead time before the idle deadline
	Debounce   time.Duration // coalescing window for activity bursts
}

// SignInResult carries everything the sign-in handler needs in one trip.
type SignInResult struct {
	Token       string
	Session     domain.Session
	User        domain.User
	MFARequired bool
}

// SignUp registers an investor account and its profile in one transaction.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleInvestor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.Profiles().CreateProfile(ctx, domain.Profile{
			UserID:    user.ID,
			FullName:  fullName,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create account: %w", err)
	}

	return user, nil
}

// SignIn checks the password, opens a session at AAL1 and mints its token.
// The caller learns via MFARequired whether a verified factor exists and the
// session must be stepped up before protected resources open.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Burn a hash comparison so missing accounts cost the same as
		// wrong passwords.
		_ = cryptox.VerifyPassword(password, dummyHash)
		return SignInResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return SignInResult{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return SignInResult{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:             idx.New().String(),
		UserID:         user.ID,
		AAL:            jwtx.AAL1,
		AMR:            []string{jwtx.AMRPassword},
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.SessionTTL),
		CreatedAt:      now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return SignInResult{}, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.Signer.Sign(jwtx.NewClaims(user.ID, session.ID, user.Role, session.AAL, session.AMR, "", s.SessionTTL))
	if err != nil {
		return SignInResult{}, fmt.Errorf("failed to sign token: %w", err)
	}

	s.watchSession(session.ID, user.ID)

	s.appendActivity(ctx, user.ID, domain.ActionLogin, nil)

	mfaRequired, err := s.Store.Factors().HasVerifiedFactor(ctx, user.ID)
	if err != nil {
		return SignInResult{}, fmt.Errorf("failed to check factors: %w", err)
	}

	return SignInResult{
		Token:       token,
		Session:     session,
		User:        user,
		MFARequired: mfaRequired,
	}, nil
}

// SignOut revokes the session and stops its idle monitor.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	session, err := s.Store.Sessions().GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil // already gone
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.Store.Sessions().RevokeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.Watch.Remove(sessionID)

	s.appendActivity(ctx, session.UserID, domain.ActionLogout, nil)
	return nil
}

// Touch records a qualifying activity event: it verifies the session row is
// still live, resets the idle monitor and stamps last_activity_at. Every
// authenticated request routes through here, so bursts inside the debounce
// window are coalesced and skip the redundant write.
func (s *AuthService) Touch(ctx context.Context, sessionID string) error {
	session, err := s.Store.Sessions().GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionExpired
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session.Revoked {
		return ErrSessionRevoked
	}
	if time.Now().After(session.ExpiresAt) {
		return ErrSessionExpired
	}

	if !s.Watch.Touch(sessionID) {
		return nil
	}
	if err := s.Store.Sessions().TouchSession(ctx, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Extend answers the warning prompt's "stay signed in". Unlike Touch it
// works from the warning state; it fails once the session has expired.
func (s *AuthService) Extend(ctx context.Context, sessionID string) error {
	m := s.Watch.Get(sessionID)
	if m == nil || !m.Extend() {
		return ErrSessionExpired
	}
	if err := s.Store.Sessions().TouchSession(ctx, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// SessionStatus assembles the client-facing view of a session: who is
// signed in, at what assurance level, and where the idle clock stands.
func (s *AuthService) SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	session, err := s.Store.Sessions().GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.SessionStatus{}, ErrSessionExpired
	}
	if err != nil {
		return domain.SessionStatus{}, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Revoked || time.Now().After(session.ExpiresAt) {
		return domain.SessionStatus{}, ErrSessionExpired
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		return domain.SessionStatus{}, fmt.Errorf("failed to load user: %w", err)
	}

	hasFactor, err := s.Store.Factors().HasVerifiedFactor(ctx, user.ID)
	if err != nil {
		return domain.SessionStatus{}, fmt.Errorf("failed to check factors: %w", err)
	}

	nextLevel := session.AAL
	if hasFactor && session.AAL == jwtx.AAL1 {
		nextLevel = jwtx.AAL2
	}

	status := domain.SessionStatus{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		CurrentLevel: session.AAL,
		NextLevel:    nextLevel,
		MFARequired:  hasFactor && session.AAL == jwtx.AAL1,
	}

	if m := s.Watch.Get(sessionID); m != nil {
		status.IdleState = m.State().String()
		status.IdleDeadline = m.Deadline()
	}
	return status, nil
}

// ListActivity returns the caller's own newest audit rows.
func (s *AuthService) ListActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.Store.Activity().ListUserActivity(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}

// watchSession registers an idle monitor whose expiry revokes the row, so a
// token for an idle session dies server-side no matter what the client does.
func (s *AuthService) watchSession(sessionID, userID string) {
	m, err := sessionwatch.New(sessionwatch.Config{
		Timeout:  s.Timeout,
		Warning:  s.Warning,
		Debounce: s.Debounce,
	}, nil, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.Store.Sessions().RevokeSession(ctx, sessionID); err != nil {
			s.Logger.Error("failed to revoke idle session", "session_id", sessionID, "error", err)
			return
		}
		s.Watch.Remove(sessionID)
		s.appendActivity(ctx, userID, domain.ActionSessionExpired, map[string]any{"session_id": sessionID})
		s.Logger.Info("session expired after inactivity", "session_id", sessionID, "user_id", userID)
	})
	if err != nil {
		s.Logger.Error("failed to start session monitor", "session_id", sessionID, "error", err)
		return
	}
	s.Watch.Register(sessionID, m)
}

// appendActivity writes an audit row. Audit failures are logged, never
// propagated; they must not fail the user-facing operation.
func (s *AuthService) appendActivity(ctx context.Context, userID, action string, metadata map[string]any) {
	entry := domain.ActivityLog{
		ID:        idx.New().String(),
		UserID:    userID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Activity().AppendActivity(ctx, entry); err != nil {
		s.Logger.Error("failed to append activity log", "action", action, "user_id", userID, "error", err)
	}
}

// dummyHash keeps sign-in timing flat for unknown emails.
var dummyHash = func() string {
	h, err := cryptox.HashPassword("correct horse battery staple")
	if err != nil {
		panic(err)
	}
	return h
}()
