package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/pkg/cryptox"
	"github.com/voltgrid/investorportal/pkg/idx"
	"github.com/voltgrid/investorportal/pkg/jwtx"
)

var (
	ErrInvalidTOTPCode  = errors.New("invalid TOTP code")
	ErrFactorNotFound   = errors.New("factor not found")
	ErrChallengeInvalid = errors.New("challenge expired or already used")
	ErrFactorUnverified = errors.New("factor has not been verified")
)

// challengeTTL bounds how long a code may be presented against a challenge.
const challengeTTL = 5 * time.Minute

// MFAService runs the TOTP enrollment and step-up flow. A code is only ever
// accepted against a fresh, single-use challenge for a specific factor; a
// successful verification upgrades the caller's session to AAL2 and mints a
// replacement token.
type MFAService struct {
	Store      store.Store
	Signer     *jwtx.Signer
	Logger     *slog.Logger
	Issuer     string // TOTP issuer shown in authenticator apps
	SessionTTL time.Duration
}

// Enroll creates an unverified TOTP factor. The secret and otpauth URL are
// returned exactly once; they are not retrievable afterwards.
func (s *MFAService) Enroll(ctx context.Context, userID, friendlyName string) (domain.EnrollResponse, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.EnrollResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.EnrollResponse{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	now := time.Now().UTC()
	factor := domain.Factor{
		ID:           idx.New().String(),
		UserID:       userID,
		Type:         domain.FactorTypeTOTP,
		FriendlyName: friendlyName,
		Status:       domain.FactorUnverified,
		Secret:       key.Secret(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Factors().CreateFactor(ctx, factor); err != nil {
		return domain.EnrollResponse{}, fmt.Errorf("failed to store factor: %w", err)
	}

	return domain.EnrollResponse{
		FactorID: factor.ID,
		Secret:   key.Secret(),
		QRCode:   key.URL(),
	}, nil
}

// Challenge issues a fresh single-use challenge against the caller's factor.
// Codes presented without one, or against a stale one, are rejected.
func (s *MFAService) Challenge(ctx context.Context, userID, factorID string) (domain.Challenge, error) {
	factor, err := s.ownedFactor(ctx, userID, factorID)
	if err != nil {
		return domain.Challenge{}, err
	}

	// Challenge ids are opaque random tokens rather than ULIDs so they
	// carry no timestamp or ordering information. Only the fingerprint
	// reaches the database; a copy of the table cannot answer an open
	// challenge.
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("failed to generate challenge id: %w", err)
	}

	now := time.Now().UTC()
	challenge := domain.Challenge{
		ID:        cryptox.FingerprintToken(raw),
		FactorID:  factor.ID,
		ExpiresAt: now.Add(challengeTTL),
		CreatedAt: now,
	}
	if err := s.Store.Challenges().CreateChallenge(ctx, challenge); err != nil {
		return domain.Challenge{}, fmt.Errorf("failed to store challenge: %w", err)
	}

	challenge.ID = raw
	return challenge, nil
}

// VerifyParams identify one code presentation: which session to step up,
// which factor the code belongs to, and which challenge authorizes it.
type VerifyParams struct {
	UserID      string
	SessionID   string
	FactorID    string
	ChallengeID string
	Code        string
}

// Verify consumes the challenge, checks the code against the factor secret,
// verifies the factor on first success, and upgrades the session to AAL2.
// It returns a replacement bearer token carrying the new assurance level.
func (s *MFAService) Verify(ctx context.Context, p VerifyParams) (string, error) {
	factor, err := s.ownedFactor(ctx, p.UserID, p.FactorID)
	if err != nil {
		return "", err
	}

	challenge, err := s.Store.Challenges().GetChallenge(ctx, cryptox.FingerprintToken(p.ChallengeID))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrChallengeInvalid
	}
	if err != nil {
		return "", fmt.Errorf("failed to load challenge: %w", err)
	}
	if challenge.FactorID != factor.ID {
		return "", ErrChallengeInvalid
	}

	// Consume before validating the code so a challenge burns on its
	// first presentation, right or wrong.
	consumed, err := s.Store.Challenges().ConsumeChallenge(ctx, challenge.ID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to consume challenge: %w", err)
	}
	if !consumed {
		return "", ErrChallengeInvalid
	}

	if !totp.Validate(p.Code, factor.Secret) {
		return "", ErrInvalidTOTPCode
	}

	session, err := s.Store.Sessions().GetSession(ctx, p.SessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if session.Revoked {
		return "", ErrSessionRevoked
	}

	amr := appendAMR(session.AMR, jwtx.AMRTOTP)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if factor.Status == domain.FactorUnverified {
			if err := tx.Factors().MarkFactorVerified(ctx, factor.ID); err != nil {
				return fmt.Errorf("failed to verify factor: %w", err)
			}
		}
		if err := tx.Sessions().UpgradeSessionAAL(ctx, session.ID, jwtx.AAL2, amr); err != nil {
			return fmt.Errorf("failed to upgrade session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	user, err := s.Store.Users().GetUserByID(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	token, err := s.Signer.Sign(jwtx.NewClaims(user.ID, session.ID, user.Role, jwtx.AAL2, amr, "", s.SessionTTL))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	action := domain.ActionMFAVerified
	if factor.Status == domain.FactorUnverified {
		action = domain.ActionMFAEnrolled
	}
	s.appendActivity(ctx, user.ID, action, map[string]any{"factor_id": factor.ID})

	return token, nil
}

// Unenroll removes a factor after one last code check.
func (s *MFAService) Unenroll(ctx context.Context, userID, factorID, code string) error {
	factor, err := s.ownedFactor(ctx, userID, factorID)
	if err != nil {
		return err
	}
	if factor.Status != domain.FactorVerified {
		return ErrFactorUnverified
	}
	if !totp.Validate(code, factor.Secret) {
		return ErrInvalidTOTPCode
	}

	if err := s.Store.Factors().DeleteFactor(ctx, factorID); err != nil {
		return fmt.Errorf("failed to delete factor: %w", err)
	}
	s.appendActivity(ctx, userID, domain.ActionMFAUnenrolled, map[string]any{"factor_id": factorID})
	return nil
}

// ListFactors returns the user's factors with secrets blanked out.
func (s *MFAService) ListFactors(ctx context.Context, userID string) ([]domain.Factor, error) {
	factors, err := s.Store.Factors().ListFactors(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list factors: %w", err)
	}
	for i := range factors {
		factors[i].Secret = ""
	}
	return factors, nil
}

// ownedFactor loads the factor and checks the caller owns it. Foreign
// factors read as not found, never as forbidden.
func (s *MFAService) ownedFactor(ctx context.Context, userID, factorID string) (domain.Factor, error) {
	factor, err := s.Store.Factors().GetFactor(ctx, factorID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Factor{}, ErrFactorNotFound
	}
	if err != nil {
		return domain.Factor{}, fmt.Errorf("failed to load factor: %w", err)
	}
	if factor.UserID != userID {
		return domain.Factor{}, ErrFactorNotFound
	}
	return factor, nil
}

func (s *MFAService) appendActivity(ctx context.Context, userID, action string, metadata map[string]any) {
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

func appendAMR(amr []string, method string) []string {
	for _, m := range amr {
		if m == method {
			return amr
		}
	}
	return append(amr, method)
}
