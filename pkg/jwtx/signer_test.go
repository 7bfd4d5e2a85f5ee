package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testSecret, "voltgrid-portal")
	require.NoError(t, err)

	claims := NewClaims("user-1", "sess-1", "investor", AAL1, []string{AMRPassword}, "voltgrid-portal", time.Hour)
	raw, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := signer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "sess-1", got.SessionID)
	require.Equal(t, AAL1, got.AAL)
	require.Equal(t, []string{AMRPassword}, got.AMR)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	a, err := NewSigner(testSecret, "voltgrid-portal")
	require.NoError(t, err)
	b, err := NewSigner("ffffffffffffffffffffffffffffffff", "voltgrid-portal")
	require.NoError(t, err)

	raw, err := a.Sign(NewClaims("u", "s", "investor", AAL1, nil, "voltgrid-portal", time.Hour))
	require.NoError(t, err)

	_, err = b.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testSecret, "voltgrid-portal")
	require.NoError(t, err)

	raw, err := signer.Sign(NewClaims("u", "s", "investor", AAL2, nil, "voltgrid-portal", -time.Minute))
	require.NoError(t, err)

	_, err = signer.Verify(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	a, err := NewSigner(testSecret, "someone-else")
	require.NoError(t, err)
	b, err := NewSigner(testSecret, "voltgrid-portal")
	require.NoError(t, err)

	raw, err := a.Sign(NewClaims("u", "s", "investor", AAL1, nil, "someone-else", time.Hour))
	require.NoError(t, err)

	_, err = b.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSignerRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewSigner("short", "voltgrid-portal")
	require.Error(t, err)
}
