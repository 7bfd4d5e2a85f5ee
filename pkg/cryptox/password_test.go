package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Sunrise-Valley-42")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$v=19$")

	require.NoError(t, VerifyPassword("Sunrise-Valley-42", hash))
	require.ErrorIs(t, VerifyPassword("sunrise-valley-42", hash), ErrPasswordMismatch)
}

func TestHashPasswordSaltsAreUnique(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same-input")
	require.NoError(t, err)
	b, err := HashPassword("same-input")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	require.Error(t, VerifyPassword("pw", "not-a-phc-string"))
	require.Error(t, VerifyPassword("pw", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	require.Equal(t, FingerprintToken(tok), FingerprintToken(tok))
	require.NotEqual(t, FingerprintToken(tok), FingerprintToken(tok+"x"))
}

func TestGenerateTokenRejectsNonPositiveSize(t *testing.T) {
	t.Parallel()

	_, err := GenerateToken(0)
	require.Error(t, err)
}
