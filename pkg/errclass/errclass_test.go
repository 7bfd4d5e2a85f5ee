package errclass

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyKnownPatterns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		category Category
		message  string
	}{
		{
			name:     "bad credentials",
			input:    "auth: Invalid login credentials",
			category: CategoryAuth,
			message:  "The email or password you entered is incorrect.",
		},
		{
			name:     "unverified email",
			input:    "email not confirmed",
			category: CategoryAuth,
			message:  "Your email address has not been verified yet.",
		},
		{
			name:     "expired session",
			input:    "jwt expired at 2026-01-01",
			category: CategoryAuth,
			message:  "Your session has expired.",
		},
		{
			name:     "bad totp code",
			input:    "mfa: invalid TOTP code",
			category: CategoryAuth,
			message:  "The verification code is incorrect or has expired.",
		},
		{
			name:     "weak password",
			input:    "password should be at least 8 characters",
			category: CategoryValidation,
			message:  "The password does not meet the minimum requirements.",
		},
		{
			name:     "malformed input",
			input:    "malformed JSON body",
			category: CategoryValidation,
			message:  "Some of the information provided is invalid.",
		},
		{
			name:     "unauthenticated",
			input:    "missing bearer token",
			category: CategoryPermission,
			message:  "You need to be signed in to do that.",
		},
		{
			name:     "forbidden",
			input:    "permission denied for relation profiles",
			category: CategoryPermission,
			message:  "You do not have permission to perform this action.",
		},
		{
			name:     "missing record",
			input:    "store: not found",
			category: CategoryNotFound,
			message:  "The requested record could not be found.",
		},
		{
			name:     "rate limited",
			input:    "429 too many requests",
			category: CategoryServer,
			message:  "The service is receiving too many requests right now.",
		},
		{
			name:     "network failure",
			input:    "dial tcp 10.0.0.1:443: connection refused",
			category: CategoryNetwork,
			message:  "We could not reach the server.",
		},
		{
			name:     "upstream 5xx",
			input:    "email provider returned status 503",
			category: CategoryServer,
			message:  "Something went wrong on our side.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(errors.New(tc.input))
			require.Equal(t, tc.category, got.Category)
			require.Equal(t, tc.message, got.Message)
		})
	}
}

func TestClassifyUnknownFallsBack(t *testing.T) {
	t.Parallel()

	got := Classify(errors.New("flux capacitor misaligned"))
	require.Equal(t, CategoryUnknown, got.Category)
	require.Equal(t, "An unexpected error occurred.", got.Message)
	require.Contains(t, got.Suggestion, "support")
	require.False(t, got.Retryable)
}

func TestClassifyNilError(t *testing.T) {
	t.Parallel()

	require.Equal(t, CategoryUnknown, Classify(nil).Category)
}

func TestOnlyNetworkAndServerAreRetryable(t *testing.T) {
	t.Parallel()

	for _, r := range rules {
		if r.result.Retryable {
			require.Contains(t,
				[]Category{CategoryNetwork, CategoryServer}, r.result.Category,
				"retryable rule must be network or server",
			)
		}
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	// "invalid login credentials timed out" matches both the auth rule and
	// the network rule; the earlier auth rule must win.
	got := ClassifyMessage("invalid login credentials timed out")
	require.Equal(t, CategoryAuth, got.Category)
}
