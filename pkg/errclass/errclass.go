// Package errclass maps raw error text onto a small user-facing taxonomy.
// Classification is an ordered table of substring rules evaluated
// first-match-wins; the order of the table is the contract, not an accident
// of construction. The classifier never retries anything itself — callers
// consult Retryable and decide.
package errclass

import "strings"

type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryNetwork    Category = "network"
	CategoryValidation Category = "validation"
	CategoryPermission Category = "permission"
	CategoryNotFound   Category = "not-found"
	CategoryServer     Category = "server"
	CategoryUnknown    Category = "unknown"
)

// Classification is the user-facing interpretation of an error.
type Classification struct {
	Category   Category
	Message    string
	Suggestion string
	Retryable  bool
}

type rule struct {
	patterns []string // lowercased substrings, any match triggers the rule
	result   Classification
}

// rules is evaluated top to bottom; earlier entries win. Keep the more
// specific patterns above the broader ones (e.g. "invalid login" before
// "invalid").
var rules = []rule{
	{
		patterns: []string{"invalid login credentials", "invalid credentials", "password does not match"},
		result: Classification{
			Category:   CategoryAuth,
			Message:    "The email or password you entered is incorrect.",
			Suggestion: "Double-check your credentials and try again.",
		},
	},
	{
		patterns: []string{"email not confirmed", "email not verified"},
		result: Classification{
			Category:   CategoryAuth,
			Message:    "Your email address has not been verified yet.",
			Suggestion: "Check your inbox for the verification email.",
		},
	},
	{
		patterns: []string{"token expired", "session expired", "jwt expired"},
		result: Classification{
			Category:   CategoryAuth,
			Message:    "Your session has expired.",
			Suggestion: "Please sign in again.",
		},
	},
	{
		patterns: []string{"invalid totp", "invalid verification code", "invalid code"},
		result: Classification{
			Category:   CategoryAuth,
			Message:    "The verification code is incorrect or has expired.",
			Suggestion: "Enter the current code from your authenticator app.",
		},
	},
	{
		patterns: []string{"weak password", "password should be at least"},
		result: Classification{
			Category:   CategoryValidation,
			Message:    "The password does not meet the minimum requirements.",
			Suggestion: "Use at least 12 characters with a mix of letters and numbers.",
		},
	},
	{
		patterns: []string{"malformed", "invalid input", "invalid request", "invalid email"},
		result: Classification{
			Category:   CategoryValidation,
			Message:    "Some of the information provided is invalid.",
			Suggestion: "Review the highlighted fields and try again.",
		},
	},
	{
		patterns: []string{"unauthenticated", "missing bearer token", "not authenticated"},
		result: Classification{
			Category:   CategoryPermission,
			Message:    "You need to be signed in to do that.",
			Suggestion: "Sign in and try again.",
		},
	},
	{
		patterns: []string{"forbidden", "permission denied", "not authorized", "insufficient"},
		result: Classification{
			Category:   CategoryPermission,
			Message:    "You do not have permission to perform this action.",
			Suggestion: "Contact an administrator if you believe this is a mistake.",
		},
	},
	{
		patterns: []string{"not found", "no rows", "does not exist"},
		result: Classification{
			Category:   CategoryNotFound,
			Message:    "The requested record could not be found.",
			Suggestion: "It may have been removed or the link may be out of date.",
		},
	},
	{
		patterns: []string{"rate limit", "too many requests"},
		result: Classification{
			Category:   CategoryServer,
			Message:    "The service is receiving too many requests right now.",
			Suggestion: "Wait a moment before trying again.",
			Retryable:  true,
		},
	},
	{
		patterns: []string{"connection refused", "no such host", "network is unreachable", "timeout", "timed out", "offline", "broken pipe"},
		result: Classification{
			Category:   CategoryNetwork,
			Message:    "We could not reach the server.",
			Suggestion: "Check your connection and try again.",
			Retryable:  true,
		},
	},
	{
		patterns: []string{"internal server error", "service unavailable", "bad gateway", "status 500", "status 502", "status 503"},
		result: Classification{
			Category:   CategoryServer,
			Message:    "Something went wrong on our side.",
			Suggestion: "Try again in a few minutes.",
			Retryable:  true,
		},
	},
}

// unknown is the fallback for anything the table does not recognize.
var unknown = Classification{
	Category:   CategoryUnknown,
	Message:    "An unexpected error occurred.",
	Suggestion: "If the problem persists, contact investor support.",
}

// Classify returns the first matching classification for err. A nil error
// or unmatched text yields the unknown fallback.
func Classify(err error) Classification {
	if err == nil {
		return unknown
	}
	return ClassifyMessage(err.Error())
}

// ClassifyMessage classifies a raw error string.
func ClassifyMessage(msg string) Classification {
	lowered := strings.ToLower(msg)
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(lowered, p) {
				return r.result
			}
		}
	}
	return unknown
}
