package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator Assurance Levels carried in the `aal` claim.
const (
	// AAL1 means the session was established with a password only.
	AAL1 = "aal1"
	// AAL2 means the session also passed a TOTP challenge.
	AAL2 = "aal2"
)

// Authentication Method Reference values carried in the `amr` claim.
const (
	AMRPassword = "pwd"
	AMRTOTP     = "otp"
)

// Claims are the claims embedded in portal access tokens.
type Claims struct {
	SessionID string   `json:"sid"`
	Role      string   `json:"role"`
	AAL       string   `json:"aal"`
	AMR       []string `json:"amr,omitempty"`

	jwt.RegisteredClaims
}

// NewClaims builds the claim set for a freshly issued session token.
func NewClaims(userID, sessionID, role, aal string, amr []string, issuer string, ttl time.Duration) Claims {
	now := time.Now().UTC()
	return Claims{
		SessionID: sessionID,
		Role:      role,
		AAL:       aal,
		AMR:       amr,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
