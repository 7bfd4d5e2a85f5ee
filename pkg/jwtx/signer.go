package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrTokenExpired = errors.New("jwtx: token expired")
)

// Signer signs and verifies portal session tokens with a single HMAC-SHA256
// key. Key rotation is handled by restarting with a new secret, which also
// invalidates outstanding sessions.
type Signer struct {
	secret []byte
	issuer string
}

func NewSigner(secret, issuer string) (*Signer, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwtx: signing secret must be at least 32 bytes")
	}
	return &Signer{secret: []byte(secret), issuer: issuer}, nil
}

// Sign produces a compact signed token for the given claims, stamping the
// signer's issuer when the claims carry none.
func (s *Signer) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a compact token, enforcing the signature,
// expiry and issuer.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims

	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwtx: unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}

	if !tok.Valid || claims.Subject == "" || claims.SessionID == "" {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
