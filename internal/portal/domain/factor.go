package domain

import "time"

// Factor statuses.
const (
	FactorUnverified = "unverified"
	FactorVerified   = "verified"
)

// FactorTypeTOTP is the only factor type the portal issues.
const FactorTypeTOTP = "totp"

// Factor is an enrolled second factor. Enrollment creates it unverified;
// the first correct code against a fresh challenge flips it to verified.
type Factor struct {
	ID           string
	UserID       string
	Type         string
	FriendlyName string
	Status       string
	Secret       string // base32 TOTP secret, never serialized to clients after enrollment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Challenge is a short-lived, single-use server-issued check tied to one
// factor. Codes are only ever validated against an unexpired, unconsumed
// challenge for that exact factor.
type Challenge struct {
	ID         string
	FactorID   string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

// EnrollResponse is returned once, at enrollment time. The secret and
// otpauth URL are never retrievable again.
type EnrollResponse struct {
	FactorID string `json:"factor_id"`
	Secret   string `json:"secret"`
	QRCode   string `json:"qr_code"` // otpauth:// URL for QR code rendering
}
