package domain

import "time"

// Session is the server-side record behind a bearer token. The token's sid
// claim points at this row; revoking the row kills the token regardless of
// its JWT expiry.
type Session struct {
	ID             string
	UserID         string
	AAL            string   // current assurance level (jwtx.AAL1 / jwtx.AAL2)
	AMR            []string // authentication methods used so far
	LastActivityAt time.Time
	ExpiresAt      time.Time
	Revoked        bool
	CreatedAt      time.Time
}

// SessionStatus is what GET /v1/auth/session returns: the cached session
// view plus the assurance levels the client needs for MFA routing.
type SessionStatus struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CurrentLevel string    `json:"current_level"`
	NextLevel    string    `json:"next_level"`
	MFARequired  bool      `json:"mfa_required"`
	IdleState    string    `json:"idle_state,omitempty"`
	IdleDeadline time.Time `json:"idle_deadline,omitzero"`
}
