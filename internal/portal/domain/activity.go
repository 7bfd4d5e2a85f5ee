package domain

import "time"

// Activity log action tags written by the portal.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionSessionExpired = "session_expired"
	ActionMFAEnrolled    = "mfa_enrolled"
	ActionMFAVerified    = "mfa_verified"
	ActionMFAUnenrolled  = "mfa_unenrolled"
	ActionNDASigned      = "nda_signed"
	ActionUserDeleted    = "user_deleted"
)

// ActivityLog is an append-only audit row. The application never mutates or
// deletes entries; only the user-deletion cascade removes them.
type ActivityLog struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
