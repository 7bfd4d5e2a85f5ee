package domain

import "time"

// Role names. Stored directly on the user row; the portal has exactly two.
const (
	RoleAdmin    = "admin"
	RoleInvestor = "investor"
)

type User struct {
	ID           string
	Email        string // lower-cased at the edges, unique
	PasswordHash string // argon2id encoded
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
