package domain

import "time"

// Profile is the investor-facing record behind a user. NDASigned flips
// false -> true exactly once, driven by the e-signature webhook; nothing in
// the application reverts it.
type Profile struct {
	UserID      string
	FullName    string
	Email       string // lower-cased, matches the signer email on envelopes
	NDASigned   bool
	NDASignedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
