package store

import (
	"context"
	"errors"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. Sub-repositories keep the concerns tidy and let services be
// tested against a single interface.
type Store interface {
	Users() Users
	Profiles() Profiles
	Sessions() Sessions
	Factors() Factors
	Challenges() Challenges
	Activity() Activity

	ApplyMigrations() error

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Tx starts a transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// HasRole is the server-side role predicate; handlers never trust a
	// role asserted by the client.
	HasRole(ctx context.Context, userID, role string) (bool, error)

	// DeleteUser cascades to profiles, sessions, factors, challenges and
	// activity logs per schema.
	DeleteUser(ctx context.Context, userID string) error
}

type Profiles interface {
	CreateProfile(ctx context.Context, p domain.Profile) error
	GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error)

	// GetProfileByEmail matches on the lower-cased email.
	GetProfileByEmail(ctx context.Context, email string) (domain.Profile, error)

	// MarkNDASigned flips nda_signed false -> true and stamps nda_signed_at.
	// It only updates rows where nda_signed is still false and reports
	// whether a row changed, which is what makes webhook re-delivery a
	// no-op.
	MarkNDASigned(ctx context.Context, userID string, at time.Time) (bool, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns the session regardless of revocation; callers
	// check Revoked and ExpiresAt.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// UpgradeSessionAAL advances the assurance level and appends to AMR.
	UpgradeSessionAAL(ctx context.Context, id, aal string, amr []string) error

	TouchSession(ctx context.Context, id string, at time.Time) error

	// ListUserSessions returns every session row for the user, revoked
	// ones included, so callers can tear down their monitors.
	ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error)

	RevokeSession(ctx context.Context, id string) error
	RevokeUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) error
}

type Factors interface {
	CreateFactor(ctx context.Context, f domain.Factor) error
	GetFactor(ctx context.Context, id string) (domain.Factor, error)
	ListFactors(ctx context.Context, userID string) ([]domain.Factor, error)

	// MarkFactorVerified flips an unverified factor to verified.
	MarkFactorVerified(ctx context.Context, id string) error

	DeleteFactor(ctx context.Context, id string) error

	// HasVerifiedFactor reports whether the user has at least one verified
	// factor, which is what makes MFA "required" for a password session.
	HasVerifiedFactor(ctx context.Context, userID string) (bool, error)
}

type Challenges interface {
	CreateChallenge(ctx context.Context, c domain.Challenge) error

	// GetChallenge returns the challenge regardless of state; services
	// enforce expiry and single-use.
	GetChallenge(ctx context.Context, id string) (domain.Challenge, error)

	// ConsumeChallenge stamps verified_at on an unconsumed challenge and
	// reports whether this call was the one to consume it.
	ConsumeChallenge(ctx context.Context, id string, at time.Time) (bool, error)

	DeleteExpiredChallenges(ctx context.Context) error
}

type Activity interface {
	// AppendActivity inserts a row. There is deliberately no update or
	// delete; the log is append-only.
	AppendActivity(ctx context.Context, entry domain.ActivityLog) error

	ListUserActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error)
	ListRecentActivity(ctx context.Context, limit int) ([]domain.ActivityLog, error)
	CountUserActivity(ctx context.Context, userID, action string) (int, error)
}
