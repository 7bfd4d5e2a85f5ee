package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
)

type challengesRepo struct {
	db dbtx
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mfa_challenges (id, factor_id, expires_at, verified_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.FactorID, c.ExpiresAt.UTC(), optionalTime(c.VerifiedAt), createdAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	var (
		c          domain.Challenge
		verifiedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, factor_id, expires_at, verified_at, created_at
		FROM mfa_challenges WHERE id = ?`, id,
	).Scan(&c.ID, &c.FactorID, &c.ExpiresAt, &verifiedAt, &c.CreatedAt)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		c.VerifiedAt = &t
	}
	return c, nil
}

// ConsumeChallenge is the single-use gate: only the first consumer of an
// unexpired challenge sees true.
func (r *challengesRepo) ConsumeChallenge(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE mfa_challenges SET verified_at = ?
		WHERE id = ? AND verified_at IS NULL AND expires_at > ?`,
		at.UTC(), id, at.UTC(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM mfa_challenges WHERE expires_at < ?`,
		time.Now().UTC(),
	)
	return err
}
