package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
)

type profilesRepo struct {
	db dbtx
}

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name, email, nda_signed, nda_signed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.FullName, p.Email, p.NDASigned, optionalTime(p.NDASignedAt), now, now,
	)
	return mapConstraint(err)
}

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	return r.scanProfile(ctx, `
		SELECT user_id, full_name, email, nda_signed, nda_signed_at, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID)
}

func (r *profilesRepo) GetProfileByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return r.scanProfile(ctx, `
		SELECT user_id, full_name, email, nda_signed, nda_signed_at, created_at, updated_at
		FROM profiles WHERE email = ?`, email)
}

// MarkNDASigned only touches rows still unsigned, so a re-delivered
// completed envelope changes nothing and reports false.
func (r *profilesRepo) MarkNDASigned(ctx context.Context, userID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET nda_signed = 1, nda_signed_at = ?, updated_at = ?
		WHERE user_id = ? AND nda_signed = 0`,
		at.UTC(), time.Now().UTC(), userID,
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

func (r *profilesRepo) scanProfile(ctx context.Context, query string, args ...any) (domain.Profile, error) {
	var (
		p        domain.Profile
		signedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.UserID, &p.FullName, &p.Email, &p.NDASigned, &signedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	if signedAt.Valid {
		t := signedAt.Time
		p.NDASignedAt = &t
	}
	return p, nil
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
