package sqlite

import (
	"context"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/store"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, aal, amr, last_activity_at, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.AAL, joinAMR(s.AMR),
		s.LastActivityAt.UTC(), s.ExpiresAt.UTC(), s.Revoked, time.Now().UTC(),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var (
		s   domain.Session
		amr string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, aal, amr, last_activity_at, expires_at, revoked, created_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.AAL, &amr, &s.LastActivityAt, &s.ExpiresAt, &s.Revoked, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.AMR = splitAMR(amr)
	return s, nil
}

func (r *sessionsRepo) UpgradeSessionAAL(ctx context.Context, id, aal string, amr []string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET aal = ?, amr = ? WHERE id = ? AND revoked = 0`,
		aal, joinAMR(amr), id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = ? WHERE id = ? AND revoked = 0`,
		at.UTC(), id,
	)
	return err
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, aal, amr, last_activity_at, expires_at, revoked, created_at
		FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var (
			s   domain.Session
			amr string
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.AAL, &amr, &s.LastActivityAt, &s.ExpiresAt, &s.Revoked, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.AMR = splitAMR(amr)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) RevokeUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1 WHERE user_id = ?`, userID,
	)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ? OR revoked = 1`,
		time.Now().UTC(),
	)
	return err
}
