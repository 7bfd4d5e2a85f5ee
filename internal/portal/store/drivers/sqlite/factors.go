package sqlite

import (
	"context"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/store"
)

type factorsRepo struct {
	db dbtx
}

func (r *factorsRepo) CreateFactor(ctx context.Context, f domain.Factor) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mfa_factors (id, user_id, type, friendly_name, status, secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Type, f.FriendlyName, f.Status, f.Secret, now, now,
	)
	return mapConstraint(err)
}

func (r *factorsRepo) GetFactor(ctx context.Context, id string) (domain.Factor, error) {
	var f domain.Factor
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, friendly_name, status, secret, created_at, updated_at
		FROM mfa_factors WHERE id = ?`, id,
	).Scan(&f.ID, &f.UserID, &f.Type, &f.FriendlyName, &f.Status, &f.Secret, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return domain.Factor{}, mapNotFound(err)
	}
	return f, nil
}

func (r *factorsRepo) ListFactors(ctx context.Context, userID string) ([]domain.Factor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, friendly_name, status, secret, created_at, updated_at
		FROM mfa_factors WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var factors []domain.Factor
	for rows.Next() {
		var f domain.Factor
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.FriendlyName, &f.Status, &f.Secret, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

func (r *factorsRepo) MarkFactorVerified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE mfa_factors SET status = ?, updated_at = ? WHERE id = ?`,
		domain.FactorVerified, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *factorsRepo) DeleteFactor(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mfa_factors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *factorsRepo) HasVerifiedFactor(ctx context.Context, userID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM mfa_factors WHERE user_id = ? AND status = ?`,
		userID, domain.FactorVerified,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
