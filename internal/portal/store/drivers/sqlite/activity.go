package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
)

type activityRepo struct {
	db dbtx
}

func (r *activityRepo) AppendActivity(ctx context.Context, entry domain.ActivityLog) error {
	meta := []byte("{}")
	if entry.Metadata != nil {
		var err error
		meta, err = json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Action, string(meta), createdAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *activityRepo) ListUserActivity(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, metadata, created_at
		FROM activity_logs WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

func (r *activityRepo) ListRecentActivity(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, metadata, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

func (r *activityRepo) CountUserActivity(ctx context.Context, userID, action string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_logs WHERE user_id = ? AND action = ?`,
		userID, action,
	).Scan(&count)
	return count, err
}

func scanActivityRows(rows *sql.Rows) ([]domain.ActivityLog, error) {
	var entries []domain.ActivityLog
	for rows.Next() {
		var (
			entry domain.ActivityLog
			meta  string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &meta, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &entry.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
