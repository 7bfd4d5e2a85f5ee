package sqlite

import (
	"context"
	"database/sql"

	"github.com/voltgrid/investorportal/internal/portal/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer DB stays open and the caller commits or
// rolls back.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested transactions are not supported.
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

// ApplyMigrations must run before any transaction starts.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Users() store.Users           { return &usersRepo{db: t.tx} }
func (t *txStore) Profiles() store.Profiles     { return &profilesRepo{db: t.tx} }
func (t *txStore) Sessions() store.Sessions     { return &sessionsRepo{db: t.tx} }
func (t *txStore) Factors() store.Factors       { return &factorsRepo{db: t.tx} }
func (t *txStore) Challenges() store.Challenges { return &challengesRepo{db: t.tx} }
func (t *txStore) Activity() store.Activity     { return &activityRepo{db: t.tx} }
