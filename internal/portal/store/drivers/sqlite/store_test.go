package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	st, err := NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func seedUser(t *testing.T, st *Store, id, email string) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, st.Users().CreateUser(context.Background(), domain.User{
		ID: id, Email: email, PasswordHash: "x", Role: domain.RoleInvestor,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		seedUserTx(t, tx, "u1", "tx@example.com")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByID(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func seedUserTx(t *testing.T, tx store.Tx, id, email string) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, tx.Users().CreateUser(context.Background(), domain.User{
		ID: id, Email: email, PasswordHash: "x", Role: domain.RoleInvestor,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestDeleteUserCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	now := time.Now().UTC()

	seedUser(t, st, "u1", "cascade@example.com")
	require.NoError(t, st.Profiles().CreateProfile(ctx, domain.Profile{
		UserID: "u1", Email: "cascade@example.com", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, st.Sessions().CreateSession(ctx, domain.Session{
		ID: "s1", UserID: "u1", AAL: "aal1", AMR: []string{"pwd"},
		LastActivityAt: now, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))
	require.NoError(t, st.Factors().CreateFactor(ctx, domain.Factor{
		ID: "f1", UserID: "u1", Type: domain.FactorTypeTOTP,
		Status: domain.FactorUnverified, Secret: "sec", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, st.Challenges().CreateChallenge(ctx, domain.Challenge{
		ID: "c1", FactorID: "f1", ExpiresAt: now.Add(time.Minute), CreatedAt: now,
	}))

	require.NoError(t, st.Users().DeleteUser(ctx, "u1"))

	_, err := st.Profiles().GetProfileByUserID(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Sessions().GetSession(ctx, "s1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Factors().GetFactor(ctx, "f1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Challenges().GetChallenge(ctx, "c1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConsumeChallengeIsSingleUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	now := time.Now().UTC()

	seedUser(t, st, "u1", "otp@example.com")
	require.NoError(t, st.Factors().CreateFactor(ctx, domain.Factor{
		ID: "f1", UserID: "u1", Type: domain.FactorTypeTOTP,
		Status: domain.FactorUnverified, Secret: "sec", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, st.Challenges().CreateChallenge(ctx, domain.Challenge{
		ID: "c1", FactorID: "f1", ExpiresAt: now.Add(time.Minute), CreatedAt: now,
	}))

	consumed, err := st.Challenges().ConsumeChallenge(ctx, "c1", now)
	require.NoError(t, err)
	require.True(t, consumed)

	consumed, err = st.Challenges().ConsumeChallenge(ctx, "c1", now)
	require.NoError(t, err)
	require.False(t, consumed)
}

func TestMarkNDASignedIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	now := time.Now().UTC()

	seedUser(t, st, "u1", "nda@example.com")
	require.NoError(t, st.Profiles().CreateProfile(ctx, domain.Profile{
		UserID: "u1", Email: "nda@example.com", CreatedAt: now, UpdatedAt: now,
	}))

	changed, err := st.Profiles().MarkNDASigned(ctx, "u1", now)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = st.Profiles().MarkNDASigned(ctx, "u1", now.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, changed)

	// The original timestamp survives the replay.
	profile, err := st.Profiles().GetProfileByUserID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, profile.NDASigned)
	require.NotNil(t, profile.NDASignedAt)
	require.WithinDuration(t, now, *profile.NDASignedAt, time.Second)
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	seedUser(t, st, "u1", "dup@example.com")

	now := time.Now().UTC()
	err := st.Users().CreateUser(ctx, domain.User{
		ID: "u2", Email: "dup@example.com", PasswordHash: "x", Role: domain.RoleInvestor,
		CreatedAt: now, UpdatedAt: now,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}
