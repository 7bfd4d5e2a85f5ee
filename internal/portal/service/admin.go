package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/pkg/idx"
	"github.com/voltgrid/investorportal/pkg/sessionwatch"
)

var (
	ErrNotAdmin     = errors.New("caller is not an admin")
	ErrSelfDelete   = errors.New("admins cannot delete their own account")
	ErrUserNotFound = errors.New("user not found")
)

// AdminService holds the operations gated on the admin role. The role check
// always reads the caller's row; a role claim in the bearer token is a hint
// for routing, never an authorization source.
type AdminService struct {
	Store  store.Store
	Watch  *sessionwatch.Registry
	Logger *slog.Logger
}

// DeleteUser removes the target account and everything keyed to it: the
// profile, sessions, factors, challenges and activity rows go with the user
// row. Live sessions are revoked first so bearer tokens die immediately.
func (s *AdminService) DeleteUser(ctx context.Context, callerID, targetID string) error {
	// Self-deletion is refused before the role check; the answer is the
	// same no matter who asks.
	if callerID == targetID {
		return ErrSelfDelete
	}

	isAdmin, err := s.Store.Users().HasRole(ctx, callerID, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check caller role: %w", err)
	}
	if !isAdmin {
		return ErrNotAdmin
	}

	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	sessions, err := s.Store.Sessions().ListUserSessions(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if err := s.Store.Sessions().RevokeUserSessions(ctx, targetID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	// Tear down the idle monitors before the rows go away, so no timer
	// fires against a deleted session.
	for _, sess := range sessions {
		s.Watch.Remove(sess.ID)
	}

	if err := s.Store.Users().DeleteUser(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	// Audit under the caller; the target's own rows are already gone.
	entry := domain.ActivityLog{
		ID:     idx.New().String(),
		UserID: callerID,
		Action: domain.ActionUserDeleted,
		Metadata: map[string]any{
			"deleted_user_id": target.ID,
			"deleted_email":   target.Email,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Activity().AppendActivity(ctx, entry); err != nil {
		s.Logger.Error("failed to append activity log", "action", domain.ActionUserDeleted, "error", err)
	}

	s.Logger.Info("user deleted", "deleted_user_id", target.ID, "caller_id", callerID)
	return nil
}

// ListUserActivity returns the newest audit rows for one user.
func (s *AdminService) ListUserActivity(ctx context.Context, callerID, userID string, limit int) ([]domain.ActivityLog, error) {
	isAdmin, err := s.Store.Users().HasRole(ctx, callerID, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check caller role: %w", err)
	}
	if !isAdmin {
		return nil, ErrNotAdmin
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Store.Activity().ListUserActivity(ctx, userID, limit)
}

// ListRecentActivity returns the newest audit rows portal-wide.
func (s *AdminService) ListRecentActivity(ctx context.Context, callerID string, limit int) ([]domain.ActivityLog, error) {
	isAdmin, err := s.Store.Users().HasRole(ctx, callerID, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check caller role: %w", err)
	}
	if !isAdmin {
		return nil, ErrNotAdmin
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Store.Activity().ListRecentActivity(ctx, limit)
}
