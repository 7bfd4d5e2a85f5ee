package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeySessionID ctxKey = "session_id"
	CtxKeyRole      ctxKey = "role"
	CtxKeyAAL       ctxKey = "aal"
)

// UserIDFromContext returns the authenticated user id, or "" if the request
// did not pass AuthnMiddleware.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext returns the session id bound to the bearer token.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySessionID).(string); ok {
		return v
	}
	return ""
}

// RoleFromContext returns the role claim of the bearer token.
func RoleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}

// AALFromContext returns the assurance level of the bearer token.
func AALFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAAL).(string); ok {
		return v
	}
	return ""
}
