package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/voltgrid/investorportal/pkg/jwtx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// Verifier validates a compact bearer token and returns its claims.
type Verifier interface {
	Verify(raw string) (jwtx.Claims, error)
}

// AuthnMiddleware verifies the Authorization bearer token and injects the
// caller's identity into the request context. The caller id always comes
// from the verified token, never from the request body.
func AuthnMiddleware(v Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("token verification failed", "err", err)
				WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

// RequireRole rejects requests whose verified token does not carry the
// required role claim.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAAL rejects requests whose session has not reached the given
// assurance level. Used to gate NDA-protected document routes behind MFA.
func RequireAAL(aal string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := AALFromContext(r.Context())
			if aal == jwtx.AAL2 && have != jwtx.AAL2 {
				WriteError(w, http.StatusForbidden, "multi-factor verification required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeySessionID, c.SessionID)
	ctx = context.WithValue(ctx, CtxKeyRole, c.Role)
	ctx = context.WithValue(ctx, CtxKeyAAL, c.AAL)
	return ctx
}
