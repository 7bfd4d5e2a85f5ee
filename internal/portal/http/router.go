package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/pkg/httpx"
	"github.com/voltgrid/investorportal/pkg/jwtx"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier      httpx.Verifier
	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger
	webhookSecret string

	store            store.Store
	AuthService      *service.AuthService
	MFAService       *service.MFAService
	AdminService     *service.AdminService
	SignatureService *service.SignatureService
	EmailService     *service.EmailService
}

func NewRouter(
	verifier httpx.Verifier,
	buildVersion, corsOrigin, webhookSecret string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		verifier:      verifier,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		webhookSecret: webhookSecret,
		store:         st,
		logger:        logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORSMiddleware(corsOrigin),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSession()
	r.registerMFA()
	r.registerAdmin()
	r.registerWebhooks()
	r.registerEmail()
	r.registerActivity()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// touchSession counts the request as session activity after authentication.
// It rejects requests whose session row has been revoked or expired, which
// is what makes server-side idle expiry stick regardless of token expiry.
func (r *Router) touchSession() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sessionID := httpx.SessionIDFromContext(req.Context())
			if err := r.AuthService.Touch(req.Context(), sessionID); err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "session expired")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints get the strict IP limit to slow brute force.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignUp),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSession() {
	h := &SessionHandler{AuthService: r.AuthService}

	// Status and extend deliberately skip touchSession: a status poll must
	// not reset the idle clock, or the warning state could never be seen.
	r.Mux.Handle("GET /v1/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/session/extend",
		httpx.Chain(http.HandlerFunc(h.HandleExtend),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /v1/mfa/totp/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/mfa/challenge",
		httpx.Chain(http.HandlerFunc(h.HandleChallenge),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Verification gets the strict limit to slow TOTP brute force.
	r.Mux.Handle("POST /v1/mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/mfa/factors",
		httpx.Chain(http.HandlerFunc(h.HandleListFactors),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	// Removing a factor downgrades the account's security posture, so the
	// caller must present a stepped-up token on top of the code check the
	// service performs.
	r.Mux.Handle("DELETE /v1/mfa/totp/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUnenroll),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAAL(jwtx.AAL2),
			r.touchSession(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService}

	// RequireRole reads the token claim as a cheap early gate; the service
	// re-checks the role against the database before acting.
	r.Mux.Handle("POST /v1/admin/delete-user",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteUser),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RequireRole("admin"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/admin/activity",
		httpx.Chain(http.HandlerFunc(h.HandleRecentActivity),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RequireRole("admin"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/admin/users/{id}/activity",
		httpx.Chain(http.HandlerFunc(h.HandleUserActivity),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RequireRole("admin"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerWebhooks() {
	h := &WebhookHandler{
		SignatureService: r.SignatureService,
		Secret:           r.webhookSecret,
	}

	// Unauthenticated by design; HMAC signature stands in for auth.
	r.Mux.Handle("POST /v1/webhooks/docusign",
		httpx.Chain(http.HandlerFunc(h.HandleEnvelope),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerEmail() {
	h := &EmailHandler{EmailService: r.EmailService}

	r.Mux.Handle("POST /v1/send-email",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RequireRole("admin"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerActivity() {
	h := &ActivityHandler{AuthService: r.AuthService}

	r.Mux.Handle("GET /v1/activity",
		httpx.Chain(http.HandlerFunc(h.HandleOwnActivity),
			httpx.AuthnMiddleware(r.verifier),
			r.touchSession(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
