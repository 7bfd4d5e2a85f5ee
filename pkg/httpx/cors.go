package httpx

import "net/http"

// CORSMiddleware sets CORS headers on every response and answers preflight
// requests. allowedOrigin is typically the site base URL; "*" is used when
// no origin is configured.
func CORSMiddleware(allowedOrigin string) Middleware {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			if allowedOrigin != "*" {
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
