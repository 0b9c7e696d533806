package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/logger"
)

// AdminToken guards maintenance endpoints with a shared secret sent as
// Authorization: Bearer <token> or X-API-Key. An empty token disables the
// guarded endpoints entirely.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusForbidden, "admin endpoints are disabled")
				return
			}
			key := extractToken(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing admin token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
				logger.FromContext(r.Context()).Warn("rejected admin request",
					"component", "admin-auth",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeError(w, http.StatusUnauthorized, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the Authorization: Bearer header, then X-API-Key.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// writeError writes a JSON error response to the client.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
