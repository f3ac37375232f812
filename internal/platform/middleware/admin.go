package middleware

import (
	"log/slog"
	"net/http"

	"membergate/pkg/platform/secrets"
)

// AdminRole is the JWT role claim that grants access to the administrative
// vetting API.
const AdminRole = "administrator"

// RequireAdmin gates administrative routes. A request passes when the
// authenticated JWT carries the administrator role, or when it presents the
// operator service token matching the configured bcrypt hash. The service
// layer re-checks the actor's privilege against the directory; this
// middleware only keeps obvious non-admin traffic off admin routes.
func RequireAdmin(adminTokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) == AdminRole {
				next.ServeHTTP(w, r)
				return
			}

			if token := r.Header.Get("X-Admin-Token"); token != "" && adminTokenHash != "" {
				if err := secrets.Verify(token, adminTokenHash); err == nil {
					next.ServeHTTP(w, r)
					return
				}
				logger.WarnContext(r.Context(), "admin token mismatch",
					"request_id", GetRequestID(r.Context()),
				)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"administrator privilege required"}`))
		})
	}
}
