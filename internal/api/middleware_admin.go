package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"mediagate/internal/auth"
	"mediagate/internal/models"
)

// RequireMaster guards the admin surface. Any request whose X-API-Key is not
// the configured master key is rejected; the key store is never consulted.
func RequireMaster(gate *auth.AdminGate) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Authorize(r.Header.Get("X-API-Key")) {
				slog.Warn("security_audit: admin access denied",
					"event", "admin_denied",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeMiddlewareError(w, http.StatusForbidden, models.ErrorCodeForbidden, "master API key required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeMiddlewareError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(models.NewErrorResponse(message, errorCode)); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
