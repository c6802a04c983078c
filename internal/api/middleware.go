package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mediagate/internal/auth"
	"mediagate/internal/models"
	"mediagate/internal/ratelimit"
)

type contextKey string

// accountContextKey carries the admitted *models.APIKey through the request.
const accountContextKey contextKey = "account"

// AccountFromContext returns the API key record the auth middleware admitted,
// or nil on routes that bypass authentication.
func AccountFromContext(ctx context.Context) *models.APIKey {
	record, _ := ctx.Value(accountContextKey).(*models.APIKey)
	return record
}

// APIKeyAuth authenticates requests via the X-API-Key header and enforces the
// per-key rate limit. Order matters: existence, then active flag, then quota,
// so a deactivated key reads as forbidden even with budget to spare.
func APIKeyAuth(gate *auth.Gate) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeMiddlewareError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "missing API key")
				return
			}

			decision := gate.Admit(r.Context(), key)

			switch decision.Status {
			case auth.StatusUnauthorized:
				writeMiddlewareError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "invalid API key")
				return
			case auth.StatusForbidden:
				writeMiddlewareError(w, http.StatusForbidden, models.ErrorCodeForbidden, "API key is deactivated")
				return
			case auth.StatusThrottled:
				setRateLimitHeaders(w, decision.RateInfo)
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.RateInfo.RetryAfter.Seconds())+1))
				writeMiddlewareError(w, http.StatusTooManyRequests, models.ErrorCodeRateLimited, "rate limit exceeded")
				return
			}

			setRateLimitHeaders(w, decision.RateInfo)
			ctx := context.WithValue(r.Context(), accountContextKey, decision.Record)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
}
