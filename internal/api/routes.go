package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"mediagate/internal/auth"
	"mediagate/internal/models"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" && r.URL.Path != "/metrics"
			}),
		))
	}
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, gate *auth.Gate, adminGate *auth.AdminGate, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	router.HandleFunc("/", handlers.Root).Methods("GET")
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Tenant surface: API-key authenticated and rate limited.
	public := router.PathPrefix("").Subrouter()
	public.Use(APIKeyAuth(gate))
	public.HandleFunc("/info", handlers.Info).Methods("POST")
	public.HandleFunc("/download/video", handlers.DownloadVideo).Methods("POST")
	public.HandleFunc("/download/audio", handlers.DownloadAudio).Methods("POST")

	// Admin surface: master key only, exempt from rate limiting.
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(RequireMaster(adminGate))
	admin.HandleFunc("/keys/generate", handlers.GenerateKey).Methods("POST")
	admin.HandleFunc("/keys", handlers.ListKeys).Methods("GET")
	admin.HandleFunc("/keys/{key}/toggle", handlers.ToggleKey).Methods("PUT")
	admin.HandleFunc("/keys/{key}", handlers.DeleteKey).Methods("DELETE")

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		errorResp := models.NewErrorResponse("Method not allowed", models.ErrorCodeBadRequest)
		json.NewEncoder(w).Encode(errorResp)
	})

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				errorResp := models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError)
				json.NewEncoder(w).Encode(errorResp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
