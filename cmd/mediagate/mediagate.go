package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediagate/internal/api"
	"mediagate/internal/auth"
	"mediagate/internal/config"
	"mediagate/internal/engine"
	"mediagate/internal/job"
	"mediagate/internal/keystore"
	"mediagate/internal/logger"
	"mediagate/internal/observability"
	"mediagate/internal/ratelimit"
	"mediagate/internal/version"
)

var configFile = flag.String("config", "", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize the key store
	storeInstance, err := keystore.NewFactory().Create(cfg.Keystore)
	if err != nil {
		slog.Error("Failed to initialize key store", "error", err)
		os.Exit(1)
	}
	defer storeInstance.Close()

	// Wrap the store with instrumentation if metrics are enabled
	var store keystore.Store = storeInstance
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedKeystore(storeInstance)
		if err != nil {
			slog.Error("Failed to create instrumented key store", "error", err)
			os.Exit(1)
		}
		store = instrumented
	}

	if err := store.EnsureMaster(context.Background(), cfg.Security.MasterKey); err != nil {
		slog.Error("Failed to seed master key", "error", err)
		os.Exit(1)
	}

	// Prepare the working directory and retrieval runner
	if err := os.MkdirAll(cfg.Download.WorkDir, 0755); err != nil {
		slog.Error("Failed to create working directory", "dir", cfg.Download.WorkDir, "error", err)
		os.Exit(1)
	}

	eng, err := engine.NewYTDLP(context.Background())
	if err != nil {
		slog.Error("Failed to initialize retrieval engine", "error", err)
		os.Exit(1)
	}
	runner := job.NewRunner(eng, cfg.Download.WorkDir, cfg.Download.Workers)

	// Start the artifact reaper
	reaper := job.NewReaper(cfg.Download.WorkDir, cfg.Download.MaxArtifactAge, cfg.Download.ReapInterval, slog.Default())
	stopReaper := reaper.Start(context.Background())

	// Rate limiter and admission gates
	limiter := ratelimit.NewWindowLimiter(cfg.Security.RateLimit.Window, cfg.Security.RateLimit.CleanupInterval)
	defer limiter.Close()

	gate := auth.NewGate(store, limiter)
	adminGate := auth.NewAdminGate(cfg.Security.MasterKey)

	// Initialize HTTP handlers
	handlers := api.NewHandlers(runner, store)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	router := api.SetupRoutes(handlers, gate, adminGate, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr)

		var err error
		if cfg.Server.TLSEnabled {
			if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
				slog.Error("TLS is enabled but cert file or key file is not specified")
				os.Exit(1)
			}
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopReaper()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}
