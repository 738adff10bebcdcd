// Command matchmakingd is the composition root: it loads configuration,
// builds the logger, metrics registry, auth backend, and shared state, then
// starts the matchmaking listener and the metrics/health HTTP side-channel.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jkmp/matchmakingd/internal/auth"
	"github.com/jkmp/matchmakingd/internal/config"
	"github.com/jkmp/matchmakingd/internal/logging"
	"github.com/jkmp/matchmakingd/internal/metrics"
	"github.com/jkmp/matchmakingd/internal/state"
	"github.com/jkmp/matchmakingd/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // nolint:errcheck

	metricsRegistry := metrics.NewRegistry()
	backend := buildBackend(cfg.Auth, logger)
	store := state.NewStore()

	transportServer := transport.NewServer(cfg.Listen, logger, store, metricsRegistry, backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := transportServer.Start(ctx); err != nil {
		logger.Fatal("transport start failed", zap.Error(err))
	}

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- runHTTPServer(ctx, cfg, store, metricsRegistry, logger)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-httpErrCh:
		if err != nil {
			logger.Error("http server error", zap.Error(err))
		}
		stop()
	}

	transportServer.Stop()
	logger.Info("transport stopped")
}

// buildBackend selects HTTPBackend when an identity provider base URL is
// configured, falling back to an empty StaticBackend for local runs.
func buildBackend(cfg config.AuthConfig, logger *zap.Logger) auth.Backend {
	if cfg.BaseURL != "" {
		logger.Info("using HTTP auth backend", zap.String("base_url", cfg.BaseURL))
		return auth.NewHTTPBackend(cfg.BaseURL, cfg.BearerSecret)
	}
	logger.Warn("no auth.base_url configured, falling back to an empty static auth backend")
	return auth.NewStaticBackend(nil, nil)
}

func runHTTPServer(ctx context.Context, cfg config.Config, store *state.Store, metricsRegistry *metrics.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		store.Lock()
		count := store.State.ClientCount()
		store.Unlock()
		writeJSON(w, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"clients":   count,
		})
	})

	mux.Handle("/metrics", metricsRegistry.Handler())

	httpServer := &http.Server{
		Addr:         cfg.Metrics.ListenAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics http server starting", zap.String("addr", cfg.Metrics.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics http server shutdown error", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
