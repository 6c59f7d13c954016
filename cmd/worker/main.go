package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"sportsdb_sync/ingestion/internal/app"
	"sportsdb_sync/ingestion/internal/config"
	"sportsdb_sync/ingestion/internal/eventlog"
	"sportsdb_sync/ingestion/internal/metrics"
	"sportsdb_sync/ingestion/internal/scheduler"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize worker")
	}
	defer a.Close()
	events := a.Events

	events.Record(eventlog.Info("Starting SportsDB sync worker",
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel,
		"schedule", cfg.SyncCron,
	))

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		events.Record(eventlog.Info("Received shutdown signal, gracefully shutting down..."))
		cancel()
	}()

	// Start metrics HTTP server
	server := newMetricsServer(cfg.MetricsPort, a)
	go func() {
		events.Record(eventlog.Info("Starting metrics server", "port", cfg.MetricsPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			events.Record(eventlog.Error("Metrics server failed", err))
		}
	}()

	// Update system uptime and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				a.DB.PublishPoolStats()
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.New(cfg.SyncCron, func(ctx context.Context) {
		a.RunOnce(ctx)
	}, events)

	if err := sched.Start(ctx); err != nil {
		events.Record(eventlog.Error("Failed to start scheduler", err))
		return
	}

	if cfg.RunOnStart {
		events.Record(eventlog.Info("Running initial sync..."))
		a.RunOnce(ctx)
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		events.Record(eventlog.Error("Failed to stop metrics server", err))
	}

	events.Record(eventlog.Info("Worker shutdown complete"))
}

// newMetricsServer serves Prometheus metrics and a health check backed by the
// store ping
func newMetricsServer(port int, a *app.App) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := a.DB.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
