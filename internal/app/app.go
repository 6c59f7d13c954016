// Package app wires configuration, logging, the store, the API client and
// the optional run lock into a ready-to-run sync.
package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sportsdb_sync/ingestion/internal/cache"
	"sportsdb_sync/ingestion/internal/client"
	"sportsdb_sync/ingestion/internal/config"
	"sportsdb_sync/ingestion/internal/eventlog"
	"sportsdb_sync/ingestion/internal/metrics"
	"sportsdb_sync/ingestion/internal/pipeline"
	"sportsdb_sync/ingestion/internal/repository"
)

const (
	lockKey    = "sportsdb:sync:lock"
	metricsJob = "sportsdb_sync"
)

// App is a fully wired sync
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Events   eventlog.Sink
	DB       *repository.Database
	Pipeline *pipeline.Pipeline

	lock      pipeline.Locker
	redis     *redis.Client
	closeLogs func() error
}

// NewLogger builds the process logger and the sink handed to components
func NewLogger(cfg *config.Config) (zerolog.Logger, eventlog.Sink, func() error, error) {
	logger, closeLogs, err := eventlog.NewLogger(eventlog.Options{
		Env:      cfg.AppEnv,
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		return zerolog.Nop(), nil, nil, err
	}
	return logger, eventlog.NewZerolog(logger), closeLogs, nil
}

// New connects to the store and, when configured, Redis. A store connection
// failure is returned; an unreachable Redis disables the lock with a warning.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, events, closeLogs, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Events: events, closeLogs: closeLogs}

	a.DB, err = repository.NewDatabase(ctx, repository.Config{
		URL:      cfg.DatabaseURL,
		Password: cfg.DatabasePassword,
		MaxConns: cfg.DatabaseMaxConns,
	}, events)
	if err != nil {
		_ = closeLogs()
		return nil, err
	}

	if cfg.LockEnabled() {
		a.redis, err = cache.NewRedisClient(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			events.Record(eventlog.Warn("Failed to connect to Redis - running without the run lock", "error", err.Error()))
		} else {
			a.lock = cache.NewRunLock(a.redis, lockKey, cfg.RunLockTTL)
			events.Record(eventlog.Info("Run lock enabled", "ttl", cfg.RunLockTTL))
		}
	}

	fetcher := client.NewClient(cfg.SportsDBTimeout, cfg.SportsDBUserAgent, events)
	a.Pipeline = pipeline.New(fetcher, a.DB, events,
		pipeline.WithBaseURL(cfg.SportsDBBaseURL),
		pipeline.WithContinueOnLeagueFailure(cfg.ContinueOnLeagueFailure),
	)

	return a, nil
}

// RunOnce performs one sync, under the run lock when there is one
func (a *App) RunOnce(ctx context.Context) (pipeline.Summary, bool) {
	defer a.DB.PublishPoolStats()

	if a.lock == nil {
		return a.Pipeline.Run(ctx), true
	}
	return a.Pipeline.RunExclusive(ctx, a.lock)
}

// PushMetrics sends the run's metrics to the Pushgateway, if one is configured
func (a *App) PushMetrics(ctx context.Context) {
	if a.Config.PushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := metrics.Push(ctx, a.Config.PushgatewayURL, metricsJob); err != nil {
		a.Events.Record(eventlog.Error("Failed to push metrics", err, "pushgateway", a.Config.PushgatewayURL))
		return
	}
	a.Events.Record(eventlog.Debug("Metrics pushed", "pushgateway", a.Config.PushgatewayURL))
}

// Close releases the store, Redis and the log file
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.DB.Close()
	if err := a.closeLogs(); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to close log file")
	}
}
