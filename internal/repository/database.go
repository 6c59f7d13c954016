package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sportsdb_sync/ingestion/internal/eventlog"
	"sportsdb_sync/ingestion/internal/metrics"
)

// Database holds the store connection pool. It is the Loader and the
// league id reader of the sync.
type Database struct {
	Pool   *pgxpool.Pool
	events eventlog.Sink
}

// Config holds database configuration
type Config struct {
	URL      string // postgres://user@host:port/db?sslmode=...
	Password string // overrides any password in URL
	MaxConns int32
}

// NewDatabase creates a new database connection pool
func NewDatabase(ctx context.Context, cfg Config, events eventlog.Sink) (*Database, error) {
	if events == nil {
		events = eventlog.Discard
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.Password != "" {
		poolConfig.ConnConfig.Password = cfg.Password
	}

	// A run writes one batch at a time, a handful of connections is plenty
	poolConfig.MaxConns = 4
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	events.Record(eventlog.Info("Successfully connected to database",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	))

	return &Database{Pool: pool, events: events}, nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.events.Record(eventlog.Info("Database connection pool closed"))
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// PublishPoolStats copies pool statistics into the connection gauges
func (db *Database) PublishPoolStats() {
	stat := db.Pool.Stat()
	metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())
}
