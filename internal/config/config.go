package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Store
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true" validate:"required,url"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true" validate:"required"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"4" validate:"gte=1"`

	// TheSportsDB API. The API key is the last path segment of the base URL.
	SportsDBBaseURL   string        `envconfig:"SPORTSDB_BASE_URL" default:"https://www.thesportsdb.com/api/v1/json/3" validate:"required,http_url"`
	SportsDBTimeout   time.Duration `envconfig:"SPORTSDB_TIMEOUT" default:"30s" validate:"gt=0"`
	SportsDBUserAgent string        `envconfig:"SPORTSDB_USER_AGENT" default:"sportsdb-sync/1.0"`

	// Run the team pipeline even when the league pipeline failed
	ContinueOnLeagueFailure bool `envconfig:"CONTINUE_ON_LEAGUE_FAILURE" default:"false"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
	LogFile  string `envconfig:"LOG_FILE" default:"sync.log"`

	// Redis run lock, disabled when RedisAddr is empty
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"" validate:"omitempty,hostname_port"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	RunLockTTL    time.Duration `envconfig:"RUN_LOCK_TTL" default:"30m" validate:"gt=0"`

	// Monitoring
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:"" validate:"omitempty,http_url"`
	MetricsPort    int    `envconfig:"METRICS_PORT" default:"9090" validate:"gte=1,lte=65535"`

	// Worker
	SyncCron   string `envconfig:"SYNC_CRON" default:"0 3 * * *" validate:"required"`
	RunOnStart bool   `envconfig:"RUN_ON_START" default:"false"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.IsProduction() && strings.HasSuffix(strings.TrimRight(c.SportsDBBaseURL, "/"), "/3") {
		return fmt.Errorf("SPORTSDB_BASE_URL must carry a real API key in production")
	}

	return nil
}

// LockEnabled reports whether runs are guarded by the Redis lock
func (c *Config) LockEnabled() bool {
	return c.RedisAddr != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or exits on error
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
