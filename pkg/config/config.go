package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/common/validation"
	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/scheduling/refresh"
)

// Config is the complete courseflow client configuration.
type Config struct {
	Network    NetworkConfig    `yaml:"network" env:"NETWORK"`
	Cache      CacheConfig      `yaml:"cache" env:"CACHE"`
	Pagination PaginationConfig `yaml:"pagination" env:"PAGINATION"`
	Refresh    RefreshConfig    `yaml:"refresh" env:"REFRESH"`
	Log        LogConfig        `yaml:"log" env:"LOG"`
	Metrics    MetricsConfig    `yaml:"metrics" env:"METRICS"`
}

// NetworkConfig configures the course API client.
type NetworkConfig struct {
	BaseURL   string        `yaml:"base_url" env:"BASE_URL"`
	AuthToken string        `yaml:"auth_token" env:"AUTH_TOKEN"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Workers   int           `yaml:"workers" env:"WORKERS"`
	QueueSize int           `yaml:"queue_size" env:"QUEUE_SIZE"`
	// RateLimit is requests per second; 0 disables throttling.
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst     int     `yaml:"burst" env:"BURST"`
}

// CacheConfig selects where persisted responses and last-accessed
// positions are kept.
type CacheConfig struct {
	// Backend is one of "memory", "redis" or "none".
	Backend   string        `yaml:"backend" env:"BACKEND"`
	TTL       time.Duration `yaml:"ttl" env:"TTL"`
	KeyPrefix string        `yaml:"key_prefix" env:"KEY_PREFIX"`
	Redis     RedisConfig   `yaml:"redis" env:"REDIS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	PoolSize int    `yaml:"pool_size" env:"POOL_SIZE"`
}

// PaginationConfig configures paged lists.
type PaginationConfig struct {
	PageSize int `yaml:"page_size" env:"PAGE_SIZE"`
}

// RefreshConfig holds cron schedules for background reloads. An empty
// schedule disables that reload.
type RefreshConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	Announcements string `yaml:"announcements" env:"ANNOUNCEMENTS"`
	Outline       string `yaml:"outline" env:"OUTLINE"`
	Topics        string `yaml:"topics" env:"TOPICS"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format      string   `yaml:"format" env:"FORMAT"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			BaseURL:   "http://localhost:8000/api/",
			Timeout:   30 * time.Second,
			Workers:   4,
			QueueSize: 64,
			Burst:     1,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       24 * time.Hour,
			KeyPrefix: "courseflow:",
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
		},
		Pagination: PaginationConfig{
			PageSize: 20,
		},
		Refresh: RefreshConfig{
			Enabled:       false,
			Announcements: "@every 10m",
			Outline:       "@every 1h",
			Topics:        "@every 30m",
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "courseflow",
		},
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(validation.ValidateBaseURL("config", "network.base_url", c.Network.BaseURL))
	add(validation.ValidateNonNegativeDuration("config", "network.timeout", c.Network.Timeout))
	add(validation.ValidatePositive("config", "network.workers", c.Network.Workers))
	add(validation.ValidateNonNegative("config", "network.queue_size", float64(c.Network.QueueSize)))
	add(validation.ValidateNonNegative("config", "network.rate_limit", c.Network.RateLimit))
	add(validation.ValidatePositive("config", "pagination.page_size", c.Pagination.PageSize))
	add(validation.ValidateNonNegativeDuration("config", "cache.ttl", c.Cache.TTL))

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		add(validation.ValidateNotEmpty("config", "cache.redis.addr", c.Cache.Redis.Addr))
	default:
		add(cferrors.NewValidationError("config", "cache.backend", c.Cache.Backend, "unknown backend").
			WithHint("use memory, redis or none"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		add(cferrors.NewValidationError("config", "log.level", c.Log.Level, "unknown level").
			WithHint("use debug, info, warn or error"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		add(cferrors.NewValidationError("config", "log.format", c.Log.Format, "unknown format").
			WithHint("use json or console"))
	}

	if c.Refresh.Enabled {
		for field, spec := range map[string]string{
			"refresh.announcements": c.Refresh.Announcements,
			"refresh.outline":       c.Refresh.Outline,
			"refresh.topics":        c.Refresh.Topics,
		} {
			if spec == "" {
				continue
			}
			if _, err := refresh.Parser.Parse(spec); err != nil {
				add(cferrors.NewValidationError("config", field, spec, err.Error()))
			}
		}
	}

	return errors.Join(errs...)
}

// ManagerConfig converts the network section for network.New.
func (c NetworkConfig) ManagerConfig(cacheTTL time.Duration) network.Config {
	return network.Config{
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		Workers:   c.Workers,
		QueueSize: c.QueueSize,
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
		CacheTTL:  cacheTTL,
	}
}

// Options converts the section for redis.NewClient.
func (c RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	}
}

// String hides credentials.
func (c NetworkConfig) String() string {
	token := ""
	if c.AuthToken != "" {
		token = "***"
	}
	return fmt.Sprintf("base_url=%s auth_token=%s timeout=%s workers=%d", c.BaseURL, token, c.Timeout, c.Workers)
}
