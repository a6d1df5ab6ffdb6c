package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the sync service.
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Database  DatabaseConfig
	Sync      SyncConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the status API configuration.
type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// CatalogConfig holds remote catalog configuration.
type CatalogConfig struct {
	BaseURL      string   `mapstructure:"base_url"`
	EntryURLs    []string `mapstructure:"entry_urls"`
	MaxPages     int      `mapstructure:"max_pages"`
	RequestRPS   float64  `mapstructure:"request_rps"`
	FetchWorkers int      `mapstructure:"fetch_workers"`
}

// DatabaseConfig holds the snapshot store configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// SyncConfig holds reconciliation parameters.
type SyncConfig struct {
	BaselineRating int           `mapstructure:"baseline_rating"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	Outlet         string        `mapstructure:"outlet"`
	IntervalHours  int           `mapstructure:"interval_hours"`
}

// CacheConfig holds listing snapshot cache configuration.
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds status API rate limiting configuration.
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shoesync/")

	v.SetEnvPrefix("SHOESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")

	// Registered empty so AutomaticEnv can fill them; validate rejects blanks.
	v.SetDefault("database.url", "")
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.entry_urls", []string{})

	v.SetDefault("catalog.max_pages", 30)
	v.SetDefault("catalog.request_rps", 4.0)
	v.SetDefault("catalog.fetch_workers", 8)

	v.SetDefault("sync.baseline_rating", 5)
	v.SetDefault("sync.retry_attempts", 3)
	v.SetDefault("sync.retry_delay", "20s")
	v.SetDefault("sync.outlet", "nagornaya")
	v.SetDefault("sync.interval_hours", 6)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration.
func validate(config *Config) error {
	if config.Database.URL == "" {
		return fmt.Errorf("database URL is required (set SHOESYNC_DATABASE_URL)")
	}

	if config.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is required (set SHOESYNC_CATALOG_BASE_URL)")
	}

	if config.Catalog.MaxPages < 1 || config.Catalog.MaxPages > 30 {
		return fmt.Errorf("catalog max_pages must be in 1..30, got: %d", config.Catalog.MaxPages)
	}

	if config.Sync.BaselineRating < 2 {
		return fmt.Errorf("sync baseline_rating must be >= 2, got: %d", config.Sync.BaselineRating)
	}

	if config.Sync.Outlet == "" {
		return fmt.Errorf("sync outlet name is required")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	return nil
}
