// Package config loads application configuration from file,
// environment and defaults via viper. Configuration is read once and
// passed down as immutable values; nothing reads viper after Load.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/bookwatch/internal/crawler"
	"github.com/jonesrussell/bookwatch/internal/database"
	"github.com/jonesrussell/bookwatch/internal/logger"
)

// Default crawler settings.
const (
	DefaultBaseURL            = "https://books.toscrape.com/"
	DefaultMaxConcurrent      = 10
	DefaultRetryMaxAttempts   = 3
	DefaultRetryBaseBackoff   = 1 * time.Second
	DefaultRetryBackoffFactor = 2.0
)

// Default server settings.
const (
	DefaultServerAddress = ":8080"
	DefaultReadTimeout   = 15 * time.Second
	DefaultWriteTimeout  = 15 * time.Second
)

// DefaultCronSpec runs the crawl daily at 09:00.
const DefaultCronSpec = "0 9 * * *"

// Validation errors.
var (
	ErrMissingBaseURL = errors.New("crawler.base_url is required")
	ErrMissingAPIKey  = errors.New("server.api_key is required when the API is enabled")
)

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Address      string
	APIKey       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SchedulerConfig holds the recurring crawl trigger settings.
type SchedulerConfig struct {
	Enabled  bool
	CronSpec string
}

// Config is the aggregate application configuration.
type Config struct {
	Environment string
	Logger      logger.Config
	Crawler     crawler.Config
	Database    database.Config
	Server      ServerConfig
	Scheduler   SchedulerConfig
}

// Load assembles the configuration from viper's merged sources.
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{
		Environment: viper.GetString("app.environment"),
		Logger: logger.Config{
			Level:       viper.GetString("logger.level"),
			Development: viper.GetBool("logger.development"),
			Encoding:    viper.GetString("logger.encoding"),
		},
		Crawler: crawler.Config{
			BaseURL:            viper.GetString("crawler.base_url"),
			MaxConcurrent:      viper.GetInt("crawler.max_concurrent"),
			RetryMaxAttempts:   viper.GetInt("crawler.retry_max_attempts"),
			RetryBaseBackoff:   viper.GetDuration("crawler.retry_base_backoff"),
			RetryBackoffFactor: viper.GetFloat64("crawler.retry_backoff_factor"),
		},
		Database: database.Config{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetString("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
		},
		Server: ServerConfig{
			Address:      viper.GetString("server.address"),
			APIKey:       viper.GetString("server.api_key"),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:  viper.GetBool("scheduler.enabled"),
			CronSpec: viper.GetString("scheduler.cron_spec"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks settings that have no sensible fallback.
func (c *Config) validate() error {
	if c.Crawler.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

// setDefaults registers production-safe defaults.
func setDefaults() {
	viper.SetDefault("app.environment", "production")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.development", false)
	viper.SetDefault("logger.encoding", "json")

	viper.SetDefault("crawler.base_url", DefaultBaseURL)
	viper.SetDefault("crawler.max_concurrent", DefaultMaxConcurrent)
	viper.SetDefault("crawler.retry_max_attempts", DefaultRetryMaxAttempts)
	viper.SetDefault("crawler.retry_base_backoff", DefaultRetryBaseBackoff)
	viper.SetDefault("crawler.retry_backoff_factor", DefaultRetryBackoffFactor)

	viper.SetDefault("database.host", "127.0.0.1")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "bookwatch")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "bookwatch")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("server.address", DefaultServerAddress)
	viper.SetDefault("server.api_key", "")
	viper.SetDefault("server.read_timeout", DefaultReadTimeout)
	viper.SetDefault("server.write_timeout", DefaultWriteTimeout)

	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.cron_spec", DefaultCronSpec)
}
