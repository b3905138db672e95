package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load reads the global viper instance, so these tests reset it and
// must not run in parallel.

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Encoding)
	assert.Equal(t, DefaultBaseURL, cfg.Crawler.BaseURL)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Crawler.MaxConcurrent)
	assert.Equal(t, DefaultRetryMaxAttempts, cfg.Crawler.RetryMaxAttempts)
	assert.Equal(t, 1*time.Second, cfg.Crawler.RetryBaseBackoff)
	assert.InDelta(t, 2.0, cfg.Crawler.RetryBackoffFactor, 0.001)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, DefaultServerAddress, cfg.Server.Address)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, DefaultCronSpec, cfg.Scheduler.CronSpec)
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("crawler.base_url", "https://catalog.example.test/")
	viper.Set("crawler.max_concurrent", 4)
	viper.Set("server.api_key", "secret")
	viper.Set("scheduler.enabled", false)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://catalog.example.test/", cfg.Crawler.BaseURL)
	assert.Equal(t, 4, cfg.Crawler.MaxConcurrent)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoadRejectsEmptyBaseURL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("crawler.base_url", "")

	_, err := Load()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}
