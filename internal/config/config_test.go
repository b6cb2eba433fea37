package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 60*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 1, cfg.Optimization.MinDaysBetweenShows)
	assert.Equal(t, 7, cfg.Optimization.MaxDaysBetweenShows)

	assert.False(t, cfg.AIEnabled())
	assert.False(t, cfg.CacheEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/venueconnect")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("AI_BASE_URL", "https://api.example.com")
	t.Setenv("AI_TIMEOUT", "10s")
	t.Setenv("OPT_MIN_DAYS_BETWEEN_SHOWS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "postgres://localhost/venueconnect", cfg.Database.URL)
	assert.Equal(t, 10*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 2, cfg.Optimization.MinDaysBetweenShows)
	assert.True(t, cfg.AIEnabled())
	assert.True(t, cfg.CacheEnabled())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}
