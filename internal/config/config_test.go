package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("AI_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.App.Addr())
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout())
	assert.Equal(t, 3, cfg.AI.MaxAttempts)
	assert.Equal(t, 10, cfg.AI.MinDescriptionLen)
	assert.Equal(t, time.Second, cfg.AI.RetryDelay())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("ESCALATION_SWEEP_INTERVAL_SECONDS", "0")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Zero(t, cfg.Escalation.SweepInterval())
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.Error(t, err)
}
