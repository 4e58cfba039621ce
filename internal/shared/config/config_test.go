package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "settlement-worker")

	cfg := Load()
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "8084", cfg.HTTPPort)
	assert.Equal(t, "9100", cfg.MetricsPort)
	assert.Equal(t, "game_state_updates", cfg.TopicGameState)
	assert.Equal(t, 1, cfg.Settlement.Concurrency)
	assert.Equal(t, "@every 5m", cfg.Settlement.SweepCron)
	assert.Equal(t, 5, cfg.Settlement.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Settlement.BackoffBase)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "bet-service")
	t.Setenv("SETTLEMENT_CONCURRENCY", "4")
	t.Setenv("SETTLEMENT_BACKOFF_MAX", "90s")
	t.Setenv("RUN_MIGRATIONS", "true")
	t.Setenv("SETTLEMENT_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "8083", cfg.HTTPPort)
	assert.Equal(t, 4, cfg.Settlement.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Settlement.BackoffMax)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, 5, cfg.Settlement.MaxAttempts)
}
