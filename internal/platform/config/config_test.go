package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"acredita/internal/platform/config"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ACREDITA_ADDR", "")
	t.Setenv("ACREDITA_STORE_TIMEOUT", "")
	t.Setenv("ACREDITA_CONFLICT_RETRIES", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg := config.FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 3, cfg.ConflictRetries)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ACREDITA_ADDR", ":9090")
	t.Setenv("ACREDITA_STORE_TIMEOUT", "500ms")
	t.Setenv("ACREDITA_CONFLICT_RETRIES", "5")
	t.Setenv("DATABASE_URL", "postgres://localhost/acredita")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg := config.FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 5, cfg.ConflictRetries)
	assert.Equal(t, "postgres://localhost/acredita", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("ACREDITA_STORE_TIMEOUT", "not-a-duration")
	t.Setenv("ACREDITA_CONFLICT_RETRIES", "-2")

	cfg := config.FromEnv()
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 3, cfg.ConflictRetries)
}
