package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/park-ledger/internal/model"
)

func TestLoadWithMemoryStorage(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "30")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abc")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SYNC_INTERVAL", "5s")
	t.Setenv("NOTIFY_ENABLED", "off")

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Empty(t, cfg.DBHost, "database keys are only read for mysql storage")
	assert.Equal(t, 30, cfg.AccessTTLMin)
	assert.Equal(t, 5*time.Second, cfg.SyncInterval)
	assert.Equal(t, model.DefaultSyncID, cfg.SyncIDDefault)
	assert.Equal(t, DriverRedis, cfg.RemoteDriver)
	assert.False(t, cfg.NotifyEnabled)
	assert.Equal(t, 15*time.Minute, cfg.DraftTTL)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	assert.Equal(t, time.UTC, Config{Timezone: "UTC"}.Location())
	assert.Equal(t, time.Local, Config{Timezone: "Mars/Olympus"}.Location())
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("RATE_LIMIT_LOGIN_CAPACITY", "9")
	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "")

	cfg := LoadRateLimitConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.LoginCapacity, "login budget never exceeds the general one")
	assert.Equal(t, KeyGuest, cfg.KeyStrategy)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()

	assert.Equal(t, RedisConfig{Addr: "cache:6380", DB: 2, TLS: true}, cfg)
}
