// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/model"
)

// Storage and remote backends.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // APP_ENV: dev, test or prod
	Port string // APP_PORT

	StorageDriver string // STORAGE_DRIVER: mysql or memory
	DBUser        string
	DBPass        string
	DBHost        string
	DBPort        string
	DBName        string

	JWTSecret         string
	AccessTTLMin      int
	AdminPasswordHash string // bcrypt hash of the admin password

	RemoteDriver  string // REMOTE_DRIVER: redis or memory
	LedgerPrefix  string
	SyncInterval  time.Duration
	SyncIDDefault string

	RabbitMQURL   string // empty disables the broker; receipts are dispatched in process
	NotifyEnabled bool
	NotifyBaseURL string

	DraftTTL time.Duration
	Timezone string // decides where a receipt counter day starts
}

// Load reads configuration from the environment.  Required variables are
// enforced by must() and a missing value stops the process.
func Load() Config {
	cfg := Config{
		Env:  envStr("APP_ENV", "dev"),
		Port: must("APP_PORT"),

		StorageDriver: envStr("STORAGE_DRIVER", DriverMySQL),

		JWTSecret:         must("JWT_SECRET"),
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
		AdminPasswordHash: must("ADMIN_PASSWORD_HASH"),

		RemoteDriver:  envStr("REMOTE_DRIVER", DriverRedis),
		LedgerPrefix:  envStr("LEDGER_PREFIX", "ledger"),
		SyncInterval:  envDur("SYNC_INTERVAL", 15*time.Second),
		SyncIDDefault: envStr("SYNC_ID_DEFAULT", model.DefaultSyncID),

		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		NotifyEnabled: envBool("NOTIFY_ENABLED", true),
		NotifyBaseURL: os.Getenv("NOTIFY_BASE_URL"),

		DraftTTL: envDur("DRAFT_TTL", 15*time.Minute),
		Timezone: envStr("APP_TIMEZONE", "Asia/Kolkata"),
	}
	if cfg.StorageDriver == DriverMySQL {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// Location resolves Timezone, falling back to local time.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logrus.WithError(err).WithField("timezone", c.Timezone).Warn("unknown timezone, using local time")
		return time.Local
	}
	return loc
}

// must retrieves a required environment variable or stops the process.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
