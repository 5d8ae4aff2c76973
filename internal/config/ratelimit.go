package config

import (
	"os"
	"strconv"
	"time"
)

// Key strategies for the rate limiter.  KeyGuest gives every client IP its
// own budget per bucket; KeyShared gives each bucket one budget for
// everyone.
const (
	KeyGuest  = "guest"
	KeyShared = "shared"
)

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	LoginCapacity  int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		LoginCapacity:  envInt("RATE_LIMIT_LOGIN_CAPACITY", 5),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", KeyGuest),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		def.Capacity = b
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.LoginCapacity < 1 || def.LoginCapacity > def.Capacity {
		def.LoginCapacity = def.Capacity
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

// CapacityFor is the token budget of one bucket.  Admin login gets the
// tighter LoginCapacity.
func (c RateLimitConfig) CapacityFor(bucket string) int {
	if bucket == "login" && c.LoginCapacity > 0 {
		return c.LoginCapacity
	}
	return c.Capacity
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
