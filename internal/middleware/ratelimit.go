package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/config"
)

// Buckets of the public surface.  Each has its own token budget.
const (
	BucketQuote   = "quote"
	BucketBooking = "booking"
	BucketLogin   = "login"
)

// takeToken refills the bucket by whole intervals since the last refill,
// then spends one token if there is one.  It returns
// {allowed, tokens left, ms until the next refill}.
var takeToken = redis.NewScript(`
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local now = tonumber(ARGV[1])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'refilled_at'))
if tokens == nil or last == nil then
	tokens = capacity
	last = now
end

local steps = math.floor(math.max(0, now - last) / interval)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	last = last + steps * interval
end

local allowed = 0
local wait = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.max(0, interval - (now - last))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', last)
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {allowed, tokens, wait}
`)

// Limiter throttles guests per bucket with a Redis token bucket.  Redis
// errors let the request through: a limiter outage never blocks bookings.
type Limiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log *logrus.Entry
}

func NewLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *Limiter {
	return &Limiter{cfg: cfg, rdb: rdb, log: logrus.WithField("component", "ratelimit")}
}

type decision struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

func (l *Limiter) take(ctx context.Context, key string, capacity int) (decision, error) {
	vals, err := takeToken.Run(ctx, l.rdb, []string{key},
		time.Now().UnixMilli(),
		capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		l.cfg.TTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return decision{}, err
	}
	if len(vals) != 3 {
		return decision{}, fmt.Errorf("token bucket returned %d values", len(vals))
	}
	return decision{
		allowed:    vals[0] == 1,
		remaining:  vals[1],
		retryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// For returns the middleware for one bucket.  A disabled limiter, or one
// without Redis, passes every request through.
func (l *Limiter) For(bucket string) echo.MiddlewareFunc {
	if l == nil || !l.cfg.Enabled || l.rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	capacity := l.cfg.CapacityFor(bucket)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(l.cfg, bucket, c)
			d, err := l.take(c.Request().Context(), key, capacity)
			if err != nil {
				if l.cfg.Debug {
					l.log.WithError(err).WithField("bucket", bucket).Warn("token bucket unavailable, request allowed")
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if d.allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.retryAfter.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			l.log.WithFields(logrus.Fields{
				"bucket": bucket,
				"guest":  c.RealIP(),
				"route":  c.Path(),
			}).Info("guest throttled")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too many requests, try again shortly",
				"bucket":      bucket,
				"retry_after": secs,
			})
		}
	}
}

// bucketKey is <prefix>:<bucket> for a shared budget, and
// <prefix>:<bucket>:<guest ip> otherwise.
func bucketKey(cfg config.RateLimitConfig, bucket string, c echo.Context) string {
	if strings.EqualFold(cfg.KeyStrategy, config.KeyShared) {
		return cfg.Prefix + ":" + bucket
	}
	guest := c.RealIP()
	if guest == "" {
		guest = "unknown"
	}
	return cfg.Prefix + ":" + bucket + ":" + guest
}
