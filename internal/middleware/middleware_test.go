package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/park-ledger/internal/config"
	"github.com/iliyamo/park-ledger/internal/utils"
)

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", ok, JWTAuth("secret"), RequireRole(utils.RoleAdmin))

	admin, err := utils.NewAccessToken("secret", "admin", utils.RoleAdmin, 5)
	require.NoError(t, err)
	guest, err := utils.NewAccessToken("secret", "someone", "GUEST", 5)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong role", "Bearer " + guest.Token, http.StatusForbidden},
		{"admin", "Bearer " + admin.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, serve(e, req).Code)
		})
	}
}

func TestLimiterDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", ok, NewLimiter(config.RateLimitConfig{Enabled: false}, nil).For(BucketQuote))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestLimiterFailsOpenWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}

	e := echo.New()
	e.POST("/v1/bookings/checkout", ok, NewLimiter(cfg, rdb).For(BucketBooking))

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/v1/bookings/checkout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBucketKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "rl:quote:10.0.0.7", bucketKey(config.RateLimitConfig{Prefix: "rl"}, BucketQuote, c))
	assert.Equal(t, "rl:login:10.0.0.7", bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: config.KeyGuest}, BucketLogin, c))
	assert.Equal(t, "rl:booking", bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "SHARED"}, BucketBooking, c))
}

func TestLoginBucketHasItsOwnBudget(t *testing.T) {
	cfg := config.RateLimitConfig{Capacity: 30, LoginCapacity: 5}

	assert.Equal(t, 5, cfg.CapacityFor(BucketLogin))
	assert.Equal(t, 30, cfg.CapacityFor(BucketQuote))
	assert.Equal(t, 30, cfg.CapacityFor(BucketBooking))
	assert.Equal(t, 30, config.RateLimitConfig{Capacity: 30}.CapacityFor(BucketLogin))
}

func TestRequestLoggerKeepsErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "nope") })

	assert.Equal(t, http.StatusTeapot, serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil)).Code)
}

func TestRecoverReturns500(t *testing.T) {
	e := echo.New()
	e.Use(Recover())
	e.GET("/panic", func(c echo.Context) error { panic("boom") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
