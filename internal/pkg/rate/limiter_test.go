package rate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *fakeClock) {
	t.Helper()
	l, err := New(cfg)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	l.now = clock.now
	return l, clock
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{Rate: 1, Burst: 2, Interval: time.Second}},
		{name: "zero rate", cfg: Config{Rate: 0, Burst: 2, Interval: time.Second}, wantErr: true},
		{name: "burst below rate", cfg: Config{Rate: 3, Burst: 2, Interval: time.Second}, wantErr: true},
		{name: "zero interval", cfg: Config{Rate: 1, Burst: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	l, clock := newTestLimiter(t, Config{Rate: 1, Burst: 2, Interval: time.Second})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	// other keys have their own bucket
	res, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	clock.t = clock.t.Add(time.Second)
	res, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestLimiter_ResetAndEviction(t *testing.T) {
	l, clock := newTestLimiter(t, Config{Rate: 1, Burst: 1, Interval: time.Second, TTL: 5 * time.Second})
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	l.Reset("a")
	res, _ := l.Allow(ctx, "a")
	assert.True(t, res.Allowed)

	clock.t = clock.t.Add(time.Minute)
	_, _ = l.Allow(ctx, "other")
	assert.NotContains(t, l.buckets, "a")
}

func TestLimiter_CanceledContext(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Rate: 1, Burst: 1, Interval: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Allow(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Rate: 1, Burst: 1, Interval: time.Minute})

	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		Middleware(l, logger.NewNop(), func(c echo.Context) string { return "fixed" }))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "61", rec.Header().Get("Retry-After"))
}

func TestMiddleware_NilLimiterPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		Middleware(nil, logger.NewNop(), nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestNewLimiterFromConfig(t *testing.T) {
	cfg := config.Default()
	l, err := NewLimiterFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, l)

	cfg.RateLimit.Enabled = false
	l, err = NewLimiterFromConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, l)
}
