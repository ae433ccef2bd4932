package rate

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// ErrInvalidConfig indicates invalid limiter configuration
var ErrInvalidConfig = errors.New("invalid rate limiter configuration")

// Config holds token bucket settings: Rate tokens are added every Interval,
// up to Burst
type Config struct {
	Rate     int
	Burst    int
	Interval time.Duration
	// TTL drops idle keys; zero keeps them for ten intervals
	TTL time.Duration
}

// Validate validates the configuration
func (c Config) Validate() error {
	if c.Rate <= 0 || c.Burst < c.Rate || c.Interval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result contains the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// Limiter is an in-memory token bucket limiter keyed by caller
type Limiter struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// New creates a token bucket limiter
func New(config Config) (*Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.TTL <= 0 {
		config.TTL = 10 * config.Interval
	}

	return &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}, nil
}

// Allow consumes one token for key if one is available
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	return l.AllowN(ctx, key, 1)
}

// AllowN consumes n tokens for key if that many are available
func (l *Limiter) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.config.Burst), lastUpdate: now}
		l.buckets[key] = b
	}

	// refill for the time elapsed, capped at burst
	elapsed := now.Sub(b.lastUpdate)
	b.tokens = math.Min(b.tokens+elapsed.Seconds()*float64(l.config.Rate)/l.config.Interval.Seconds(), float64(l.config.Burst))
	b.lastUpdate = now

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return &Result{
			Allowed:   true,
			Limit:     l.config.Rate,
			Remaining: int(math.Floor(b.tokens)),
			ResetAt:   now.Add(l.config.Interval),
		}, nil
	}

	needed := float64(n) - b.tokens
	retryAfter := time.Duration(needed * l.config.Interval.Seconds() / float64(l.config.Rate) * float64(time.Second))
	return &Result{
		Allowed:    false,
		Limit:      l.config.Rate,
		Remaining:  int(math.Floor(b.tokens)),
		RetryAfter: retryAfter,
		ResetAt:    now.Add(retryAfter),
	}, nil
}

// Reset forgets the bucket for key
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// evict drops buckets idle for longer than the TTL. Callers hold mu.
func (l *Limiter) evict(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastUpdate) > l.config.TTL {
			delete(l.buckets, key)
		}
	}
}
