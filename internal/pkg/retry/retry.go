package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/errorsx"
)

type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
	MaxAttempts int

	// OnRetry, when set, is called before sleeping between attempts
	OnRetry func(ctx context.Context, attempt int, err error, delay time.Duration)
}

func ExponentialBackoff(base, max time.Duration, jitter bool, maxAttempts int) Policy {
	return Policy{
		BaseDelay:   base,
		MaxDelay:    max,
		Jitter:      jitter,
		MaxAttempts: maxAttempts,
	}
}

// FromConfig builds an exponential policy from the probe retry settings
func FromConfig(cfg config.RetryConfig) Policy {
	return ExponentialBackoff(cfg.BaseDelay, cfg.MaxDelay, cfg.Jitter, cfg.MaxAttempts)
}

func (p Policy) nextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	// 2^(attempt-1) * base
	factor := math.Pow(2, float64(attempt-1))
	delay := time.Duration(float64(p.BaseDelay) * factor)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter {
		j := rand.Float64()*0.4 + 0.8 // [0.8, 1.2)
		delay = time.Duration(float64(delay) * j)
	}
	return delay
}

// Do runs fn with retry upon error while isRetryable(err) is true.
// A nil isRetryable retries only errors marked by errorsx.
//
// Each attempt receives ctx as given; callers that want one correlation
// scope per attempt wrap fn before passing it in.
func Do[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error), isRetryable func(error) bool) (T, error) {
	if isRetryable == nil {
		isRetryable = errorsx.IsRetryable
	}

	var zero T
	var lastErr error
	for attempt := 1; policy.MaxAttempts == 0 || attempt <= policy.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
		if policy.MaxAttempts != 0 && attempt == policy.MaxAttempts {
			break
		}
		delay := policy.nextDelay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(ctx, attempt, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}
