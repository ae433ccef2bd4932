package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/errorsx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RetriesRetryableErrors(t *testing.T) {
	var retried []int
	policy := ExponentialBackoff(time.Millisecond, 5*time.Millisecond, false, 3)
	policy.OnRetry = func(_ context.Context, attempt int, err error, _ time.Duration) {
		retried = append(retried, attempt)
	}

	calls := 0
	res, err := Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errorsx.WrapRetryable(errors.New("flaky"))
		}
		return "ok", nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	permanent := errorsx.WrapPermanent(errors.New("bad password"))
	calls := 0

	_, err := Do(context.Background(), ExponentialBackoff(time.Millisecond, time.Millisecond, false, 5),
		func(ctx context.Context) (int, error) {
			calls++
			return 0, permanent
		}, nil)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), ExponentialBackoff(time.Millisecond, time.Millisecond, true, 2),
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errorsx.WrapRetryable(errors.New("refused"))
		}, nil)

	assert.True(t, errorsx.IsRetryable(err))
	assert.Equal(t, 2, calls)
}

func TestDo_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, ExponentialBackoff(time.Second, time.Second, false, 3),
		func(ctx context.Context) (int, error) {
			t.Fatal("fn must not run on a cancelled context")
			return 0, nil
		}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextDelay(t *testing.T) {
	p := FromConfig(config.RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, MaxAttempts: 5})

	assert.Equal(t, 100*time.Millisecond, p.nextDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.nextDelay(2))
	assert.Equal(t, 300*time.Millisecond, p.nextDelay(3))
}
