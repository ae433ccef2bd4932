package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.New(zap.New(core)), logs
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, task *Task) error {
				order = append(order, name)
				return next.Process(ctx, task)
			})
		}
	}

	h := Chain(mark("outer"), mark("inner"))(HandlerFunc(func(ctx context.Context, task *Task) error {
		order = append(order, "handler")
		return nil
	}))

	require.NoError(t, h.Process(context.Background(), &Task{ID: "t"}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecoveryMiddleware(t *testing.T) {
	log, logs := observed()
	h := RecoveryMiddleware(log)(HandlerFunc(func(ctx context.Context, task *Task) error {
		panic("boom")
	}))

	err := h.Process(context.Background(), &Task{ID: "t1", Type: "x"})

	assert.ErrorIs(t, err, ErrTaskPanicked)
	assert.Equal(t, 1, logs.FilterMessage("Task handler panicked").Len())
}

func TestLoggingMiddleware(t *testing.T) {
	log, logs := observed()
	errWork := errors.New("nope")
	h := LoggingMiddleware(log)(HandlerFunc(func(ctx context.Context, task *Task) error {
		return errWork
	}))

	err := h.Process(context.Background(), &Task{ID: "t1", Type: "x"})

	assert.Same(t, errWork, err)
	assert.Equal(t, 1, logs.FilterMessage("Task processing started").Len())
	failed := logs.FilterMessage("Task processing failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "t1", failed[0].ContextMap()["task_id"])
}

func TestTimeoutMiddleware_ReturnsOnDeadlineAndKeepsChain(t *testing.T) {
	log, logs := observed()
	release := make(chan struct{})
	finished := make(chan correlation.Chain, 1)

	h := TimeoutMiddleware(log)(HandlerFunc(func(ctx context.Context, task *Task) error {
		<-ctx.Done()
		<-release
		finished <- correlation.Current(ctx)
		return ctx.Err()
	}))

	ctx, _ := correlation.Install(context.Background(), correlation.Chain{"p", "q"})
	start := time.Now()
	err := h.Process(ctx, &Task{ID: "slow", Timeout: 20 * time.Millisecond})

	assert.ErrorIs(t, err, ErrTaskTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, correlation.Chain{"p", "q"}, correlation.Current(ctx))
	assert.Equal(t, 1, logs.FilterMessage("Task timeout exceeded").Len())

	// the abandoned handler still runs under the forked chain
	close(release)
	assert.Equal(t, correlation.Chain{"p", "q"}, <-finished)
}

func TestTimeoutMiddleware_PassThrough(t *testing.T) {
	log, _ := observed()
	h := TimeoutMiddleware(log)(HandlerFunc(func(ctx context.Context, task *Task) error {
		return nil
	}))

	assert.NoError(t, h.Process(context.Background(), &Task{ID: "no-timeout"}))
	assert.NoError(t, h.Process(context.Background(), &Task{ID: "fast", Timeout: time.Second}))
}

func TestTimeoutMiddleware_ParentCancellation(t *testing.T) {
	log, logs := observed()
	h := TimeoutMiddleware(log)(HandlerFunc(func(ctx context.Context, task *Task) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Process(ctx, &Task{ID: "t", Timeout: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTaskTimeout)
	assert.Equal(t, 0, logs.FilterMessage("Task timeout exceeded").Len())
}

func TestTimeoutMiddleware_PanicReachesRecovery(t *testing.T) {
	log, logs := observed()
	h := Chain(RecoveryMiddleware(log), TimeoutMiddleware(log))(HandlerFunc(func(ctx context.Context, task *Task) error {
		panic("boom")
	}))

	ctx, _ := correlation.Install(context.Background(), correlation.Chain{"p"})
	var err error
	require.NotPanics(t, func() {
		err = h.Process(ctx, &Task{ID: "t1", Type: "x", Timeout: time.Second})
	})

	assert.ErrorIs(t, err, ErrTaskPanicked)
	assert.NotErrorIs(t, err, ErrTaskTimeout)
	var pe *correlation.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.Equal(t, correlation.Chain{"p"}, pe.Chain)
	assert.Equal(t, 1, logs.FilterMessage("Task handler panicked").Len())
	assert.Equal(t, 0, logs.FilterMessage("Task timeout exceeded").Len())
}

func TestMetricsMiddleware(t *testing.T) {
	log, _ := observed()
	collector := NewMetricsCollector(log)

	results := []error{nil, errors.New("bad"), ErrTaskTimeout, nil}
	i := 0
	h := MetricsMiddleware(collector)(HandlerFunc(func(ctx context.Context, task *Task) error {
		err := results[i]
		i++
		return err
	}))

	for range results {
		_ = h.Process(context.Background(), &Task{Type: "probe"})
	}

	assert.Equal(t, int64(2), collector.Count("probe", StatusSuccess))
	assert.Equal(t, int64(1), collector.Count("probe", StatusError))
	assert.Equal(t, int64(1), collector.Count("probe", StatusTimeout))
}

func TestTask_PayloadRoundTrip(t *testing.T) {
	type payload struct {
		Host string `json:"host"`
	}

	task, err := NewTask("t1", "probe", payload{Host: "localhost"}, time.Second)
	require.NoError(t, err)

	var got payload
	require.NoError(t, task.Decode(&got))
	assert.Equal(t, "localhost", got.Host)

	task.Payload = []byte("{")
	assert.Error(t, task.Decode(&got))
}
