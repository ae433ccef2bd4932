package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// handlerResult is what the timed handler goroutine hands back
type handlerResult struct {
	err      error
	panicked *correlation.PanicError
}

// TimeoutMiddleware creates a middleware that bounds a task by its Timeout.
//
// The handler runs on its own goroutine under a fork of the caller's chain.
// When the deadline passes the middleware returns ErrTaskTimeout at once and
// leaves the handler to finish on its own. A panic in the handler is raised
// again on the caller's goroutine as a *correlation.PanicError so an outer
// RecoveryMiddleware sees it.
func TimeoutMiddleware(log *logger.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, task *Task) error {
			if task.Timeout <= 0 {
				return next.Process(ctx, task)
			}

			timeoutCtx, cancel := context.WithTimeout(ctx, task.Timeout)
			defer cancel()

			workCtx := correlation.Fork(timeoutCtx)
			done := make(chan handlerResult, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						pe := &correlation.PanicError{Value: r, Stack: debug.Stack(), Chain: correlation.Current(workCtx)}
						if timeoutCtx.Err() != nil {
							// nobody may be left to re-raise it
							log.Error(workCtx, "Abandoned task handler panicked",
								zap.String("task_id", task.ID),
								zap.String("task_type", task.Type),
								zap.Any("panic", r),
								zap.String("stack", string(pe.Stack)),
							)
						}
						done <- handlerResult{panicked: pe}
					}
				}()
				done <- handlerResult{err: next.Process(workCtx, task)}
			}()

			select {
			case res := <-done:
				if res.panicked != nil {
					panic(res.panicked)
				}
				// a handler that gave up because of our deadline still timed out
				if res.err == nil || ctx.Err() != nil || !errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
					return res.err
				}
			case <-timeoutCtx.Done():
				// a parent cancellation is not ours to report as a timeout
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}

			log.Error(ctx, "Task timeout exceeded",
				zap.String("task_id", task.ID),
				zap.String("task_type", task.Type),
				zap.Duration("timeout", task.Timeout),
			)
			return fmt.Errorf("%w: %s", ErrTaskTimeout, task.Timeout)
		})
	}
}
