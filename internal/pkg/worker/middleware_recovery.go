package worker

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// RecoveryMiddleware creates a middleware that turns handler panics into
// errors wrapping ErrTaskPanicked
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, task *Task) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error(ctx, "Task handler panicked",
						zap.String("task_id", task.ID),
						zap.String("task_type", task.Type),
						zap.Any("panic", r),
						zap.String("stack", string(debug.Stack())),
					)

					if cause, ok := r.(error); ok {
						err = fmt.Errorf("%w: %w", ErrTaskPanicked, cause)
						return
					}
					err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
				}
			}()

			return next.Process(ctx, task)
		})
	}
}
