package worker

import (
	"context"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// LoggingMiddleware creates a middleware that logs task processing
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, task *Task) error {
			taskLog := log.With(
				zap.String("task_id", task.ID),
				zap.String("task_type", task.Type),
			)

			taskLog.Info(ctx, "Task processing started")
			start := time.Now()

			err := next.Process(ctx, task)

			taskLog = taskLog.With(zap.Duration("duration", time.Since(start)))

			if err != nil {
				taskLog.Error(ctx, "Task processing failed", zap.Error(err))
			} else {
				taskLog.Info(ctx, "Task processing completed")
			}

			return err
		})
	}
}
