package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// Task outcome labels recorded by MetricsMiddleware
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// MetricsCollector holds basic metrics for worker tasks
type MetricsCollector struct {
	mu            sync.RWMutex
	taskProcessed map[string]map[string]int64 // taskType -> status -> count
	taskDurations map[string][]time.Duration  // taskType -> durations
	logger        *logger.Logger
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(log *logger.Logger) *MetricsCollector {
	return &MetricsCollector{
		taskProcessed: make(map[string]map[string]int64),
		taskDurations: make(map[string][]time.Duration),
		logger:        log,
	}
}

// RecordTask records task processing metrics
func (mc *MetricsCollector) RecordTask(taskType, status string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.taskProcessed[taskType] == nil {
		mc.taskProcessed[taskType] = make(map[string]int64)
	}
	mc.taskProcessed[taskType][status]++

	// Keep the last 1000 durations per type
	mc.taskDurations[taskType] = append(mc.taskDurations[taskType], duration)
	if len(mc.taskDurations[taskType]) > 1000 {
		mc.taskDurations[taskType] = mc.taskDurations[taskType][1:]
	}
}

// Count returns how many tasks of taskType ended with status
func (mc *MetricsCollector) Count(taskType, status string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.taskProcessed[taskType][status]
}

// LogMetrics logs current metrics
func (mc *MetricsCollector) LogMetrics(ctx context.Context) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	for taskType, statuses := range mc.taskProcessed {
		for status, count := range statuses {
			mc.logger.Info(ctx, "Task metrics",
				zap.String("task_type", taskType),
				zap.String("status", status),
				zap.Int64("count", count),
			)
		}
	}
}

// StatusOf maps a handler result to a status label
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrTaskTimeout):
		return StatusTimeout
	default:
		return StatusError
	}
}

// MetricsMiddleware creates a middleware that collects basic metrics
func MetricsMiddleware(collector *MetricsCollector) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, task *Task) error {
			taskType := task.Type
			if taskType == "" {
				taskType = "unknown"
			}

			start := time.Now()
			err := next.Process(ctx, task)

			collector.RecordTask(taskType, StatusOf(err), time.Since(start))

			return err
		})
	}
}
