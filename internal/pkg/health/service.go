package health

import (
	"context"
	"errors"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a check when no timeout is configured
const DefaultTimeout = 5 * time.Second

// Service runs health checks
type Service struct {
	providers []Provider
	timeout   time.Duration
	scoper    *correlation.Scoper
	logger    *logger.Logger
}

// NewService creates a health service over providers
func NewService(providers []Provider, timeout time.Duration, scoper *correlation.Scoper, log *logger.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if scoper == nil {
		scoper = correlation.Default()
	}

	return &Service{
		providers: providers,
		timeout:   timeout,
		scoper:    scoper,
		logger:    log,
	}
}

// Check runs every provider concurrently, each in its own correlation scope,
// and aggregates their statuses. A check that outlives the timeout is
// reported DOWN and left to finish on its own. A check that panics is
// reported DOWN with the panic as its error.
func (s *Service) Check(ctx context.Context) ([]CheckResult, Status) {
	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tasks := make([]*correlation.Task[CheckResult], len(s.providers))
	for i, p := range s.providers {
		p := p
		tasks[i] = correlation.GoWith(checkCtx, s.scoper, func(ctx context.Context) (CheckResult, error) {
			return p.Check(ctx), nil
		})
	}

	results := make([]CheckResult, len(s.providers))
	for i, task := range tasks {
		result, err := task.Wait(checkCtx)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, context.DeadlineExceeded) {
				reason = "health check timeout"
			}
			result = CheckResult{
				Name:      s.providers[i].Name(),
				Status:    StatusDown,
				CheckedAt: time.Now(),
				Error:     reason,
			}
			s.logger.Warn(ctx, "Health check did not finish",
				zap.String("provider", result.Name),
				zap.String("check_correlation_id", task.Chain().String()),
				zap.Error(err),
			)
		}
		result.CorrelationID = task.Chain().String()
		results[i] = result
	}

	return results, aggregate(results)
}

// Response runs the checks and formats the result
func (s *Service) Response(ctx context.Context) Response {
	results, status := s.Check(ctx)
	return Response{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// aggregate is DOWN if any check is down, DEGRADED if any is degraded and
// UP otherwise. No checks at all is UP.
func aggregate(results []CheckResult) Status {
	status := StatusUp
	for _, result := range results {
		switch result.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
