package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/errorsx"
	"github.com/jtougas/lost-connection/internal/pkg/logger"
	"github.com/jtougas/lost-connection/internal/pkg/retry"
	"github.com/jtougas/lost-connection/internal/pkg/worker"

	"go.uber.org/zap"
)

// TaskType labels probe tasks in logs and metrics
const TaskType = "ssh_probe"

// Outcome is the result of one probe in a round
type Outcome struct {
	TaskID        string        `json:"task_id"`
	CorrelationID string        `json:"correlation_id"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// OK reports whether the probe logged in before its timeout
func (o Outcome) OK() bool {
	return o.Status == worker.StatusSuccess
}

// Service probes an SSH target
type Service struct {
	cfg      config.ProbeConfig
	target   Target
	dialer   Dialer
	scoper   *correlation.Scoper
	logger   *logger.Logger
	metrics  *worker.MetricsCollector
	pipeline worker.Handler
}

// NewService creates a probe service for the configured target
func NewService(cfg *config.Config, dialer Dialer, scoper *correlation.Scoper, log *logger.Logger, metrics *worker.MetricsCollector) *Service {
	s := &Service{
		cfg:     cfg.Probe,
		target:  TargetFromConfig(cfg.Probe),
		dialer:  dialer,
		scoper:  scoper,
		logger:  log,
		metrics: metrics,
	}

	s.pipeline = worker.Chain(
		worker.RecoveryMiddleware(log),
		worker.LoggingMiddleware(log),
		worker.MetricsMiddleware(metrics),
		worker.TimeoutMiddleware(log),
	)(worker.HandlerFunc(s.handleTask))

	return s
}

// Target returns the configured target
func (s *Service) Target() Target {
	return s.target
}

// Probe connects to target and logs in, retrying transient failures. Each
// attempt runs in its own correlation scope nested under ctx's chain.
func (s *Service) Probe(ctx context.Context, target Target) error {
	policy := retry.FromConfig(s.cfg.Retry)
	policy.OnRetry = func(ctx context.Context, attempt int, err error, delay time.Duration) {
		s.logger.Warn(ctx, "Probe attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	attempt := correlation.ScopeWith(s.scoper, func(ctx context.Context) (struct{}, error) {
		conn, err := s.dialer.Dial(ctx, target)
		if err != nil {
			return struct{}{}, err
		}
		defer conn.Close()

		s.logger.Info(ctx, "Ready to use connection",
			zap.String("addr", target.Addr()),
			zap.String("server_version", conn.ServerVersion()),
		)
		return struct{}{}, nil
	})

	_, err := retry.Do(ctx, policy, attempt, errorsx.IsRetryable)
	if err != nil {
		s.logger.Info(ctx, "handle exception",
			zap.String("error_type", errorType(err)),
			zap.Error(err),
		)
	}
	return err
}

// handleTask is the worker handler behind the probe pipeline
func (s *Service) handleTask(ctx context.Context, task *worker.Task) error {
	var target Target
	if err := task.Decode(&target); err != nil {
		return errorsx.WrapPermanent(err)
	}
	// the password never goes into the payload
	target.Password = s.target.Password

	return s.Probe(ctx, target)
}

// Round launches cfg.Count probes of the configured target concurrently,
// each bounded by cfg.Timeout, and reports one Outcome per probe.
// A probe that times out is abandoned, not awaited.
func (s *Service) Round(ctx context.Context) ([]Outcome, error) {
	group := worker.NewGroup(s.pipeline, s.cfg.Concurrency, s.scoper, s.logger)

	for i := 0; i < s.cfg.Count; i++ {
		task, err := worker.NewTask(fmt.Sprintf("probe-%d", i+1), TaskType, s.target, s.cfg.Timeout)
		if err != nil {
			return nil, err
		}
		group.Submit(ctx, task)
	}

	results, _ := group.Wait(ctx)

	outcomes := make([]Outcome, 0, len(results))
	succeeded := 0
	for _, res := range results {
		o := Outcome{
			TaskID:        res.TaskID,
			CorrelationID: res.Chain.String(),
			Status:        worker.StatusOf(res.Err),
			Duration:      res.Duration,
		}
		if res.Err != nil {
			o.Error = res.Err.Error()
		} else {
			succeeded++
		}
		outcomes = append(outcomes, o)
	}

	s.logger.Info(ctx, "Probe round finished",
		zap.String("target", s.target.Addr()),
		zap.Int("probes", len(outcomes)),
		zap.Int("succeeded", succeeded),
	)

	if succeeded < len(outcomes) {
		return outcomes, fmt.Errorf("%w: %d of %d probes did not succeed", ErrRoundFailed, len(outcomes)-succeeded, len(outcomes))
	}
	return outcomes, nil
}

// ErrRoundFailed is returned by Round when any probe failed or timed out
var ErrRoundFailed = errors.New("probe round failed")

// errorType names the underlying error's type for the "handle exception"
// log. errorsx markers are joined ahead of the error they mark.
func errorType(err error) string {
	for {
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			errs := u.Unwrap()
			if len(errs) == 0 {
				return fmt.Sprintf("%T", err)
			}
			err = errs[len(errs)-1]
		case interface{ Unwrap() error }:
			next := u.Unwrap()
			if next == nil {
				return fmt.Sprintf("%T", err)
			}
			err = next
		default:
			return fmt.Sprintf("%T", err)
		}
	}
}
