package probe

import (
	"context"
	"fmt"
	"sync"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Watcher runs a probe round on every tick of a cron schedule
type Watcher struct {
	service *Service
	scoper  *correlation.Scoper
	logger  *logger.Logger
	cron    *cron.Cron
	spec    string

	// ctx is cancelled by Stop so an in-flight round is abandoned
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	rounds int
}

// NewWatcher creates a watcher for the configured schedule. The spec accepts
// standard five-field cron expressions and descriptors such as "@every 30s".
func NewWatcher(cfg *config.Config, service *Service, scoper *correlation.Scoper, log *logger.Logger) (*Watcher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		service: service,
		scoper:  scoper,
		logger:  log,
		spec:    cfg.Schedule.Spec,
		ctx:     ctx,
		cancel:  cancel,
	}

	cronLog := cronLogger{log: log}
	w.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := w.cron.AddFunc(w.spec, func() { _ = w.Tick(w.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", w.spec, err)
	}

	return w, nil
}

// Tick runs one round in its own correlation scope
func (w *Watcher) Tick(ctx context.Context) error {
	return correlation.ScopeErrWith(w.scoper, func(ctx context.Context) error {
		w.mu.Lock()
		w.rounds++
		round := w.rounds
		w.mu.Unlock()

		w.logger.Info(ctx, "Scheduled probe round", zap.Int("round", round))

		_, err := w.service.Round(ctx)
		if err != nil {
			w.logger.Warn(ctx, "Scheduled probe round failed", zap.Int("round", round), zap.Error(err))
		}
		return err
	})(ctx)
}

// Rounds returns how many rounds have been started
func (w *Watcher) Rounds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rounds
}

// Start starts the schedule in the background
func (w *Watcher) Start() {
	w.logger.Info(w.ctx, "Starting probe watcher", zap.String("schedule", w.spec))
	w.cron.Start()
}

// Stop stops the schedule and waits for a running round to return or for
// ctx to end
func (w *Watcher) Stop(ctx context.Context) error {
	w.cancel()
	done := w.cron.Stop()

	select {
	case <-done.Done():
		w.logger.Info(ctx, "Probe watcher stopped", zap.Int("rounds", w.Rounds()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts Logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(context.Background(), "cron: "+msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(context.Background(), "cron: "+msg, zap.Error(err), zap.Any("details", keysAndValues))
}
