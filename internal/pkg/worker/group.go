package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// DefaultConcurrency is used when NewGroup receives a non-positive limit
const DefaultConcurrency = 10

// Result is the outcome of one task run by a Group
type Result struct {
	TaskID   string
	Chain    correlation.Chain
	Err      error
	Duration time.Duration
}

// Group runs tasks through a handler concurrently, with bounded
// concurrency. Every task runs in its own correlation scope forked from the
// context it was submitted with.
type Group struct {
	handler Handler
	scoper  *correlation.Scoper
	logger  *logger.Logger
	sema    chan struct{}

	mu      sync.Mutex
	pending []pending
}

type pending struct {
	taskID string
	task   *correlation.Task[time.Duration]
	err    error // set when the task never started
}

// NewGroup creates a Group running at most concurrency tasks at once
func NewGroup(handler Handler, concurrency int, scoper *correlation.Scoper, log *logger.Logger) *Group {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if scoper == nil {
		scoper = correlation.Default()
	}

	return &Group{
		handler: handler,
		scoper:  scoper,
		logger:  log,
		sema:    make(chan struct{}, concurrency),
	}
}

// Submit starts task once a concurrency slot is free. If ctx ends while
// waiting for a slot the task is not started and its Result carries
// ctx.Err().
func (g *Group) Submit(ctx context.Context, task *Task) {
	select {
	case g.sema <- struct{}{}:
	case <-ctx.Done():
		g.logger.Warn(ctx, "Task canceled before start",
			zap.String("task_id", task.ID),
			zap.Error(ctx.Err()),
		)
		g.append(pending{taskID: task.ID, err: ctx.Err()})
		return
	}

	t := correlation.GoWith(ctx, g.scoper, func(ctx context.Context) (time.Duration, error) {
		defer func() { <-g.sema }()

		start := time.Now()
		err := g.handler.Process(ctx, task)
		return time.Since(start), err
	})
	g.append(pending{taskID: task.ID, task: t})
}

func (g *Group) append(p pending) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, p)
}

// Wait waits for every submitted task and returns their results in
// submission order, together with the joined task errors. If ctx ends first,
// tasks still running are reported with ctx.Err() and left to finish on
// their own.
func (g *Group) Wait(ctx context.Context) ([]Result, error) {
	g.mu.Lock()
	tasks := g.pending
	g.pending = nil
	g.mu.Unlock()

	results := make([]Result, 0, len(tasks))
	var errs []error
	for _, p := range tasks {
		res := Result{TaskID: p.taskID, Err: p.err}
		if p.task != nil {
			res.Chain = p.task.Chain()
			res.Duration, res.Err = p.task.Wait(ctx)
		}
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", res.TaskID, res.Err))
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}
