package worker

import "errors"

var (
	// ErrTaskTimeout is returned when a task outlives its Timeout
	ErrTaskTimeout = errors.New("worker: task timeout exceeded")

	// ErrTaskPanicked wraps a panic recovered from a handler
	ErrTaskPanicked = errors.New("worker: task handler panicked")
)
