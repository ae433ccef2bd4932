package worker

import (
	"context"
)

// Handler defines the interface for processing tasks
type Handler interface {
	// Process executes the task logic
	Process(ctx context.Context, task *Task) error
}

// HandlerFunc is a function adapter that implements the Handler interface
type HandlerFunc func(ctx context.Context, task *Task) error

// Process implements the Handler interface
func (f HandlerFunc) Process(ctx context.Context, task *Task) error {
	return f(ctx, task)
}

// Middleware is a function that wraps a Handler with additional functionality
type Middleware func(Handler) Handler

// Chain combines multiple middlewares into a single middleware; the first
// one is the outermost
func Chain(middlewares ...Middleware) Middleware {
	return func(handler Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}
