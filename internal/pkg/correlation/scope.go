package correlation

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// Func is a unit of work. Inputs are captured by the closure.
type Func[T any] func(ctx context.Context) (T, error)

// Scoper opens correlation scopes using its identifier generator
type Scoper struct {
	gen Generator
	log *logger.Logger
}

// Option configures a Scoper
type Option func(*Scoper)

// WithGenerator sets the identifier generator
func WithGenerator(gen Generator) Option {
	return func(s *Scoper) {
		s.gen = gen
	}
}

// WithLogger enables debug records on scope entry and exit
func WithLogger(log *logger.Logger) Option {
	return func(s *Scoper) {
		s.log = log
	}
}

// NewScoper creates a Scoper that generates UUIDs unless told otherwise
func NewScoper(opts ...Option) *Scoper {
	s := &Scoper{gen: UUIDGenerator{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = UUIDGenerator{}
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

var defaultScoper atomic.Pointer[Scoper]

func init() {
	defaultScoper.Store(NewScoper())
}

// Default returns the Scoper used by the package-level functions
func Default() *Scoper {
	return defaultScoper.Load()
}

// SetDefault replaces the Scoper used by the package-level functions
func SetDefault(s *Scoper) {
	if s != nil {
		defaultScoper.Store(s)
	}
}

// Enter opens a scope: it extends the chain in ctx by one fresh identifier
// and returns the child context together with the function that closes the
// scope. Work inside the scope must use the child context; ctx keeps the
// parent chain throughout. Enter never blocks.
func (s *Scoper) Enter(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}

	parent := load(ctx)
	id := s.gen.Generate()
	child, _ := Install(ctx, parent.Append(id))

	s.log.Debug(child, "correlation scope entered", zap.Int("depth", len(parent)+1))

	var closed atomic.Bool
	exit := func() {
		if !closed.CompareAndSwap(false, true) {
			return
		}
		s.log.Debug(ctx, "correlation scope exited", zap.String("scope_id", id))
	}
	return child, exit
}

// Scope wraps fn with the default Scoper. See ScopeWith.
func Scope[T any](fn Func[T]) Func[T] {
	return ScopeWith(Default(), fn)
}

// ScopeWith wraps fn so every call runs in a new correlation scope on the
// caller's goroutine. Results, errors and panics from fn pass through
// unchanged; the scope is closed on every exit path.
func ScopeWith[T any](s *Scoper, fn Func[T]) Func[T] {
	return func(ctx context.Context) (T, error) {
		child, exit := s.Enter(ctx)
		defer exit()

		return fn(child)
	}
}

// ScopeErr is Scope for work that only returns an error
func ScopeErr(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return ScopeErrWith(Default(), fn)
}

// ScopeErrWith is ScopeWith for work that only returns an error
func ScopeErrWith(s *Scoper, fn func(ctx context.Context) error) func(ctx context.Context) error {
	scoped := ScopeWith(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return func(ctx context.Context) error {
		_, err := scoped(ctx)
		return err
	}
}

// Task is work running on its own goroutine inside its own scope
type Task[T any] struct {
	chain Chain
	done  chan struct{}
	val   T
	err   error
}

// Go starts fn with the default Scoper. See GoWith.
func Go[T any](ctx context.Context, fn Func[T]) *Task[T] {
	return GoWith(ctx, Default(), fn)
}

// GoWith starts fn on a new goroutine in a new correlation scope.
//
// The scope is opened before the goroutine starts, so each call gets its own
// fork of the caller's chain no matter how the goroutines are scheduled.
// fn runs with a context derived from ctx: cancelling ctx cancels fn's
// context too. A panic in fn is recovered and reported by Wait as a
// *PanicError.
func GoWith[T any](ctx context.Context, s *Scoper, fn Func[T]) *Task[T] {
	child, exit := s.Enter(ctx)
	t := &Task[T]{
		chain: load(child),
		done:  make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer exit()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error(child, "correlation task panicked", zap.Any("panic", r))
				t.err = &PanicError{Value: r, Stack: debug.Stack(), Chain: t.chain}
			}
		}()

		t.val, t.err = fn(child)
	}()

	return t
}

// ScopeAsync wraps fn so every call starts it with Go
func ScopeAsync[T any](fn Func[T]) func(ctx context.Context) *Task[T] {
	return ScopeAsyncWith(Default(), fn)
}

// ScopeAsyncWith wraps fn so every call starts it with GoWith
func ScopeAsyncWith[T any](s *Scoper, fn Func[T]) func(ctx context.Context) *Task[T] {
	return func(ctx context.Context) *Task[T] {
		return GoWith(ctx, s, fn)
	}
}

// Wait blocks until the task finishes or ctx is done, whichever comes
// first. When ctx ends first Wait returns ctx.Err() right away and the task
// is abandoned; it keeps running with its own chain until fn returns.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	default:
	}

	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the task has finished and its scope is closed
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Chain returns the chain the task runs under
func (t *Task[T]) Chain() Chain {
	return t.chain.Clone()
}

// ID returns the identifier the task's scope appended
func (t *Task[T]) ID() string {
	return t.chain.Last()
}
