// Package correlation tracks a chain of correlation identifiers through a
// call tree.
//
// The chain lives in context.Context, which is the logical execution context
// in Go: whatever a function passes down, including to a new goroutine, is a
// fork of its own view. Chains are immutable once installed, so a fork can
// never observe identifiers appended by a sibling, and a caller's context
// still carries its own chain after any scoped call returns, whatever the
// exit path.
//
// Work is scoped with one of two constructors:
//
//	// synchronous: runs on the caller's goroutine
//	connect := correlation.Scope(func(ctx context.Context) (*Conn, error) { ... })
//
//	// concurrent: runs on its own goroutine with its own fork
//	task := correlation.Go(ctx, func(ctx context.Context) (bool, error) { ... })
//	ok, err := task.Wait(timeoutCtx)
//
// Log records pick the chain up through the hook registered with
// RegisterLogHook, which writes it as the correlation_id field.
package correlation
