package correlation

import "context"

type chainKey struct{}

// load returns the installed chain without copying it
func load(ctx context.Context) Chain {
	if ctx == nil {
		return nil
	}
	chain, _ := ctx.Value(chainKey{}).(Chain)
	return chain
}

// Current returns the chain active in ctx. It never fails: a context without
// a chain, or a nil context, yields an empty chain. The result is a copy the
// caller may modify freely.
func Current(ctx context.Context) Chain {
	return load(ctx).Clone()
}

// Install returns a context derived from ctx whose active chain is chain,
// along with the chain that was active in ctx.
//
// ctx itself is not modified: code still holding ctx keeps seeing the
// previous chain, which is what restores the caller once the derived context
// goes out of use.
func Install(ctx context.Context, chain Chain) (context.Context, Chain) {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := load(ctx)
	return context.WithValue(ctx, chainKey{}, chain.Clone()), prev.Clone()
}

// Fork attaches a private copy of the current chain to a context derived
// from ctx. Use it at points where work is handed to another goroutine
// without opening a new scope.
func Fork(ctx context.Context) context.Context {
	forked, _ := Install(ctx, load(ctx))
	return forked
}

// Detach is Fork for work that must outlive the caller: the returned context
// keeps the chain but is not cancelled when ctx is.
func Detach(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return Fork(context.WithoutCancel(ctx))
}
