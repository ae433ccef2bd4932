package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// RecordHook returns fields to attach to a log record, derived from the
// context the record is emitted under. It runs before the record reaches
// any sink.
type RecordHook func(ctx context.Context) []zap.Field

var recordHook atomic.Pointer[RecordHook]

// OnRecordCreated installs the process-wide record hook.
//
// There is a single slot: a later call replaces the earlier hook instead of
// chaining it, so registering the same hook twice never enriches a record
// twice. Passing nil removes the hook.
func OnRecordCreated(hook RecordHook) {
	if hook == nil {
		recordHook.Store(nil)
		return
	}
	recordHook.Store(&hook)
}

// hookFields returns the fields produced by the installed hook, if any
func hookFields(ctx context.Context) []zap.Field {
	h := recordHook.Load()
	if h == nil {
		return nil
	}
	return (*h)(ctx)
}

// enrich prepends the hook fields to the caller's fields
func enrich(ctx context.Context, fields []zap.Field) []zap.Field {
	extra := hookFields(ctx)
	if len(extra) == 0 {
		return fields
	}

	out := make([]zap.Field, 0, len(extra)+len(fields))
	out = append(out, extra...)
	return append(out, fields...)
}
