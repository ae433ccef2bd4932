package correlation

import (
	"context"

	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
)

// Field names written by the log hook
const (
	FieldName      = "correlation_id"
	FieldNameUpper = "CORRELATION_ID"
)

// HookOptions configures the log hook
type HookOptions struct {
	// UpperAlias also writes the chain as CORRELATION_ID
	UpperAlias bool
}

// LogFields returns the correlation_id field for the chain active in ctx.
// The field is always present; it is empty when no scope is open.
func LogFields(ctx context.Context) []zap.Field {
	return []zap.Field{zap.String(FieldName, load(ctx).String())}
}

// NewLogHook returns the record hook that writes the active chain
func NewLogHook(opts HookOptions) logger.RecordHook {
	if !opts.UpperAlias {
		return LogFields
	}
	return func(ctx context.Context) []zap.Field {
		value := load(ctx).String()
		return []zap.Field{
			zap.String(FieldName, value),
			zap.String(FieldNameUpper, value),
		}
	}
}

// RegisterLogHook installs the correlation hook as the process-wide record
// hook. Calling it again replaces the previous registration.
func RegisterLogHook(opts HookOptions) {
	logger.OnRecordCreated(NewLogHook(opts))
}
