package logger

import (
	"context"
	"log/slog"
	"os"
	"slices"

	"github.com/jtougas/lost-connection/internal/pkg/config"

	"go.uber.org/zap/zapcore"
)

// contextHandler applies the record hook to log/slog records, so libraries
// logging through slog carry the same fields as the zap logger.
type contextHandler struct {
	slog.Handler
}

// NewSlogHandler wraps inner with the record hook
func NewSlogHandler(inner slog.Handler) slog.Handler {
	return &contextHandler{Handler: inner}
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := hookFields(ctx)
	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}

		// sorted so identical contexts yield identical records
		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			r.AddAttrs(slog.Any(k, enc.Fields[k]))
		}
	}

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

// NewSlogLogger builds a slog logger writing to stderr at the configured
// level, in the configured format, with the record hook applied
func NewSlogLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Logger.Format == "json" {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(NewSlogHandler(inner))
}
