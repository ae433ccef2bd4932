package logger

import (
	"context"
	"log/slog"

	"github.com/jtougas/lost-connection/internal/pkg/config"

	"go.uber.org/fx"
)

// Module exports the logger module for FX
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
	fx.Invoke(registerHooks),
)

// registerHooks routes slog's default logger through the record hook and
// flushes the zap logger on shutdown
func registerHooks(lc fx.Lifecycle, cfg *config.Config, log *Logger) {
	slog.SetDefault(NewSlogLogger(cfg))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync on stdout/stderr returns EINVAL on some platforms
			_ = log.Sync()
			return nil
		},
	})
}
