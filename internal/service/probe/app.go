package probe

import (
	"context"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/health"
	"github.com/jtougas/lost-connection/internal/pkg/logger"
	"github.com/jtougas/lost-connection/internal/pkg/rate"
	"github.com/jtougas/lost-connection/internal/pkg/server"
	"github.com/jtougas/lost-connection/internal/pkg/worker"

	"go.uber.org/fx"
)

// ProbeApp provides the probe service and its infrastructure, without any
// long-running component
var ProbeApp = fx.Options(
	// Infrastructure modules
	config.Module,
	logger.Module,
	correlation.Module,
	worker.Module,

	// Probe service components
	fx.Provide(
		fx.Annotate(NewSSHDialer, fx.As(new(Dialer))),
		NewService,
	),

	fx.Invoke(registerMetricsReport),
)

// ProbeWatchApp runs probe rounds on the configured schedule
var ProbeWatchApp = fx.Options(
	ProbeApp,

	fx.Provide(NewWatcher),
	fx.Invoke(startWatcher),
)

// ProbeServerApp serves probe rounds over HTTP
var ProbeServerApp = fx.Options(
	ProbeApp,
	server.Module,
	health.Module,
	rate.Module,

	fx.Provide(
		NewProbeHandler,
		health.AsProvider(NewTargetHealthProvider),
	),
	fx.Invoke(registerProbeRoutes),
)

// registerProbeRoutes registers probe routes on the Echo server
func registerProbeRoutes(srv *server.Server, handler *ProbeHandler, limiter *rate.Limiter, log *logger.Logger) {
	RegisterProbeRoutes(srv.GetEcho(), handler, limiter, log)
}

// startWatcher ties the watcher to the app lifecycle
func startWatcher(lc fx.Lifecycle, w *Watcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return w.Stop(ctx)
		},
	})
}

// registerMetricsReport logs the task counters on shutdown
func registerMetricsReport(lc fx.Lifecycle, metrics *worker.MetricsCollector) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			metrics.LogMetrics(ctx)
			return nil
		},
	})
}
