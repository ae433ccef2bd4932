package worker

import "go.uber.org/fx"

// Module exports the worker module for FX
var Module = fx.Module("worker",
	fx.Provide(NewMetricsCollector),
)
