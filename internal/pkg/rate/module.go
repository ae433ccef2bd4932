package rate

import (
	"github.com/jtougas/lost-connection/internal/pkg/config"

	"go.uber.org/fx"
)

// Module exports the rate limiter module for FX
var Module = fx.Module("rate",
	fx.Provide(NewLimiterFromConfig),
)

// NewLimiterFromConfig creates the limiter, or returns nil when rate
// limiting is disabled
func NewLimiterFromConfig(cfg *config.Config) (*Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	return New(Config{
		Rate:     cfg.RateLimit.Rate,
		Burst:    cfg.RateLimit.Burst,
		Interval: cfg.RateLimit.Interval,
	})
}
