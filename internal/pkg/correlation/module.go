package correlation

import (
	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/fx"
)

// Module provides the Scoper, makes it the package default and installs the
// log hook
var Module = fx.Module("correlation",
	fx.Provide(NewScoperFromConfig),
	fx.Invoke(install),
)

// NewScoperFromConfig creates a Scoper using the configured id format
func NewScoperFromConfig(cfg *config.Config, log *logger.Logger) (*Scoper, error) {
	gen, err := NewGenerator(cfg.Correlation.IDFormat)
	if err != nil {
		return nil, err
	}
	return NewScoper(WithGenerator(gen), WithLogger(log)), nil
}

func install(cfg *config.Config, s *Scoper) {
	RegisterLogHook(HookOptions{UpperAlias: cfg.Logger.CorrelationUpperAlias})
	SetDefault(s)
}
