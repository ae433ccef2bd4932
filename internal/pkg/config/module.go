package config

import "go.uber.org/fx"

// Params holds the optional inputs for building the config
type Params struct {
	fx.In

	Source *Source `optional:"true"`
}

// Module exports the config module for FX
var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// NewConfig loads the configuration from the supplied Source, or from the
// default search paths when none was supplied
func NewConfig(p Params) (*Config, error) {
	if p.Source == nil {
		return Load(Source{})
	}
	return Load(*p.Source)
}

// WithSource supplies the Source used by Module
func WithSource(src Source) fx.Option {
	return fx.Supply(&src)
}
