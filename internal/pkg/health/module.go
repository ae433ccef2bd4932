package health

import (
	"context"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"
	"github.com/jtougas/lost-connection/internal/pkg/server"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProviderGroup is the fx value group health providers are collected from
const ProviderGroup = `group:"health_providers"`

// Module exports the health module for FX
var Module = fx.Module("health",
	fx.Provide(NewHealthService),
	fx.Invoke(registerRoutes),
)

// HealthServiceParams defines the dependencies for the health service
type HealthServiceParams struct {
	fx.In

	Config    *config.Config
	Logger    *logger.Logger
	Scoper    *correlation.Scoper
	Providers []Provider `group:"health_providers"`
}

// NewHealthService constructs a health service over every provider in the
// health_providers group
func NewHealthService(params HealthServiceParams) *Service {
	for _, p := range params.Providers {
		params.Logger.Debug(context.Background(), "Registered health provider", zap.String("provider", p.Name()))
	}
	return NewService(params.Providers, params.Config.Health.CheckTimeout, params.Scoper, params.Logger)
}

// AsProvider annotates a constructor so its result joins the health
// providers group
func AsProvider(constructor interface{}) interface{} {
	return fx.Annotate(constructor,
		fx.As(new(Provider)),
		fx.ResultTags(ProviderGroup),
	)
}

func registerRoutes(srv *server.Server, service *Service) {
	srv.GetEcho().GET("/health/ready", ReadinessHandler(service))
}
