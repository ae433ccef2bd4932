package probe

import (
	"github.com/jtougas/lost-connection/internal/pkg/logger"
	"github.com/jtougas/lost-connection/internal/pkg/rate"

	"github.com/labstack/echo/v4"
)

// RegisterProbeRoutes registers probe routes. Each round costs count SSH
// logins against the target, so rounds are rate limited per client.
func RegisterProbeRoutes(e *echo.Echo, handler *ProbeHandler, limiter *rate.Limiter, log *logger.Logger) {
	probeGroup := e.Group("/api/v1/probes")
	probeGroup.Use(rate.Middleware(limiter, log, nil))

	probeGroup.POST("", handler.RunRound)
}
