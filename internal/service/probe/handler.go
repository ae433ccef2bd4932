package probe

import (
	"errors"
	"net/http"

	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"
	"github.com/jtougas/lost-connection/internal/pkg/server"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RoundResponse is the body returned for a probe round
type RoundResponse struct {
	CorrelationID string    `json:"correlation_id"`
	Target        string    `json:"target"`
	Outcomes      []Outcome `json:"outcomes"`
}

// ProbeHandler handles probe HTTP requests
type ProbeHandler struct {
	service *Service
	logger  *logger.Logger
}

// NewProbeHandler creates a new probe handler
func NewProbeHandler(service *Service, log *logger.Logger) *ProbeHandler {
	return &ProbeHandler{
		service: service,
		logger:  log,
	}
}

// RunRound handles a request to probe the configured target once
func (h *ProbeHandler) RunRound(c echo.Context) error {
	ctx := c.Request().Context()

	outcomes, err := h.service.Round(ctx)
	resp := RoundResponse{
		CorrelationID: correlation.Current(ctx).String(),
		Target:        h.service.Target().Addr(),
		Outcomes:      outcomes,
	}

	switch {
	case err == nil:
		return server.SuccessResponse(c, http.StatusOK, resp, "All probes succeeded")
	case errors.Is(err, ErrRoundFailed):
		return c.JSON(http.StatusOK, server.Response{
			Success: false,
			Data:    resp,
			Error:   err.Error(),
			Message: "Some probes failed",
		})
	default:
		h.logger.Error(ctx, "Failed to run probe round", zap.Error(err))
		return server.ErrorResponse(c, http.StatusInternalServerError, err.Error(), "Failed to run probe round")
	}
}
