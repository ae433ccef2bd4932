package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ReadinessHandler reports the aggregated checks. Only UP is ready.
func ReadinessHandler(service *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		response := service.Response(c.Request().Context())

		statusCode := http.StatusOK
		if response.Status != StatusUp {
			statusCode = http.StatusServiceUnavailable
		}

		return c.JSON(statusCode, response)
	}
}
