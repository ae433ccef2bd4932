package rate

import (
	"net/http"
	"strconv"

	"github.com/jtougas/lost-connection/internal/pkg/logger"
	"github.com/jtougas/lost-connection/internal/pkg/server"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// KeyFunc extracts the rate limit key from a request
type KeyFunc func(c echo.Context) string

// DefaultKeyFunc keys requests by client IP
func DefaultKeyFunc(c echo.Context) string {
	return c.RealIP()
}

// Middleware rejects requests over the limit with 429. A nil limiter lets
// everything through.
func Middleware(limiter *Limiter, log *logger.Logger, keyFunc KeyFunc) echo.MiddlewareFunc {
	if keyFunc == nil {
		keyFunc = DefaultKeyFunc
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}

		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := keyFunc(c)

			result, err := limiter.Allow(ctx, key)
			if err != nil {
				return server.ErrorResponse(c, http.StatusServiceUnavailable, err.Error(), "Rate limiter unavailable")
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				retryAfter := int64(result.RetryAfter.Seconds()) + 1
				header.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				log.Warn(ctx, "Rate limit exceeded",
					zap.String("key", key),
					zap.Duration("retry_after", result.RetryAfter),
				)
				return server.ErrorResponse(c, http.StatusTooManyRequests,
					map[string]int64{"retry_after": retryAfter}, "Rate limit exceeded")
			}

			return next(c)
		}
	}
}
