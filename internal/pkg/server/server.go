package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// HeaderCorrelationID carries the correlation chain on requests and responses
const HeaderCorrelationID = "X-Correlation-ID"

// Limits on an incoming correlation chain. A header over either limit is
// ignored and the request starts a chain of its own.
const (
	MaxIncomingChainLen   = 32
	MaxIncomingSegmentLen = 128
)

// Server wraps Echo server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
}

// NewEchoServer creates a new Echo server instance
func NewEchoServer(cfg *config.Config, log *logger.Logger, scoper *correlation.Scoper) *Server {
	e := echo.New()

	// Hide Echo banner
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second

	setupMiddleware(e, log, scoper)

	e.GET("/health", healthCheckHandler)

	return &Server{
		echo:   e,
		config: cfg,
		logger: log,
	}
}

// setupMiddleware configures Echo middleware
func setupMiddleware(e *echo.Echo, log *logger.Logger, scoper *correlation.Scoper) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(CorrelationMiddleware(scoper))
	e.Use(requestLoggerMiddleware(log))
}

// CorrelationMiddleware opens a correlation scope for every request.
//
// An incoming X-Correlation-ID header is taken as the parent chain, so a
// caller that already tracks a chain sees this request nested under it. The
// request's own chain is echoed back in the response header.
func CorrelationMiddleware(scoper *correlation.Scoper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			if chain, ok := incomingChain(req.Header.Get(HeaderCorrelationID)); ok {
				ctx, _ = correlation.Install(ctx, chain)
			}

			return correlation.ScopeErrWith(scoper, func(ctx context.Context) error {
				c.SetRequest(req.WithContext(ctx))
				c.Response().Header().Set(HeaderCorrelationID, correlation.Current(ctx).String())
				return next(c)
			})(ctx)
		}
	}
}

// incomingChain parses a client-supplied chain, rejecting one that is empty
// or over the incoming limits
func incomingChain(header string) (correlation.Chain, bool) {
	if header == "" || len(header) > MaxIncomingChainLen*(MaxIncomingSegmentLen+1) {
		return nil, false
	}
	chain := correlation.Parse(header)
	if chain.Len() == 0 || chain.Len() > MaxIncomingChainLen {
		return nil, false
	}
	for _, id := range chain {
		if len(id) > MaxIncomingSegmentLen {
			return nil, false
		}
	}
	return chain, true
}

// requestLoggerMiddleware creates a custom logger middleware
func requestLoggerMiddleware(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()
			log.Info(req.Context(), "HTTP request",
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			)

			return err
		}
	}
}

// healthCheckHandler handles health check requests
func healthCheckHandler(c echo.Context) error {
	return SuccessResponse(c, http.StatusOK, map[string]string{"status": "ok"}, "Server is healthy")
}

// GetEcho returns the Echo instance
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server", zap.String("address", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Response is a standard API response structure
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	Message string      `json:"message"`
}

// SuccessResponse creates a success response
func SuccessResponse(c echo.Context, statusCode int, data interface{}, message string) error {
	return c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// ErrorResponse creates an error response
func ErrorResponse(c echo.Context, statusCode int, err interface{}, message string) error {
	return c.JSON(statusCode, Response{
		Success: false,
		Error:   err,
		Message: message,
	})
}
