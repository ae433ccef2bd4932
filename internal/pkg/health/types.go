package health

import (
	"context"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates the component is healthy
	StatusUp Status = "UP"
	// StatusDown indicates the component is unhealthy
	StatusDown Status = "DOWN"
	// StatusDegraded indicates the component is partially healthy
	StatusDegraded Status = "DEGRADED"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name          string                 `json:"name"`
	Status        Status                 `json:"status"`
	CorrelationID string                 `json:"correlation_id"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CheckedAt     time.Time              `json:"checked_at"`
	Error         string                 `json:"error,omitempty"`
}

// Provider is implemented by every component that reports its health
type Provider interface {
	// Name returns the name of the provider
	Name() string
	// Check performs the health check and returns the result
	Check(ctx context.Context) CheckResult
}

// Response is the JSON response for the readiness endpoint
type Response struct {
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}
