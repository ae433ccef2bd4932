package probe

import (
	"context"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/health"
)

// TargetHealthProvider reports whether the configured target accepts a login
type TargetHealthProvider struct {
	service *Service
}

// NewTargetHealthProvider creates a readiness check against the probe target
func NewTargetHealthProvider(service *Service) *TargetHealthProvider {
	return &TargetHealthProvider{service: service}
}

// Name returns the name of the provider
func (p *TargetHealthProvider) Name() string {
	return "ssh-target"
}

// Check runs a single probe
func (p *TargetHealthProvider) Check(ctx context.Context) health.CheckResult {
	start := time.Now()
	err := p.service.Probe(ctx, p.service.Target())

	result := health.CheckResult{
		Name:   p.Name(),
		Status: health.StatusUp,
		Details: map[string]interface{}{
			"target":     p.service.Target().Addr(),
			"latency_ms": time.Since(start).Milliseconds(),
		},
		CheckedAt: time.Now(),
	}
	if err != nil {
		result.Status = health.StatusDown
		result.Error = err.Error()
	}
	return result
}
