package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name   string
	status Status
	delay  time.Duration
}

func (p fakeProvider) Name() string { return p.name }

func (p fakeProvider) Check(ctx context.Context) CheckResult {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
		}
	}
	return CheckResult{
		Name:      p.name,
		Status:    p.status,
		Details:   map[string]interface{}{"chain": correlation.Current(ctx).String()},
		CheckedAt: time.Now(),
	}
}

type panickingProvider struct{}

func (panickingProvider) Name() string { return "broken" }

func (panickingProvider) Check(ctx context.Context) CheckResult {
	panic("nil pool")
}

func newTestService(timeout time.Duration, providers ...Provider) *Service {
	return NewService(providers, timeout, correlation.NewScoper(), logger.NewNop())
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{name: "none", statuses: nil, want: StatusUp},
		{name: "all up", statuses: []Status{StatusUp, StatusUp}, want: StatusUp},
		{name: "degraded", statuses: []Status{StatusUp, StatusDegraded}, want: StatusDegraded},
		{name: "down wins", statuses: []Status{StatusDegraded, StatusDown, StatusUp}, want: StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]CheckResult, len(tt.statuses))
			for i, st := range tt.statuses {
				results[i] = CheckResult{Status: st}
			}
			assert.Equal(t, tt.want, aggregate(results))
		})
	}
}

func TestCheck_EachProviderGetsOwnScope(t *testing.T) {
	s := newTestService(time.Second,
		fakeProvider{name: "a", status: StatusUp},
		fakeProvider{name: "b", status: StatusUp},
	)

	parent, _ := correlation.Install(context.Background(), correlation.Chain{"req"})
	results, status := s.Check(parent)

	assert.Equal(t, StatusUp, status)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, r.CorrelationID, r.Details["chain"])
		chain := correlation.Parse(r.CorrelationID)
		assert.Equal(t, 2, chain.Len())
		assert.Equal(t, "req", chain[0])
	}
	assert.NotEqual(t, results[0].CorrelationID, results[1].CorrelationID)
}

func TestCheck_SlowProviderIsDown(t *testing.T) {
	s := newTestService(20*time.Millisecond,
		fakeProvider{name: "fast", status: StatusUp},
		fakeProvider{name: "slow", status: StatusUp, delay: time.Minute},
	)

	start := time.Now()
	results, status := s.Check(context.Background())

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, StatusDown, status)
	assert.Equal(t, StatusUp, results[0].Status)
	assert.Equal(t, StatusDown, results[1].Status)
	assert.Equal(t, "health check timeout", results[1].Error)
	assert.NotEmpty(t, results[1].CorrelationID)
}

func TestCheck_PanickingProviderIsDownWithCause(t *testing.T) {
	s := newTestService(time.Second,
		fakeProvider{name: "ok", status: StatusUp},
		panickingProvider{},
	)

	results, status := s.Check(context.Background())

	assert.Equal(t, StatusDown, status)
	require.Len(t, results, 2)
	assert.Equal(t, StatusUp, results[0].Status)
	assert.Equal(t, "broken", results[1].Name)
	assert.Equal(t, StatusDown, results[1].Status)
	assert.NotEqual(t, "health check timeout", results[1].Error)
	assert.Contains(t, results[1].Error, "nil pool")
	assert.NotEmpty(t, results[1].CorrelationID)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		code   int
	}{
		{name: "up", status: StatusUp, code: http.StatusOK},
		{name: "degraded", status: StatusDegraded, code: http.StatusServiceUnavailable},
		{name: "down", status: StatusDown, code: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/health/ready", ReadinessHandler(newTestService(time.Second, fakeProvider{name: "p", status: tt.status})))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.code, rec.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
		})
	}
}
