package probe

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/pkg/errorsx"
	"github.com/jtougas/lost-connection/internal/pkg/logger"
	"github.com/jtougas/lost-connection/internal/pkg/server"
	"github.com/jtougas/lost-connection/internal/pkg/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type roundBody struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    RoundResponse `json:"data"`
}

func serveRound(t *testing.T, f *fixture) (*httptest.ResponseRecorder, roundBody) {
	t.Helper()

	srv := server.NewEchoServer(config.Default(), logger.NewNop(), correlation.NewScoper())
	RegisterProbeRoutes(srv.GetEcho(), NewProbeHandler(f.svc, logger.NewNop()), nil, logger.NewNop())

	rec := httptest.NewRecorder()
	srv.GetEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/probes", nil))

	var body roundBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestProbeHandler_RunRound(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Probe.Count = 2
	})
	f.dialer.On("Dial", mock.Anything, mock.Anything).Return(&fakeConn{}, nil)

	rec, body := serveRound(t, f)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, rec.Header().Get(server.HeaderCorrelationID), body.Data.CorrelationID)
	assert.Equal(t, "localhost:22", body.Data.Target)

	requestChain := correlation.Parse(body.Data.CorrelationID)
	require.Equal(t, 1, requestChain.Len())
	require.Len(t, body.Data.Outcomes, 2)
	for _, o := range body.Data.Outcomes {
		assert.Equal(t, worker.StatusSuccess, o.Status)
		chain := correlation.Parse(o.CorrelationID)
		assert.Equal(t, 2, chain.Len())
		assert.True(t, chain.HasPrefix(requestChain))
	}
}

func TestProbeHandler_ReportsFailedProbes(t *testing.T) {
	f := newFixture(t, nil)
	f.dialer.On("Dial", mock.Anything, mock.Anything).
		Return(nil, errorsx.WrapPermanent(errors.New("unable to authenticate")))

	rec, body := serveRound(t, f)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Some probes failed", body.Message)
	require.Len(t, body.Data.Outcomes, 2)
	for _, o := range body.Data.Outcomes {
		assert.False(t, o.OK())
		assert.Contains(t, o.Error, "unable to authenticate")
	}
}
