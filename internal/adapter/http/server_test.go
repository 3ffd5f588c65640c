package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-risk-service/internal/aggregator"
	httpadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/http"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

type mockEngine struct {
	readyErr  error
	collect   *aggregator.WildfireContext
	threat    *aggregator.ThreatResult
	plume     *aggregator.PlumeResult
	risk      *aggregator.RiskReport
	err       error
	riskReq   aggregator.RiskRequest
	collected aggregator.CollectParams
}

func (m *mockEngine) Collect(_ context.Context, p aggregator.CollectParams) (*aggregator.WildfireContext, error) {
	m.collected = p
	return m.collect, m.err
}

func (m *mockEngine) EvaluateSmokeThreat(_ context.Context, p aggregator.CollectParams) (*aggregator.ThreatResult, error) {
	m.collected = p
	return m.threat, m.err
}

func (m *mockEngine) ComputePlume(_ context.Context, _ aggregator.PlumeRequest) (*aggregator.PlumeResult, error) {
	return m.plume, m.err
}

func (m *mockEngine) AssessRisk(_ context.Context, req aggregator.RiskRequest) (*aggregator.RiskReport, error) {
	m.riskReq = req
	return m.risk, m.err
}

func (m *mockEngine) CheckReadiness(_ context.Context) error { return m.readyErr }

func newTestServer(engine *mockEngine) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", engine, logger)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockEngine{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(&mockEngine{})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		srv := newTestServer(&mockEngine{readyErr: fmt.Errorf("stations unreachable")})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "stations unreachable")
	})
}

func TestOverviewEndpoint(t *testing.T) {
	engine := &mockEngine{collect: &aggregator.WildfireContext{
		Latitude: 41.5, Longitude: -74.0, RadiusKM: 100,
		Summary: aggregator.Summary{FireCount: 2, Statement: "2 fires detected nearby."},
	}}
	srv := newTestServer(engine)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/wildfire/overview",
		strings.NewReader(`{"lat":41.5,"lon":-74.0,"radius_km":100}`))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 41.5, engine.collected.Lat, 0.001)
	assert.InDelta(t, 100.0, engine.collected.RadiusKM, 0.001)

	var body aggregator.WildfireContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Summary.FireCount)
}

func TestSmokeRiskEndpoint(t *testing.T) {
	engine := &mockEngine{threat: &aggregator.ThreatResult{
		Threats:   []aggregator.FireThreat{{Hours: 0.5, DistanceKM: 4.0}},
		Statement: "Smoke from 1 fire(s) may reach your location.",
	}}
	srv := newTestServer(engine)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/wildfire/smoke-risk",
		strings.NewReader(`{"lat":41.5,"lon":-74.0}`))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body aggregator.ThreatResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Threats, 1)
	assert.InDelta(t, 0.5, body.Threats[0].Hours, 0.001)
}

func TestPlumeEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &mockEngine{plume: &aggregator.PlumeResult{SourceTag: "approx_cone_v1"}}
		srv := newTestServer(engine)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/plume",
			strings.NewReader(`{"lat":41.5,"lon":-74.0,"hours":[1]}`))
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body aggregator.PlumeResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "approx_cone_v1", body.SourceTag)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(&mockEngine{})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/plume", strings.NewReader(`{not json`))
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRiskAssessmentEndpoint(t *testing.T) {
	report := &aggregator.RiskReport{Highest: 53.0, Average: 53.0, Level: domain.RiskHigh}

	t.Run("by station id", func(t *testing.T) {
		engine := &mockEngine{risk: report}
		srv := newTestServer(engine)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fire-risk/assessment?station_id=30003", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, engine.riskReq.StationID)
		assert.Equal(t, int64(30003), *engine.riskReq.StationID)
	})

	t.Run("by location with station count", func(t *testing.T) {
		engine := &mockEngine{risk: report}
		srv := newTestServer(engine)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fire-risk/assessment?lat=41.5&lon=-74.0&stations=3", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, engine.riskReq.Lat)
		assert.InDelta(t, 41.5, *engine.riskReq.Lat, 0.001)
		assert.Equal(t, 3, engine.riskReq.Stations)
	})

	t.Run("missing anchor", func(t *testing.T) {
		srv := newTestServer(&mockEngine{risk: report})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fire-risk/assessment", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"outside bounds", domain.ErrOutsideBounds, http.StatusBadRequest},
		{"provider unavailable", domain.ErrProviderUnavailable, http.StatusBadGateway},
		{"no observations", domain.ErrNoObservations, http.StatusNotFound},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&mockEngine{err: tc.err})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/wildfire/overview",
				strings.NewReader(`{"lat":41.5,"lon":-74.0}`))
			srv.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
