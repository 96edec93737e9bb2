package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/regioniq/insight-cli/internal/config"
	"github.com/regioniq/insight-cli/internal/insight"
	"github.com/regioniq/insight-cli/internal/lens"
	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/store"
)

type mockInsights struct {
	mock.Mock
}

func (m *mockInsights) Build(ctx context.Context, req insight.Request) (*insight.Response, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*insight.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	var obs []model.Observation
	for year := 2021; year <= 2023; year++ {
		obs = append(obs, model.Observation{
			RegionCode: "E12000007", MetricID: model.MetricJobs, Period: year,
			Value: model.Float(float64(year)), Unit: "jobs", DataType: model.DataTypeHistorical,
		})
	}
	for year := 2024; year <= 2026; year++ {
		obs = append(obs, model.Observation{
			RegionCode: "E12000007", MetricID: model.MetricJobs, Period: year,
			Value: model.Float(float64(year)), CILower: model.Float(float64(year) - 10), CIUpper: model.Float(float64(year) + 10),
			Unit: "jobs", DataType: model.DataTypeForecast,
		})
	}
	_, err = st.UpsertObservations(context.Background(), obs)
	require.NoError(t, err)
	return st
}

func newTestServer(t *testing.T, st store.Store, ins InsightBuilder) *Server {
	t.Helper()
	s := NewServer(Deps{
		Store:    st,
		Insights: ins,
		Regions:  region.NewHierarchy(nil, nil),
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit:      1000,
			RateBurst:      1000,
			MaxQueryCost:   DefaultMaxCost,
		},
		Forecast: config.ForecastConfig{Vintage: "2026-W03", Source: "RegionIQ Forecast Engine v1", Status: "provisional"},
	})
	s.now = func() time.Time { return time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorPayload {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestServer(t, nil, nil).Routes()

	rr := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))

	rr = do(t, h, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var v map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, "2026-W03", v["forecast_vintage"])
	assert.Equal(t, "v1", v["api_version"])
	assert.Equal(t, "dev", v["build"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t, nil, nil).Routes()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
}

func TestNotFound(t *testing.T) {
	rr := do(t, newTestServer(t, nil, nil).Routes(), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rr).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil, nil).Routes()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/schema", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSchema(t *testing.T) {
	st := newTestStore(t)
	rr := do(t, newTestServer(t, st, nil).Routes(), http.MethodGet, "/api/v1/schema", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body SchemaResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "v1", body.Version)
	assert.Equal(t, "provisional", body.Status)
	assert.Equal(t, "2026-01-15T09:00:00Z", body.GeneratedAt)
	require.Len(t, body.Regions, 12)
	assert.Equal(t, "UKC", body.Regions[0].Code)
	assert.Equal(t, "UK", body.Regions[0].ParentCode)
	assert.Equal(t, model.GeoSchema, body.Regions[0].GeoSchema)
	assert.Equal(t, TimeCoverage{MinYear: 2021, MaxYear: 2026}, body.TimeCoverage)
	assert.Equal(t, []model.Scenario{"baseline", "upside", "downside"}, body.Scenarios)
	for i := 1; i < len(body.Metrics); i++ {
		assert.Less(t, body.Metrics[i-1].ID, body.Metrics[i].ID)
	}
}

func TestSchema_EmptyStoreUsesDefaultCoverage(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	rr := do(t, newTestServer(t, st, nil).Routes(), http.MethodGet, "/api/v1/schema", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body SchemaResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, TimeCoverage{MinYear: 1991, MaxYear: 2050}, body.TimeCoverage)
}

func TestInsight(t *testing.T) {
	ins := new(mockInsights)
	want := &insight.Response{RegionCode: "UKI", Level: model.LevelITL1, Year: 2024, Lens: lens.LensOffice}
	ins.On("Build", mock.Anything, insight.Request{Region: "UKI", Year: 2024, Metric: model.MetricJobs, Lens: lens.LensOffice}).
		Return(want, nil)

	rr := do(t, newTestServer(t, nil, ins).Routes(), http.MethodGet, "/api/v1/insights/UKI?year=2024&lens=office", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got insight.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "UKI", got.RegionCode)
	assert.Equal(t, lens.LensOffice, got.Lens)
	ins.AssertExpectations(t)
}

func TestInsight_ConfiguredDefaultLens(t *testing.T) {
	ins := new(mockInsights)
	ins.On("Build", mock.Anything, insight.Request{Region: "UKI", Year: 2024, Metric: model.MetricJobs, Lens: lens.LensRetail}).
		Return(&insight.Response{RegionCode: "UKI", Lens: lens.LensRetail}, nil)

	s := newTestServer(t, nil, ins)
	s.engine = config.EngineConfig{DefaultLens: "retail"}

	rr := do(t, s.Routes(), http.MethodGet, "/api/v1/insights/UKI?year=2024", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	ins.AssertExpectations(t)
}

func TestInsight_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"missing year", "/api/v1/insights/UKI", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad year", "/api/v1/insights/UKI?year=abc", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown metric", "/api/v1/insights/UKI?year=2024&metric=widgets", http.StatusBadRequest, "UNKNOWN_METRIC"},
		{"bad lens", "/api/v1/insights/UKI?year=2024&lens=castle", http.StatusBadRequest, "INVALID_LENS"},
		{"unknown region", "/api/v1/insights/UKX?year=2024", http.StatusNotFound, "REGION_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := new(mockInsights)
			rr := do(t, newTestServer(t, nil, ins).Routes(), http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rr).Code)
			ins.AssertNotCalled(t, "Build", mock.Anything, mock.Anything)
		})
	}
}

func TestInsight_BuildFailure(t *testing.T) {
	ins := new(mockInsights)
	ins.On("Build", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	rr := do(t, newTestServer(t, nil, ins).Routes(), http.MethodGet, "/api/v1/insights/UKI?year=2024", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "DATA_UNAVAILABLE", decodeError(t, rr).Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.limiters = newClientLimiters(0.001, 1)
	h := s.Routes()

	first := do(t, h, http.MethodGet, "/api/v1/insights/UKI", nil)
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := do(t, h, http.MethodGet, "/api/v1/insights/UKI", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Code)

	health := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestClientLimiters_EvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	c := newClientLimiters(1, 1)
	c.now = func() time.Time { return now }
	c.lastSweep = now

	first := c.get("10.0.0.1")
	c.get("10.0.0.2")
	assert.Equal(t, 2, c.size())
	assert.Same(t, first, c.get("10.0.0.1"))

	now = now.Add(limiterIdleTTL + time.Second)
	c.get("10.0.0.3")
	assert.Equal(t, 1, c.size())
	assert.NotSame(t, first, c.get("10.0.0.1"))
	assert.Equal(t, 2, c.size())
}
