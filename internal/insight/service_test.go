package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/regioniq/insight-cli/internal/lens"
	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/peer"
	"github.com/regioniq/insight-cli/internal/persistence"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/signal"
)

// --- Metric provider mock ---

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) FetchCurrentAndGrowth(ctx context.Context, regionCode string, metricIDs []string, year int) (model.MetricValues, error) {
	args := m.Called(ctx, regionCode, metricIDs, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.MetricValues), args.Error(1)
}

// --- Forecast provider mock ---

type mockForecasts struct {
	mock.Mock
}

func (m *mockForecasts) FetchForecastSeries(ctx context.Context, regionCode string, metricIDs []string) (model.ForecastTimeSeries, error) {
	args := m.Called(ctx, regionCode, metricIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.ForecastTimeSeries), args.Error(1)
}

func mv(current, growth float64) model.MetricValue {
	return model.MetricValue{Current: model.Float(current), Growth5yr: model.Float(growth)}
}

// londonSnapshot classifies as an extreme-density, high-productivity,
// tight-labour, job-led economy.
func londonSnapshot() model.MetricValues {
	return model.MetricValues{
		model.MetricJobs:             mv(3_500_000, 2.0),
		model.MetricWorkingAge:       mv(1_000_000, 0.5),
		model.MetricPopulation:       mv(1_500_000, 1.0),
		model.MetricGVA:              mv(280_000, 3.0),
		model.MetricGDHIPerHead:      mv(30_000, 2.5),
		model.MetricEmploymentRate:   {Current: model.Float(80)},
		model.MetricUnemploymentRate: {Current: model.Float(4.0)},
	}
}

func flatDensityForecast() model.ForecastTimeSeries {
	jobs := make([]model.MetricDataPoint, 0)
	workingAge := make([]model.MetricDataPoint, 0)
	for y := 2019; y <= 2035; y++ {
		jobs = append(jobs, model.MetricDataPoint{Year: y, Value: 3_500_000, Scenario: model.ScenarioBaseline})
		workingAge = append(workingAge, model.MetricDataPoint{Year: y, Value: 1_000_000, Scenario: model.ScenarioBaseline})
	}
	return model.ForecastTimeSeries{
		model.MetricJobs:       {model.ScenarioBaseline: jobs},
		model.MetricWorkingAge: {model.ScenarioBaseline: workingAge},
	}
}

func newTestService(metrics *mockMetrics, forecasts *mockForecasts) *Service {
	return NewService(metrics, forecasts, region.NewHierarchy(nil, nil), signal.DefaultCatalog(), persistence.DefaultHorizon)
}

func TestBuild(t *testing.T) {
	metrics := new(mockMetrics)
	forecasts := new(mockForecasts)

	metrics.On("FetchCurrentAndGrowth", mock.Anything, "UKI", mock.Anything, 2024).Return(londonSnapshot(), nil).Once()
	metrics.On("FetchCurrentAndGrowth", mock.Anything, "UK", []string{model.MetricJobs}, 2024).
		Return(model.MetricValues{model.MetricJobs: mv(33_000_000, 1.2)}, nil).Once()
	metrics.On("FetchCurrentAndGrowth", mock.Anything, mock.Anything, []string{model.MetricJobs}, 2024).
		Return(model.MetricValues{model.MetricJobs: mv(1_000_000, 1.0)}, nil).Times(11)
	forecasts.On("FetchForecastSeries", mock.Anything, "UKI", mock.Anything).Return(flatDensityForecast(), nil).Once()

	resp, err := newTestService(metrics, forecasts).Build(context.Background(), Request{Region: "E12000007", Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, "UKI", resp.RegionCode)
	assert.Equal(t, model.LevelITL1, resp.Level)
	assert.Equal(t, lens.LensGeneral, resp.Lens)
	assert.Equal(t, signal.CatalogVersion, resp.CatalogVersion)
	assert.Equal(t, PeerContext{ParentName: "United Kingdom", PeerGroupLabel: "UK regions", PeerCount: 11}, resp.PeerContext)

	require.Len(t, resp.Signals, 6)
	assert.Equal(t, "employment_density", resp.Signals[0].ID)
	assert.Equal(t, signal.OutcomeExtreme, resp.Signals[0].Outcome)
	assert.Equal(t, "Major employment hub drawing 3.50 jobs per working-age resident through 2035", resp.Signals[0].Conclusion)

	require.Len(t, resp.Persistence, 6)
	assert.Equal(t, persistence.HoldsInAll, resp.Persistence[0].HoldsIn)
	// No GVA forecast: productivity reads neutral from the first forecast year.
	require.NotNil(t, resp.Persistence[1].FirstChangeYear)
	assert.Equal(t, 2025, *resp.Persistence[1].FirstChangeYear)
	assert.NotContains(t, resp.Signals[1].Conclusion, "through")

	require.NotNil(t, resp.Archetype)
	assert.Equal(t, "major_employment_hub", resp.Archetype.ID)
	assert.Equal(t, 1.0, resp.Archetype.Strength)

	require.NotNil(t, resp.MetricInsights)
	assert.Equal(t, model.MetricJobs, resp.MetricInsights.MetricID)
	assert.Equal(t, 1, resp.MetricInsights.Rank.Position)
	assert.Equal(t, 12, resp.MetricInsights.Rank.Total)
	require.NotNil(t, resp.MetricInsights.Growth)
	assert.Equal(t, peer.GrowthStrong, resp.MetricInsights.Growth.Band)
	assert.Equal(t, 1.2, *resp.MetricInsights.Growth.NationalAvg)
	assert.Equal(t, []string{
		"Employment: 1st of 12 UK regions",
		"Employment growing 1.0pp a year faster than UK regions",
	}, resp.MetricInsights.Highlights)

	assert.Equal(t, "logistics_labour_competition", resp.Logistics.Lead.ID)
	assert.Equal(t, "general_at_capacity", resp.Positioning.Lead.ID)

	metrics.AssertExpectations(t)
	forecasts.AssertExpectations(t)
}

func TestBuild_ProviderFailureIsFatal(t *testing.T) {
	metrics := new(mockMetrics)
	forecasts := new(mockForecasts)

	metrics.On("FetchCurrentAndGrowth", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.MetricValues{}, nil)
	forecasts.On("FetchForecastSeries", mock.Anything, "UKD", mock.Anything).
		Return(nil, errors.New("connection refused"))

	resp, err := newTestService(metrics, forecasts).Build(context.Background(), Request{Region: "UKD", Year: 2024})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "insight: fetch forecast for UKD")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBuild_PeerFailureIsFatal(t *testing.T) {
	metrics := new(mockMetrics)
	forecasts := new(mockForecasts)

	metrics.On("FetchCurrentAndGrowth", mock.Anything, "UKC", mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))
	metrics.On("FetchCurrentAndGrowth", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.MetricValues{}, nil)
	forecasts.On("FetchForecastSeries", mock.Anything, mock.Anything, mock.Anything).
		Return(model.ForecastTimeSeries{}, nil)

	_, err := newTestService(metrics, forecasts).Build(context.Background(), Request{Region: "UKD", Year: 2024})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insight: fetch peer UKC")
}

func TestBuild_EmptySnapshot(t *testing.T) {
	metrics := new(mockMetrics)
	forecasts := new(mockForecasts)

	metrics.On("FetchCurrentAndGrowth", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.MetricValues{}, nil)
	forecasts.On("FetchForecastSeries", mock.Anything, mock.Anything, mock.Anything).
		Return(model.ForecastTimeSeries{}, nil)

	resp, err := newTestService(metrics, forecasts).Build(context.Background(), Request{Region: "UKK", Year: 2024, Lens: lens.LensRetail})
	require.NoError(t, err)

	assert.Empty(t, resp.Signals)
	assert.Empty(t, resp.Persistence)
	assert.Nil(t, resp.MetricInsights)
	require.NotNil(t, resp.Archetype)
	assert.Equal(t, "balanced_economy", resp.Archetype.ID)
	assert.Len(t, resp.Logistics.Items(), 1)
	assert.Len(t, resp.Positioning.Items(), 1)
	assert.Equal(t, lens.LensRetail, resp.Lens)
}

func TestBuild_InvalidRequests(t *testing.T) {
	svc := newTestService(new(mockMetrics), new(mockForecasts))

	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{"missing year", Request{Region: "UKI"}, "year is required"},
		{"unknown metric", Request{Region: "UKI", Year: 2024, Metric: "footfall"}, `unknown metric "footfall"`},
		{"unknown region", Request{Region: "E09999999", Year: 2024}, "insight: resolve region E09999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Build(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
