package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regioniq/insight-cli/internal/model"
)

func mustLookup(t *testing.T, id string) Config {
	t.Helper()
	cfg, ok := DefaultCatalog().Lookup(id)
	require.True(t, ok, "signal %s not in catalog", id)
	return cfg
}

func densityMetrics(jobs, workingAge float64) model.MetricValues {
	return model.MetricValues{
		model.MetricJobs:       {Current: model.Float(jobs)},
		model.MetricWorkingAge: {Current: model.Float(workingAge)},
	}
}

func TestComputeSignal_EmploymentDensityTiers(t *testing.T) {
	cfg := mustLookup(t, "employment_density")

	tests := []struct {
		name  string
		jobs  float64
		want  Outcome
		value float64
	}{
		{"extreme beats high", 350, OutcomeExtreme, 3.5},
		{"at extreme threshold", 300, OutcomeExtreme, 3.0},
		{"high", 120, OutcomeHigh, 1.2},
		{"at high threshold", 100, OutcomeHigh, 1.0},
		{"low", 50, OutcomeLow, 0.5},
		{"at low threshold", 80, OutcomeLow, 0.8},
		{"neutral", 90, OutcomeNeutral, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeSignal(cfg, densityMetrics(tt.jobs, 100))
			assert.Equal(t, tt.want, res.Outcome)
			require.NotNil(t, res.Value)
			assert.InDelta(t, tt.value, *res.Value, 1e-9)
			assert.NotEmpty(t, res.Conclusion)
			assert.Equal(t, "employment_density", res.ID)
			assert.Equal(t, "Employment density", res.Label)
		})
	}
}

func TestComputeSignal_ConclusionAndDetailTemplates(t *testing.T) {
	cfg := mustLookup(t, "employment_density")

	res := ComputeSignal(cfg, densityMetrics(350, 100))
	assert.Equal(t, "Major employment hub drawing 3.50 jobs per working-age resident", res.Conclusion)
	assert.Equal(t, "Jobs per working-age resident 3.50 (hub ≥ 3.00, importer ≥ 1.00, commuter base ≤ 0.80)", res.Detail)
}

func TestComputeSignal_RatioMissingInputs(t *testing.T) {
	cfg := mustLookup(t, "employment_density")

	tests := []struct {
		name    string
		metrics model.MetricValues
	}{
		{"no metrics", model.MetricValues{}},
		{"denominator missing", model.MetricValues{model.MetricJobs: {Current: model.Float(100)}}},
		{"numerator missing", model.MetricValues{model.MetricWorkingAge: {Current: model.Float(100)}}},
		{"zero denominator", densityMetrics(100, 0)},
		{"negative denominator", densityMetrics(100, -5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeSignal(cfg, tt.metrics)
			assert.Equal(t, OutcomeNeutral, res.Outcome)
			assert.Nil(t, res.Value)
			assert.Empty(t, res.Conclusion)
			assert.Contains(t, res.Detail, "not available")
		})
	}
}

func TestComputeSignal_Productivity(t *testing.T) {
	cfg := mustLookup(t, "productivity")

	// 5,000 £m over 60,000 jobs = £83,333 per job.
	res := ComputeSignal(cfg, model.MetricValues{
		model.MetricGVA:  {Current: model.Float(5000)},
		model.MetricJobs: {Current: model.Float(60000)},
	})
	require.NotNil(t, res.Value)
	assert.InDelta(t, 83333.33, *res.Value, 0.01)
	assert.Equal(t, OutcomeHigh, res.Outcome)
	assert.Contains(t, res.Conclusion, "£83,333")
}

func TestComputeSignal_IncomeCapture(t *testing.T) {
	cfg := mustLookup(t, "income_capture")

	// GVA per head = 3,000 £m * 1e6 / 100,000 people = £30,000.
	base := func(gdhi float64) model.MetricValues {
		return model.MetricValues{
			model.MetricGDHIPerHead: {Current: model.Float(gdhi)},
			model.MetricGVA:         {Current: model.Float(3000)},
			model.MetricPopulation:  {Current: model.Float(100000)},
		}
	}

	tests := []struct {
		name string
		gdhi float64
		want Outcome
	}{
		{"extreme high", 33000, OutcomeExtremeHigh},
		{"high", 25500, OutcomeHigh},
		{"neutral", 20000, OutcomeNeutral},
		{"low", 13500, OutcomeLow},
		{"extreme low", 6000, OutcomeExtremeLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeSignal(cfg, base(tt.gdhi))
			assert.Equal(t, tt.want, res.Outcome)
			require.NotNil(t, res.Value)
			assert.InDelta(t, tt.gdhi/30000, *res.Value, 1e-9)
		})
	}

	t.Run("population missing", func(t *testing.T) {
		m := base(20000)
		delete(m, model.MetricPopulation)
		res := ComputeSignal(cfg, m)
		assert.Nil(t, res.Value)
		assert.Equal(t, OutcomeNeutral, res.Outcome)
	})
}

func TestComputeSignal_RateDivergence(t *testing.T) {
	cfg := mustLookup(t, "labour_capacity")

	t.Run("primary missing forces neutral", func(t *testing.T) {
		res := ComputeSignal(cfg, model.MetricValues{
			model.MetricUnemploymentRate: {Current: model.Float(2.1)},
		})
		assert.Equal(t, OutcomeNeutral, res.Outcome)
		assert.Nil(t, res.Value)
		assert.Equal(t, "Employment rate data not available", res.Detail)
	})

	t.Run("primary only, tight", func(t *testing.T) {
		res := ComputeSignal(cfg, model.MetricValues{
			model.MetricEmploymentRate: {Current: model.Float(80.2)},
		})
		assert.Equal(t, OutcomeLow, res.Outcome)
		assert.Contains(t, res.Conclusion, "tight")
		assert.Contains(t, res.Detail, "unemployment rate not available")
	})

	t.Run("primary only, slack", func(t *testing.T) {
		res := ComputeSignal(cfg, model.MetricValues{
			model.MetricEmploymentRate: {Current: model.Float(70)},
		})
		assert.Equal(t, OutcomeHigh, res.Outcome)
	})

	t.Run("secondary never changes the outcome", func(t *testing.T) {
		withLow := ComputeSignal(cfg, model.MetricValues{
			model.MetricEmploymentRate:   {Current: model.Float(75)},
			model.MetricUnemploymentRate: {Current: model.Float(2.0)},
		})
		withHigh := ComputeSignal(cfg, model.MetricValues{
			model.MetricEmploymentRate:   {Current: model.Float(75)},
			model.MetricUnemploymentRate: {Current: model.Float(9.5)},
		})
		assert.Equal(t, OutcomeNeutral, withLow.Outcome)
		assert.Equal(t, withLow.Outcome, withHigh.Outcome)
		assert.Equal(t, withLow.Conclusion, withHigh.Conclusion)
		assert.NotEqual(t, withLow.Detail, withHigh.Detail)
	})

	t.Run("secondary trend in detail", func(t *testing.T) {
		res := ComputeSignal(cfg, model.MetricValues{
			model.MetricEmploymentRate:   {Current: model.Float(75)},
			model.MetricUnemploymentRate: {Current: model.Float(4.8), Previous: model.Float(4.1)},
		})
		assert.Equal(t, "Employment rate 75.0% (tight ≥ 78.0%, slack ≤ 72.0%); unemployment rate 4.8%, rising", res.Detail)
	})

	t.Run("not inverted", func(t *testing.T) {
		plain := cfg
		plain.Invert = false
		res := ComputeSignal(plain, model.MetricValues{
			model.MetricEmploymentRate: {Current: model.Float(80)},
		})
		assert.Equal(t, OutcomeHigh, res.Outcome)
	})
}

func TestRateTrend(t *testing.T) {
	tt := TrendThresholds{Rising: ptr(0.5), Falling: ptr(-0.5)}

	assert.Equal(t, OutcomeRising, RateTrend(model.Float(4.0), model.Float(4.5), tt))
	assert.Equal(t, OutcomeFalling, RateTrend(model.Float(4.0), model.Float(3.2), tt))
	assert.Equal(t, OutcomeNeutral, RateTrend(model.Float(4.0), model.Float(4.2), tt))
	assert.Equal(t, OutcomeNeutral, RateTrend(nil, model.Float(4.2), tt))
	assert.Equal(t, OutcomeNeutral, RateTrend(model.Float(4.0), nil, tt))
	assert.Equal(t, OutcomeNeutral, RateTrend(model.Float(4.0), model.Float(9), TrendThresholds{}))
}

func TestComputeSignal_GrowthComparison(t *testing.T) {
	cfg := mustLookup(t, "growth_composition")

	growth := func(jobs, pop *float64) model.MetricValues {
		return model.MetricValues{
			model.MetricJobs:       {Growth5yr: jobs},
			model.MetricPopulation: {Growth5yr: pop},
		}
	}

	tests := []struct {
		name string
		jobs float64
		pop  float64
		want Outcome
	}{
		{"jobs led", 1.6, 0.8, OutcomeHigh},
		{"at high threshold", 1.5, 1.0, OutcomeHigh},
		{"population led", 0.1, 0.9, OutcomeLow},
		{"at low threshold", 0.5, 1.0, OutcomeLow},
		{"in step", 0.9, 0.8, OutcomeNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeSignal(cfg, growth(model.Float(tt.jobs), model.Float(tt.pop)))
			assert.Equal(t, tt.want, res.Outcome)
			require.NotNil(t, res.Value)
			assert.InDelta(t, tt.jobs-tt.pop, *res.Value, 1e-9)
		})
	}

	t.Run("missing growth", func(t *testing.T) {
		res := ComputeSignal(cfg, growth(model.Float(1.0), nil))
		assert.Equal(t, OutcomeNeutral, res.Outcome)
		assert.Nil(t, res.Value)
	})
}

func TestComputeAllSignals_FiltersMissing(t *testing.T) {
	res := ComputeAllSignals(DefaultCatalog(), densityMetrics(120, 100))
	require.Len(t, res, 1)
	assert.Equal(t, "employment_density", res[0].ID)

	assert.Empty(t, ComputeAllSignals(DefaultCatalog(), model.MetricValues{}))
}

func TestComputeAllSignals_Idempotent(t *testing.T) {
	metrics := model.MetricValues{
		model.MetricJobs:             {Current: model.Float(120000), Growth5yr: model.Float(1.4)},
		model.MetricWorkingAge:       {Current: model.Float(100000)},
		model.MetricPopulation:       {Current: model.Float(160000), Growth5yr: model.Float(0.6)},
		model.MetricGVA:              {Current: model.Float(7000), Growth5yr: model.Float(3.1)},
		model.MetricGDHIPerHead:      {Current: model.Float(24000)},
		model.MetricEmploymentRate:   {Current: model.Float(79)},
		model.MetricUnemploymentRate: {Current: model.Float(3.4), Previous: model.Float(3.6)},
	}

	first := ComputeAllSignals(DefaultCatalog(), metrics)
	second := ComputeAllSignals(DefaultCatalog(), metrics)
	assert.Len(t, first, 6)
	assert.Equal(t, first, second)
}
