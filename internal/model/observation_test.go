package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScenarioValid(t *testing.T) {
	t.Parallel()

	for _, sc := range Scenarios {
		assert.True(t, sc.Valid(), string(sc))
	}
	assert.False(t, Scenario("optimistic").Valid())
	assert.False(t, Scenario("").Valid())
}

func TestMetricValuesAccessors(t *testing.T) {
	t.Parallel()

	mv := MetricValues{
		MetricJobs: {Current: Float(1200), Growth5yr: Float(1.5), Previous: Float(1180)},
	}

	assert.InDelta(t, 1200, *mv.Current(MetricJobs), 0.001)
	assert.InDelta(t, 1.5, *mv.Growth(MetricJobs), 0.001)
	assert.InDelta(t, 1180, *mv.Previous(MetricJobs), 0.001)
	assert.Nil(t, mv.Current(MetricGVA))
	assert.Nil(t, mv.Growth(MetricGVA))
	assert.Nil(t, mv.Previous(MetricGVA))
}

func TestForecastTimeSeries(t *testing.T) {
	t.Parallel()

	f := ForecastTimeSeries{
		MetricJobs: {
			ScenarioBaseline: {{Year: 2025, Value: 100}, {Year: 2026, Value: 101}},
			ScenarioLow:      {{Year: 2025, Value: 99}},
			ScenarioHigh:     nil,
		},
		MetricGVA: {
			ScenarioUpside: {{Year: 2025, Value: 5000}},
		},
	}

	assert.Equal(t, []Scenario{ScenarioBaseline, ScenarioUpside, ScenarioLow}, f.ScenariosPresent())

	v, ok := f.ValueAt(MetricJobs, ScenarioBaseline, 2026)
	assert.True(t, ok)
	assert.InDelta(t, 101, v, 0.001)

	_, ok = f.ValueAt(MetricJobs, ScenarioBaseline, 2030)
	assert.False(t, ok)

	assert.True(t, f.HasSeries(MetricJobs, ScenarioLow))
	assert.False(t, f.HasSeries(MetricJobs, ScenarioHigh))
	assert.False(t, f.HasSeries(MetricPopulation, ScenarioBaseline))
}

func TestMetricCatalogue(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for _, m := range MetricCatalogue() {
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.Unit)
		assert.False(t, ids[m.ID], "duplicate metric %s", m.ID)
		ids[m.ID] = true
	}
	assert.Len(t, ids, 7)
}
