package store

import (
	"sort"

	"github.com/regioniq/insight-cli/internal/model"
)

// BuildForecastSeries groups observations into per-metric, per-scenario
// series sorted by year. Baseline rows feed the baseline series. Forecast
// baseline rows with confidence bounds also derive the upside (ci_upper) and
// downside (ci_lower) series, which carry the historical values so growth can
// be measured across the join. Rows stored under an explicit scenario win over
// derived points for the same year. Rows without a value are skipped.
func BuildForecastSeries(obs []model.Observation) model.ForecastTimeSeries {
	explicit := make(map[string]map[model.Scenario]map[int]float64)
	derived := make(map[string]map[model.Scenario]map[int]float64)
	historical := make(map[string]map[int]float64)
	hasBounds := make(map[string]map[model.Scenario]bool)

	put := func(m map[string]map[model.Scenario]map[int]float64, metric string, sc model.Scenario, year int, v float64) {
		if m[metric] == nil {
			m[metric] = make(map[model.Scenario]map[int]float64)
		}
		if m[metric][sc] == nil {
			m[metric][sc] = make(map[int]float64)
		}
		m[metric][sc][year] = v
	}
	markBound := func(metric string, sc model.Scenario) {
		if hasBounds[metric] == nil {
			hasBounds[metric] = make(map[model.Scenario]bool)
		}
		hasBounds[metric][sc] = true
	}

	for _, o := range obs {
		o = normalizeObservation(o)
		if o.Scenario != model.ScenarioBaseline {
			if o.Value != nil {
				put(explicit, o.MetricID, o.Scenario, o.Period, *o.Value)
			}
			continue
		}

		if o.Value != nil {
			put(explicit, o.MetricID, model.ScenarioBaseline, o.Period, *o.Value)
		}
		if o.DataType == model.DataTypeHistorical {
			if o.Value != nil {
				if historical[o.MetricID] == nil {
					historical[o.MetricID] = make(map[int]float64)
				}
				historical[o.MetricID][o.Period] = *o.Value
			}
			continue
		}
		if o.CIUpper != nil {
			put(derived, o.MetricID, model.ScenarioUpside, o.Period, *o.CIUpper)
			markBound(o.MetricID, model.ScenarioUpside)
		}
		if o.CILower != nil {
			put(derived, o.MetricID, model.ScenarioDownside, o.Period, *o.CILower)
			markBound(o.MetricID, model.ScenarioDownside)
		}
	}

	for metric, scenarios := range hasBounds {
		for sc := range scenarios {
			for year, v := range historical[metric] {
				if _, ok := derived[metric][sc][year]; !ok {
					put(derived, metric, sc, year, v)
				}
			}
		}
	}

	for metric, scenarios := range derived {
		for sc, points := range scenarios {
			for year, v := range points {
				if _, ok := explicit[metric][sc][year]; !ok {
					put(explicit, metric, sc, year, v)
				}
			}
		}
	}

	out := make(model.ForecastTimeSeries, len(explicit))
	for metric, scenarios := range explicit {
		out[metric] = make(map[model.Scenario][]model.MetricDataPoint, len(scenarios))
		for sc, points := range scenarios {
			series := make([]model.MetricDataPoint, 0, len(points))
			for year, v := range points {
				series = append(series, model.MetricDataPoint{Year: year, Value: v, Scenario: sc})
			}
			sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
			out[metric][sc] = series
		}
	}
	return out
}
