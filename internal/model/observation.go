package model

import "slices"

// Scenario identifies a forecast scenario.
type Scenario string

const (
	ScenarioBaseline  Scenario = "baseline"
	ScenarioUpside    Scenario = "upside"
	ScenarioDownside  Scenario = "downside"
	ScenarioPrincipal Scenario = "principal"
	ScenarioHigh      Scenario = "high"
	ScenarioLow       Scenario = "low"
)

// Scenarios lists every known scenario with baseline first.
var Scenarios = []Scenario{
	ScenarioBaseline,
	ScenarioUpside,
	ScenarioDownside,
	ScenarioPrincipal,
	ScenarioHigh,
	ScenarioLow,
}

// Valid reports whether s is a known scenario.
func (s Scenario) Valid() bool {
	return slices.Contains(Scenarios, s)
}

// Metric identifiers in the catalogue.
const (
	MetricPopulation       = "population_total"
	MetricWorkingAge       = "population_16_64"
	MetricJobs             = "emp_total_jobs"
	MetricGVA              = "nominal_gva_mn_gbp"
	MetricGDHIPerHead      = "gdhi_per_head_gbp"
	MetricEmploymentRate   = "emp_rate_pct"
	MetricUnemploymentRate = "unemp_rate_pct"
)

// MetricDataPoint is a single yearly value of a metric.
type MetricDataPoint struct {
	Year     int      `json:"year"`
	Value    float64  `json:"value"`
	Scenario Scenario `json:"scenario,omitempty"`
}

// MetricValue is the classifier view of one metric at one year.
// Nil fields mean the input is not available.
type MetricValue struct {
	Current   *float64 `json:"current"`
	Growth5yr *float64 `json:"growth_5yr"`
	Previous  *float64 `json:"previous,omitempty"` // one year earlier; trend framing only
}

// MetricValues maps metric id to its value for a single evaluation year and scenario.
type MetricValues map[string]MetricValue

// Current returns the current value for a metric, or nil.
func (m MetricValues) Current(metricID string) *float64 {
	v, ok := m[metricID]
	if !ok {
		return nil
	}
	return v.Current
}

// Growth returns the 5-year growth for a metric, or nil.
func (m MetricValues) Growth(metricID string) *float64 {
	v, ok := m[metricID]
	if !ok {
		return nil
	}
	return v.Growth5yr
}

// Previous returns the prior-year value for a metric, or nil.
func (m MetricValues) Previous(metricID string) *float64 {
	v, ok := m[metricID]
	if !ok {
		return nil
	}
	return v.Previous
}

// ForecastTimeSeries maps metric id to per-scenario yearly series.
type ForecastTimeSeries map[string]map[Scenario][]MetricDataPoint

// ScenariosPresent returns the scenarios that carry at least one series,
// baseline first, then in catalogue order.
func (f ForecastTimeSeries) ScenariosPresent() []Scenario {
	seen := make(map[Scenario]bool)
	for _, byScenario := range f {
		for sc, pts := range byScenario {
			if len(pts) > 0 {
				seen[sc] = true
			}
		}
	}
	var out []Scenario
	for _, sc := range Scenarios {
		if seen[sc] {
			out = append(out, sc)
		}
	}
	return out
}

// ValueAt returns the value of a metric in a scenario for the given year.
func (f ForecastTimeSeries) ValueAt(metricID string, sc Scenario, year int) (float64, bool) {
	for _, p := range f[metricID][sc] {
		if p.Year == year {
			return p.Value, true
		}
	}
	return 0, false
}

// HasSeries reports whether a metric has any points for the scenario.
func (f ForecastTimeSeries) HasSeries(metricID string, sc Scenario) bool {
	return len(f[metricID][sc]) > 0
}

// DataType distinguishes observed from projected rows.
type DataType string

const (
	DataTypeHistorical DataType = "historical"
	DataTypeForecast   DataType = "forecast"
)

// Observation is a stored metric row for one region, period and scenario.
type Observation struct {
	RegionCode  string   `json:"region_code"`
	MetricID    string   `json:"metric_id"`
	Period      int      `json:"time_period"`
	Scenario    Scenario `json:"scenario"`
	Value       *float64 `json:"value"`
	CILower     *float64 `json:"confidence_lower,omitempty"`
	CIUpper     *float64 `json:"confidence_upper,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	DataType    DataType `json:"data_type,omitempty"`
	DataQuality string   `json:"data_quality,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
