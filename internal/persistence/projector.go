// Package persistence projects how long each signal's current outcome holds
// across forecast scenarios, and decides what may be disclosed about it.
package persistence

import (
	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/signal"
)

// DefaultHorizon is the last forecast year evaluated.
const DefaultHorizon = 2035

// HoldsIn summarises how robust a signal's outcome is across scenarios.
type HoldsIn string

const (
	HoldsInAll      HoldsIn = "all"
	HoldsInBaseline HoldsIn = "baseline"
	HoldsInMixed    HoldsIn = "mixed"
)

// robustWindow is the widest spread of change years still treated as agreement.
const robustWindow = 2

// Persistence is the projected lifetime of one signal outcome.
type Persistence struct {
	SignalID        string                  `json:"signal_id"`
	CurrentOutcome  signal.Outcome          `json:"current_outcome"`
	FirstChangeYear *int                    `json:"first_change_year"`
	HoldsIn         HoldsIn                 `json:"holds_in"`
	Horizon         int                     `json:"horizon"`
	Scenarios       map[model.Scenario]*int `json:"scenarios"`
}

// Projector re-runs the classifier over forecast years.
type Projector struct {
	Catalog signal.Catalog
	Horizon int
}

// NewProjector returns a projector over cat. A non-positive horizon selects
// DefaultHorizon.
func NewProjector(cat signal.Catalog, horizon int) *Projector {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Projector{Catalog: cat, Horizon: horizon}
}

func (p *Projector) horizon() int {
	if p.Horizon <= 0 {
		return DefaultHorizon
	}
	return p.Horizon
}

// ValuesForYear builds the classifier input for one scenario and year: the
// value at year, the 5-year CAGR ending at year and the value a year before.
// A metric without a series in scenario falls back to its baseline series.
func ValuesForYear(forecast model.ForecastTimeSeries, scenario model.Scenario, metrics []string, year int) model.MetricValues {
	out := make(model.MetricValues, len(metrics))
	for _, id := range metrics {
		sc := scenario
		if !forecast.HasSeries(id, sc) {
			sc = model.ScenarioBaseline
		}

		var mv model.MetricValue
		if v, ok := forecast.ValueAt(id, sc, year); ok {
			mv.Current = model.Float(v)
			if start, ok := forecast.ValueAt(id, sc, year-signal.GrowthYears); ok {
				mv.Growth5yr = model.Float(signal.CAGR(start, v, signal.GrowthYears))
			}
		}
		if v, ok := forecast.ValueAt(id, sc, year-1); ok {
			mv.Previous = model.Float(v)
		}
		if mv.Current == nil && mv.Previous == nil {
			continue
		}
		out[id] = mv
	}
	return out
}

// ComputeSignalPersistence finds, per scenario, the first year after baseYear
// whose outcome differs from current, and reduces those years to a HoldsIn.
// A year whose inputs are missing classifies as neutral like any other year,
// so a forecast that ends before the horizon changes there. Scenarios with no
// series for the signal's metrics are not evaluated. Unknown signals and
// forecasts without a reference scenario come back mixed.
func (p *Projector) ComputeSignalPersistence(signalID string, current signal.Outcome, forecast model.ForecastTimeSeries, baseYear int) Persistence {
	res := Persistence{
		SignalID:       signalID,
		CurrentOutcome: current,
		HoldsIn:        HoldsInMixed,
		Horizon:        p.horizon(),
		Scenarios:      make(map[model.Scenario]*int),
	}

	cfg, ok := p.Catalog.Lookup(signalID)
	if !ok {
		return res
	}
	metrics := cfg.Metrics()

	for _, sc := range forecast.ScenariosPresent() {
		if !covers(forecast, metrics, sc) {
			continue
		}
		res.Scenarios[sc] = p.firstChange(cfg, metrics, current, forecast, sc, baseYear)
	}

	ref, ok := referenceScenario(res.Scenarios)
	if !ok {
		return res
	}
	res.FirstChangeYear = res.Scenarios[ref]
	res.HoldsIn = holdsIn(ref, res.Scenarios)
	return res
}

// ComputeAll projects every result in signals.
func (p *Projector) ComputeAll(signals []signal.Result, forecast model.ForecastTimeSeries, baseYear int) map[string]Persistence {
	out := make(map[string]Persistence, len(signals))
	for _, s := range signals {
		out[s.ID] = p.ComputeSignalPersistence(s.ID, s.Outcome, forecast, baseYear)
	}
	return out
}

func (p *Projector) firstChange(cfg signal.Config, metrics []string, current signal.Outcome, forecast model.ForecastTimeSeries, sc model.Scenario, baseYear int) *int {
	for year := baseYear + 1; year <= p.horizon(); year++ {
		r := signal.ComputeSignal(cfg, ValuesForYear(forecast, sc, metrics, year))
		if r.Outcome != current {
			y := year
			return &y
		}
	}
	return nil
}

// covers reports whether any of metrics has a series in sc, directly or
// through the baseline fallback.
func covers(forecast model.ForecastTimeSeries, metrics []string, sc model.Scenario) bool {
	for _, id := range metrics {
		if forecast.HasSeries(id, sc) || forecast.HasSeries(id, model.ScenarioBaseline) {
			return true
		}
	}
	return false
}

// referenceScenario is baseline, or principal when a forecast uses the
// principal/high/low vocabulary.
func referenceScenario(byScenario map[model.Scenario]*int) (model.Scenario, bool) {
	for _, sc := range []model.Scenario{model.ScenarioBaseline, model.ScenarioPrincipal} {
		if _, ok := byScenario[sc]; ok {
			return sc, true
		}
	}
	return "", false
}

func holdsIn(ref model.Scenario, byScenario map[model.Scenario]*int) HoldsIn {
	if byScenario[ref] == nil {
		for _, change := range byScenario {
			if change != nil {
				return HoldsInBaseline
			}
		}
		return HoldsInAll
	}

	earliest, latest := 0, 0
	for _, change := range byScenario {
		if change == nil {
			continue
		}
		if earliest == 0 || *change < earliest {
			earliest = *change
		}
		if *change > latest {
			latest = *change
		}
	}
	if latest-earliest <= robustWindow {
		return HoldsInAll
	}
	return HoldsInMixed
}
