package signal

import (
	"math"
	"strings"

	"github.com/regioniq/insight-cli/internal/model"
)

const defaultMissingDetail = "Data not available"

// ComputeSignal evaluates one signal against a metric snapshot. It never
// fails: missing inputs yield a neutral outcome, a nil value, an empty
// conclusion and a "not available" detail.
func ComputeSignal(cfg Config, metrics model.MetricValues) Result {
	res := Result{
		ID:      cfg.ID,
		Label:   cfg.Label,
		Outcome: OutcomeNeutral,
	}

	vars := thresholdVars(cfg)

	switch cfg.Kind {
	case KindRatio:
		res.Value = ratioValue(cfg, metrics)
		if res.Value != nil {
			res.Outcome = tier(*res.Value, cfg.Thresholds)
		}
	case KindRateDivergence:
		res.Value = metrics.Current(cfg.Primary)
		if res.Value != nil {
			res.Outcome = rateOutcome(*res.Value, cfg)
		}
		vars["secondary"] = secondaryDetail(cfg, metrics)
	case KindGrowthComparison:
		lead := metrics.Growth(cfg.Lead)
		base := metrics.Growth(cfg.Base)
		if lead != nil && base != nil {
			diff := *lead - *base
			res.Value = &diff
			res.Outcome = tier(diff, Thresholds{High: cfg.Thresholds.High, Low: cfg.Thresholds.Low})
		}
	}

	if res.Value == nil || math.IsNaN(*res.Value) || math.IsInf(*res.Value, 0) {
		res.Value = nil
		res.Outcome = OutcomeNeutral
		res.Detail = cfg.MissingDetail
		if res.Detail == "" {
			res.Detail = defaultMissingDetail
		}
		return res
	}

	vars["value"] = FormatValue(*res.Value, cfg.Unit, cfg.Precision)
	vars["label"] = cfg.Label
	res.Conclusion = strings.TrimSpace(Render(cfg.Conclusions[res.Outcome], vars))
	res.Detail = Render(cfg.Detail, vars)
	return res
}

// ComputeAllSignals evaluates every signal in the catalogue, dropping any
// whose conclusion renders empty.
func ComputeAllSignals(cat Catalog, metrics model.MetricValues) []Result {
	results := make([]Result, 0, len(cat.Signals))
	for _, cfg := range cat.Signals {
		r := ComputeSignal(cfg, metrics)
		if r.Conclusion == "" {
			continue
		}
		results = append(results, r)
	}
	return results
}

// tier applies extreme tiers before high/low so a value clearing an extreme
// threshold is never reported at a coarser tier.
func tier(v float64, t Thresholds) Outcome {
	switch {
	case t.Extreme != nil && v >= *t.Extreme:
		return OutcomeExtreme
	case t.ExtremeHigh != nil && v >= *t.ExtremeHigh:
		return OutcomeExtremeHigh
	case t.ExtremeLow != nil && v <= *t.ExtremeLow:
		return OutcomeExtremeLow
	case t.High != nil && v >= *t.High:
		return OutcomeHigh
	case t.Low != nil && v <= *t.Low:
		return OutcomeLow
	default:
		return OutcomeNeutral
	}
}

// rateOutcome classifies the primary rate only. The secondary rate is
// descriptive and never changes the outcome.
func rateOutcome(v float64, cfg Config) Outcome {
	o := tier(v, Thresholds{High: cfg.Thresholds.High, Low: cfg.Thresholds.Low})
	if !cfg.Invert {
		return o
	}
	switch o {
	case OutcomeHigh:
		return OutcomeLow
	case OutcomeLow:
		return OutcomeHigh
	default:
		return o
	}
}

// RateTrend frames the change between two adjacent points of a rate.
func RateTrend(previous, current *float64, t TrendThresholds) Outcome {
	if previous == nil || current == nil {
		return OutcomeNeutral
	}
	delta := *current - *previous
	switch {
	case t.Rising != nil && delta >= *t.Rising:
		return OutcomeRising
	case t.Falling != nil && delta <= *t.Falling:
		return OutcomeFalling
	default:
		return OutcomeNeutral
	}
}

func secondaryDetail(cfg Config, metrics model.MetricValues) string {
	if cfg.Secondary == "" {
		return ""
	}
	name := cfg.SecondaryLabel
	if name == "" {
		name = cfg.Secondary
	}
	cur := metrics.Current(cfg.Secondary)
	if cur == nil {
		return name + " not available"
	}
	s := name + " " + FormatValue(*cur, UnitPercent, 1)
	switch RateTrend(metrics.Previous(cfg.Secondary), cur, cfg.Trend) {
	case OutcomeRising:
		s += ", rising"
	case OutcomeFalling:
		s += ", falling"
	}
	return s
}

func ratioValue(cfg Config, metrics model.MetricValues) *float64 {
	num := operandValue(cfg.Numerator, metrics)
	den := operandValue(cfg.Denominator, metrics)
	if num == nil || den == nil || *den <= 0 {
		return nil
	}
	v := *num / *den
	return &v
}

func operandValue(op Operand, metrics model.MetricValues) *float64 {
	v := metrics.Current(op.Metric)
	if v == nil {
		return nil
	}
	out := *v
	if op.Scale != 0 {
		out *= op.Scale
	}
	if op.PerHead != "" {
		heads := metrics.Current(op.PerHead)
		if heads == nil || *heads <= 0 {
			return nil
		}
		out /= *heads
	}
	return &out
}

func thresholdVars(cfg Config) map[string]string {
	vars := make(map[string]string, 8)
	put := func(name string, v *float64) {
		if v != nil {
			vars[name] = FormatValue(*v, cfg.Unit, cfg.Precision)
		}
	}
	t := cfg.Thresholds
	put("extreme", t.Extreme)
	put("extreme_high", t.ExtremeHigh)
	put("extreme_low", t.ExtremeLow)
	put("high", t.High)
	put("low", t.Low)
	return vars
}
