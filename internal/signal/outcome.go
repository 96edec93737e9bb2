// Package signal classifies regional metric snapshots into discrete signal outcomes.
package signal

// Outcome is the discrete classification of a signal.
type Outcome string

const (
	OutcomeExtreme     Outcome = "extreme"
	OutcomeExtremeHigh Outcome = "extreme_high"
	OutcomeExtremeLow  Outcome = "extreme_low"
	OutcomeHigh        Outcome = "high"
	OutcomeLow         Outcome = "low"
	OutcomeNeutral     Outcome = "neutral"
	OutcomeRising      Outcome = "rising"
	OutcomeFalling     Outcome = "falling"
)

// Outcomes lists every outcome in tier order.
var Outcomes = []Outcome{
	OutcomeExtreme,
	OutcomeExtremeHigh,
	OutcomeExtremeLow,
	OutcomeHigh,
	OutcomeLow,
	OutcomeNeutral,
	OutcomeRising,
	OutcomeFalling,
}

// Valid reports whether o is a member of the closed outcome set.
func (o Outcome) Valid() bool {
	for _, v := range Outcomes {
		if v == o {
			return true
		}
	}
	return false
}

// Kind selects how a signal's value is computed.
type Kind string

const (
	KindRatio            Kind = "ratio"
	KindRateDivergence   Kind = "rate_divergence"
	KindGrowthComparison Kind = "growth_comparison"
)

// Unit controls how values and thresholds are rendered in text.
type Unit string

const (
	UnitRatio   Unit = "ratio"  // 1.25
	UnitGBP     Unit = "gbp"    // £65,400
	UnitPercent Unit = "pct"    // 78.5%
	UnitPoints  Unit = "pp"     // +0.62pp
	UnitCount   Unit = "count"  // 1,234,567
	UnitGBPMn   Unit = "gbp_mn" // £12,345m
)

// Result is one evaluated signal. Value is nil when an input is missing.
type Result struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Outcome    Outcome  `json:"outcome"`
	Value      *float64 `json:"value"`
	Conclusion string   `json:"conclusion"`
	Detail     string   `json:"detail"`
}
