package signal

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/model"
)

// CatalogVersion identifies the built-in threshold tables.
const CatalogVersion = "2025.2"

// Operand is one side of a ratio: Metric × Scale, optionally divided by
// the PerHead metric.
type Operand struct {
	Metric  string  `yaml:"metric" json:"metric"`
	Scale   float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	PerHead string  `yaml:"per_head,omitempty" json:"per_head,omitempty"`
}

// Thresholds holds the tier boundaries for a signal. Nil means the tier is
// not used by the signal.
type Thresholds struct {
	Extreme     *float64 `yaml:"extreme,omitempty" json:"extreme,omitempty"`
	ExtremeHigh *float64 `yaml:"extreme_high,omitempty" json:"extreme_high,omitempty"`
	ExtremeLow  *float64 `yaml:"extreme_low,omitempty" json:"extreme_low,omitempty"`
	High        *float64 `yaml:"high,omitempty" json:"high,omitempty"`
	Low         *float64 `yaml:"low,omitempty" json:"low,omitempty"`
}

// TrendThresholds frames the year-on-year change of the secondary rate of a
// rate_divergence signal.
type TrendThresholds struct {
	Rising  *float64 `yaml:"rising,omitempty" json:"rising,omitempty"`
	Falling *float64 `yaml:"falling,omitempty" json:"falling,omitempty"`
}

// Config is the static definition of one signal.
type Config struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Kind  Kind   `yaml:"kind" json:"kind"`

	// ratio
	Numerator   Operand `yaml:"numerator,omitempty" json:"numerator,omitempty"`
	Denominator Operand `yaml:"denominator,omitempty" json:"denominator,omitempty"`

	// rate_divergence
	Primary        string          `yaml:"primary,omitempty" json:"primary,omitempty"`
	Secondary      string          `yaml:"secondary,omitempty" json:"secondary,omitempty"`
	SecondaryLabel string          `yaml:"secondary_label,omitempty" json:"secondary_label,omitempty"`
	Invert         bool            `yaml:"invert,omitempty" json:"invert,omitempty"`
	Trend          TrendThresholds `yaml:"trend,omitempty" json:"trend,omitempty"`

	// growth_comparison: growth of Lead minus growth of Base
	Lead string `yaml:"lead,omitempty" json:"lead,omitempty"`
	Base string `yaml:"base,omitempty" json:"base,omitempty"`

	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Unit       Unit       `yaml:"unit" json:"unit"`
	Precision  int        `yaml:"precision" json:"precision"`

	Conclusions   map[Outcome]string `yaml:"conclusions" json:"conclusions"`
	Detail        string             `yaml:"detail" json:"detail"`
	MissingDetail string             `yaml:"missing_detail,omitempty" json:"missing_detail,omitempty"`
}

// Metrics returns the metric ids the signal consumes.
func (c Config) Metrics() []string {
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		for _, existing := range ids {
			if existing == id {
				return
			}
		}
		ids = append(ids, id)
	}
	switch c.Kind {
	case KindRatio:
		add(c.Numerator.Metric)
		add(c.Numerator.PerHead)
		add(c.Denominator.Metric)
		add(c.Denominator.PerHead)
	case KindRateDivergence:
		add(c.Primary)
		add(c.Secondary)
	case KindGrowthComparison:
		add(c.Lead)
		add(c.Base)
	}
	return ids
}

// Catalog is a versioned, read-only set of signal configs.
type Catalog struct {
	Version string   `yaml:"version" json:"version"`
	Signals []Config `yaml:"signals" json:"signals"`
}

// Lookup returns the config for a signal id.
func (c Catalog) Lookup(id string) (Config, bool) {
	for _, s := range c.Signals {
		if s.ID == id {
			return s, true
		}
	}
	return Config{}, false
}

// MetricIDs returns every metric consumed by the catalogue, in first-use order.
func (c Catalog) MetricIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range c.Signals {
		for _, id := range s.Metrics() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func ptr(v float64) *float64 { return &v }

// DefaultCatalog returns the built-in signal tables. Each call returns a fresh
// copy so callers cannot mutate shared state.
func DefaultCatalog() Catalog {
	return Catalog{
		Version: CatalogVersion,
		Signals: []Config{
			{
				ID:          "employment_density",
				Label:       "Employment density",
				Kind:        KindRatio,
				Numerator:   Operand{Metric: model.MetricJobs},
				Denominator: Operand{Metric: model.MetricWorkingAge},
				Thresholds:  Thresholds{Extreme: ptr(3.0), High: ptr(1.0), Low: ptr(0.8)},
				Unit:        UnitRatio,
				Precision:   2,
				Conclusions: map[Outcome]string{
					OutcomeExtreme: "Major employment hub drawing {value} jobs per working-age resident",
					OutcomeHigh:    "Net importer of workers with {value} jobs per working-age resident",
					OutcomeLow:     "Commuter base with {value} jobs per working-age resident",
					OutcomeNeutral: "Broadly self-contained labour market at {value} jobs per working-age resident",
				},
				Detail:        "Jobs per working-age resident {value} (hub ≥ {extreme}, importer ≥ {high}, commuter base ≤ {low})",
				MissingDetail: "Jobs or working-age population data not available",
			},
			{
				ID:          "productivity",
				Label:       "Productivity",
				Kind:        KindRatio,
				Numerator:   Operand{Metric: model.MetricGVA, Scale: 1_000_000},
				Denominator: Operand{Metric: model.MetricJobs},
				Thresholds:  Thresholds{Extreme: ptr(100_000), High: ptr(65_000), Low: ptr(45_000)},
				Unit:        UnitGBP,
				Conclusions: map[Outcome]string{
					OutcomeExtreme: "Exceptional output of {value} per job, among the highest-value economies in the UK",
					OutcomeHigh:    "High-value economy producing {value} per job",
					OutcomeLow:     "Lower-value activity at {value} per job",
					OutcomeNeutral: "Output per job of {value}, close to typical UK levels",
				},
				Detail:        "GVA per job {value} (exceptional ≥ {extreme}, high ≥ {high}, low ≤ {low})",
				MissingDetail: "GVA or jobs data not available",
			},
			{
				ID:          "income_capture",
				Label:       "Income capture",
				Kind:        KindRatio,
				Numerator:   Operand{Metric: model.MetricGDHIPerHead},
				Denominator: Operand{Metric: model.MetricGVA, Scale: 1_000_000, PerHead: model.MetricPopulation},
				Thresholds: Thresholds{
					ExtremeHigh: ptr(1.0),
					High:        ptr(0.8),
					Low:         ptr(0.5),
					ExtremeLow:  ptr(0.3),
				},
				Unit:      UnitRatio,
				Precision: 2,
				Conclusions: map[Outcome]string{
					OutcomeExtremeHigh: "Resident incomes exceed local output ({value}); wealth is earned elsewhere and spent here",
					OutcomeHigh:        "Strong income retention: residents keep {value} of output per head as disposable income",
					OutcomeLow:         "Output leaks out of the area; residents capture only {value} of output per head",
					OutcomeExtremeLow:  "Production centre with heavy in-commuting; residents capture just {value} of output per head",
					OutcomeNeutral:     "Income and output broadly aligned at {value}",
				},
				Detail:        "GDHI per head ÷ GVA per head {value} (high ≥ {high}, low ≤ {low}, extremes {extreme_high} / {extreme_low})",
				MissingDetail: "Income, GVA or population data not available",
			},
			{
				ID:             "labour_capacity",
				Label:          "Labour capacity",
				Kind:           KindRateDivergence,
				Primary:        model.MetricEmploymentRate,
				Secondary:      model.MetricUnemploymentRate,
				SecondaryLabel: "unemployment rate",
				Invert:         true,
				Trend:          TrendThresholds{Rising: ptr(0.5), Falling: ptr(-0.5)},
				Thresholds: Thresholds{
					High: ptr(78),
					Low:  ptr(72),
				},
				Unit:      UnitPercent,
				Precision: 1,
				Conclusions: map[Outcome]string{
					OutcomeLow:     "Employment market is tight with {value} of working-age residents in work",
					OutcomeHigh:    "Spare labour capacity: employment rate of {value} leaves room to recruit",
					OutcomeNeutral: "Labour market in balance at {value} employment",
				},
				Detail:        "Employment rate {value} (tight ≥ {high}, slack ≤ {low}); {secondary}",
				MissingDetail: "Employment rate data not available",
			},
			{
				ID:         "growth_composition",
				Label:      "Growth composition",
				Kind:       KindGrowthComparison,
				Lead:       model.MetricJobs,
				Base:       model.MetricPopulation,
				Thresholds: Thresholds{High: ptr(0.5), Low: ptr(-0.5)},
				Unit:       UnitPoints,
				Precision:  2,
				Conclusions: map[Outcome]string{
					OutcomeHigh:    "Jobs-led growth: employment outpacing population by {value} a year",
					OutcomeLow:     "Population-led growth: jobs trailing population by {value} a year",
					OutcomeNeutral: "Jobs and population growing in step ({value} a year)",
				},
				Detail:        "5-year jobs CAGR minus population CAGR {value} (jobs-led ≥ {high}, population-led ≤ {low})",
				MissingDetail: "5-year jobs or population growth not available",
			},
			{
				ID:         "output_momentum",
				Label:      "Output momentum",
				Kind:       KindGrowthComparison,
				Lead:       model.MetricGVA,
				Base:       model.MetricJobs,
				Thresholds: Thresholds{High: ptr(1.0), Low: ptr(-0.5)},
				Unit:       UnitPoints,
				Precision:  2,
				Conclusions: map[Outcome]string{
					OutcomeHigh:    "Productivity-led expansion: output growing {value} a year faster than jobs",
					OutcomeLow:     "Output lagging employment growth by {value} a year",
					OutcomeNeutral: "Output and employment growing together ({value} a year)",
				},
				Detail:        "5-year GVA CAGR minus jobs CAGR {value} (productivity-led ≥ {high}, lagging ≤ {low})",
				MissingDetail: "5-year GVA or jobs growth not available",
			},
		},
	}
}

// Validate checks that every signal in the catalogue is internally consistent.
func (c Catalog) Validate() error {
	var errs []string
	seen := make(map[string]bool)

	for i, s := range c.Signals {
		name := s.ID
		if name == "" {
			name = fmt.Sprintf("signals[%d]", i)
			errs = append(errs, name+": id is required")
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id", name))
		}
		seen[s.ID] = true

		for _, e := range validateConfig(s) {
			errs = append(errs, name+": "+e)
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("signal: catalog validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateConfig(s Config) []string {
	var errs []string
	t := s.Thresholds

	switch s.Kind {
	case KindRatio:
		if s.Numerator.Metric == "" || s.Denominator.Metric == "" {
			errs = append(errs, "ratio needs numerator and denominator metrics")
		}
	case KindRateDivergence:
		if s.Primary == "" {
			errs = append(errs, "rate_divergence needs a primary rate")
		}
		if t.Extreme != nil || t.ExtremeHigh != nil || t.ExtremeLow != nil {
			errs = append(errs, "rate_divergence does not support extreme tiers")
		}
		if s.Trend.Rising != nil && s.Trend.Falling != nil && *s.Trend.Falling >= *s.Trend.Rising {
			errs = append(errs, "trend falling must be < rising")
		}
	case KindGrowthComparison:
		if s.Lead == "" || s.Base == "" {
			errs = append(errs, "growth_comparison needs lead and base metrics")
		}
		if t.Extreme != nil || t.ExtremeHigh != nil || t.ExtremeLow != nil {
			errs = append(errs, "growth_comparison does not support extreme tiers")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown kind %q", s.Kind))
	}

	if t.High != nil && t.Low != nil && *t.Low >= *t.High {
		errs = append(errs, "low must be < high")
	}
	if t.Extreme != nil && (t.ExtremeHigh != nil || t.ExtremeLow != nil) {
		errs = append(errs, "extreme cannot be combined with extreme_high/extreme_low")
	}
	if t.Extreme != nil && t.High != nil && *t.Extreme <= *t.High {
		errs = append(errs, "extreme must be > high")
	}
	if t.ExtremeHigh != nil && t.High != nil && *t.ExtremeHigh <= *t.High {
		errs = append(errs, "extreme_high must be > high")
	}
	if t.ExtremeLow != nil && t.Low != nil && *t.ExtremeLow >= *t.Low {
		errs = append(errs, "extreme_low must be < low")
	}
	if s.Numerator.Scale < 0 || s.Denominator.Scale < 0 {
		errs = append(errs, "operand scale must be >= 0")
	}

	for _, o := range reachableOutcomes(s) {
		if strings.TrimSpace(s.Conclusions[o]) == "" {
			errs = append(errs, fmt.Sprintf("missing conclusion for %s", o))
		}
	}
	for o := range s.Conclusions {
		if !o.Valid() {
			errs = append(errs, fmt.Sprintf("unknown outcome %q", o))
		}
	}
	return errs
}

// reachableOutcomes lists the outcomes a config can produce.
func reachableOutcomes(s Config) []Outcome {
	out := []Outcome{OutcomeNeutral}
	t := s.Thresholds
	if t.Extreme != nil {
		out = append(out, OutcomeExtreme)
	}
	if t.ExtremeHigh != nil {
		out = append(out, OutcomeExtremeHigh)
	}
	if t.ExtremeLow != nil {
		out = append(out, OutcomeExtremeLow)
	}
	if t.High != nil {
		out = append(out, OutcomeHigh)
	}
	if t.Low != nil {
		out = append(out, OutcomeLow)
	}
	return out
}
