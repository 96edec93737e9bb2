// Package peer ranks a region against its peer group and compares its growth
// with peer and national rates.
package peer

import (
	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/signal"
)

// Tier is the quartile band a rank falls into.
type Tier string

const (
	TierTop    Tier = "top"
	TierMiddle Tier = "middle"
	TierBottom Tier = "bottom"
)

// GrowthBand names the growth template that was selected.
type GrowthBand string

const (
	GrowthStrong    GrowthBand = "strong"
	GrowthModerate  GrowthBand = "moderate"
	GrowthWeak      GrowthBand = "weak"
	GrowthDeclining GrowthBand = "declining"
)

// MetricConfig holds the labels, templates and growth thresholds for one metric.
// Templates use {label}, {value}, {position}, {total}, {peer_group},
// {peer_avg} and {national} placeholders.
type MetricConfig struct {
	MetricID  string      `yaml:"metric_id" json:"metric_id"`
	Label     string      `yaml:"label" json:"label"`
	Unit      signal.Unit `yaml:"unit" json:"unit"`
	Precision int         `yaml:"precision" json:"precision"`

	RankTemplates   map[Tier]string       `yaml:"rank_templates" json:"rank_templates"`
	GrowthTemplates map[GrowthBand]string `yaml:"growth_templates" json:"growth_templates"`

	// StrongGrowth and WeakGrowth are annual CAGR percentages.
	StrongGrowth float64 `yaml:"strong_growth" json:"strong_growth"`
	WeakGrowth   float64 `yaml:"weak_growth" json:"weak_growth"`

	// CompareNational enables the national highlight. Off for totals, where a
	// region is always a fraction of the UK figure.
	CompareNational bool `yaml:"compare_national" json:"compare_national"`
}

var defaultRankTemplates = map[Tier]string{
	TierTop:    "{label} ranks {position} of {total} {peer_group}, in the top quartile",
	TierMiddle: "{label} sits {position} of {total} {peer_group}",
	TierBottom: "{label} ranks {position} of {total} {peer_group}, in the bottom quartile",
}

var defaultGrowthTemplates = map[GrowthBand]string{
	GrowthStrong:    "{label} has grown strongly at {value} a year over five years (peer average {peer_avg})",
	GrowthModerate:  "{label} has grown steadily at {value} a year over five years (peer average {peer_avg})",
	GrowthWeak:      "{label} growth has been subdued at {value} a year over five years (peer average {peer_avg})",
	GrowthDeclining: "{label} has contracted by {value} a year over five years (peer average {peer_avg})",
}

func templates[K comparable](src map[K]string) map[K]string {
	out := make(map[K]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// DefaultMetricConfigs returns the peer configuration for every catalogue metric.
func DefaultMetricConfigs() []MetricConfig {
	mk := func(id, label string, unit signal.Unit, precision int, strong, weak float64, national bool) MetricConfig {
		return MetricConfig{
			MetricID:        id,
			Label:           label,
			Unit:            unit,
			Precision:       precision,
			RankTemplates:   templates(defaultRankTemplates),
			GrowthTemplates: templates(defaultGrowthTemplates),
			StrongGrowth:    strong,
			WeakGrowth:      weak,
			CompareNational: national,
		}
	}
	return []MetricConfig{
		mk(model.MetricPopulation, "Population", signal.UnitCount, 0, 1.0, 0.3, false),
		mk(model.MetricWorkingAge, "Working-age population", signal.UnitCount, 0, 1.0, 0.3, false),
		mk(model.MetricJobs, "Employment", signal.UnitCount, 0, 1.5, 0.5, false),
		mk(model.MetricGVA, "Output (GVA)", signal.UnitGBPMn, 0, 4.0, 2.0, false),
		mk(model.MetricGDHIPerHead, "Disposable income per head", signal.UnitGBP, 0, 4.0, 2.0, true),
		mk(model.MetricEmploymentRate, "Employment rate", signal.UnitPercent, 1, 0.5, 0.1, true),
		mk(model.MetricUnemploymentRate, "Unemployment rate", signal.UnitPercent, 1, 0.5, 0.1, true),
	}
}

// LookupConfig returns the default config for a metric id.
func LookupConfig(metricID string) (MetricConfig, bool) {
	for _, c := range DefaultMetricConfigs() {
		if c.MetricID == metricID {
			return c, true
		}
	}
	return MetricConfig{}, false
}
