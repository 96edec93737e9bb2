// Package archetype derives a composite regional archetype from signal outcomes.
package archetype

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/signal"
)

// Condition is a signal id paired with the outcome it must have.
type Condition struct {
	SignalID string         `json:"signal_id" yaml:"signal_id"`
	Outcome  signal.Outcome `json:"outcome" yaml:"outcome"`
}

// Rule is one entry in the ordered archetype list. Required conditions must
// all match; optional conditions only raise the match strength.
type Rule struct {
	ID         string      `json:"id" yaml:"id"`
	Label      string      `json:"label" yaml:"label"`
	Conclusion string      `json:"conclusion" yaml:"conclusion"`
	Required   []Condition `json:"required" yaml:"required"`
	Optional   []Condition `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// FallbackID is the catch-all archetype returned when nothing else matches.
const FallbackID = "balanced_economy"

// FallbackStrength marks the catch-all as a default rather than evidence.
const FallbackStrength = 0.5

func cond(id string, o signal.Outcome) Condition {
	return Condition{SignalID: id, Outcome: o}
}

// DefaultRules returns the archetype list in priority order. The more
// exceptional archetypes come first; balanced_economy is always last.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:         "major_employment_hub",
			Label:      "Major Employment Hub",
			Conclusion: "Draws workers from well beyond its boundary; jobs far outnumber working-age residents",
			Required:   []Condition{cond("employment_density", signal.OutcomeExtreme)},
			Optional: []Condition{
				cond("productivity", signal.OutcomeHigh),
				cond("growth_composition", signal.OutcomeHigh),
			},
		},
		{
			ID:         "economic_powerhouse",
			Label:      "Economic Powerhouse",
			Conclusion: "High-output economy running a tight labour market",
			Required: []Condition{
				cond("productivity", signal.OutcomeHigh),
				cond("labour_capacity", signal.OutcomeLow),
			},
			Optional: []Condition{
				cond("employment_density", signal.OutcomeHigh),
				cond("output_momentum", signal.OutcomeHigh),
			},
		},
		{
			ID:         "high_value_specialist",
			Label:      "High-Value Specialist",
			Conclusion: "Output per job well above the national pattern, pointing to a specialised sector base",
			Required:   []Condition{cond("productivity", signal.OutcomeExtreme)},
			Optional:   []Condition{cond("output_momentum", signal.OutcomeHigh)},
		},
		{
			ID:         "commuter_heartland",
			Label:      "Commuter Heartland",
			Conclusion: "Residents earn more than the local economy produces; income is imported from nearby job centres",
			Required: []Condition{
				cond("employment_density", signal.OutcomeLow),
				cond("income_capture", signal.OutcomeHigh),
			},
			Optional: []Condition{cond("labour_capacity", signal.OutcomeLow)},
		},
		{
			ID:         "affluent_residential",
			Label:      "Affluent Residential",
			Conclusion: "Household income exceeds local output per head; a wealthy residential catchment",
			Required:   []Condition{cond("income_capture", signal.OutcomeExtremeHigh)},
			Optional:   []Condition{cond("employment_density", signal.OutcomeLow)},
		},
		{
			ID:         "growth_engine",
			Label:      "Growth Engine",
			Conclusion: "Jobs are growing faster than population while the labour market stays tight",
			Required: []Condition{
				cond("growth_composition", signal.OutcomeHigh),
				cond("labour_capacity", signal.OutcomeLow),
			},
			Optional: []Condition{cond("output_momentum", signal.OutcomeHigh)},
		},
		{
			ID:         "population_led",
			Label:      "Population-Led Growth",
			Conclusion: "Population is growing faster than local jobs; demand is driven by residents rather than employers",
			Required:   []Condition{cond("growth_composition", signal.OutcomeLow)},
			Optional:   []Condition{cond("labour_capacity", signal.OutcomeHigh)},
		},
		{
			ID:         "untapped_workforce",
			Label:      "Untapped Workforce",
			Conclusion: "Spare labour and few local jobs; capacity for employers willing to locate here",
			Required: []Condition{
				cond("labour_capacity", signal.OutcomeHigh),
				cond("employment_density", signal.OutcomeLow),
			},
			Optional: []Condition{cond("income_capture", signal.OutcomeLow)},
		},
		{
			ID:         FallbackID,
			Label:      "Balanced Economy",
			Conclusion: "No single structural feature dominates; jobs, residents and output are broadly in balance",
		},
	}
}

// ValidateRules checks that the list is usable: unique ids, known signals and
// outcomes, and exactly one catch-all placed last.
func ValidateRules(rules []Rule, cat signal.Catalog) error {
	if len(rules) == 0 {
		return eris.New("archetype: no rules configured")
	}

	var problems []string
	seen := make(map[string]bool)
	for i, r := range rules {
		prefix := fmt.Sprintf("rule %d", i)
		if r.ID != "" {
			prefix = fmt.Sprintf("rule %s", r.ID)
		}
		if r.ID == "" {
			problems = append(problems, prefix+": id is required")
		} else if seen[r.ID] {
			problems = append(problems, prefix+": duplicate id")
		}
		seen[r.ID] = true

		last := i == len(rules)-1
		if len(r.Required) == 0 && !last {
			problems = append(problems, prefix+": catch-all rule must be last")
		}
		if last && len(r.Required) > 0 {
			problems = append(problems, prefix+": last rule must have no required conditions")
		}

		for _, c := range append(append([]Condition{}, r.Required...), r.Optional...) {
			if _, ok := cat.Lookup(c.SignalID); !ok {
				problems = append(problems, fmt.Sprintf("%s: unknown signal %q", prefix, c.SignalID))
			}
			if !c.Outcome.Valid() {
				problems = append(problems, fmt.Sprintf("%s: unknown outcome %q", prefix, c.Outcome))
			}
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("archetype: rule validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
