// Package lens turns signal outcomes into short, asset-class specific
// implications with deterministic priority ordering and deduplication.
package lens

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/signal"
)

// MaxItems bounds the output: one lead plus up to three supporting items.
const MaxItems = 4

// AssetLens selects the interpretation table.
type AssetLens string

const (
	LensOffice      AssetLens = "office"
	LensRetail      AssetLens = "retail"
	LensIndustrial  AssetLens = "industrial"
	LensResidential AssetLens = "residential"
	LensLeisure     AssetLens = "leisure"
	LensMixed       AssetLens = "mixed"
	LensGeneral     AssetLens = "general"
)

// Lenses lists every asset lens.
var Lenses = []AssetLens{LensOffice, LensRetail, LensIndustrial, LensResidential, LensLeisure, LensMixed, LensGeneral}

// ParseAssetLens parses a lens name. An empty string selects the general lens.
func ParseAssetLens(s string) (AssetLens, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LensGeneral, nil
	}
	l := AssetLens(s)
	if !slices.Contains(Lenses, l) {
		return "", eris.Errorf("lens: unknown asset lens %q", s)
	}
	return l, nil
}

// Condition matches when the signal's outcome is any of Outcomes.
type Condition struct {
	SignalID string           `json:"signal_id" yaml:"signal_id"`
	Outcomes []signal.Outcome `json:"outcomes" yaml:"outcomes"`
}

// Rule yields an Item when every condition matches.
type Rule struct {
	ID         string      `json:"id" yaml:"id"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Text       string      `json:"text" yaml:"text"`
	Why        string      `json:"why" yaml:"why"`
	Priority   int         `json:"priority" yaml:"priority"`
}

// Item is one implication bullet. Why names the metrics and thresholds behind it.
type Item struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Why      string `json:"why"`
	Priority int    `json:"priority"`
}

// Implications is the bounded output of a lens.
type Implications struct {
	Lead       Item   `json:"lead"`
	Supporting []Item `json:"supporting"`
}

// Items returns the lead followed by the supporting items.
func (i Implications) Items() []Item {
	return append([]Item{i.Lead}, i.Supporting...)
}

// DeriveLogisticsImplications applies the logistics table.
func DeriveLogisticsImplications(signals []signal.Result) Implications {
	return Reinterpret(signals, LogisticsRules(), logisticsFallback)
}

// DeriveAssetPositioning applies the table for the given lens.
func DeriveAssetPositioning(signals []signal.Result, l AssetLens) Implications {
	return Reinterpret(signals, RulesFor(l), positioningFallback)
}

// Reinterpret matches rules against signals and reduces the matches to at
// most MaxItems. A rule with several conditions suppresses single-condition
// rules on any signal it consumed. Ties keep table order. When nothing
// matches, fallback is returned as the lead.
func Reinterpret(signals []signal.Result, rules []Rule, fallback Item) Implications {
	byID := make(map[string]signal.Result, len(signals))
	for _, s := range signals {
		byID[s.ID] = s
	}

	var matched []Rule
	consumed := make(map[string]bool)
	seen := make(map[string]bool)
	for _, r := range rules {
		if seen[r.ID] || !matches(r, byID) {
			continue
		}
		seen[r.ID] = true
		matched = append(matched, r)
		if len(r.Conditions) > 1 {
			for _, c := range r.Conditions {
				consumed[c.SignalID] = true
			}
		}
	}

	kept := matched[:0]
	for _, r := range matched {
		if len(r.Conditions) == 1 && consumed[r.Conditions[0].SignalID] {
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Priority > kept[j].Priority })
	if len(kept) > MaxItems {
		kept = kept[:MaxItems]
	}

	if len(kept) == 0 {
		return Implications{Lead: fallback, Supporting: []Item{}}
	}

	items := make([]Item, 0, len(kept))
	for _, r := range kept {
		items = append(items, Item{ID: r.ID, Text: r.Text, Why: explain(r, byID), Priority: r.Priority})
	}
	return Implications{Lead: items[0], Supporting: items[1:]}
}

func matches(r Rule, byID map[string]signal.Result) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		s, ok := byID[c.SignalID]
		if !ok || !slices.Contains(c.Outcomes, s.Outcome) {
			return false
		}
	}
	return true
}

// explain appends the matched signals' details to the rule's rationale.
func explain(r Rule, byID map[string]signal.Result) string {
	details := make([]string, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		s := byID[c.SignalID]
		d := s.Detail
		if d == "" {
			d = fmt.Sprintf("%s is %s", s.Label, s.Outcome)
		}
		details = append(details, d)
	}
	return fmt.Sprintf("%s (%s)", r.Why, strings.Join(details, "; "))
}

// ValidateRules checks ids, signal references and outcomes of a lens table.
func ValidateRules(rules []Rule, cat signal.Catalog) error {
	var problems []string
	seen := make(map[string]bool)
	for _, r := range rules {
		if r.ID == "" {
			problems = append(problems, "rule without id")
			continue
		}
		if seen[r.ID] {
			problems = append(problems, fmt.Sprintf("rule %s: duplicate id", r.ID))
		}
		seen[r.ID] = true
		if len(r.Conditions) == 0 {
			problems = append(problems, fmt.Sprintf("rule %s: no conditions", r.ID))
		}
		if r.Text == "" || r.Why == "" {
			problems = append(problems, fmt.Sprintf("rule %s: text and why are required", r.ID))
		}
		for _, c := range r.Conditions {
			if _, ok := cat.Lookup(c.SignalID); !ok {
				problems = append(problems, fmt.Sprintf("rule %s: unknown signal %q", r.ID, c.SignalID))
			}
			if len(c.Outcomes) == 0 {
				problems = append(problems, fmt.Sprintf("rule %s: condition on %s has no outcomes", r.ID, c.SignalID))
			}
			for _, o := range c.Outcomes {
				if !o.Valid() {
					problems = append(problems, fmt.Sprintf("rule %s: unknown outcome %q", r.ID, o))
				}
			}
		}
	}
	if len(problems) > 0 {
		return eris.Errorf("lens: rule validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
