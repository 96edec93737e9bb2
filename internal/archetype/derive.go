package archetype

import "github.com/regioniq/insight-cli/internal/signal"

// Result is the matched archetype.
type Result struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Conclusion string   `json:"conclusion"`
	Strength   float64  `json:"strength"`
	Matched    []string `json:"matched_signals"`
}

// Derive returns the first rule in list order whose required conditions all
// match. It returns nil only when rules has no catch-all and nothing matches.
func Derive(signals []signal.Result, rules []Rule) *Result {
	outcomes := make(map[string]signal.Outcome, len(signals))
	for _, s := range signals {
		outcomes[s.ID] = s.Outcome
	}

	for _, r := range rules {
		matched := make([]string, 0, len(r.Required)+len(r.Optional))
		ok := true
		for _, c := range r.Required {
			if outcomes[c.SignalID] != c.Outcome {
				ok = false
				break
			}
			matched = append(matched, c.SignalID)
		}
		if !ok {
			continue
		}

		if len(r.Required) == 0 {
			return &Result{ID: r.ID, Label: r.Label, Conclusion: r.Conclusion, Strength: FallbackStrength, Matched: matched}
		}

		optionalHits := 0
		for _, c := range r.Optional {
			if outcomes[c.SignalID] == c.Outcome {
				optionalHits++
				matched = append(matched, c.SignalID)
			}
		}

		strength := 1.0
		if len(r.Optional) > 0 {
			strength = float64(len(r.Required)+optionalHits) / float64(len(r.Required)+len(r.Optional))
		}
		return &Result{ID: r.ID, Label: r.Label, Conclusion: r.Conclusion, Strength: strength, Matched: matched}
	}
	return nil
}
