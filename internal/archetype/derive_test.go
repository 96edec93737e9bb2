package archetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regioniq/insight-cli/internal/signal"
)

func results(pairs ...string) []signal.Result {
	var out []signal.Result
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, signal.Result{ID: pairs[i], Outcome: signal.Outcome(pairs[i+1])})
	}
	return out
}

func TestDefaultRulesValid(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, ValidateRules(rules, signal.DefaultCatalog()))
	assert.Equal(t, FallbackID, rules[len(rules)-1].ID)
}

func TestDerive_ListOrderWins(t *testing.T) {
	// Satisfies both the hub and the powerhouse rules.
	signals := results(
		"employment_density", "extreme",
		"productivity", "high",
		"labour_capacity", "low",
	)

	got := Derive(signals, DefaultRules())
	require.NotNil(t, got)
	assert.Equal(t, "major_employment_hub", got.ID)

	// Reordering the list flips the answer.
	rules := DefaultRules()
	rules[0], rules[1] = rules[1], rules[0]
	got = Derive(signals, rules)
	require.NotNil(t, got)
	assert.Equal(t, "economic_powerhouse", got.ID)
}

func TestDerive_Strength(t *testing.T) {
	tests := []struct {
		name     string
		signals  []signal.Result
		wantID   string
		strength float64
	}{
		{
			name:     "required only",
			signals:  results("employment_density", "extreme"),
			wantID:   "major_employment_hub",
			strength: 1.0 / 3.0,
		},
		{
			name:     "one optional",
			signals:  results("employment_density", "extreme", "productivity", "high"),
			wantID:   "major_employment_hub",
			strength: 2.0 / 3.0,
		},
		{
			name: "all optionals",
			signals: results(
				"employment_density", "extreme",
				"productivity", "high",
				"growth_composition", "high",
			),
			wantID:   "major_employment_hub",
			strength: 1.0,
		},
		{
			name:     "fallback",
			signals:  results("employment_density", "neutral"),
			wantID:   FallbackID,
			strength: FallbackStrength,
		},
		{
			name:     "empty signals",
			signals:  nil,
			wantID:   FallbackID,
			strength: FallbackStrength,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.signals, DefaultRules())
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
			assert.InDelta(t, tt.strength, got.Strength, 1e-9)
		})
	}
}

func TestDerive_NoOptionalsIsFullStrength(t *testing.T) {
	rules := []Rule{{ID: "x", Required: []Condition{{SignalID: "a", Outcome: signal.OutcomeHigh}}}}
	got := Derive(results("a", "high"), rules)
	require.NotNil(t, got)
	assert.Equal(t, 1.0, got.Strength)
	assert.Equal(t, []string{"a"}, got.Matched)
}

func TestDerive_NilWithoutCatchAll(t *testing.T) {
	rules := []Rule{{ID: "x", Required: []Condition{{SignalID: "a", Outcome: signal.OutcomeHigh}}}}
	assert.Nil(t, Derive(results("a", "low"), rules))
}

func TestDerive_CommuterHeartland(t *testing.T) {
	got := Derive(results(
		"employment_density", "low",
		"income_capture", "high",
		"labour_capacity", "low",
	), DefaultRules())
	require.NotNil(t, got)
	assert.Equal(t, "commuter_heartland", got.ID)
	assert.Equal(t, 1.0, got.Strength)
	assert.Equal(t, []string{"employment_density", "income_capture", "labour_capacity"}, got.Matched)
}

func TestValidateRules(t *testing.T) {
	cat := signal.DefaultCatalog()
	tests := []struct {
		name    string
		mutate  func([]Rule) []Rule
		wantErr string
	}{
		{"empty", func([]Rule) []Rule { return nil }, "no rules configured"},
		{"catch-all not last", func(r []Rule) []Rule {
			return append([]Rule{r[len(r)-1]}, r...)
		}, "catch-all rule must be last"},
		{"no catch-all", func(r []Rule) []Rule { return r[:len(r)-1] }, "last rule must have no required conditions"},
		{"duplicate", func(r []Rule) []Rule {
			r[1].ID = r[0].ID
			return r
		}, "duplicate id"},
		{"unknown signal", func(r []Rule) []Rule {
			r[0].Required[0].SignalID = "footfall"
			return r
		}, `unknown signal "footfall"`},
		{"unknown outcome", func(r []Rule) []Rule {
			r[0].Optional[0].Outcome = "huge"
			return r
		}, `unknown outcome "huge"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRules(tt.mutate(DefaultRules()), cat)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
