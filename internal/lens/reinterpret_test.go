package lens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regioniq/insight-cli/internal/signal"
)

func sig(id string, o signal.Outcome) signal.Result {
	return signal.Result{ID: id, Label: id, Outcome: o, Detail: id + " detail"}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}
	return out
}

func TestDeriveLogisticsImplications_CombinationSuppressesSingles(t *testing.T) {
	got := DeriveLogisticsImplications([]signal.Result{
		sig("labour_capacity", signal.OutcomeLow),
		sig("growth_composition", signal.OutcomeLow),
	})

	assert.Equal(t, "logistics_labour_squeeze", got.Lead.ID)
	assert.Empty(t, got.Supporting)
	assert.NotContains(t, ids(got.Items()), "logistics_labour_tight")
	assert.NotContains(t, ids(got.Items()), "logistics_consumer_demand")
}

func TestDeriveLogisticsImplications_SingleWithoutCombination(t *testing.T) {
	got := DeriveLogisticsImplications([]signal.Result{
		sig("labour_capacity", signal.OutcomeLow),
		sig("growth_composition", signal.OutcomeNeutral),
	})
	assert.Equal(t, "logistics_labour_tight", got.Lead.ID)
}

func TestDeriveLogisticsImplications_BoundedOutput(t *testing.T) {
	t.Run("never empty", func(t *testing.T) {
		got := DeriveLogisticsImplications(nil)
		assert.Equal(t, logisticsFallback, got.Lead)
		assert.Len(t, got.Items(), 1)
		assert.NotEmpty(t, got.Lead.Why)
	})

	t.Run("never more than four", func(t *testing.T) {
		got := DeriveLogisticsImplications([]signal.Result{
			sig("labour_capacity", signal.OutcomeHigh),
			sig("growth_composition", signal.OutcomeHigh),
			sig("employment_density", signal.OutcomeExtreme),
			sig("output_momentum", signal.OutcomeHigh),
			sig("productivity", signal.OutcomeExtreme),
			sig("income_capture", signal.OutcomeExtremeHigh),
		})
		items := got.Items()
		require.Len(t, items, MaxItems)
		assert.Equal(t, []string{
			"logistics_labour_available",
			"logistics_business_demand",
			"logistics_urban",
			"logistics_modern_stock",
		}, ids(items))
	})
}

func TestReinterpret_PriorityAndWhy(t *testing.T) {
	signals := []signal.Result{
		{ID: "labour_capacity", Label: "Labour capacity", Outcome: signal.OutcomeLow, Detail: "Employment rate 79.0% (tight ≥ 78.0%, slack ≤ 72.0%)"},
		{ID: "growth_composition", Label: "Growth composition", Outcome: signal.OutcomeHigh, Detail: "Jobs CAGR minus population CAGR +0.80pp"},
	}
	got := DeriveLogisticsImplications(signals)

	assert.Equal(t, "logistics_labour_competition", got.Lead.ID)
	assert.Equal(t, 100, got.Lead.Priority)
	assert.Equal(t,
		"Jobs are growing faster than residents in an already tight labour market (Employment rate 79.0% (tight ≥ 78.0%, slack ≤ 72.0%); Jobs CAGR minus population CAGR +0.80pp)",
		got.Lead.Why)
	assert.Empty(t, got.Supporting)
}

func TestReinterpret_StableTies(t *testing.T) {
	rules := []Rule{
		{ID: "a", Conditions: []Condition{{SignalID: "x", Outcomes: []signal.Outcome{signal.OutcomeHigh}}}, Text: "a", Why: "a", Priority: 10},
		{ID: "b", Conditions: []Condition{{SignalID: "y", Outcomes: []signal.Outcome{signal.OutcomeHigh}}}, Text: "b", Why: "b", Priority: 10},
		{ID: "c", Conditions: []Condition{{SignalID: "z", Outcomes: []signal.Outcome{signal.OutcomeHigh}}}, Text: "c", Why: "c", Priority: 20},
	}
	signals := []signal.Result{sig("x", signal.OutcomeHigh), sig("y", signal.OutcomeHigh), sig("z", signal.OutcomeHigh)}

	for range 5 {
		got := Reinterpret(signals, rules, positioningFallback)
		assert.Equal(t, []string{"c", "a", "b"}, ids(got.Items()))
	}
}

func TestReinterpret_FallbackWhyFromDetailOrOutcome(t *testing.T) {
	rules := []Rule{{ID: "a", Conditions: []Condition{{SignalID: "x", Outcomes: []signal.Outcome{signal.OutcomeLow}}}, Text: "t", Why: "w", Priority: 1}}
	got := Reinterpret([]signal.Result{{ID: "x", Label: "Density", Outcome: signal.OutcomeLow}}, rules, positioningFallback)
	assert.Equal(t, "w (Density is low)", got.Lead.Why)
}

func TestDeriveAssetPositioning(t *testing.T) {
	signals := []signal.Result{
		sig("employment_density", signal.OutcomeExtreme),
		sig("productivity", signal.OutcomeHigh),
		sig("income_capture", signal.OutcomeHigh),
		sig("labour_capacity", signal.OutcomeLow),
	}

	tests := []struct {
		lens AssetLens
		lead string
	}{
		{LensOffice, "office_prime_hub"},
		{LensRetail, "retail_spend"},
		{LensIndustrial, "logistics_labour_tight"},
		{LensResidential, "residential_worker_demand"},
		{LensLeisure, "leisure_affluent_hub"},
		{LensMixed, "office_prime_hub"},
		{LensGeneral, "general_at_capacity"},
	}
	for _, tt := range tests {
		t.Run(string(tt.lens), func(t *testing.T) {
			got := DeriveAssetPositioning(signals, tt.lens)
			assert.Equal(t, tt.lead, got.Lead.ID)
			assert.LessOrEqual(t, len(got.Items()), MaxItems)
		})
	}

	t.Run("mixed suppresses singles consumed by any combination", func(t *testing.T) {
		got := DeriveAssetPositioning(signals, LensMixed)
		all := ids(got.Items())
		assert.Contains(t, all, "residential_worker_demand")
		assert.NotContains(t, all, "office_established")
		assert.NotContains(t, all, "retail_daytime")
	})

	t.Run("empty signals", func(t *testing.T) {
		got := DeriveAssetPositioning(nil, LensRetail)
		assert.Equal(t, positioningFallback, got.Lead)
	})
}

func TestParseAssetLens(t *testing.T) {
	l, err := ParseAssetLens("")
	require.NoError(t, err)
	assert.Equal(t, LensGeneral, l)

	l, err = ParseAssetLens(" Industrial ")
	require.NoError(t, err)
	assert.Equal(t, LensIndustrial, l)

	_, err = ParseAssetLens("hotel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown asset lens "hotel"`)
}

func TestRuleTablesValid(t *testing.T) {
	cat := signal.DefaultCatalog()
	for _, l := range Lenses {
		t.Run(string(l), func(t *testing.T) {
			assert.NoError(t, ValidateRules(RulesFor(l), cat))
		})
	}
	assert.NoError(t, ValidateRules(LogisticsRules(), cat))
}

func TestValidateRules_Problems(t *testing.T) {
	rules := []Rule{
		{ID: "a", Conditions: []Condition{{SignalID: "nope", Outcomes: []signal.Outcome{"huge"}}}, Text: "t", Why: "w"},
		{ID: "a"},
	}
	err := ValidateRules(rules, signal.DefaultCatalog())
	require.Error(t, err)
	for _, want := range []string{`unknown signal "nope"`, `unknown outcome "huge"`, "duplicate id", "no conditions", "text and why are required"} {
		assert.Contains(t, err.Error(), want)
	}
}
