package lens

import "github.com/regioniq/insight-cli/internal/signal"

const (
	sigDensity      = "employment_density"
	sigProductivity = "productivity"
	sigIncome       = "income_capture"
	sigLabour       = "labour_capacity"
	sigGrowth       = "growth_composition"
	sigMomentum     = "output_momentum"
)

var (
	dense      = []signal.Outcome{signal.OutcomeExtreme, signal.OutcomeHigh}
	sparse     = []signal.Outcome{signal.OutcomeLow}
	productive = []signal.Outcome{signal.OutcomeExtreme, signal.OutcomeHigh}
	richIncome = []signal.Outcome{signal.OutcomeExtremeHigh, signal.OutcomeHigh}
	poorIncome = []signal.Outcome{signal.OutcomeExtremeLow, signal.OutcomeLow}
	high       = []signal.Outcome{signal.OutcomeHigh}
	low        = []signal.Outcome{signal.OutcomeLow}
)

func when(id string, outcomes []signal.Outcome) Condition {
	return Condition{SignalID: id, Outcomes: outcomes}
}

var logisticsFallback = Item{
	ID:       "logistics_baseline",
	Text:     "No structural pressure on logistics demand or labour; site selection should rest on access and supply",
	Why:      "Employment density, labour capacity and growth composition all sit between their high and low thresholds",
	Priority: 0,
}

var positioningFallback = Item{
	ID:       "positioning_baseline",
	Text:     "Balanced local fundamentals; positioning should follow asset-level quality rather than the macro backdrop",
	Why:      "No signal cleared its high or low threshold for this location",
	Priority: 0,
}

// LogisticsRules is the logistics and industrial table in priority order.
func LogisticsRules() []Rule {
	return []Rule{
		{
			ID:         "logistics_labour_competition",
			Conditions: []Condition{when(sigLabour, low), when(sigGrowth, high)},
			Text:       "Competing employers are absorbing the local workforce; secure labour before committing to large sheds",
			Why:        "Jobs are growing faster than residents in an already tight labour market",
			Priority:   100,
		},
		{
			ID:         "logistics_labour_squeeze",
			Conditions: []Condition{when(sigLabour, low), when(sigGrowth, low)},
			Text:       "Labour is tight and population growth is not translating into local jobs; plan for automation and wage premiums",
			Why:        "The employment rate is at the tight threshold while population outpaces job growth",
			Priority:   95,
		},
		{
			ID:         "logistics_labour_tight",
			Conditions: []Condition{when(sigLabour, low)},
			Text:       "Recruitment for warehouse and driver roles will be competitive",
			Why:        "The employment rate is at or above the tight-market threshold",
			Priority:   80,
		},
		{
			ID:         "logistics_labour_available",
			Conditions: []Condition{when(sigLabour, high)},
			Text:       "Available workforce supports labour-intensive distribution operations",
			Why:        "The employment rate is at or below the slack-market threshold",
			Priority:   70,
		},
		{
			ID:         "logistics_business_demand",
			Conditions: []Condition{when(sigGrowth, high)},
			Text:       "Job-led growth is adding business demand for B2B and last-mile distribution",
			Why:        "Jobs are growing faster than population",
			Priority:   65,
		},
		{
			ID:         "logistics_consumer_demand",
			Conditions: []Condition{when(sigGrowth, low)},
			Text:       "Population-led growth favours consumer fulfilment and parcel delivery",
			Why:        "Population is growing faster than jobs",
			Priority:   62,
		},
		{
			ID:         "logistics_urban",
			Conditions: []Condition{when(sigDensity, dense)},
			Text:       "Dense employment base supports urban logistics close to demand",
			Why:        "Jobs per working-age resident clear the importer threshold",
			Priority:   60,
		},
		{
			ID:         "logistics_modern_stock",
			Conditions: []Condition{when(sigMomentum, high)},
			Text:       "Output is outgrowing jobs, pointing to demand for modern, automated stock",
			Why:        "GVA growth exceeds employment growth by more than the momentum threshold",
			Priority:   58,
		},
		{
			ID:         "logistics_specialist",
			Conditions: []Condition{when(sigProductivity, productive)},
			Text:       "High-value output points to demand for specialist and time-critical logistics",
			Why:        "GVA per job clears the high-productivity threshold",
			Priority:   55,
		},
		{
			ID:         "logistics_large_sites",
			Conditions: []Condition{when(sigDensity, sparse)},
			Text:       "Residential catchment with few local jobs suits larger sites staffed from the local workforce",
			Why:        "Jobs per working-age resident are at or below the commuter threshold",
			Priority:   50,
		},
		{
			ID:         "logistics_ecommerce",
			Conditions: []Condition{when(sigIncome, richIncome)},
			Text:       "Strong household spending supports e-commerce volumes",
			Why:        "Household income per head is high relative to output per head",
			Priority:   45,
		},
		{
			ID:         "logistics_value_parcels",
			Conditions: []Condition{when(sigIncome, poorIncome)},
			Text:       "Lower household income relative to output tempers consumer parcel demand",
			Why:        "Household income per head is low relative to output per head",
			Priority:   40,
		},
	}
}

func officeRules() []Rule {
	return []Rule{
		{
			ID:         "office_prime_hub",
			Conditions: []Condition{when(sigDensity, dense), when(sigProductivity, productive)},
			Text:       "Deep, high-value occupier market; supports prime office rents",
			Why:        "A dense employment base coincides with high output per job",
			Priority:   100,
		},
		{
			ID:         "office_established",
			Conditions: []Condition{when(sigDensity, dense)},
			Text:       "Established office market with a broad occupier base",
			Why:        "Jobs per working-age resident clear the importer threshold",
			Priority:   80,
		},
		{
			ID:         "office_high_value",
			Conditions: []Condition{when(sigProductivity, productive)},
			Text:       "High-value occupiers can absorb higher rents for quality space",
			Why:        "GVA per job clears the high-productivity threshold",
			Priority:   75,
		},
		{
			ID:         "office_expansion",
			Conditions: []Condition{when(sigGrowth, high)},
			Text:       "Job-led growth points to expansion demand from existing occupiers",
			Why:        "Jobs are growing faster than population",
			Priority:   70,
		},
		{
			ID:         "office_retention",
			Conditions: []Condition{when(sigLabour, low)},
			Text:       "Occupiers competing for staff favour well-located, amenity-rich space",
			Why:        "The employment rate is at or above the tight-market threshold",
			Priority:   60,
		},
		{
			ID:         "office_momentum",
			Conditions: []Condition{when(sigMomentum, high)},
			Text:       "Rising output per worker supports rental growth for good stock",
			Why:        "GVA growth exceeds employment growth by more than the momentum threshold",
			Priority:   55,
		},
		{
			ID:         "office_local_flex",
			Conditions: []Condition{when(sigDensity, sparse)},
			Text:       "Limited local occupier base; demand skews to small suites and flexible space",
			Why:        "Jobs per working-age resident are at or below the commuter threshold",
			Priority:   50,
		},
	}
}

func retailRules() []Rule {
	return []Rule{
		{
			ID:         "retail_growing_affluent",
			Conditions: []Condition{when(sigIncome, richIncome), when(sigGrowth, low)},
			Text:       "A growing, affluent resident base supports convenience and destination retail",
			Why:        "High household income relative to output with population outpacing jobs",
			Priority:   100,
		},
		{
			ID:         "retail_spend",
			Conditions: []Condition{when(sigIncome, richIncome)},
			Text:       "Household spending power supports mid to upper-market retail",
			Why:        "Household income per head is high relative to output per head",
			Priority:   80,
		},
		{
			ID:         "retail_value",
			Conditions: []Condition{when(sigIncome, poorIncome)},
			Text:       "Value-led and discount formats match local spending power",
			Why:        "Household income per head is low relative to output per head",
			Priority:   70,
		},
		{
			ID:         "retail_catchment_growth",
			Conditions: []Condition{when(sigGrowth, low)},
			Text:       "A growing resident catchment adds convenience demand",
			Why:        "Population is growing faster than jobs",
			Priority:   65,
		},
		{
			ID:         "retail_daytime",
			Conditions: []Condition{when(sigDensity, dense)},
			Text:       "Daytime worker population supports food, beverage and convenience retail",
			Why:        "Jobs per working-age resident clear the importer threshold",
			Priority:   60,
		},
		{
			ID:         "retail_local_centres",
			Conditions: []Condition{when(sigDensity, sparse)},
			Text:       "Spending is resident-driven; local centres outperform city-centre formats",
			Why:        "Jobs per working-age resident are at or below the commuter threshold",
			Priority:   55,
		},
	}
}

func residentialRules() []Rule {
	return []Rule{
		{
			ID:         "residential_worker_demand",
			Conditions: []Condition{when(sigDensity, dense), when(sigLabour, low)},
			Text:       "Jobs outnumber residents in a tight labour market; rental demand from incoming workers",
			Why:        "A dense employment base coincides with an employment rate at the tight threshold",
			Priority:   100,
		},
		{
			ID:         "residential_population_growth",
			Conditions: []Condition{when(sigGrowth, low)},
			Text:       "Population is outgrowing jobs; housing demand is rising",
			Why:        "Population is growing faster than jobs",
			Priority:   80,
		},
		{
			ID:         "residential_inward_migration",
			Conditions: []Condition{when(sigGrowth, high)},
			Text:       "Job growth will draw new residents into the area",
			Why:        "Jobs are growing faster than population",
			Priority:   75,
		},
		{
			ID:         "residential_price_point",
			Conditions: []Condition{when(sigIncome, richIncome)},
			Text:       "Household incomes support higher price points",
			Why:        "Household income per head is high relative to output per head",
			Priority:   70,
		},
		{
			ID:         "residential_affordability",
			Conditions: []Condition{when(sigIncome, poorIncome)},
			Text:       "Affordability constrains rents; focus on value and build-to-rent at scale",
			Why:        "Household income per head is low relative to output per head",
			Priority:   60,
		},
		{
			ID:         "residential_commuter",
			Conditions: []Condition{when(sigDensity, sparse)},
			Text:       "Commuter base where connectivity drives values",
			Why:        "Jobs per working-age resident are at or below the commuter threshold",
			Priority:   55,
		},
	}
}

func leisureRules() []Rule {
	return []Rule{
		{
			ID:         "leisure_affluent_hub",
			Conditions: []Condition{when(sigDensity, dense), when(sigIncome, richIncome)},
			Text:       "Affluent residents and weekday workers support premium leisure and hospitality",
			Why:        "A dense employment base coincides with high household income",
			Priority:   100,
		},
		{
			ID:         "leisure_spend",
			Conditions: []Condition{when(sigIncome, richIncome)},
			Text:       "Discretionary spending power supports experiential leisure",
			Why:        "Household income per head is high relative to output per head",
			Priority:   80,
		},
		{
			ID:         "leisure_footfall",
			Conditions: []Condition{when(sigDensity, dense)},
			Text:       "Weekday worker footfall supports daytime food and beverage",
			Why:        "Jobs per working-age resident clear the importer threshold",
			Priority:   75,
		},
		{
			ID:         "leisure_catchment",
			Conditions: []Condition{when(sigGrowth, low)},
			Text:       "A growing resident catchment supports family leisure",
			Why:        "Population is growing faster than jobs",
			Priority:   65,
		},
		{
			ID:         "leisure_value",
			Conditions: []Condition{when(sigIncome, poorIncome)},
			Text:       "Price-sensitive catchment favours value leisure formats",
			Why:        "Household income per head is low relative to output per head",
			Priority:   55,
		},
		{
			ID:         "leisure_staffing",
			Conditions: []Condition{when(sigLabour, low)},
			Text:       "Staffing hospitality venues will be difficult",
			Why:        "The employment rate is at or above the tight-market threshold",
			Priority:   50,
		},
	}
}

func generalRules() []Rule {
	return []Rule{
		{
			ID:         "general_at_capacity",
			Conditions: []Condition{when(sigProductivity, productive), when(sigLabour, low)},
			Text:       "High-output economy running at capacity",
			Why:        "GVA per job clears the high-productivity threshold with the employment rate at the tight threshold",
			Priority:   100,
		},
		{
			ID:         "general_hub",
			Conditions: []Condition{when(sigDensity, []signal.Outcome{signal.OutcomeExtreme})},
			Text:       "A regional employment hub drawing workers from a wide area",
			Why:        "Jobs per working-age resident clear the hub threshold",
			Priority:   80,
		},
		{
			ID:         "general_productive",
			Conditions: []Condition{when(sigProductivity, productive)},
			Text:       "Output per job is well above typical levels",
			Why:        "GVA per job clears the high-productivity threshold",
			Priority:   70,
		},
		{
			ID:         "general_jobs_led",
			Conditions: []Condition{when(sigGrowth, high)},
			Text:       "Growth is job-led",
			Why:        "Jobs are growing faster than population",
			Priority:   65,
		},
		{
			ID:         "general_population_led",
			Conditions: []Condition{when(sigGrowth, low)},
			Text:       "Growth is population-led",
			Why:        "Population is growing faster than jobs",
			Priority:   62,
		},
		{
			ID:         "general_labour_tight",
			Conditions: []Condition{when(sigLabour, low)},
			Text:       "The labour market is tight",
			Why:        "The employment rate is at or above the tight-market threshold",
			Priority:   60,
		},
		{
			ID:         "general_labour_slack",
			Conditions: []Condition{when(sigLabour, high)},
			Text:       "There is spare labour capacity",
			Why:        "The employment rate is at or below the slack-market threshold",
			Priority:   58,
		},
		{
			ID:         "general_income",
			Conditions: []Condition{when(sigIncome, richIncome)},
			Text:       "Residents capture more income than the local economy produces per head",
			Why:        "Household income per head is high relative to output per head",
			Priority:   50,
		},
		{
			ID:         "general_commuter",
			Conditions: []Condition{when(sigDensity, sparse)},
			Text:       "A residential area whose workers commute out",
			Why:        "Jobs per working-age resident are at or below the commuter threshold",
			Priority:   45,
		},
		{
			ID:         "general_low_value",
			Conditions: []Condition{when(sigProductivity, low)},
			Text:       "Output per job trails typical levels",
			Why:        "GVA per job is at or below the low-productivity threshold",
			Priority:   40,
		},
	}
}

// RulesFor returns the positioning table for a lens. Industrial uses the
// logistics table; mixed combines office, retail and residential.
func RulesFor(l AssetLens) []Rule {
	switch l {
	case LensOffice:
		return officeRules()
	case LensRetail:
		return retailRules()
	case LensIndustrial:
		return LogisticsRules()
	case LensResidential:
		return residentialRules()
	case LensLeisure:
		return leisureRules()
	case LensMixed:
		var out []Rule
		out = append(out, officeRules()...)
		out = append(out, retailRules()...)
		out = append(out, residentialRules()...)
		return out
	default:
		return generalRules()
	}
}
