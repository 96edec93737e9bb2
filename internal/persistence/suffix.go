package persistence

import "fmt"

// minDisclosedYears is how far out a change must be before a year is stated.
const minDisclosedYears = 6

// FormatSuffix returns the temporal qualifier appended to a conclusion, or ""
// when nothing may be claimed. Mixed scenarios and changes within five years
// of baseYear stay silent. The stated year never passes the earliest change
// in any scenario.
func FormatSuffix(p Persistence, baseYear int) string {
	if p.HoldsIn == HoldsInMixed {
		return ""
	}

	horizon := p.Horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	through := horizon
	if change := earliestChange(p); change != nil {
		if *change-baseYear < minDisclosedYears {
			return ""
		}
		through = *change - 1
	}

	suffix := fmt.Sprintf(" through %d", through)
	if p.HoldsIn == HoldsInBaseline {
		suffix += " under baseline conditions"
	}
	return suffix
}

// earliestChange is the first change year the suffix may not claim past. When
// every scenario agrees within the window, a scenario may change before the
// reference one.
func earliestChange(p Persistence) *int {
	first := p.FirstChangeYear
	if p.HoldsIn != HoldsInAll {
		return first
	}
	for _, change := range p.Scenarios {
		if change != nil && (first == nil || *change < *first) {
			first = change
		}
	}
	return first
}
