package signal

import "math"

// GrowthYears is the window used for every growth-derived computation.
const GrowthYears = 5

// CAGR returns the compound annual growth rate between start and end over
// years, as a percentage. It is 0 when start <= 0 or years <= 0.
func CAGR(start, end float64, years float64) float64 {
	if start <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(end/start, 1/years) - 1) * 100
}
