package malasim

import "math"

// ConstantCoverage returns the same treatment-access probability for
// every location and day, the default coverage model.
type ConstantCoverage struct {
	Value float64
}

func (c ConstantCoverage) CoverageAt(now int, locationID int) float64 {
	return c.Value
}

// LinearInterpolationCoverage ramps a location's treatment-access
// probability linearly from From to To between StartingTime and
// EndTime, grounded on original_source/src/Treatment/LinearTCM.cpp's
// monthly-step interpolation (installed via a change_treatment_coverage
// population event, spec.md §6).
type LinearInterpolationCoverage struct {
	StartingTime int
	EndTime      int
	From         float64
	To           float64
}

func (c LinearInterpolationCoverage) CoverageAt(now int, locationID int) float64 {
	if now <= c.StartingTime {
		return c.From
	}
	if now >= c.EndTime || c.EndTime <= c.StartingTime {
		return c.To
	}
	frac := float64(now-c.StartingTime) / float64(c.EndTime-c.StartingTime)
	return c.From + frac*(c.To-c.From)
}

// ApplyAnnualCoverageUpdate moves coverage toward 1 by rate*(1-coverage)
// once per year, truncated at the 3rd decimal and capped at 1, per
// spec.md §6's annual_coverage_update_event.
func ApplyAnnualCoverageUpdate(current, rate float64) float64 {
	next := current + rate*(1-current)
	next = math.Trunc(next*1000) / 1000
	if next > 1 {
		next = 1
	}
	return next
}
