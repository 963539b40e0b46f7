package malasim

import (
	"math"
	"time"
)

// SeasonalModel computes the daily transmission seasonality multiplier
// for a location, per spec.md §4.4. Exactly one variant is active per
// run, selected by the seasonality_settings.mode config key.
type SeasonalModel interface {
	// SeasonalFactor returns the multiplier applied to a location's
	// biting attractiveness on the given day.
	SeasonalFactor(today time.Time, locationID int) float64
}

// DisabledSeasonality always returns 1, used when seasonality_settings
// is turned off.
type DisabledSeasonality struct{}

func (DisabledSeasonality) SeasonalFactor(today time.Time, locationID int) float64 {
	return 1
}

// EquationSeasonality implements the sinusoidal model:
// factor = max(0, A*sin(B*pi*(day-phi)/365)) + base, per location,
// grounded on original_source/src/Environment/SeasonalEquation.cpp.
type EquationSeasonality struct {
	Base  []float64
	A     []float64
	B     []float64
	Phi   []float64

	// referenceBase/A/B/Phi hold the originally configured values, one
	// entry per zone and indexed by zone id, so
	// that UpdateSeasonality can detect "every location currently
	// sharing from's settings" and retarget them to to's settings, as
	// the original's update_seasonality does for seasonality-switching
	// population events.
	referenceBase []float64
	referenceA    []float64
	referenceB    []float64
	referencePhi  []float64
}

// NewEquationSeasonality builds a per-location equation model. settings
// holds one entry per distinct ecoclimatic zone; if fewer entries than
// numLocations are given, zoneOf maps each location to the settings
// index it should use (typically from an ecoclimatic raster).
func NewEquationSeasonality(base, a, b, phi []float64, zoneOf []int) *EquationSeasonality {
	n := len(zoneOf)
	s := &EquationSeasonality{
		Base: make([]float64, n), A: make([]float64, n),
		B: make([]float64, n), Phi: make([]float64, n),
		referenceBase: append([]float64(nil), base...), referenceA: append([]float64(nil), a...),
		referenceB: append([]float64(nil), b...), referencePhi: append([]float64(nil), phi...),
	}
	for loc, zone := range zoneOf {
		idx := zone
		if idx < 0 || idx >= len(base) {
			idx = 0
		}
		s.Base[loc], s.A[loc], s.B[loc], s.Phi[loc] = base[idx], a[idx], b[idx], phi[idx]
	}
	return s
}

func (s *EquationSeasonality) SeasonalFactor(today time.Time, locationID int) float64 {
	day := float64(DayOfYear(today))
	m := s.A[locationID] * math.Sin(s.B[locationID]*math.Pi*(day-s.Phi[locationID])/365.0)
	if m < 0 {
		m = 0
	}
	return m + s.Base[locationID]
}

// UpdateSeasonality retargets every location currently using `from`'s
// reference settings to use `to`'s settings instead, matching the
// original's update_seasonality(from, to) used when an
// update_seasonality population event fires.
func (s *EquationSeasonality) UpdateSeasonality(from, to int) {
	if from < 0 || from >= len(s.referenceBase) || to < 0 || to >= len(s.referenceBase) {
		return
	}
	for i := range s.Base {
		if s.Base[i] == s.referenceBase[from] && s.A[i] == s.referenceA[from] &&
			s.B[i] == s.referenceB[from] && s.Phi[i] == s.referencePhi[from] {
			s.Base[i], s.A[i] = s.referenceBase[to], s.referenceA[to]
			s.B[i], s.Phi[i] = s.referenceB[to], s.referencePhi[to]
		}
	}
}

// RainfallSeasonality holds one multiplier per day-of-year (length
// must equal Period, normally 365), read from a rainfall data file,
// grounded on original_source/src/Environment/SeasonalRainfall.cpp.
type RainfallSeasonality struct {
	Adjustments []float64
	Period      int
}

// NewRainfallSeasonality validates that adjustments has exactly Period
// entries, each within [0,1], per the original's build()/read() checks.
func NewRainfallSeasonality(adjustments []float64, period int) (*RainfallSeasonality, error) {
	if len(adjustments) != period {
		return nil, NewConfigError("seasonality_settings.rainfall",
			"number of rainfall data points must match the configured period")
	}
	for _, v := range adjustments {
		if v < 0 || v > 1 {
			return nil, NewConfigError("seasonality_settings.rainfall",
				"rainfall factor must be within [0,1]")
		}
	}
	return &RainfallSeasonality{Adjustments: adjustments, Period: period}, nil
}

func (s *RainfallSeasonality) SeasonalFactor(today time.Time, locationID int) float64 {
	return s.Adjustments[ClampDayOfYear(DayOfYear(today), len(s.Adjustments))]
}

// PatternSeasonality looks up a per-district, per-period (monthly or
// daily) adjustment factor, grounded on
// original_source/src/Environment/SeasonalPattern.cpp.
type PatternSeasonality struct {
	// DistrictAdjustments[districtID][periodIndex].
	DistrictAdjustments [][]float64
	IsMonthly           bool
	DistrictOf          func(locationID int) int
}

func (s *PatternSeasonality) SeasonalFactor(today time.Time, locationID int) float64 {
	district := 0
	if s.DistrictOf != nil {
		district = s.DistrictOf(locationID)
	}
	if district < 0 || district >= len(s.DistrictAdjustments) {
		district = 0
	}
	row := s.DistrictAdjustments[district]
	if s.IsMonthly {
		month := int(today.Month()) - 1
		return row[month]
	}
	return row[ClampDayOfYear(DayOfYear(today), len(row))]
}
