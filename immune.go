package malasim

import "math"

// ImmuneParameters collects the immune_system config section (spec.md
// §6): acquisition/decay rates and the clinical-progression sigmoid
// parameters, grounded on
// original_source/src/Population/ImmuneSystem/ImmuneSystem.cpp.
type ImmuneParameters struct {
	BMin, BMax float64 // InfantImmuneComponent's acquire rate (BMin) and decay rate (BMax)

	AcquireRateByAge []float64 // index == age in years, clamped at 80
	DecayRate        float64

	CMax, CMin float64

	MaxClinicalProbability                float64
	ImmuneEffectOnProgressionToClinical    float64
	MidpointClinicalProgression           float64 // MID_POINT in the original, 0.25
	DurationForFullyImmune                float64
	ImmuneMaxValue                        float64
}

// clinicalProgressionMidpoint returns the configured midpoint, falling
// back to the original's hardcoded constant when unset.
func (p *ImmuneParameters) clinicalProgressionMidpoint() float64 {
	if p.MidpointClinicalProgression > 0 {
		return p.MidpointClinicalProgression
	}
	return 0.25
}

func (p *ImmuneParameters) acquireRateAt(age int) float64 {
	if age > 80 {
		age = 80
	}
	if age < 0 || age >= len(p.AcquireRateByAge) {
		return 0
	}
	return p.AcquireRateByAge[age]
}

// ImmuneComponent is the pluggable per-person decay/acquire policy
// (spec.md §4.5): InfantImmuneComponent before a configured age
// threshold, NonInfantImmuneComponent afterward, switched by a
// SwitchImmuneComponent event.
type ImmuneComponent interface {
	DecayRate(age int) float64
	AcquireRate(age int) float64
	CurrentValue(latest float64) float64
}

// NonInfantImmuneComponent applies the standard age-stratified
// acquisition curve and a flat decay rate, grounded directly on
// NonInfantImmuneComponent.cpp.
type NonInfantImmuneComponent struct {
	Params *ImmuneParameters
}

func (c *NonInfantImmuneComponent) DecayRate(age int) float64 {
	return c.Params.DecayRate
}

func (c *NonInfantImmuneComponent) AcquireRate(age int) float64 {
	return c.Params.acquireRateAt(age)
}

func (c *NonInfantImmuneComponent) CurrentValue(latest float64) float64 {
	return latest
}

// InfantImmuneComponent models the maternal-antibody-derived immunity
// carried by very young hosts: immunity decays faster than it is
// acquired and the reported current value is attenuated relative to
// the raw latest value, per InfantImmuneComponent.h's override of
// get_current_value.
type InfantImmuneComponent struct {
	Params *ImmuneParameters
}

func (c *InfantImmuneComponent) DecayRate(age int) float64 {
	return c.Params.BMax
}

func (c *InfantImmuneComponent) AcquireRate(age int) float64 {
	return c.Params.BMin
}

func (c *InfantImmuneComponent) CurrentValue(latest float64) float64 {
	return latest * latest
}

// ImmuneSystem is a host's full immune state: its current pluggable
// component, the latest scalar immune value, and the increase flag
// that toggles whether today's update acquires or decays immunity
// (spec.md §3's Person fields), grounded on ImmuneSystem.cpp.
type ImmuneSystem struct {
	Component   ImmuneComponent
	latestValue float64
	increase    bool
	params      *ImmuneParameters
}

// NewImmuneSystem creates an immune system starting with component.
func NewImmuneSystem(component ImmuneComponent, params *ImmuneParameters) *ImmuneSystem {
	return &ImmuneSystem{Component: component, params: params}
}

// SetComponent swaps the active component, used by the
// SwitchImmuneComponent scheduled event when a host crosses the
// infant/non-infant age threshold.
func (s *ImmuneSystem) SetComponent(c ImmuneComponent) {
	s.Component = c
}

// LatestValue returns the raw stored immune value.
func (s *ImmuneSystem) LatestValue() float64 {
	return s.latestValue
}

// SetLatestValue overwrites the raw stored immune value, clamped to
// [0,1].
func (s *ImmuneSystem) SetLatestValue(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.latestValue = v
}

// CurrentValue returns the component-filtered immune value used by
// clinical-progression and parasite-growth calculations.
func (s *ImmuneSystem) CurrentValue() float64 {
	return s.Component.CurrentValue(s.latestValue)
}

// SetIncrease toggles whether the next Update acquires immunity
// (Person::set_increase(true), called when the host carries at least
// one blood-stage parasite population) or decays it
// (set_increase(false), called once the host clears to susceptible).
func (s *ImmuneSystem) SetIncrease(v bool) {
	s.increase = v
}

// Increase reports the current increase/decay toggle.
func (s *ImmuneSystem) Increase() bool {
	return s.increase
}

// Update advances the immune value by one day given the host's age,
// per spec.md §4.5's two-branch toggle: when increase is set,
// latest += acquire_rate(age)*(1-latest); otherwise latest *=
// (1-decay_rate(age)).
func (s *ImmuneSystem) Update(age int) {
	if s.increase {
		acquire := s.Component.AcquireRate(age)
		s.SetLatestValue(s.latestValue + acquire*(1-s.latestValue))
		return
	}
	decay := s.Component.DecayRate(age)
	s.SetLatestValue(s.latestValue * (1 - decay))
}

// DrawRandom sets the immune value to a uniform random draw, used when
// seeding a newborn or an imported host with no infection history.
func (s *ImmuneSystem) DrawRandom(r *Random) {
	s.SetLatestValue(r.Float64())
}

// ParasiteSizeAfterDays returns the expected log10 parasite density
// after `duration` days of untreated growth/suppression at the
// person's current immune level, per
// ImmuneSystem::get_parasite_size_after_t_days:
// newSize = originalSize + duration*(log10(temp) + log10(fitness))
// where temp = c_max*(1-immune) + c_min*immune.
func (s *ImmuneSystem) ParasiteSizeAfterDays(duration int, originalSize, fitness float64) float64 {
	immune := s.LatestValue()
	temp := s.params.CMax*(1-immune) + s.params.CMin*immune
	return originalSize + float64(duration)*(math.Log10(temp)+math.Log10(fitness))
}

// ClinicalProgressionProbability returns the daily probability that an
// asymptomatic infection progresses to clinical disease, following a
// logistic-like sigmoid in the current immune value:
// p = maxProb / (1 + (immune/midpoint)^effect), per
// ImmuneSystem::get_clinical_progression_probability.
func (s *ImmuneSystem) ClinicalProgressionProbability() float64 {
	immune := s.CurrentValue()
	mid := s.params.clinicalProgressionMidpoint()
	return s.params.MaxClinicalProbability /
		(1 + math.Pow(immune/mid, s.params.ImmuneEffectOnProgressionToClinical))
}
