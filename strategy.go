package malasim

import "github.com/pkg/errors"

// SFTStrategy (single first-line therapy) always returns the same
// configured therapy, per spec.md §4.10.
type SFTStrategy struct {
	TherapyID int
}

func (s *SFTStrategy) GetTherapy(m *Model, p *Person) *Therapy {
	return m.Therapies[s.TherapyID]
}

func (s *SFTStrategy) AdjustStartedTimePoint(now int) {}

// MFTStrategy (multiple first-line therapy) samples one of several
// therapies via a configured weight vector each time it is consulted.
type MFTStrategy struct {
	TherapyIDs []int
	Weights    []float64
}

func (s *MFTStrategy) GetTherapy(m *Model, p *Person) *Therapy {
	idx := m.Random.WeightedIndex(s.Weights)
	return m.Therapies[s.TherapyIDs[idx]]
}

func (s *MFTStrategy) AdjustStartedTimePoint(now int) {}

// CyclingStrategy returns whichever therapy is currently active and
// rotates to the next one in its list every CyclingPeriodDays.
type CyclingStrategy struct {
	TherapyIDs        []int
	CyclingPeriodDays int

	activeIndex int
	startedTime int
}

func (s *CyclingStrategy) GetTherapy(m *Model, p *Person) *Therapy {
	s.maybeRotate(m.Scheduler.CurrentTime)
	return m.Therapies[s.TherapyIDs[s.activeIndex]]
}

func (s *CyclingStrategy) maybeRotate(now int) {
	if s.CyclingPeriodDays <= 0 {
		return
	}
	if now-s.startedTime >= s.CyclingPeriodDays {
		s.activeIndex = (s.activeIndex + 1) % len(s.TherapyIDs)
		s.startedTime = now
	}
}

func (s *CyclingStrategy) AdjustStartedTimePoint(now int) {
	s.startedTime = now
}

// AdaptiveCyclingStrategy rotates to the next therapy once the
// currently active one's rolling treatment-failure rate exceeds
// TFThreshold (spec.md §4.10). The rate is taken over the collector's
// rolling outcome window, which holds the last UpdateFrequency*2
// outcomes; TFWindowDays is stored but not read by GetTherapy.
type AdaptiveCyclingStrategy struct {
	TherapyIDs   []int
	TFThreshold  float64
	TFWindowDays int
	LocationID   int // representative location whose TF window drives rotation

	activeIndex int
	startedTime int
}

func (s *AdaptiveCyclingStrategy) GetTherapy(m *Model, p *Person) *Therapy {
	if m.MDC != nil {
		rate := m.MDC.CurrentTFRate(s.LocationID, s.TherapyIDs[s.activeIndex])
		if rate > s.TFThreshold {
			s.activeIndex = (s.activeIndex + 1) % len(s.TherapyIDs)
			s.startedTime = m.Scheduler.CurrentTime
		}
	}
	return m.Therapies[s.TherapyIDs[s.activeIndex]]
}

func (s *AdaptiveCyclingStrategy) AdjustStartedTimePoint(now int) {
	s.startedTime = now
}

// NestedMFTStrategy first samples an outer category (a sub-strategy),
// then delegates GetTherapy to it, per spec.md §4.10.
type NestedMFTStrategy struct {
	Inner        []Strategy
	OuterWeights []float64
}

func (s *NestedMFTStrategy) GetTherapy(m *Model, p *Person) *Therapy {
	idx := m.Random.WeightedIndex(s.OuterWeights)
	return s.Inner[idx].GetTherapy(m, p)
}

func (s *NestedMFTStrategy) AdjustStartedTimePoint(now int) {
	for _, inner := range s.Inner {
		inner.AdjustStartedTimePoint(now)
	}
}

// ModifySlotZero replaces slot 0 of the nested strategy with
// replacement, per spec.md §6's modify_nested_mft_strategy.
func (s *NestedMFTStrategy) ModifySlotZero(replacement Strategy) {
	if len(s.Inner) == 0 {
		s.Inner = []Strategy{replacement}
		return
	}
	s.Inner[0] = replacement
}

// NestedMFTMultiLocationStrategy is NestedMFTStrategy with a
// per-location outer-category assignment instead of a single shared
// weight vector.
type NestedMFTMultiLocationStrategy struct {
	Inner                   []Strategy
	OuterStrategyByLocation map[int]int
	DefaultOuterIndex       int
}

func (s *NestedMFTMultiLocationStrategy) GetTherapy(m *Model, p *Person) *Therapy {
	idx, ok := s.OuterStrategyByLocation[p.ResidenceLocationID]
	if !ok {
		idx = s.DefaultOuterIndex
	}
	return s.Inner[idx].GetTherapy(m, p)
}

func (s *NestedMFTMultiLocationStrategy) AdjustStartedTimePoint(now int) {
	for _, inner := range s.Inner {
		inner.AdjustStartedTimePoint(now)
	}
}

// DistrictMFTStrategy looks up the person's district and delegates to
// that district's MFT strategy. Each district may be bound to at most
// one MFT (spec.md §4.10/§8's "set_district_strategy twice on the
// same district signals an error").
type DistrictMFTStrategy struct {
	Districts  *AdminBoundary
	byDistrict map[int]*MFTStrategy
}

// NewDistrictMFTStrategy creates a strategy bound to the given
// "district" admin boundary level.
func NewDistrictMFTStrategy(districts *AdminBoundary) *DistrictMFTStrategy {
	return &DistrictMFTStrategy{Districts: districts, byDistrict: make(map[int]*MFTStrategy)}
}

// SetDistrictStrategy binds districtID to mft. Returns an error if the
// district already has a bound strategy.
func (s *DistrictMFTStrategy) SetDistrictStrategy(districtID int, mft *MFTStrategy) error {
	if _, exists := s.byDistrict[districtID]; exists {
		return errors.Errorf("district %d already has a bound MFT strategy", districtID)
	}
	s.byDistrict[districtID] = mft
	return nil
}

func (s *DistrictMFTStrategy) GetTherapy(m *Model, p *Person) *Therapy {
	districtID, _ := s.Districts.UnitOf(p.ResidenceLocationID)
	mft := s.byDistrict[districtID]
	if mft == nil {
		return nil
	}
	return mft.GetTherapy(m, p)
}

func (s *DistrictMFTStrategy) AdjustStartedTimePoint(now int) {}
