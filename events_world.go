package malasim

import "math"

// IntroduceParasitesEvent seeds numberOfCases new liver-stage
// infections of genotype sequence at a location, per spec.md §6's
// introduce_parasites.
type IntroduceParasitesEvent struct {
	BaseEvent
	LocationID       int
	GenotypeSequence string
	NumberOfCases    int
}

func NewIntroduceParasitesEvent(locationID int, sequence string, numberOfCases, time int) *IntroduceParasitesEvent {
	return &IntroduceParasitesEvent{BaseEvent: NewBaseEvent(time), LocationID: locationID, GenotypeSequence: sequence, NumberOfCases: numberOfCases}
}

func (e *IntroduceParasitesEvent) Name() string { return "IntroduceParasitesEvent" }

func (e *IntroduceParasitesEvent) Execute(m *Model) {
	g, err := m.GenotypeDB.Get(e.GenotypeSequence)
	if err != nil {
		return
	}
	residents := m.ResidentsOf(e.LocationID)
	if len(residents) == 0 {
		return
	}
	placed := 0
	for _, idx := range m.Random.Perm(len(residents)) {
		if placed >= e.NumberOfCases {
			break
		}
		host := residents[idx]
		if host.HasLiverInfection() || host.State == Dead {
			continue
		}
		InfectHost(m, host, g)
		placed++
	}
}

// IntroduceParasitesPeriodicallyEvent reschedules itself every
// PeriodDays, each time delegating to IntroduceParasitesEvent's logic.
type IntroduceParasitesPeriodicallyEvent struct {
	BaseEvent
	LocationID       int
	GenotypeSequence string
	NumberOfCases    int
	PeriodDays       int
}

func NewIntroduceParasitesPeriodicallyEvent(locationID int, sequence string, numberOfCases, periodDays, time int) *IntroduceParasitesPeriodicallyEvent {
	return &IntroduceParasitesPeriodicallyEvent{BaseEvent: NewBaseEvent(time), LocationID: locationID, GenotypeSequence: sequence, NumberOfCases: numberOfCases, PeriodDays: periodDays}
}

func (e *IntroduceParasitesPeriodicallyEvent) Name() string {
	return "IntroduceParasitesPeriodicallyEvent"
}

func (e *IntroduceParasitesPeriodicallyEvent) Execute(m *Model) {
	once := NewIntroduceParasitesEvent(e.LocationID, e.GenotypeSequence, e.NumberOfCases, m.Scheduler.CurrentTime)
	once.Execute(m)
	if e.PeriodDays > 0 {
		_ = m.Scheduler.ScheduleWorld(NewIntroduceParasitesPeriodicallyEvent(
			e.LocationID, e.GenotypeSequence, e.NumberOfCases, e.PeriodDays, m.Scheduler.CurrentTime+e.PeriodDays))
	}
}

// ChangeTreatmentCoverageEvent installs a new CoverageModel (spec.md
// §6's change_treatment_coverage).
type ChangeTreatmentCoverageEvent struct {
	BaseEvent
	NewCoverage CoverageModel
}

func NewChangeTreatmentCoverageEvent(coverage CoverageModel, time int) *ChangeTreatmentCoverageEvent {
	return &ChangeTreatmentCoverageEvent{BaseEvent: NewBaseEvent(time), NewCoverage: coverage}
}

func (e *ChangeTreatmentCoverageEvent) Name() string { return "ChangeTreatmentCoverageEvent" }

func (e *ChangeTreatmentCoverageEvent) Execute(m *Model) {
	m.Coverage = e.NewCoverage
}

// ChangeTreatmentStrategyEvent switches the active strategy id.
type ChangeTreatmentStrategyEvent struct {
	BaseEvent
	NewStrategyID int
}

func NewChangeTreatmentStrategyEvent(strategyID, time int) *ChangeTreatmentStrategyEvent {
	return &ChangeTreatmentStrategyEvent{BaseEvent: NewBaseEvent(time), NewStrategyID: strategyID}
}

func (e *ChangeTreatmentStrategyEvent) Name() string { return "ChangeTreatmentStrategyEvent" }

func (e *ChangeTreatmentStrategyEvent) Execute(m *Model) {
	m.ActiveStrategyID = e.NewStrategyID
	if s := m.ActiveStrategy(); s != nil {
		s.AdjustStartedTimePoint(m.Scheduler.CurrentTime)
	}
}

// RotateTreatmentStrategyEvent flips between two strategies every N
// years, rescheduling itself.
type RotateTreatmentStrategyEvent struct {
	BaseEvent
	StrategyA, StrategyB int
	PeriodYears          int
}

func NewRotateTreatmentStrategyEvent(a, b, periodYears, time int) *RotateTreatmentStrategyEvent {
	return &RotateTreatmentStrategyEvent{BaseEvent: NewBaseEvent(time), StrategyA: a, StrategyB: b, PeriodYears: periodYears}
}

func (e *RotateTreatmentStrategyEvent) Name() string { return "RotateTreatmentStrategyEvent" }

func (e *RotateTreatmentStrategyEvent) Execute(m *Model) {
	if m.ActiveStrategyID == e.StrategyA {
		m.ActiveStrategyID = e.StrategyB
	} else {
		m.ActiveStrategyID = e.StrategyA
	}
	if s := m.ActiveStrategy(); s != nil {
		s.AdjustStartedTimePoint(m.Scheduler.CurrentTime)
	}
	if e.PeriodYears > 0 {
		_ = m.Scheduler.ScheduleWorld(NewRotateTreatmentStrategyEvent(e.StrategyA, e.StrategyB, e.PeriodYears, m.Scheduler.CurrentTime+e.PeriodYears*365))
	}
}

// ModifyNestedMFTStrategyEvent replaces slot 0 of the given
// NestedMFTStrategy.
type ModifyNestedMFTStrategyEvent struct {
	BaseEvent
	StrategyID  int
	Replacement Strategy
}

func NewModifyNestedMFTStrategyEvent(strategyID int, replacement Strategy, time int) *ModifyNestedMFTStrategyEvent {
	return &ModifyNestedMFTStrategyEvent{BaseEvent: NewBaseEvent(time), StrategyID: strategyID, Replacement: replacement}
}

func (e *ModifyNestedMFTStrategyEvent) Name() string { return "ModifyNestedMFTStrategyEvent" }

func (e *ModifyNestedMFTStrategyEvent) Execute(m *Model) {
	if nested, ok := m.Strategies[e.StrategyID].(*NestedMFTStrategy); ok {
		nested.ModifySlotZero(e.Replacement)
	}
}

// SingleRoundMDAEvent schedules a ReceiveMDATherapyEvent for a
// configured fraction of each location's population, spread over
// DaysToCompleteAllTreatments days (spec.md §6).
type SingleRoundMDAEvent struct {
	BaseEvent
	FractionPopulationTargeted  map[int]float64
	DaysToCompleteAllTreatments int
	TherapyID                   int
}

func NewSingleRoundMDAEvent(fraction map[int]float64, days, therapyID, time int) *SingleRoundMDAEvent {
	return &SingleRoundMDAEvent{BaseEvent: NewBaseEvent(time), FractionPopulationTargeted: fraction, DaysToCompleteAllTreatments: days, TherapyID: therapyID}
}

func (e *SingleRoundMDAEvent) Name() string { return "SingleRoundMDAEvent" }

func (e *SingleRoundMDAEvent) Execute(m *Model) {
	therapy := m.Therapies[e.TherapyID]
	if therapy == nil {
		return
	}
	days := e.DaysToCompleteAllTreatments
	if days <= 0 {
		days = 1
	}
	for locID, frac := range e.FractionPopulationTargeted {
		residents := m.ResidentsOf(locID)
		for _, p := range residents {
			if !m.Random.Bool(frac) {
				continue
			}
			delay := 1 + m.Random.Intn(days)
			_ = p.Schedule(m.Scheduler, NewReceiveMDATherapyEvent(p, therapy, m.Scheduler.CurrentTime+delay))
		}
	}
}

// TurnOnMutationEvent / TurnOffMutationEvent toggle the global
// mutation switch.
type TurnOnMutationEvent struct{ BaseEvent }

func NewTurnOnMutationEvent(time int) *TurnOnMutationEvent {
	return &TurnOnMutationEvent{NewBaseEvent(time)}
}
func (e *TurnOnMutationEvent) Name() string     { return "TurnOnMutationEvent" }
func (e *TurnOnMutationEvent) Execute(m *Model) { m.MutationEnabled = true }

type TurnOffMutationEvent struct{ BaseEvent }

func NewTurnOffMutationEvent(time int) *TurnOffMutationEvent {
	return &TurnOffMutationEvent{NewBaseEvent(time)}
}
func (e *TurnOffMutationEvent) Name() string     { return "TurnOffMutationEvent" }
func (e *TurnOffMutationEvent) Execute(m *Model) { m.MutationEnabled = false }

// ChangeMutationProbabilityPerLocusEvent updates the global per-locus
// mutation probability.
type ChangeMutationProbabilityPerLocusEvent struct {
	BaseEvent
	NewProbability float64
}

func NewChangeMutationProbabilityPerLocusEvent(p float64, time int) *ChangeMutationProbabilityPerLocusEvent {
	return &ChangeMutationProbabilityPerLocusEvent{BaseEvent: NewBaseEvent(time), NewProbability: p}
}
func (e *ChangeMutationProbabilityPerLocusEvent) Name() string {
	return "ChangeMutationProbabilityPerLocusEvent"
}
func (e *ChangeMutationProbabilityPerLocusEvent) Execute(m *Model) {
	m.MutationProbabilityPerLocus = e.NewProbability
}

// ChangeMutationMaskEvent updates the global mutation mask string.
type ChangeMutationMaskEvent struct {
	BaseEvent
	NewMask string
}

func NewChangeMutationMaskEvent(mask string, time int) *ChangeMutationMaskEvent {
	return &ChangeMutationMaskEvent{BaseEvent: NewBaseEvent(time), NewMask: mask}
}
func (e *ChangeMutationMaskEvent) Name() string     { return "ChangeMutationMaskEvent" }
func (e *ChangeMutationMaskEvent) Execute(m *Model) { m.MutationMask = e.NewMask }

// ChangeWithinHostInducedFreeRecombinationEvent toggles free
// recombination during mosquito co-infection.
type ChangeWithinHostInducedFreeRecombinationEvent struct {
	BaseEvent
	Enabled bool
}

func NewChangeWithinHostInducedFreeRecombinationEvent(enabled bool, time int) *ChangeWithinHostInducedFreeRecombinationEvent {
	return &ChangeWithinHostInducedFreeRecombinationEvent{BaseEvent: NewBaseEvent(time), Enabled: enabled}
}
func (e *ChangeWithinHostInducedFreeRecombinationEvent) Name() string {
	return "ChangeWithinHostInducedFreeRecombinationEvent"
}
func (e *ChangeWithinHostInducedFreeRecombinationEvent) Execute(m *Model) {
	m.WithinHostInducedFreeRecombination = e.Enabled
}

// ChangeInterruptedFeedingRateEvent updates one location's mosquito
// interrupted-feeding rate.
type ChangeInterruptedFeedingRateEvent struct {
	BaseEvent
	LocationID int
	NewRate    float64
}

func NewChangeInterruptedFeedingRateEvent(locationID int, rate float64, time int) *ChangeInterruptedFeedingRateEvent {
	return &ChangeInterruptedFeedingRateEvent{BaseEvent: NewBaseEvent(time), LocationID: locationID, NewRate: rate}
}
func (e *ChangeInterruptedFeedingRateEvent) Name() string { return "ChangeInterruptedFeedingRateEvent" }
func (e *ChangeInterruptedFeedingRateEvent) Execute(m *Model) {
	m.Locations[e.LocationID].InterruptedFeedingRt = e.NewRate
}

// AnnualBetaUpdateEvent multiplicatively adjusts every location's
// beta by (1+rate), truncated at the 5th decimal and floored at 0,
// then reschedules itself one year later (spec.md §6).
type AnnualBetaUpdateEvent struct {
	BaseEvent
	Rate float64
}

func NewAnnualBetaUpdateEvent(rate float64, time int) *AnnualBetaUpdateEvent {
	return &AnnualBetaUpdateEvent{BaseEvent: NewBaseEvent(time), Rate: rate}
}

func (e *AnnualBetaUpdateEvent) Name() string { return "AnnualBetaUpdateEvent" }

func (e *AnnualBetaUpdateEvent) Execute(m *Model) {
	for _, loc := range m.Locations {
		next := loc.Beta * (1 + e.Rate)
		next = math.Trunc(next*1e5) / 1e5
		if next < 0 {
			next = 0
		}
		loc.Beta = next
	}
	_ = m.Scheduler.ScheduleWorld(NewAnnualBetaUpdateEvent(e.Rate, m.Scheduler.CurrentTime+365))
}

// AnnualCoverageUpdateEvent moves every location's coverage toward 1
// by rate*(1-coverage), annually (spec.md §6/§8).
type AnnualCoverageUpdateEvent struct {
	BaseEvent
	Rate float64
}

func NewAnnualCoverageUpdateEvent(rate float64, time int) *AnnualCoverageUpdateEvent {
	return &AnnualCoverageUpdateEvent{BaseEvent: NewBaseEvent(time), Rate: rate}
}

func (e *AnnualCoverageUpdateEvent) Name() string { return "AnnualCoverageUpdateEvent" }

func (e *AnnualCoverageUpdateEvent) Execute(m *Model) {
	if c, ok := m.Coverage.(ConstantCoverage); ok {
		m.Coverage = ConstantCoverage{Value: ApplyAnnualCoverageUpdate(c.Value, e.Rate)}
	}
	_ = m.Scheduler.ScheduleWorld(NewAnnualCoverageUpdateEvent(e.Rate, m.Scheduler.CurrentTime+365))
}

// ChangeCirculationPercentEvent updates the global daily circulation
// probability.
type ChangeCirculationPercentEvent struct {
	BaseEvent
	NewPercent float64
}

func NewChangeCirculationPercentEvent(p float64, time int) *ChangeCirculationPercentEvent {
	return &ChangeCirculationPercentEvent{BaseEvent: NewBaseEvent(time), NewPercent: p}
}
func (e *ChangeCirculationPercentEvent) Name() string     { return "ChangeCirculationPercentEvent" }
func (e *ChangeCirculationPercentEvent) Execute(m *Model) { m.CirculationPercent = e.NewPercent }

// ImportationPeriodicallyRandomEvent performs a monthly
// population-weighted random importation of a genotype, rescheduling
// itself.
type ImportationPeriodicallyRandomEvent struct {
	BaseEvent
	GenotypeSequence string
	PeriodDays       int
}

func NewImportationPeriodicallyRandomEvent(sequence string, periodDays, time int) *ImportationPeriodicallyRandomEvent {
	return &ImportationPeriodicallyRandomEvent{BaseEvent: NewBaseEvent(time), GenotypeSequence: sequence, PeriodDays: periodDays}
}

func (e *ImportationPeriodicallyRandomEvent) Name() string {
	return "ImportationPeriodicallyRandomEvent"
}

func (e *ImportationPeriodicallyRandomEvent) Execute(m *Model) {
	g, err := m.GenotypeDB.Get(e.GenotypeSequence)
	if err == nil {
		weights := make([]float64, len(m.Locations))
		for i, loc := range m.Locations {
			weights[i] = float64(loc.PopulationTarget)
		}
		if sum(weights) > 0 {
			locID := m.Random.WeightedIndex(weights)
			residents := m.ResidentsOf(locID)
			if len(residents) > 0 {
				host := residents[m.Random.Intn(len(residents))]
				InfectHost(m, host, g)
			}
		}
	}
	if e.PeriodDays > 0 {
		_ = m.Scheduler.ScheduleWorld(NewImportationPeriodicallyRandomEvent(e.GenotypeSequence, e.PeriodDays, m.Scheduler.CurrentTime+e.PeriodDays))
	}
}

// UpdateBetaRasterEvent replaces every location's beta from a freshly
// loaded raster.
type UpdateBetaRasterEvent struct {
	BaseEvent
	RasterPath string
}

func NewUpdateBetaRasterEvent(path string, time int) *UpdateBetaRasterEvent {
	return &UpdateBetaRasterEvent{BaseEvent: NewBaseEvent(time), RasterPath: path}
}

func (e *UpdateBetaRasterEvent) Name() string { return "UpdateBetaRasterEvent" }

func (e *UpdateBetaRasterEvent) Execute(m *Model) {
	raster, err := ReadRaster(e.RasterPath)
	if err != nil {
		return
	}
	for _, loc := range m.Locations {
		if !raster.IsNoData(loc.Row, loc.Col) {
			loc.Beta = raster.At(loc.Row, loc.Col)
		}
	}
}

// DistrictImportationDailyEvent performs daily stochastic
// importations of a genotype within a named district, rescheduling
// itself every day.
type DistrictImportationDailyEvent struct {
	BaseEvent
	District         *AdminBoundary
	DistrictID       int
	GenotypeSequence string
	Probability      float64
}

func NewDistrictImportationDailyEvent(district *AdminBoundary, districtID int, sequence string, probability float64, time int) *DistrictImportationDailyEvent {
	return &DistrictImportationDailyEvent{BaseEvent: NewBaseEvent(time), District: district, DistrictID: districtID, GenotypeSequence: sequence, Probability: probability}
}

func (e *DistrictImportationDailyEvent) Name() string { return "DistrictImportationDailyEvent" }

func (e *DistrictImportationDailyEvent) Execute(m *Model) {
	if m.Random.Bool(e.Probability) {
		g, err := m.GenotypeDB.Get(e.GenotypeSequence)
		if err == nil {
			locs := e.District.LocationsIn(e.DistrictID)
			if len(locs) > 0 {
				locID := locs[m.Random.Intn(len(locs))]
				residents := m.ResidentsOf(locID)
				if len(residents) > 0 {
					host := residents[m.Random.Intn(len(residents))]
					InfectHost(m, host, g)
				}
			}
		}
	}
	_ = m.Scheduler.ScheduleWorld(NewDistrictImportationDailyEvent(e.District, e.DistrictID, e.GenotypeSequence, e.Probability, m.Scheduler.CurrentTime+1))
}

// UpdateEcozoneEvent remaps an ecoclimatic zone in the active equation
// seasonality model.
type UpdateEcozoneEvent struct {
	BaseEvent
	From, To int
}

func NewUpdateEcozoneEvent(from, to, time int) *UpdateEcozoneEvent {
	return &UpdateEcozoneEvent{BaseEvent: NewBaseEvent(time), From: from, To: to}
}

func (e *UpdateEcozoneEvent) Name() string { return "UpdateEcozoneEvent" }

func (e *UpdateEcozoneEvent) Execute(m *Model) {
	if eq, ok := m.Seasonal.(*EquationSeasonality); ok {
		eq.UpdateSeasonality(e.From, e.To)
	}
}

// IntroduceMutantEvent switches the allele at (locus, allele) in a
// fraction of detectable infections within an optional district
// restriction, per spec.md §6's introduce_*_mutant_* family (covering
// both introduce_plas2_copy_parasite and
// introduce_triple_mutant_to_dpm from SPEC_FULL.md's supplemented
// population events).
type IntroduceMutantEvent struct {
	BaseEvent
	Locus      int
	NewAllele  string
	Fraction   float64
	DistrictID int // -1 for no district restriction
	District   *AdminBoundary
}

func NewIntroduceMutantEvent(locus int, newAllele string, fraction float64, districtID int, district *AdminBoundary, time int) *IntroduceMutantEvent {
	return &IntroduceMutantEvent{BaseEvent: NewBaseEvent(time), Locus: locus, NewAllele: newAllele, Fraction: fraction, DistrictID: districtID, District: district}
}

func (e *IntroduceMutantEvent) Name() string { return "IntroduceMutantEvent" }

func (e *IntroduceMutantEvent) Execute(m *Model) {
	for _, p := range m.LivingPeople() {
		if e.DistrictID >= 0 && e.District != nil {
			unit, ok := e.District.UnitOf(p.ResidenceLocationID)
			if !ok || unit != e.DistrictID {
				continue
			}
		}
		for _, pop := range p.Parasites.All() {
			if pop.Cleared() || !m.Random.Bool(e.Fraction) {
				continue
			}
			seq := []byte(pop.Genotype.Sequence)
			if e.Locus < 0 || e.Locus >= len(seq) {
				continue
			}
			seq[e.Locus] = e.NewAllele[0]
			g, err := m.GenotypeDB.Get(string(seq))
			if err != nil {
				continue
			}
			pop.Genotype = g
		}
	}
}
