package malasim

// BirthdayEvent increases a person's age by one year and reschedules
// itself for the following year, grounded on
// original_source/src/Events/BirthdayEvent.cpp's self-rescheduling
// pattern.
type BirthdayEvent struct {
	BaseEvent
}

func NewBirthdayEvent(p *Person, time int) *BirthdayEvent {
	return &BirthdayEvent{BaseEvent: NewBaseEvent(time)}
}

func (e *BirthdayEvent) Name() string { return "BirthdayEvent" }

func (e *BirthdayEvent) Execute(m *Model, p *Person) {
	p.AgeYears++
	p.AgeClass = m.AgeLadder.ClassOf(p.AgeYears)
	if p.AgeYears == 1 {
		p.Immune.SetComponent(&NonInfantImmuneComponent{Params: m.ImmuneParams})
	}
	daysToNextYear := DaysToNextBirthday(AddDays(m.Scheduler.CalendarDate, -p.AgeYears*365), m.Scheduler.CalendarDate)
	if daysToNextYear <= 0 {
		daysToNextYear = 365
	}
	_ = p.Schedule(m.Scheduler, NewBirthdayEvent(p, m.Scheduler.CurrentTime+daysToNextYear))
}

// MoveParasiteToBloodEvent promotes the liver-stage infection into a
// blood-stage ClonalParasitePopulation, per spec.md §4.7.
type MoveParasiteToBloodEvent struct {
	BaseEvent
}

func NewMoveParasiteToBloodEvent(p *Person, time int) *MoveParasiteToBloodEvent {
	return &MoveParasiteToBloodEvent{BaseEvent: NewBaseEvent(time)}
}

func (e *MoveParasiteToBloodEvent) Name() string { return "MoveParasiteToBloodEvent" }

func (e *MoveParasiteToBloodEvent) Execute(m *Model, p *Person) {
	if !p.HasLiverInfection() {
		return
	}
	g := m.GenotypeDB.GetByID(p.LiverGenotypeID())
	if g == nil {
		p.ClearLiverInfection()
		return
	}
	clone := NewClonalParasitePopulation(g, p.LiverLogDensity(), m.Scheduler.CurrentTime)
	p.Parasites.Add(clone)
	p.ClearLiverInfection()
	p.State = Asymptomatic

	dClinical := m.EpiParams.DaysToClinicalOverFive
	if p.AgeYears < 5 {
		dClinical = m.EpiParams.DaysToClinicalUnderFive
	}
	clone.ClinicalThresholdLog10 = asymptomaticLogPlateau
	_ = p.Schedule(m.Scheduler, NewProgressToClinicalEvent(p, clone, m.Scheduler.CurrentTime+dClinical))

	dGametocyte := m.EpiParams.DaysMatureGametocyteOverFive
	if p.AgeYears < 5 {
		dGametocyte = m.EpiParams.DaysMatureGametocyteUnderFive
	}
	_ = p.Schedule(m.Scheduler, NewMatureGametocyteEvent(p, clone, m.Scheduler.CurrentTime+dGametocyte))
}

// MatureGametocyteEvent sets the carried clone's gametocyte level once
// it has matured, making the host eligible to infect a biting
// mosquito, per spec.md §3/§4.9 and
// original_source/src/Events/MatureGametocyteEvent.h's
// schedule_mature_gametocyte_event.
type MatureGametocyteEvent struct {
	BaseEvent
	BloodParasite *ClonalParasitePopulation
}

func NewMatureGametocyteEvent(p *Person, bloodParasite *ClonalParasitePopulation, time int) *MatureGametocyteEvent {
	return &MatureGametocyteEvent{BaseEvent: NewBaseEvent(time), BloodParasite: bloodParasite}
}

func (e *MatureGametocyteEvent) Name() string { return "MatureGametocyteEvent" }

func (e *MatureGametocyteEvent) Execute(m *Model, p *Person) {
	if p.State == Dead || e.BloodParasite.Cleared() {
		return
	}
	e.BloodParasite.GametocyteLevel = 1
}

// ProgressToClinicalEvent decides, per spec.md §4.7, whether an
// asymptomatic infection becomes clinically apparent and, if so,
// whether it is treated.
type ProgressToClinicalEvent struct {
	BaseEvent
	ClinicalCausedParasite *ClonalParasitePopulation
}

func NewProgressToClinicalEvent(p *Person, caused *ClonalParasitePopulation, time int) *ProgressToClinicalEvent {
	return &ProgressToClinicalEvent{BaseEvent: NewBaseEvent(time), ClinicalCausedParasite: caused}
}

func (e *ProgressToClinicalEvent) Name() string { return "ProgressToClinicalEvent" }

func (e *ProgressToClinicalEvent) Execute(m *Model, p *Person) {
	if p.State == Dead {
		return
	}
	if e.ClinicalCausedParasite.Cleared() {
		return
	}
	if !m.Random.Bool(p.Immune.ClinicalProgressionProbability()) {
		return
	}
	if p.State == Clinical {
		return
	}
	p.State = Clinical

	pTreatment := m.Coverage.CoverageAt(m.Scheduler.CurrentTime, p.CurrentLocationID)
	if !m.Random.Bool(pTreatment) {
		e.handleNoTreatment(m, p)
		return
	}
	e.handleTreatment(m, p)
}

func (e *ProgressToClinicalEvent) handleNoTreatment(m *Model, p *Person) {
	if m.MDC != nil {
		m.MDC.RecordClinicalEpisode(-1)
	}
	endDays := int(m.Random.TruncatedNormal(9.5, 2, 5, 14))
	_ = p.Schedule(m.Scheduler, NewEndClinicalByNoTreatmentEvent(p, e.ClinicalCausedParasite, m.Scheduler.CurrentTime+endDays))

	ageClass := p.AgeClass
	mortality := 0.0
	if ageClass >= 0 && ageClass < len(m.Config.PopulationDemographic.MortalityWhenTreatmentFailByAgeClass) {
		mortality = m.Config.PopulationDemographic.MortalityWhenTreatmentFailByAgeClass[ageClass]
	}
	if m.Random.Bool(mortality) {
		p.Die()
		return
	}
	if m.Random.Bool(m.EpiParams.PRelapse) {
		relapseDays := int(m.Random.TruncatedNormal(m.EpiParams.RelapseDurationMean, m.EpiParams.RelapseDurationSD, 1, 365))
		_ = p.Schedule(m.Scheduler, NewProgressToClinicalEvent(p, e.ClinicalCausedParasite, m.Scheduler.CurrentTime+relapseDays))
	}
}

func (e *ProgressToClinicalEvent) handleTherapy(m *Model, p *Person) *Therapy {
	strategy := m.ActiveStrategy()
	if strategy == nil {
		return nil
	}
	return strategy.GetTherapy(m, p)
}

func (e *ProgressToClinicalEvent) handleTreatment(m *Model, p *Person) {
	therapy := e.handleTherapy(m, p)
	if therapy == nil {
		e.handleNoTreatment(m, p)
		return
	}
	ReceiveTherapy(m, p, therapy, e.ClinicalCausedParasite, false)
	if m.MDC != nil {
		m.MDC.RecordClinicalEpisode(therapy.ID)
		m.MDC.RecordTreatment(therapy.ID)
	}
	_ = p.Schedule(m.Scheduler, NewTestTreatmentFailureEvent(p, e.ClinicalCausedParasite, therapy.ID, m.Scheduler.CurrentTime+28))

	ageClass := p.AgeClass
	mortality := 0.0
	if ageClass >= 0 && ageClass < len(m.Config.PopulationDemographic.MortalityWhenTreatmentFailByAgeClass) {
		mortality = m.Config.PopulationDemographic.MortalityWhenTreatmentFailByAgeClass[ageClass] * m.EpiParams.TreatmentFailureDeathMortalityFactor
	}
	if m.Random.Bool(mortality) {
		p.Die()
	}
}

// EndClinicalByNoTreatmentEvent resolves an untreated clinical episode
// back to Asymptomatic (if other parasites remain) or Susceptible.
type EndClinicalByNoTreatmentEvent struct {
	BaseEvent
	ClinicalCausedParasite *ClonalParasitePopulation
}

func NewEndClinicalByNoTreatmentEvent(p *Person, caused *ClonalParasitePopulation, time int) *EndClinicalByNoTreatmentEvent {
	return &EndClinicalByNoTreatmentEvent{BaseEvent: NewBaseEvent(time), ClinicalCausedParasite: caused}
}

func (e *EndClinicalByNoTreatmentEvent) Name() string { return "EndClinicalByNoTreatmentEvent" }

func (e *EndClinicalByNoTreatmentEvent) Execute(m *Model, p *Person) {
	if p.State == Dead {
		return
	}
	e.ClinicalCausedParasite.UpdateFunction = UpdateImmunityClearance
	if !p.Parasites.Empty() {
		p.State = Asymptomatic
		return
	}
	p.ReconcileStateAfterParasiteClearance()
}

// TestTreatmentFailureEvent checks, 28 days after treatment, whether
// the originally clinical-causing parasite is still detectable and,
// if so, records a treatment failure for the therapy used.
type TestTreatmentFailureEvent struct {
	BaseEvent
	ClinicalCausedParasite *ClonalParasitePopulation
	TherapyID              int
}

func NewTestTreatmentFailureEvent(p *Person, caused *ClonalParasitePopulation, therapyID, time int) *TestTreatmentFailureEvent {
	return &TestTreatmentFailureEvent{BaseEvent: NewBaseEvent(time), ClinicalCausedParasite: caused, TherapyID: therapyID}
}

func (e *TestTreatmentFailureEvent) Name() string { return "TestTreatmentFailureEvent" }

func (e *TestTreatmentFailureEvent) Execute(m *Model, p *Person) {
	failed := !e.ClinicalCausedParasite.Cleared()
	if m.MDC != nil {
		m.MDC.RecordOutcome(p.CurrentLocationID, e.TherapyID, failed, m.EpiParams.UpdateFrequency*2)
	}
}

// ReceiveTherapy adds each drug of a single-course therapy to the
// host, or schedules the therapy's remaining components for a
// multi-course therapy, per spec.md §4.7/§4.8. It is exposed as a
// function (rather than only via ReceiveTherapyEvent) so MDA and
// relapse paths can reuse the same logic.
func ReceiveTherapy(m *Model, p *Person, therapy *Therapy, caused *ClonalParasitePopulation, isPartOfMAC bool) {
	if therapy.IsMultiCourse() {
		for _, comp := range therapy.Components {
			t := m.Therapies[comp.TherapyID]
			if t == nil {
				continue
			}
			if comp.StartDay == 0 {
				ReceiveTherapy(m, p, t, caused, true)
			} else {
				_ = p.Schedule(m.Scheduler, NewReceiveTherapyEvent(p, t, caused, m.Scheduler.CurrentTime+comp.StartDay))
			}
		}
		p.LastTherapyID = therapy.ID
		return
	}
	dosingDays := therapy.Dosing.Sample(m.Random)
	ageClass := p.AgeClass
	for _, drugID := range therapy.DrugTypeIDs {
		dt := m.DrugTypes[drugID]
		if dt == nil {
			continue
		}
		mean, sd := 1.0, 0.1
		if ageClass >= 0 && ageClass < len(dt.AbsorptionMeanByAgeClass) {
			mean = dt.AbsorptionMeanByAgeClass[ageClass]
			sd = dt.AbsorptionSDByAgeClass[ageClass]
		}
		startValue := m.Random.TruncatedNormal(mean, sd, 0, mean*3)
		p.Drugs.Add(dt, m.Scheduler.CurrentTime, startValue, dosingDays, isPartOfMAC)
	}
	p.LastTherapyID = therapy.ID
}

// ReceiveTherapyEvent delivers a later component of a multi-course
// therapy regimen.
type ReceiveTherapyEvent struct {
	BaseEvent
	Therapy                *Therapy
	ClinicalCausedParasite *ClonalParasitePopulation
}

func NewReceiveTherapyEvent(p *Person, therapy *Therapy, caused *ClonalParasitePopulation, time int) *ReceiveTherapyEvent {
	return &ReceiveTherapyEvent{BaseEvent: NewBaseEvent(time), Therapy: therapy, ClinicalCausedParasite: caused}
}

func (e *ReceiveTherapyEvent) Name() string { return "ReceiveTherapyEvent" }

func (e *ReceiveTherapyEvent) Execute(m *Model, p *Person) {
	if p.State == Dead {
		return
	}
	ReceiveTherapy(m, p, e.Therapy, e.ClinicalCausedParasite, true)
}

// SwitchImmuneComponentEvent transitions a host from the infant to the
// non-infant immune component at the configured age threshold.
type SwitchImmuneComponentEvent struct {
	BaseEvent
}

func NewSwitchImmuneComponentEvent(p *Person, time int) *SwitchImmuneComponentEvent {
	return &SwitchImmuneComponentEvent{BaseEvent: NewBaseEvent(time)}
}

func (e *SwitchImmuneComponentEvent) Name() string { return "SwitchImmuneComponentEvent" }

func (e *SwitchImmuneComponentEvent) Execute(m *Model, p *Person) {
	p.Immune.SetComponent(&NonInfantImmuneComponent{Params: m.ImmuneParams})
}

// ReturnToResidenceEvent brings a travelling person back to their
// residence location at the end of a circulation trip (spec.md
// §4.9's movement-before-biting rule).
type ReturnToResidenceEvent struct {
	BaseEvent
}

func NewReturnToResidenceEvent(p *Person, time int) *ReturnToResidenceEvent {
	return &ReturnToResidenceEvent{BaseEvent: NewBaseEvent(time)}
}

func (e *ReturnToResidenceEvent) Name() string { return "ReturnToResidenceEvent" }

func (e *ReturnToResidenceEvent) Execute(m *Model, p *Person) {
	p.CurrentLocationID = p.ResidenceLocationID
	p.PendingTargetLocationID = -1
}

// ReceiveMDATherapyEvent delivers a mass-drug-administration course,
// scheduled by single_round_MDA population events (spec.md §6).
type ReceiveMDATherapyEvent struct {
	BaseEvent
	Therapy *Therapy
}

func NewReceiveMDATherapyEvent(p *Person, therapy *Therapy, time int) *ReceiveMDATherapyEvent {
	return &ReceiveMDATherapyEvent{BaseEvent: NewBaseEvent(time), Therapy: therapy}
}

func (e *ReceiveMDATherapyEvent) Name() string { return "ReceiveMDATherapyEvent" }

func (e *ReceiveMDATherapyEvent) Execute(m *Model, p *Person) {
	if p.State == Dead {
		return
	}
	ReceiveTherapy(m, p, e.Therapy, nil, false)
}
