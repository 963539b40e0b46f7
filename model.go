package malasim

import (
	"github.com/pkg/errors"
)

// Strategy selects a Therapy for a person needing treatment (spec.md
// §4.10).
type Strategy interface {
	GetTherapy(m *Model, p *Person) *Therapy
	AdjustStartedTimePoint(now int)
}

// CoverageModel yields the treatment-access probability for a location
// at a simulation day (spec.md §4.2/§6).
type CoverageModel interface {
	CoverageAt(now int, locationID int) float64
}

// Reporter consumes ModelDataCollector snapshots at three lifecycle
// points (spec.md §6's "Reporter sink").
type Reporter interface {
	BeforeRun(m *Model) error
	PerStep(m *Model) error
	AfterRun(m *Model) error
}

// Model is the single root object owning every subsystem singleton
// (spec.md §9's "Global state" design note): configuration, genotype
// database, scheduler, population, and reporters. It is constructed
// once at startup; no subsystem keeps an implicit global reference
// back to it.
type Model struct {
	Config *Config

	Random    *Random
	Scheduler *Scheduler
	GenotypeDB *GenotypeDatabase

	DrugTypes map[int]*DrugType
	Therapies map[int]*Therapy
	Strategies map[int]Strategy
	ActiveStrategyID int

	Locations   []*Location
	AdminLevels *AdminLevelRegistry
	Seasonal    SeasonalModel
	Movement    MovementKernel
	Coverage    CoverageModel

	ImmuneParams *ImmuneParameters
	EpiParams    *EpidemiologicalParametersConfig
	AgeLadder    AgeClassLadder

	MutationEnabled             bool
	MutationProbabilityPerLocus float64
	MutationMask                string
	WithinHostInducedFreeRecombination bool
	CirculationPercent          float64

	MDC       *ModelDataCollector
	Reporters []Reporter

	People []*Person

	// locationPopulation caches the current living-resident count per
	// location id, refreshed once per day before transmission runs.
	locationPopulation []int
}

// NewModel constructs an empty Model shell bound to cfg; callers use
// the config loader to populate its runtime tables before calling Run.
func NewModel(cfg *Config, seed int64) *Model {
	return &Model{
		Config:     cfg,
		Random:     NewRandom(seed),
		DrugTypes:  make(map[int]*DrugType),
		Therapies:  make(map[int]*Therapy),
		Strategies: make(map[int]Strategy),
		AdminLevels: NewAdminLevelRegistry(),
	}
}

// LivingPeople returns every currently-alive person, used by the
// scheduler's per-person queue drain and by the transmission driver.
func (m *Model) LivingPeople() []*Person {
	out := make([]*Person, 0, len(m.People))
	for _, p := range m.People {
		if p.IsAlive() {
			out = append(out, p)
		}
	}
	return out
}

// ResidentsOf returns the living people currently at locationID
// (accounting for daily circulation; CurrentLocationID differs from
// ResidenceLocationID for a visitor away from home).
func (m *Model) ResidentsOf(locationID int) []*Person {
	var out []*Person
	for _, p := range m.People {
		if p.IsAlive() && p.CurrentLocationID == locationID {
			out = append(out, p)
		}
	}
	return out
}

// ActiveStrategy returns the currently selected treatment strategy.
func (m *Model) ActiveStrategy() Strategy {
	return m.Strategies[m.ActiveStrategyID]
}

// refreshLocationPopulation recomputes the per-location resident
// headcount used by the transmission driver's beta*N term.
func (m *Model) refreshLocationPopulation() {
	if m.locationPopulation == nil || len(m.locationPopulation) != len(m.Locations) {
		m.locationPopulation = make([]int, len(m.Locations))
	}
	for i := range m.locationPopulation {
		m.locationPopulation[i] = 0
	}
	for _, p := range m.People {
		if p.IsAlive() {
			m.locationPopulation[p.CurrentLocationID]++
		}
	}
}

// Run drives the simulation from the scheduler's current day to its
// configured end, applying the daily control flow described in
// spec.md §2: scheduler step, then transmission, then the monthly
// hook (spec.md §4.12's "monthly snapshot").
func (m *Model) Run() error {
	if err := m.beginRun(); err != nil {
		return errors.Wrap(err, "begin run")
	}
	for !m.Scheduler.IsFinished() {
		m.Scheduler.Step(m)
		m.refreshLocationPopulation()
		RunDailyTransmission(m)
		if err := m.perStepHook(); err != nil {
			return errors.Wrap(err, "per-step hook")
		}
	}
	return m.endRun()
}

func (m *Model) beginRun() error {
	for _, r := range m.Reporters {
		if err := r.BeforeRun(m); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) perStepHook() error {
	if m.MDC != nil {
		m.MDC.CollectDaily(m)
		if DayOfYear(m.Scheduler.CalendarDate) == 1 || m.Scheduler.CalendarDate.Day() == 1 {
			m.MDC.CollectMonthly(m)
		}
	}
	for _, r := range m.Reporters {
		if err := r.PerStep(m); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) endRun() error {
	for _, r := range m.Reporters {
		if err := r.AfterRun(m); err != nil {
			return err
		}
	}
	return nil
}
