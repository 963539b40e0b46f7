package malasim

import "github.com/segmentio/ksuid"

// AgeClassLadder discretizes an integer age in years into a
// configured age-class index, per spec.md §3's "age-class
// (discretized via a configurable age ladder)".
type AgeClassLadder []int

// ClassOf returns the index of the highest boundary not exceeding age,
// clamped to the ladder's range. Boundaries must be sorted ascending.
func (l AgeClassLadder) ClassOf(age int) int {
	idx := 0
	for i, boundary := range l {
		if age >= boundary {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// Person is one simulated host (spec.md §3). Identity fields never
// change after creation; the rest mutate daily via scheduled events
// and the transmission driver.
type Person struct {
	UID                 ksuid.KSUID
	ResidenceLocationID int

	CurrentLocationID int
	AgeYears          int
	BirthdaySimDay    int
	AgeClass          int

	State HostState

	MovingLevel               int
	InnateRelativeBitingRate  float64
	CurrentRelativeBitingRate float64
	LastUpdateTime            int

	Immune    *ImmuneSystem
	Parasites *ClonalParasitePopulations
	Drugs     *DrugSet

	// liverGenotypeID holds the genotype of the single infection
	// occupying the "liver" stage, or -1 if empty (spec.md §3's "at
	// most one genotype may occupy the liver slot" invariant).
	liverGenotypeID   int
	liverLogDensity   float64

	// PendingInfectionGenotypeIDs accumulates genotypes the host was
	// exposed to by today's biting events (via InfectHost), resolved at
	// end of day by ResolvePendingInfections, which picks exactly one
	// uniformly at random when more than one bite landed on the same
	// host today (spec.md §4.9 step 4's randomly_choose_parasite).
	PendingInfectionGenotypeIDs []int

	// PendingTargetLocationID, when >= 0, is the destination chosen by
	// today's movement decision; a ReturnToResidence event is
	// scheduled to bring the host back (spec.md §4.9).
	PendingTargetLocationID int

	// TherapyStartingBloodLevel is a per-drug-type-id map allocated by
	// NewPerson; nothing in this package writes to it. Later courses of
	// a multi-course therapy reuse a drug's starting level through
	// DrugSet.Add instead.
	TherapyStartingBloodLevel map[int]float64

	// LastTherapyID is the therapy most recently received. It is
	// recorded by ReceiveTherapy; TestTreatmentFailureEvent attributes
	// failures by its own TherapyID instead.
	LastTherapyID int

	queue personQueue

	deathCount int
}

// NewPerson creates a newly-susceptible, uninfected host resident at
// locationID.
func NewPerson(uid ksuid.KSUID, locationID int, immune *ImmuneSystem) *Person {
	return &Person{
		UID:                       uid,
		ResidenceLocationID:       locationID,
		CurrentLocationID:         locationID,
		State:                     Susceptible,
		Immune:                    immune,
		Parasites:                 NewClonalParasitePopulations(),
		Drugs:                     NewDrugSet(),
		liverGenotypeID:           -1,
		PendingTargetLocationID:   -1,
		TherapyStartingBloodLevel: make(map[int]float64),
		LastTherapyID:             -1,
	}
}

// IsAlive reports whether this host is not in the Dead state.
func (p *Person) IsAlive() bool {
	return p.State != Dead
}

// HasLiverInfection reports whether the liver slot is occupied.
func (p *Person) HasLiverInfection() bool {
	return p.liverGenotypeID >= 0
}

// SetLiverInfection occupies the (necessarily empty) liver slot with
// genotypeID at the given starting log10 density. Overwriting an
// already-occupied slot is a programming error per spec.md §3's
// single-occupancy invariant, so the prior occupant is simply
// replaced -- callers are expected to check HasLiverInfection first.
func (p *Person) SetLiverInfection(genotypeID int, logDensity float64) {
	p.liverGenotypeID = genotypeID
	p.liverLogDensity = logDensity
}

// ClearLiverInfection empties the liver slot, called once
// MoveParasiteToBloodEvent promotes it into a ClonalParasitePopulation.
func (p *Person) ClearLiverInfection() {
	p.liverGenotypeID = -1
	p.liverLogDensity = 0
}

// LiverGenotypeID returns the occupying genotype id, or -1 if empty.
func (p *Person) LiverGenotypeID() int { return p.liverGenotypeID }

// LiverLogDensity returns the starting log10 density recorded when the
// liver slot was occupied.
func (p *Person) LiverLogDensity() float64 { return p.liverLogDensity }

// Schedule inserts a person-local event via the given scheduler,
// enforcing the scheduler's time-range validation.
func (p *Person) Schedule(s *Scheduler, e PersonEvent) error {
	return s.SchedulePerson(p, e)
}

// CancelAllEventsExcept marks every queued event other than keep as
// non-executable (spec.md §4.2's cancel_all_events_except).
func (p *Person) CancelAllEventsExcept(keep PersonEvent) {
	for _, e := range p.queue {
		if e != keep {
			e.Cancel()
		}
	}
}

// CancelAllEventsOfName marks every queued event whose Name() equals
// name as non-executable (spec.md §4.2's cancel_all_events<T>(),
// generalized from a dynamic type match to a name match since Go
// events are identified by Name() rather than RTTI).
func (p *Person) CancelAllEventsOfName(name string) {
	for _, e := range p.queue {
		if e.Name() == name {
			e.Cancel()
		}
	}
}

// Die transitions the host to Dead, enforcing spec.md §3's Dead
// invariants: no parasites, no drugs, empty (cancelled) event queue.
func (p *Person) Die() {
	p.State = Dead
	p.Parasites.Clear()
	p.Drugs.Clear()
	p.ClearLiverInfection()
	for _, e := range p.queue {
		e.Cancel()
	}
	p.deathCount++
}

// DeathCount returns the number of times Die has been called on this
// person (>1 would indicate an imported/recycled identity being
// reused across a death, used only for diagnostics).
func (p *Person) DeathCount() int { return p.deathCount }

// EventQueueLen returns the number of events currently queued
// (including cancelled-but-not-yet-drained ones).
func (p *Person) EventQueueLen() int { return len(p.queue) }

// UpdateImmuneAndParasites advances the immune system and every
// carried parasite population to `now`, applying update_by_drugs
// after the immune-driven update per spec.md §4.6.
func (p *Person) UpdateImmuneAndParasites(now int, drugTypes map[int]*DrugType, db *GenotypeDatabase) []*ClonalParasitePopulation {
	p.Immune.SetIncrease(!p.Parasites.Empty())
	p.Immune.Update(p.AgeYears)
	p.Parasites.UpdateByDrugs(p.Drugs)
	removed := p.Parasites.Update(now, p.Immune, drugTypes, p.Drugs, db)
	p.Drugs.UpdateAndClear(now, drugTypes)
	p.LastUpdateTime = now
	return removed
}

// ReconcileStateAfterParasiteClearance adjusts host state once one or
// more parasite populations have cleared: Clinical/Asymptomatic with
// remaining parasites stays put (handled by callers reacting to
// specific events); once Parasites is empty and the liver slot is
// also empty, the host reverts to Susceptible, per spec.md §4.7's
// EndClinicalByNoTreatment transition rule generalized to any
// clearance path.
func (p *Person) ReconcileStateAfterParasiteClearance() {
	if p.Parasites.Empty() && !p.HasLiverInfection() && p.State != Dead {
		p.State = Susceptible
	}
}
