package malasim

import "math"

// DrugType is the immutable pharmacology table entry for one drug:
// half-life, killing rate, age-stratified absorption parameters, and
// the loci it affects (spec.md §3).
type DrugType struct {
	ID   int
	Name string

	HalfLife      float64 // days
	MaxKillingRate float64

	// AbsorptionMeanByAgeClass/AbsorptionSDByAgeClass parameterise the
	// truncated-normal starting concentration draw, indexed by age
	// class (spec.md §4.8).
	AbsorptionMeanByAgeClass []float64
	AbsorptionSDByAgeClass   []float64

	// CutoffConcentration is the level below which the drug is
	// considered cleared and removed from a host.
	CutoffConcentration float64

	// AffectedLoci lists the genotype loci whose alleles this drug's
	// killing effect depends on (via the genotype's EC50 at this
	// drug).
	AffectedLoci []int

	// TotalDurationDays, given the number of dosing days, returns the
	// total number of days the drug remains above the cutoff under
	// typical compliance (used to size MAC/dosing-day bookkeeping).
	TotalDurationDays func(dosingDays int) int
}

// DecayFactor returns the fraction of concentration remaining after
// one day, derived from the drug's half-life:
// factor = 2^(-1/halfLife).
func (d *DrugType) DecayFactor() float64 {
	if d.HalfLife <= 0 {
		return 0
	}
	return math.Exp(-math.Ln2 / d.HalfLife)
}

// KillingRateFactor returns the concentration-dependent killing rate
// (not a fraction; it is scaled by MaxKillingRate) in effect at the
// given concentration, following an
// EC50-based Hill-type saturation: rate = maxRate * c / (c + ec50).
// When ec50 <= 0 the drug is assumed fully effective at any positive
// concentration.
func (d *DrugType) KillingRateFactor(concentration, ec50PowerN float64) float64 {
	if concentration <= 0 {
		return 0
	}
	ec50 := math.Pow(10, ec50PowerN)
	if ec50 <= 0 {
		return d.MaxKillingRate
	}
	return d.MaxKillingRate * concentration / (concentration + ec50)
}

// DrugInBlood is one active course of a drug within a host: pointer to
// its DrugType, the starting concentration drawn when the course
// began, the last-updated concentration/time, and the dosing window
// (spec.md §3).
type DrugInBlood struct {
	DrugTypeID   int
	StartValue   float64
	LastValue    float64
	LastUpdate   int
	DosingDays   int
	StartTime    int
	EndTime      int
}

// Update advances the drug's concentration to `now`, applying one
// decay step per elapsed day. Returns the new concentration.
func (d *DrugInBlood) Update(now int, drugType *DrugType) float64 {
	days := now - d.LastUpdate
	if days <= 0 {
		return d.LastValue
	}
	factor := drugType.DecayFactor()
	v := d.LastValue
	for i := 0; i < days; i++ {
		v *= factor
	}
	d.LastValue = v
	d.LastUpdate = now
	return v
}

// Cleared reports whether the drug's concentration has fallen below
// its type's cutoff and should be removed from the host.
func (d *DrugInBlood) Cleared(drugType *DrugType) bool {
	return d.LastValue < drugType.CutoffConcentration
}

// DrugSet is the bounded arena of active drugs a Person carries,
// addressed by DrugType id (spec.md §9's "refer by id, never by raw
// pointer" design note).
type DrugSet struct {
	byType map[int]*DrugInBlood
}

// NewDrugSet creates an empty drug arena.
func NewDrugSet() *DrugSet {
	return &DrugSet{byType: make(map[int]*DrugInBlood)}
}

// Add starts (or, if already present at a non-trivial concentration,
// tops up) a course of drugType at `now`. startValue is typically a
// truncated-normal draw from the drug's age-stratified absorption
// parameters; if reuseStart is true and a prior course of the same
// drug is still active, its recorded starting value is reused instead
// (the "carry over" interpretation of multi-course dosing chosen in
// DESIGN.md's Open Question resolution).
func (s *DrugSet) Add(drugType *DrugType, now int, startValue float64, dosingDays int, reuseStart bool) {
	if existing, ok := s.byType[drugType.ID]; ok && reuseStart && existing.LastValue > drugType.CutoffConcentration {
		existing.LastValue += existing.StartValue
		existing.DosingDays += dosingDays
		existing.EndTime = now + drugType.TotalDurationDays(existing.DosingDays)
		return
	}
	s.byType[drugType.ID] = &DrugInBlood{
		DrugTypeID: drugType.ID,
		StartValue: startValue,
		LastValue:  startValue,
		LastUpdate: now,
		DosingDays: dosingDays,
		StartTime:  now,
		EndTime:    now + drugType.TotalDurationDays(dosingDays),
	}
}

// Active returns every currently-held drug course.
func (s *DrugSet) Active() []*DrugInBlood {
	out := make([]*DrugInBlood, 0, len(s.byType))
	for _, d := range s.byType {
		out = append(out, d)
	}
	return out
}

// Get returns the active course of drugTypeID, or nil.
func (s *DrugSet) Get(drugTypeID int) *DrugInBlood {
	return s.byType[drugTypeID]
}

// Empty reports whether the host holds no drugs.
func (s *DrugSet) Empty() bool {
	return len(s.byType) == 0
}

// Clear drops every held drug, used on death (spec.md §3's Dead
// invariant: "holds no drugs").
func (s *DrugSet) Clear() {
	s.byType = make(map[int]*DrugInBlood)
}

// UpdateAndClear advances every held drug to `now` and removes courses
// that have cleared, per drugType's cutoff.
func (s *DrugSet) UpdateAndClear(now int, drugTypes map[int]*DrugType) {
	for id, d := range s.byType {
		dt := drugTypes[d.DrugTypeID]
		d.Update(now, dt)
		if d.Cleared(dt) {
			delete(s.byType, id)
		}
	}
}

// TotalKillingRate sums max_rate * concentration_factor *
// (1 - resistance_level) across every drug active against genotype g,
// per spec.md §4.8's get_total_killing_rate().
func (s *DrugSet) TotalKillingRate(drugTypes map[int]*DrugType, g *Genotype, db *GenotypeDatabase) float64 {
	var total float64
	for _, d := range s.byType {
		dt := drugTypes[d.DrugTypeID]
		ec50 := g.EC50PowerN[dt.ID]
		rate := dt.KillingRateFactor(d.LastValue, ec50)
		resistance := g.ResistanceLevel(db.MinEC50(dt.ID), dt.ID)
		total += rate * (1 - resistance)
	}
	return total
}
