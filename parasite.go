package malasim

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ParasiteUpdateFunction names the pluggable per-day behaviour of a
// ClonalParasitePopulation, per spec.md §4.6.
type ParasiteUpdateFunction int

const (
	// UpdateProgressToClinical grows density via the immune formula,
	// capped at an asymptomatic plateau. It schedules no event itself;
	// the ProgressToClinicalEvent is scheduled by
	// MoveParasiteToBloodEvent.
	UpdateProgressToClinical ParasiteUpdateFunction = iota
	// UpdateImmunityClearance applies the immune formula and then
	// subtracts a fixed 0.2 log10 per day; the population is removed
	// once below the cured threshold.
	UpdateImmunityClearance
	// UpdateDrugEffect decays density by the combined drug killing
	// rate weighted by the genotype's resistance.
	UpdateDrugEffect
)

// InfectivityParameters holds the relative_infectivity config values
// used to turn a host's parasite density into a probability of
// infecting a biting mosquito (spec.md §4.6).
type InfectivityParameters struct {
	Sigma float64
	Rho   float64 // rho* in spec.md's formula
}

// asymptomaticLogPlateau and curedLogThreshold are the log10-density constants
// bounding a clonal population's lifecycle, grounded on the
// within-host density thresholds referenced throughout
// original_source/src/Events/*ClinicalEvent.h.
const (
	asymptomaticLogPlateau = 4.5 // approximate steady-state log10 density under immune pressure
	curedLogThreshold      = 0.0 // below this a population is considered cleared
)

// ClonalParasitePopulation is one genetically-distinct parasite clone
// carried by a host: a pointer to its interned Genotype, the last
// computed log10 density, a gametocyte maturity level, and the
// currently active update function (spec.md §3).
type ClonalParasitePopulation struct {
	Genotype *Genotype

	LastDensityLog10 float64
	GametocyteLevel  float64
	LastUpdateTime   int

	UpdateFunction ParasiteUpdateFunction

	// ClinicalThresholdLog10 is the density above which this
	// population is considered to be driving a clinical episode.
	ClinicalThresholdLog10 float64

	// progressScheduled avoids scheduling more than one
	// ProgressToClinicalEvent for the same population, per spec.md
	// §4.7's "if not already scheduled" clause.
	progressScheduled bool
}

// NewClonalParasitePopulation seeds a new clone at the given starting
// log10 density (the density carried over from the liver stage when
// MoveParasiteToBloodEvent fires).
func NewClonalParasitePopulation(g *Genotype, startLog10 float64, now int) *ClonalParasitePopulation {
	return &ClonalParasitePopulation{
		Genotype:               g,
		LastDensityLog10:       startLog10,
		LastUpdateTime:         now,
		UpdateFunction:         UpdateProgressToClinical,
		ClinicalThresholdLog10: asymptomaticLogPlateau,
	}
}

// Cleared reports whether this population's density has fallen below
// the cured threshold and it should be dropped from its host's set.
func (p *ClonalParasitePopulation) Cleared() bool {
	return p.LastDensityLog10 < curedLogThreshold
}

// ScheduledProgress reports whether MarkProgressScheduled has been
// called for this population; it does not change the flag itself.
func (p *ClonalParasitePopulation) ScheduledProgress() bool {
	return p.progressScheduled
}

// MarkProgressScheduled latches the one-time ProgressToClinicalEvent
// scheduling flag.
func (p *ClonalParasitePopulation) MarkProgressScheduled() {
	p.progressScheduled = true
}

// updateDensity applies one update-function step across `days` whole
// days using the host's immune system and (for DrugEffect) active drug
// set, following spec.md §4.6's per-function formulas.
func (p *ClonalParasitePopulation) updateDensity(days int, immune *ImmuneSystem, drugKillRate float64) {
	if days <= 0 {
		return
	}
	switch p.UpdateFunction {
	case UpdateProgressToClinical:
		grown := immune.ParasiteSizeAfterDays(days, p.LastDensityLog10, p.Genotype.Fitness)
		if grown > asymptomaticLogPlateau {
			grown = asymptomaticLogPlateau
		}
		p.LastDensityLog10 = grown
	case UpdateImmunityClearance:
		// Decay: the immune formula with the genotype's own fitness,
		// minus a fixed 0.2 log10 per elapsed day.
		decayed := immune.ParasiteSizeAfterDays(days, p.LastDensityLog10, p.Genotype.Fitness) -
			float64(days)*0.2
		p.LastDensityLog10 = decayed
	case UpdateDrugEffect:
		p.LastDensityLog10 -= drugKillRate * float64(days)
	}
}

// Infectivity returns the probability that a mosquito biting this host
// acquires this population's genotype, per spec.md §4.6:
// p = Phi(d10*sigma + rho)^2 + 0.01, with zero density mapping to 0.
func (p *ClonalParasitePopulation) Infectivity(params InfectivityParameters) float64 {
	if p.LastDensityLog10 <= 0 {
		return 0
	}
	phi := distuv.Normal{Mu: 0, Sigma: 1}.CDF(p.LastDensityLog10*params.Sigma + params.Rho)
	return phi*phi + 0.01
}

// IsGametocytaemic reports whether this population carries mature
// gametocytes and is therefore eligible to infect a biting mosquito.
func (p *ClonalParasitePopulation) IsGametocytaemic() bool {
	return p.GametocyteLevel > 0 && p.LastDensityLog10 > curedLogThreshold
}

// ClonalParasitePopulations is the ordered set of clones a host
// currently carries (spec.md §3's Person.parasites).
type ClonalParasitePopulations struct {
	populations []*ClonalParasitePopulation
}

// NewClonalParasitePopulations creates an empty set.
func NewClonalParasitePopulations() *ClonalParasitePopulations {
	return &ClonalParasitePopulations{}
}

// Add appends a new clone to the set.
func (s *ClonalParasitePopulations) Add(p *ClonalParasitePopulation) {
	s.populations = append(s.populations, p)
}

// All returns every clone currently carried.
func (s *ClonalParasitePopulations) All() []*ClonalParasitePopulation {
	return s.populations
}

// Empty reports whether the host carries no parasites (spec.md §3's
// Dead/Susceptible invariant).
func (s *ClonalParasitePopulations) Empty() bool {
	return len(s.populations) == 0
}

// Size returns the number of distinct clones carried.
func (s *ClonalParasitePopulations) Size() int {
	return len(s.populations)
}

// Clear drops every clone, used on death or full recovery.
func (s *ClonalParasitePopulations) Clear() {
	s.populations = nil
}

// MaxDensityLog10 returns the highest log10 density across all clones,
// or a very negative sentinel if empty.
func (s *ClonalParasitePopulations) MaxDensityLog10() float64 {
	max := math.Inf(-1)
	for _, p := range s.populations {
		if p.LastDensityLog10 > max {
			max = p.LastDensityLog10
		}
	}
	return max
}

// UpdateByDrugs overrides the update function of every population not
// already on ImmunityClearance to DrugEffect when drugs is non-empty,
// per spec.md §4.6's update_by_drugs(drugs), invoked after the immune
// update each day. Populations on ImmunityClearance keep that function.
func (s *ClonalParasitePopulations) UpdateByDrugs(drugs *DrugSet) {
	if drugs == nil || drugs.Empty() {
		return
	}
	for _, p := range s.populations {
		if p.UpdateFunction != UpdateImmunityClearance {
			p.UpdateFunction = UpdateDrugEffect
		}
	}
}

// Update advances every clone to `now`, applying its update function
// for the elapsed days, then removes any that have cleared. Returns
// the populations removed this step so callers can react (e.g.
// transitioning clinical state when the last clone clears).
func (s *ClonalParasitePopulations) Update(now int, immune *ImmuneSystem, drugTypes map[int]*DrugType, drugs *DrugSet, db *GenotypeDatabase) []*ClonalParasitePopulation {
	var removed []*ClonalParasitePopulation
	kept := s.populations[:0]
	for _, p := range s.populations {
		days := now - p.LastUpdateTime
		killRate := 0.0
		if drugs != nil && p.UpdateFunction == UpdateDrugEffect {
			killRate = drugs.TotalKillingRate(drugTypes, p.Genotype, db)
		}
		p.updateDensity(days, immune, killRate)
		p.LastUpdateTime = now
		if p.Cleared() {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	s.populations = kept
	return removed
}

// GametocytaemicGenotypes returns the genotypes of every population
// currently able to infect a biting mosquito.
func (s *ClonalParasitePopulations) GametocytaemicGenotypes() []*Genotype {
	var out []*Genotype
	for _, p := range s.populations {
		if p.IsGametocytaemic() {
			out = append(out, p.Genotype)
		}
	}
	return out
}
