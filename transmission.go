package malasim

import "math"

// mosquitoFeeding tracks the genotypes a single infectious mosquito
// acquired from its blood meal(s) before passing them on, per spec.md
// §4.9 step 3-4 ("mosquito between-host recombination... for each
// mosquito carrying two distinct genotypes").
type mosquitoFeeding struct {
	locationID int
	hostID     int
	genotypes  []*Genotype
}

// RunDailyTransmission performs the once-per-day movement and biting
// coupling described in spec.md §4.9. It is called once per
// simulation day after the scheduler has drained its queues.
func RunDailyTransmission(m *Model) {
	if m.MDC != nil {
		for i := range m.MDC.InfectiousBites {
			m.MDC.InfectiousBites[i] = 0
		}
	}
	runDailyMovement(m)
	m.refreshLocationPopulation()

	var feedings []mosquitoFeeding
	for locID := range m.Locations {
		feedings = append(feedings, bitesAtLocation(m, locID)...)
	}

	feedings = applyMosquitoRecombination(m, feedings)
	applyInfections(m, feedings)
	applyMosquitoMutation(m, feedings)
	ResolvePendingInfections(m)
}

// runDailyMovement lets each resident draw whether to circulate today
// and, if so, choose a destination via the configured spatial kernel
// and schedule a return, per spec.md §4.9's movement-before-biting
// rule.
func runDailyMovement(m *Model) {
	if m.Movement == nil || m.CirculationPercent <= 0 {
		return
	}
	distances := buildDistanceRow(m)
	for _, p := range m.LivingPeople() {
		if p.CurrentLocationID != p.ResidenceLocationID {
			continue // already travelling; return is handled by its own scheduled event
		}
		if !m.Random.Bool(m.CirculationPercent) {
			continue
		}
		weights := m.Movement.RelativeOutMovement(p.ResidenceLocationID, distances[p.ResidenceLocationID], m.locationPopulation)
		if sum(weights) <= 0 {
			continue
		}
		dest := m.Random.WeightedIndex(weights)
		if dest == p.ResidenceLocationID {
			continue
		}
		p.PendingTargetLocationID = dest
		p.CurrentLocationID = dest
		tripDays := 1 + m.Random.Intn(7)
		_ = p.Schedule(m.Scheduler, NewReturnToResidenceEvent(p, m.Scheduler.CurrentTime+tripDays))
	}
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

// buildDistanceRow lazily computes (and caches nothing -- recomputed
// per day since this toy scale keeps it cheap) the pairwise distance
// matrix between every pair of locations.
func buildDistanceRow(m *Model) [][]float64 {
	n := len(m.Locations)
	out := make([][]float64, n)
	cellSize := m.Config.SpatialSettings.GridBased.CellSizeKm
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			out[i][j] = DistanceKm(m.Locations[i], m.Locations[j], cellSize)
		}
	}
	return out
}

// bitesAtLocation samples the day's mosquito feeding events at one
// location and returns, for each mosquito that successfully acquired
// a genotype, a mosquitoFeeding ready for recombination/injection.
func bitesAtLocation(m *Model, locationID int) []mosquitoFeeding {
	loc := m.Locations[locationID]
	n := m.locationPopulation[locationID]
	if n == 0 {
		return nil
	}
	seasonal := 1.0
	if m.Seasonal != nil {
		seasonal = m.Seasonal.SeasonalFactor(m.Scheduler.CalendarDate, locationID)
	}
	numBites := int(math.Round(loc.Beta * float64(n) * seasonal))
	if numBites <= 0 {
		return nil
	}

	residents := m.ResidentsOf(locationID)
	if len(residents) == 0 {
		return nil
	}
	weights := make([]float64, len(residents))
	for i, p := range residents {
		weights[i] = p.CurrentRelativeBitingRate
	}

	var feedings []mosquitoFeeding
	infectivity := InfectivityParameters{
		Sigma: m.EpiParams.RelativeInfectivitySigma,
		Rho:   m.EpiParams.RelativeInfectivityRhoStar,
	}
	for i := 0; i < numBites; i++ {
		if sum(weights) <= 0 {
			break
		}
		idx := m.Random.WeightedIndex(weights)
		host := residents[idx]
		gametocytaemic := host.Parasites.GametocytaemicGenotypes()
		if len(gametocytaemic) == 0 {
			continue
		}
		maxInfectivity := 0.0
		for _, pop := range host.Parasites.All() {
			if iv := pop.Infectivity(infectivity); iv > maxInfectivity {
				maxInfectivity = iv
			}
		}
		if !m.Random.Bool(maxInfectivity) {
			continue
		}
		g := gametocytaemic[m.Random.Intn(len(gametocytaemic))]
		feedings = append(feedings, mosquitoFeeding{locationID: locationID, hostID: idx, genotypes: []*Genotype{g}})
		m.RecordBiteIfCollecting(locationID)
	}
	return feedings
}

// RecordBiteIfCollecting records an infectious bite with the data
// collector, if one is attached.
func (m *Model) RecordBiteIfCollecting(locationID int) {
	if m.MDC != nil {
		m.MDC.RecordBite(locationID)
	}
}

// applyMosquitoRecombination merges feedings picked up by the same
// mosquito bite sequence when they carry two distinct genotypes,
// producing a recombinant offspring genotype interned via the
// genotype database (spec.md §4.9 step 3). In this single-bite-per-
// mosquito model, recombination instead applies when a mosquito's
// feeding genotypes list already holds more than one entry;
// bitesAtLocation builds every feeding with a single genotype, so
// feedings produced by this package pass through unchanged.
func applyMosquitoRecombination(m *Model, feedings []mosquitoFeeding) []mosquitoFeeding {
	if !m.WithinHostInducedFreeRecombination {
		return feedings
	}
	out := make([]mosquitoFeeding, 0, len(feedings))
	for _, f := range feedings {
		if len(f.genotypes) < 2 {
			out = append(out, f)
			continue
		}
		a, b := f.genotypes[0], f.genotypes[1]
		if a.Sequence == b.Sequence {
			out = append(out, mosquitoFeeding{locationID: f.locationID, hostID: f.hostID, genotypes: []*Genotype{a}})
			continue
		}
		recombinant, alleles := recombine(m, a, b)
		g, err := m.GenotypeDB.Get(recombinant)
		if err != nil {
			continue
		}
		_ = alleles
		out = append(out, mosquitoFeeding{locationID: f.locationID, hostID: f.hostID, genotypes: []*Genotype{g}})
	}
	return out
}

// recombine independently picks each locus from parent a or b with
// equal probability, producing a free-recombination offspring
// sequence.
func recombine(m *Model, a, b *Genotype) (string, []int) {
	out := make([]byte, len(a.Sequence))
	for i := range out {
		if m.Random.Bool(0.5) {
			out[i] = a.Sequence[i]
		} else {
			out[i] = b.Sequence[i]
		}
	}
	return string(out), nil
}

// applyInfections calls InfectHost for every mosquito feeding that
// survived recombination, queuing each bite's genotype onto its host's
// PendingInfectionGenotypeIDs; ResolvePendingInfections later resolves
// same-host duplicates.
func applyInfections(m *Model, feedings []mosquitoFeeding) {
	residentsByLocation := make(map[int][]*Person, len(m.Locations))
	for _, f := range feedings {
		residents, ok := residentsByLocation[f.locationID]
		if !ok {
			residents = m.ResidentsOf(f.locationID)
			residentsByLocation[f.locationID] = residents
		}
		if f.hostID < 0 || f.hostID >= len(residents) {
			continue
		}
		host := residents[f.hostID]
		for _, g := range f.genotypes {
			InfectHost(m, host, g)
		}
	}
}

// InfectHost records that host was bitten by a mosquito carrying
// genotype g, deferring the actual liver-stage establishment to
// ResolvePendingInfections at end of day. Multiple bites landing on
// the same host on the same day all accumulate here and are resolved
// down to at most one infection, per spec.md §4.9 step 4's
// today_infections_/randomly_choose_parasite/infected_by sequence.
func InfectHost(m *Model, host *Person, g *Genotype) {
	if host.State == Dead {
		return
	}
	host.PendingInfectionGenotypeIDs = append(host.PendingInfectionGenotypeIDs, g.ID)
}

// ResolvePendingInfections runs once per day, after all of today's
// bites have been recorded via InfectHost: for every host carrying one
// or more pending genotype ids, it picks exactly one (uniformly at
// random when more than one bite landed today) and, if the host's
// liver slot is still empty, establishes it there. Hosts already
// carrying a liver infection simply drop their pending ids, matching
// infected_by's "liver slot occupied" no-op.
func ResolvePendingInfections(m *Model) {
	for _, p := range m.LivingPeople() {
		ids := p.PendingInfectionGenotypeIDs
		if len(ids) == 0 {
			continue
		}
		p.PendingInfectionGenotypeIDs = nil
		if p.HasLiverInfection() {
			continue
		}
		id := ids[0]
		if len(ids) > 1 {
			id = ids[m.Random.Intn(len(ids))]
		}
		g := m.GenotypeDB.GetByID(id)
		if g == nil {
			continue
		}
		establishLiverInfection(m, p, g)
	}
}

// establishLiverInfection occupies host's (empty) liver slot with
// genotype g and schedules its promotion to a blood-stage clone, per
// spec.md §4.7's "Bite + uninfected liver" transition.
func establishLiverInfection(m *Model, host *Person, g *Genotype) {
	host.SetLiverInfection(g.ID, 0)
	if host.State == Susceptible {
		host.State = Exposed
	}
	_ = host.Schedule(m.Scheduler, NewMoveParasiteToBloodEvent(host, m.Scheduler.CurrentTime+7))
}

// applyMosquitoMutation subjects each newly-produced mosquito-side
// genotype to per-locus independent Bernoulli mutation, per spec.md
// §4.9 step 5.
func applyMosquitoMutation(m *Model, feedings []mosquitoFeeding) {
	if !m.MutationEnabled || m.MutationProbabilityPerLocus <= 0 {
		return
	}
	for _, f := range feedings {
		for _, g := range f.genotypes {
			mutated, changed := m.GenotypeDB.Mutate(m.Random, g.Sequence, m.MutationMask, m.MutationProbabilityPerLocus)
			if !changed {
				continue
			}
			if _, err := m.GenotypeDB.Get(mutated); err == nil && m.MDC != nil {
				m.MDC.RecordMutation()
			}
		}
	}
}
