package malasim

// ModelDataCollector accumulates the running counters and vectors
// spec.md §3/§4.12 describes: blood-slide prevalence, treatment
// outcomes, genotype frequencies, and EIR, keyed by location,
// age-class, therapy-id, and genotype-id.
type ModelDataCollector struct {
	NumLocations int
	NumAgeClasses int

	// BloodSlidePositive/PersonDays[loc][ageClass] accumulate the
	// monthly prevalence numerator/denominator.
	BloodSlidePositive [][]int
	PersonDays         [][]int

	// InfectiousBites[loc] is today's EIR numerator, reset each day.
	InfectiousBites []int

	// CumulativeTreatments/Failures/ClinicalEpisodes[therapyID].
	CumulativeTreatments     map[int]int
	CumulativeFailures       map[int]int
	CumulativeClinicalEpisodes map[int]int

	// currentTFWindow[location][therapyID] is a rolling ring of the
	// last windowDays treatment outcomes passed to RecordOutcome (true
	// == failure; TestTreatmentFailureEvent passes UpdateFrequency*2),
	// used by AdaptiveCycling (spec.md §4.10).
	currentTFWindow map[int]map[int][]bool

	// GenotypeFrequency[genotypeID] counts carriers at the last
	// monthly snapshot.
	GenotypeFrequency map[int]int

	MutationCount int
}

// NewModelDataCollector allocates a collector sized for the given
// number of locations and age classes.
func NewModelDataCollector(numLocations, numAgeClasses int) *ModelDataCollector {
	c := &ModelDataCollector{
		NumLocations:  numLocations,
		NumAgeClasses: numAgeClasses,
		BloodSlidePositive: make([][]int, numLocations),
		PersonDays:         make([][]int, numLocations),
		InfectiousBites:    make([]int, numLocations),
		CumulativeTreatments:      make(map[int]int),
		CumulativeFailures:        make(map[int]int),
		CumulativeClinicalEpisodes: make(map[int]int),
		currentTFWindow:    make(map[int]map[int][]bool),
		GenotypeFrequency:  make(map[int]int),
	}
	for i := range c.BloodSlidePositive {
		c.BloodSlidePositive[i] = make([]int, numAgeClasses)
		c.PersonDays[i] = make([]int, numAgeClasses)
	}
	return c
}

// CollectDaily accumulates per-location person-days. The infectious-bite
// counters are incremented by the transmission driver as bites occur
// and reset by RunDailyTransmission before each day's biting.
func (c *ModelDataCollector) CollectDaily(m *Model) {
	for _, p := range m.People {
		if !p.IsAlive() {
			continue
		}
		ac := p.AgeClass
		if ac < 0 || ac >= c.NumAgeClasses {
			continue
		}
		c.PersonDays[p.CurrentLocationID][ac]++
		if p.State != Susceptible && p.State != Exposed && p.Parasites.Size() > 0 {
			c.BloodSlidePositive[p.CurrentLocationID][ac]++
		}
	}
}

// CollectMonthly recomputes genotype carrier frequencies, used for a
// monthly snapshot per spec.md §4.12.
func (c *ModelDataCollector) CollectMonthly(m *Model) {
	freq := make(map[int]int)
	for _, p := range m.People {
		if !p.IsAlive() {
			continue
		}
		for _, pop := range p.Parasites.All() {
			freq[pop.Genotype.ID]++
		}
	}
	c.GenotypeFrequency = freq
}

// RecordBite increments the EIR numerator for a location.
func (c *ModelDataCollector) RecordBite(locationID int) {
	c.InfectiousBites[locationID]++
}

// RecordTreatment records a treatment course started for therapyID,
// and updates the rolling treatment-failure window once the outcome
// (success/failure) is known via RecordOutcome.
func (c *ModelDataCollector) RecordTreatment(therapyID int) {
	c.CumulativeTreatments[therapyID]++
}

// RecordClinicalEpisode increments the clinical-episode counter for
// therapyID (or -1 for untreated episodes).
func (c *ModelDataCollector) RecordClinicalEpisode(therapyID int) {
	c.CumulativeClinicalEpisodes[therapyID]++
}

// RecordOutcome records a pass/fail treatment-failure test for
// locationID/therapyID, maintaining a rolling window of the last
// windowDays entries used by AdaptiveCycling.
func (c *ModelDataCollector) RecordOutcome(locationID, therapyID int, failed bool, windowDays int) {
	if failed {
		c.CumulativeFailures[therapyID]++
	}
	if c.currentTFWindow[locationID] == nil {
		c.currentTFWindow[locationID] = make(map[int][]bool)
	}
	w := c.currentTFWindow[locationID][therapyID]
	w = append(w, failed)
	if len(w) > windowDays {
		w = w[len(w)-windowDays:]
	}
	c.currentTFWindow[locationID][therapyID] = w
}

// CurrentTFRate returns the fraction of failures in the rolling window
// for locationID/therapyID, or 0 if no observations yet.
func (c *ModelDataCollector) CurrentTFRate(locationID, therapyID int) float64 {
	w := c.currentTFWindow[locationID][therapyID]
	if len(w) == 0 {
		return 0
	}
	fails := 0
	for _, f := range w {
		if f {
			fails++
		}
	}
	return float64(fails) / float64(len(w))
}

// RecordMutation increments the global mutation counter.
func (c *ModelDataCollector) RecordMutation() {
	c.MutationCount++
}
