package malasim

import (
	"math/rand"

	rv "github.com/kentwait/randomvariate"
	"github.com/segmentio/ksuid"
	"gonum.org/v1/gonum/stat/distuv"
)

// Random is the single PRNG service consulted by every stochastic
// choice in the engine. Per the design notes in spec.md §9, no
// subsystem seeds its own generator; everything routes through one
// Random instance owned by the Model.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random service seeded with the given seed. Two
// Random services created with the same seed and driven with the same
// call sequence produce identical output.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform pseudo-random number in [0.0, 1.0).
func (r *Random) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a uniform pseudo-random int in [0, n).
func (r *Random) Intn(n int) int {
	return r.rng.Intn(n)
}

// Bool draws a Bernoulli(p) outcome.
func (r *Random) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.rng.Float64() < p
}

// Normal draws from a normal distribution with the given mean and
// standard deviation.
func (r *Random) Normal(mean, sd float64) float64 {
	d := distuv.Normal{Mu: mean, Sigma: sd, Src: r.rng}
	return d.Rand()
}

// TruncatedNormal draws from Normal(mean, sd) re-drawing until the
// value falls within [lo, hi]. Used for absorption starting
// concentrations and clinical durations per spec.md §4.7/§4.8.
func (r *Random) TruncatedNormal(mean, sd, lo, hi float64) float64 {
	if sd <= 0 {
		if mean < lo {
			return lo
		}
		if mean > hi {
			return hi
		}
		return mean
	}
	for i := 0; i < 1000; i++ {
		v := r.Normal(mean, sd)
		if v >= lo && v <= hi {
			return v
		}
	}
	// Fall back to a clamp rather than spin forever on a pathological
	// (lo, hi) range.
	v := r.Normal(mean, sd)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Gamma draws from a Gamma distribution parameterised by shape alpha
// and rate beta, as used for the relative-biting gamma(alpha, beta)
// parameters drawn by buildPopulation (spec.md §6).
func (r *Random) Gamma(alpha, beta float64) float64 {
	d := distuv.Gamma{Alpha: alpha, Beta: beta, Src: r.rng}
	return d.Rand()
}

// Beta draws from a Beta distribution.
func (r *Random) Beta(alpha, beta float64) float64 {
	d := distuv.Beta{Alpha: alpha, Beta: beta, Src: r.rng}
	return d.Rand()
}

// Poisson draws from a Poisson distribution with mean lambda.
func (r *Random) Poisson(lambda float64) int {
	return rv.Poisson(lambda)
}

// Binomial draws from a Binomial(n, p) distribution.
func (r *Random) Binomial(n int, p float64) int {
	return rv.Binomial(n, p)
}

// Multinomial draws counts for each category given weights that sum to
// 1, totalling n draws. Grounded directly in the teacher's
// rv.MultinomialA usage (intrahost_process.go) for allocating a fixed
// population across fitness-weighted categories. The engine does not
// call it: bites are allocated one at a time with WeightedIndex.
func (r *Random) Multinomial(n int, weights []float64) []int {
	return rv.MultinomialA(n, weights)
}

// WeightedIndex draws a single category index proportional to the
// given (unnormalised) weight vector. Used for categorical sampling:
// destination choice under a movement kernel, therapy choice under
// MFT, genotype choice from a gametocytaemic population.
func (r *Random) WeightedIndex(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	target := r.rng.Float64() * total
	var cum float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if target < cum {
			return i
		}
	}
	// Floating point rounding can leave target just past the last
	// cumulative bucket; fall back to the last eligible index.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}

// Shuffle randomizes the order of a slice of n elements in place using
// the supplied swap function, matching math/rand.Shuffle's contract.
func (r *Random) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}

// Perm returns a random permutation of the integers [0, n).
func (r *Random) Perm(n int) []int {
	return r.rng.Perm(n)
}

// UUID returns a new K-sortable unique identifier, used for Person
// identity (spec.md §3's "Identity: uuid").
func (r *Random) UUID() ksuid.KSUID {
	return ksuid.New()
}
