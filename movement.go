package malasim

import "math"

// MovementKernel computes, for a source location, the unnormalised
// relative out-movement weight toward every other location, per
// spec.md §4.11. The caller turns the returned vector into a
// categorical draw over destinations via Random.WeightedIndex.
type MovementKernel interface {
	// RelativeOutMovement returns one weight per destination location
	// (same indexing as distances/population), with the weight for
	// `from` itself and for any zero-distance pair forced to zero.
	RelativeOutMovement(from int, distances []float64, population []int) []float64
}

func isZero(v float64) bool {
	return math.Abs(v) < 1e-9
}

// WesolowskiKernel implements the gravity model
// N_ij = kappa * N_i^alpha * N_j^beta / d_ij^gamma
// from Wesolowski et al. (PLOS Comp Biol 2015).
type WesolowskiKernel struct {
	Kappa, Alpha, Beta, Gamma float64
}

func (k WesolowskiKernel) RelativeOutMovement(from int, distances []float64, population []int) []float64 {
	out := make([]float64, len(distances))
	for j, d := range distances {
		if isZero(d) {
			continue
		}
		out[j] = k.Kappa * math.Pow(float64(population[from]), k.Alpha) *
			math.Pow(float64(population[j]), k.Beta) / math.Pow(d, k.Gamma)
	}
	return out
}

// WesolowskiSurfaceKernel is WesolowskiKernel divided by
// (1 + travel[from] + travel[dest]), where travel is a per-location
// normalised travel-time surface derived from a raster.
type WesolowskiSurfaceKernel struct {
	Kappa, Alpha, Beta, Gamma float64
	Travel                    []float64
}

func (k WesolowskiSurfaceKernel) RelativeOutMovement(from int, distances []float64, population []int) []float64 {
	out := make([]float64, len(distances))
	for j, d := range distances {
		if isZero(d) {
			continue
		}
		base := k.Kappa * math.Pow(float64(population[from]), k.Alpha) *
			math.Pow(float64(population[j]), k.Beta) / math.Pow(d, k.Gamma)
		if k.Travel != nil {
			base /= 1 + k.Travel[from] + k.Travel[j]
		}
		out[j] = base
	}
	return out
}

// MarshallKernel implements N_j^tau * (1 + d_ij/rho)^(-alpha), from
// Marshall et al. 2018. The distance kernel (1 + d/rho)^-alpha is
// precomputed once via Prepare for efficiency, matching the C++
// original's prepare_kernel step.
type MarshallKernel struct {
	Tau, Alpha, Rho float64
	kernel          map[int][]float64
}

// Prepare precomputes the (1 + d/rho)^-alpha term for every
// source/destination pair, given the full distance matrix (indexed
// [from][to]).
func (k *MarshallKernel) Prepare(distanceMatrix [][]float64) {
	k.kernel = make(map[int][]float64, len(distanceMatrix))
	for from, row := range distanceMatrix {
		k.kernel[from] = make([]float64, len(row))
		for to, d := range row {
			k.kernel[from][to] = math.Pow(1+d/k.Rho, -k.Alpha)
		}
	}
}

func (k *MarshallKernel) RelativeOutMovement(from int, distances []float64, population []int) []float64 {
	out := make([]float64, len(distances))
	for j, d := range distances {
		if isZero(d) {
			continue
		}
		out[j] = math.Pow(float64(population[j]), k.Tau) * k.kernel[from][j]
	}
	return out
}

// BurkinaFasoKernel is the Marshall-style kernel with an optional
// travel-time surface penalty and an intra-capital-district penalty
// factor, tuned for Burkina Faso movement data.
type BurkinaFasoKernel struct {
	Tau, Alpha, Rho float64
	CapitalDistrict int
	Penalty         float64
	Travel          []float64
	// DistrictOf maps a location index to its district admin-unit id,
	// used to detect intra-capital movement.
	DistrictOf []int
	kernel     map[int][]float64
}

// Prepare precomputes the (1 + d/rho)^-alpha distance kernel.
func (k *BurkinaFasoKernel) Prepare(distanceMatrix [][]float64) {
	k.kernel = make(map[int][]float64, len(distanceMatrix))
	for from, row := range distanceMatrix {
		k.kernel[from] = make([]float64, len(row))
		for to, d := range row {
			k.kernel[from][to] = math.Pow(1+d/k.Rho, -k.Alpha)
		}
	}
}

func (k *BurkinaFasoKernel) RelativeOutMovement(from int, distances []float64, population []int) []float64 {
	out := make([]float64, len(distances))
	srcDistrict := -1
	if k.DistrictOf != nil {
		srcDistrict = k.DistrictOf[from]
	}
	for j, d := range distances {
		if isZero(d) {
			continue
		}
		p := math.Pow(float64(population[j]), k.Tau) * k.kernel[from][j]
		if k.Travel != nil {
			p /= 1 + k.Travel[from] + k.Travel[j]
		}
		if srcDistrict == k.CapitalDistrict && k.DistrictOf != nil && k.DistrictOf[j] == k.CapitalDistrict {
			p /= k.Penalty
		}
		out[j] = p
	}
	return out
}

// BarabasiKernel implements (d_ij + r_g^0)^(-beta_r) * exp(-d_ij/kappa),
// from Gonzalez, Hidalgo & Barabasi 2008 (radius-of-gyration model).
type BarabasiKernel struct {
	RG0, BetaR, Kappa float64
}

func (k BarabasiKernel) RelativeOutMovement(from int, distances []float64, population []int) []float64 {
	out := make([]float64, len(distances))
	for j, d := range distances {
		if isZero(d) {
			continue
		}
		out[j] = math.Pow(d+k.RG0, -k.BetaR) * math.Exp(-d/k.Kappa)
	}
	return out
}
