package malasim

import "testing"

func TestWesolowskiKernelZerosSelfDistance(t *testing.T) {
	k := WesolowskiKernel{Kappa: 1, Alpha: 1, Beta: 1, Gamma: 1}
	distances := []float64{0, 10, 20}
	population := []int{100, 200, 300}

	out := k.RelativeOutMovement(0, distances, population)
	if out[0] != 0 {
		t.Errorf("expected zero weight for self-distance, got %f", out[0])
	}
	if out[1] <= 0 || out[2] <= 0 {
		t.Errorf("expected positive weight for nonzero-distance destinations, got %v", out)
	}
}

func TestWesolowskiKernelMonotonicInDistance(t *testing.T) {
	k := WesolowskiKernel{Kappa: 1, Alpha: 1, Beta: 1, Gamma: 1}
	distances := []float64{0, 10, 50}
	population := []int{100, 200, 200}

	out := k.RelativeOutMovement(0, distances, population)
	if !(out[1] > out[2]) {
		t.Errorf("expected weight to decrease as distance grows (equal population), got near=%f far=%f", out[1], out[2])
	}
}

func TestBarabasiKernelZerosSelfDistance(t *testing.T) {
	k := BarabasiKernel{RG0: 1, BetaR: 2, Kappa: 50}
	distances := []float64{0, 5, 25}
	population := []int{100, 100, 100}

	out := k.RelativeOutMovement(0, distances, population)
	if out[0] != 0 {
		t.Errorf("expected zero weight for self-distance, got %f", out[0])
	}
	if !(out[1] > out[2]) {
		t.Errorf("expected weight to decrease as distance grows, got near=%f far=%f", out[1], out[2])
	}
}

func TestMarshallKernelPrepareAndZerosSelfDistance(t *testing.T) {
	k := &MarshallKernel{Tau: 1, Alpha: 1, Rho: 10}
	distanceMatrix := [][]float64{
		{0, 10, 40},
		{10, 0, 30},
		{40, 30, 0},
	}
	k.Prepare(distanceMatrix)

	out := k.RelativeOutMovement(0, distanceMatrix[0], []int{100, 200, 200})
	if out[0] != 0 {
		t.Errorf("expected zero weight for self-distance, got %f", out[0])
	}
	if !(out[1] > out[2]) {
		t.Errorf("expected closer destination to carry more weight given equal population, got near=%f far=%f", out[1], out[2])
	}
}

func TestBurkinaFasoKernelCapitalPenaltyReducesWeight(t *testing.T) {
	distanceMatrix := [][]float64{
		{0, 10},
		{10, 0},
	}
	population := []int{100, 100}

	base := &BurkinaFasoKernel{Tau: 1, Alpha: 1, Rho: 10, CapitalDistrict: 1, Penalty: 5,
		Travel: []float64{0, 0}, DistrictOf: []int{0, 0}}
	base.Prepare(distanceMatrix)
	baseline := base.RelativeOutMovement(0, distanceMatrix[0], population)[1]

	penalized := &BurkinaFasoKernel{Tau: 1, Alpha: 1, Rho: 10, CapitalDistrict: 1, Penalty: 5,
		Travel: []float64{0, 0}, DistrictOf: []int{1, 1}}
	penalized.Prepare(distanceMatrix)
	withPenalty := penalized.RelativeOutMovement(0, distanceMatrix[0], population)[1]

	if !(withPenalty < baseline) {
		t.Errorf("expected intra-capital movement to be penalized, got baseline=%f withPenalty=%f", baseline, withPenalty)
	}
}
