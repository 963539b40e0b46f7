package malasim

import "testing"

func TestImmuneSystemSetLatestValueClampsToUnitInterval(t *testing.T) {
	params := &ImmuneParameters{DecayRate: 0.1, AcquireRateByAge: []float64{0.2}}
	s := NewImmuneSystem(&NonInfantImmuneComponent{Params: params}, params)

	s.SetLatestValue(-1)
	if got := s.LatestValue(); got != 0 {
		t.Errorf("SetLatestValue(-1) -> LatestValue() = %f, want 0", got)
	}
	s.SetLatestValue(5)
	if got := s.LatestValue(); got != 1 {
		t.Errorf("SetLatestValue(5) -> LatestValue() = %f, want 1", got)
	}
}

func TestImmuneSystemUpdateStaysBounded(t *testing.T) {
	params := &ImmuneParameters{DecayRate: 0.05, AcquireRateByAge: make([]float64, 81)}
	for i := range params.AcquireRateByAge {
		params.AcquireRateByAge[i] = 0.3
	}
	s := NewImmuneSystem(&NonInfantImmuneComponent{Params: params}, params)

	for day := 0; day < 1000; day++ {
		s.Update(30)
		v := s.LatestValue()
		if v < 0 || v > 1 {
			t.Fatalf("day %d: LatestValue() = %f, want within [0,1]", day, v)
		}
	}
}

func TestInfantImmuneComponentAttenuatesCurrentValue(t *testing.T) {
	params := &ImmuneParameters{BMin: 0.1, BMax: 0.2}
	s := NewImmuneSystem(&InfantImmuneComponent{Params: params}, params)
	s.SetLatestValue(0.5)

	if got, want := s.CurrentValue(), 0.25; got != want {
		t.Errorf("InfantImmuneComponent.CurrentValue() = %f, want %f (latest^2)", got, want)
	}
}

func TestClinicalProgressionProbabilityDecreasesWithImmunity(t *testing.T) {
	params := &ImmuneParameters{
		CMax: 10, CMin: 1,
		MaxClinicalProbability:              0.5,
		ImmuneEffectOnProgressionToClinical: 3,
		MidpointClinicalProgression:         0.25,
	}
	s := NewImmuneSystem(&NonInfantImmuneComponent{Params: params}, params)

	s.SetLatestValue(0.1)
	low := s.ClinicalProgressionProbability()
	s.SetLatestValue(0.9)
	high := s.ClinicalProgressionProbability()

	if !(low > high) {
		t.Errorf("expected progression probability to fall as immunity rises, got low=%f high=%f", low, high)
	}
	if low < 0 || low > params.MaxClinicalProbability || high < 0 || high > params.MaxClinicalProbability {
		t.Errorf("expected probabilities within [0, MaxClinicalProbability=%f], got low=%f high=%f", params.MaxClinicalProbability, low, high)
	}
}
