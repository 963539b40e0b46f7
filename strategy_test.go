package malasim

import "testing"

func TestDistrictMFTStrategyRejectsDoubleBinding(t *testing.T) {
	districts := NewAdminBoundary("district")
	districts.Assign(0, 1)

	s := NewDistrictMFTStrategy(districts)
	mftA := &MFTStrategy{TherapyIDs: []int{0}, Weights: []float64{1}}
	mftB := &MFTStrategy{TherapyIDs: []int{1}, Weights: []float64{1}}

	if err := s.SetDistrictStrategy(1, mftA); err != nil {
		t.Fatalf("unexpected error on first bind: %s", err)
	}
	if err := s.SetDistrictStrategy(1, mftB); err == nil {
		t.Errorf("expected error rebinding an already-bound district, got nil")
	}
}

func TestDistrictMFTStrategyGetTherapyUnboundDistrictReturnsNil(t *testing.T) {
	districts := NewAdminBoundary("district")
	districts.Assign(0, 1)
	s := NewDistrictMFTStrategy(districts)

	m := &Model{}
	p := &Person{ResidenceLocationID: 0}
	if got := s.GetTherapy(m, p); got != nil {
		t.Errorf("expected nil therapy for district with no bound strategy, got %v", got)
	}
}
