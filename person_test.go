package malasim

import (
	"testing"
	"time"

	"github.com/segmentio/ksuid"
)

func TestPersonDieInvariants(t *testing.T) {
	params := &ImmuneParameters{CMax: 10, CMin: 1, MaxClinicalProbability: 0.5, ImmuneEffectOnProgressionToClinical: 2}
	immune := NewImmuneSystem(&NonInfantImmuneComponent{Params: params}, params)
	p := NewPerson(ksuid.New(), 0, immune)

	db := NewGenotypeDatabase(NewAlleleSchema([]AlleleLocus{
		{Name: "locus0", Alleles: []string{"A", "T"}},
	}), nil)
	g, err := db.Get("A")
	if err != nil {
		t.Fatalf("unexpected error interning genotype: %s", err)
	}
	p.Parasites.Add(NewClonalParasitePopulation(g, 2.0, 0))
	p.Drugs.Add(&DrugType{ID: 1, HalfLife: 1, CutoffConcentration: 0.01, TotalDurationDays: func(int) int { return 3 }}, 0, 1.0, 3, false)
	p.SetLiverInfection(g.ID, 0)

	p.Die()

	if p.IsAlive() {
		t.Errorf("expected IsAlive() == false after Die(), got true")
	}
	if !p.Parasites.Empty() {
		t.Errorf("expected Parasites.Empty() == true after Die(), got false")
	}
	if !p.Drugs.Empty() {
		t.Errorf("expected Drugs.Empty() == true after Die(), got false")
	}
	if p.HasLiverInfection() {
		t.Errorf("expected HasLiverInfection() == false after Die(), got true")
	}
}

func TestPersonDieCancelsQueuedEvents(t *testing.T) {
	params := &ImmuneParameters{}
	immune := NewImmuneSystem(&NonInfantImmuneComponent{Params: params}, params)
	p := NewPerson(ksuid.New(), 0, immune)
	s := NewScheduler(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 100)

	ev := NewBirthdayEvent(p, 10)
	if err := p.Schedule(s, ev); err != nil {
		t.Fatalf("unexpected schedule error: %s", err)
	}

	p.Die()

	if ev.Executable() {
		t.Errorf("expected queued event to be cancelled after Die(), but Executable() == true")
	}
}

func TestAgeClassLadderClassOf(t *testing.T) {
	ladder := AgeClassLadder{0, 5, 15, 65}
	cases := []struct {
		age  int
		want int
	}{
		{0, 0}, {4, 0}, {5, 1}, {14, 1}, {15, 2}, {64, 2}, {65, 3}, {120, 3},
	}
	for _, c := range cases {
		if got := ladder.ClassOf(c.age); got != c.want {
			t.Errorf("ClassOf(%d) = %d, want %d", c.age, got, c.want)
		}
	}
}
