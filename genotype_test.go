package malasim

import "testing"

func twoLocusSchema() *AlleleSchema {
	return NewAlleleSchema([]AlleleLocus{
		{Name: "locus0", Alleles: []string{"K", "T"}, FitnessCost: map[string]float64{"T": 0.1},
			DrugEC50Power: map[string]map[int]float64{"T": {1: 0.5}}},
		{Name: "locus1", Alleles: []string{"A", "C", "G"}},
	})
}

func TestGenotypeDatabaseInterningStability(t *testing.T) {
	db := NewGenotypeDatabase(twoLocusSchema(), nil)

	g1, err := db.Get("KA")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	g2, err := db.Get("KA")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if g1 != g2 {
		t.Errorf("expected same sequence to return identical pointer, got distinct genotypes %p != %p", g1, g2)
	}
	if g1.ID != g2.ID {
		t.Errorf("expected stable id across repeated Get calls, got %d != %d", g1.ID, g2.ID)
	}

	g3, err := db.Get("TA")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if g3.ID == g1.ID {
		t.Errorf("expected distinct sequences to receive distinct ids")
	}
	if g3.Fitness >= g1.Fitness {
		t.Errorf("expected resistant allele T to carry a fitness cost, got Fitness(TA)=%f >= Fitness(KA)=%f", g3.Fitness, g1.Fitness)
	}
}

func TestGenotypeDatabaseInvalidSequence(t *testing.T) {
	db := NewGenotypeDatabase(twoLocusSchema(), nil)

	if _, err := db.Get("K"); err == nil {
		t.Errorf("expected error for sequence of wrong length, got nil")
	}
	if _, err := db.Get("KX"); err == nil {
		t.Errorf("expected error for sequence with illegal allele character, got nil")
	}
}

func TestGenotypeDatabaseGetByID(t *testing.T) {
	db := NewGenotypeDatabase(twoLocusSchema(), nil)

	g, err := db.Get("KA")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := db.GetByID(g.ID); got != g {
		t.Errorf("GetByID(%d) = %p, want %p", g.ID, got, g)
	}
	if got := db.GetByID(9999); got != nil {
		t.Errorf("GetByID(out of range) = %v, want nil", got)
	}
}

func TestGenotypeDatabaseEC50Override(t *testing.T) {
	overrides := []EC50Override{{Pattern: ".A", DrugID: 1, Value: 9.0}}
	db := NewGenotypeDatabase(twoLocusSchema(), overrides)

	g, err := db.Get("KA")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if g.EC50PowerN[1] != 9.0 {
		t.Errorf("expected override EC50 power 9.0 for drug 1, got %f", g.EC50PowerN[1])
	}
}
