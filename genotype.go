package malasim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/segmentio/ksuid"
)

// AlleleLocus describes one locus of the allele schema configured
// under genotype_parameters.pf_genotype_info (spec.md §6): the set of
// legal characters at this locus and the per-drug daily fitness cost
// and log10 EC50 exponent each allele contributes.
type AlleleLocus struct {
	Name          string
	Alleles       []string                   // legal single-character codes at this locus, index == allele index
	FitnessCost   map[string]float64         // allele -> daily fitness cost contribution
	DrugEC50Power map[string]map[int]float64 // allele -> drug id -> log10(EC50)^n contribution
}

// AlleleSchema is the ordered list of loci that make up a genotype's
// amino-acid sequence, plus the allele-index weight vector used for
// O(1) id hashing (spec.md §4.3).
type AlleleSchema struct {
	Loci    []AlleleLocus
	weights []int
}

// NewAlleleSchema builds a schema and computes the allele-index
// weights such that id == sum(weight[i] * allele_index[i]) is unique
// for every valid tuple.
func NewAlleleSchema(loci []AlleleLocus) *AlleleSchema {
	s := &AlleleSchema{Loci: loci}
	s.weights = make([]int, len(loci))
	w := 1
	for i, locus := range loci {
		s.weights[i] = w
		w *= len(locus.Alleles)
	}
	return s
}

// Weights returns the per-locus allele-index weight vector.
func (s *AlleleSchema) Weights() []int {
	return s.weights
}

// alleleIndex returns the index of allele code within locus i, or -1.
func (s *AlleleSchema) alleleIndex(locusIdx int, allele byte) int {
	for idx, a := range s.Loci[locusIdx].Alleles {
		if len(a) == 1 && a[0] == allele {
			return idx
		}
	}
	return -1
}

// Validate checks that sequence has exactly len(Loci) characters and
// that every character is a legal allele at its locus.
func (s *AlleleSchema) Validate(sequence string) error {
	if len(sequence) != len(s.Loci) {
		return NewGenotypeError(sequence, fmt.Sprintf(
			"sequence length %d does not match schema length %d", len(sequence), len(s.Loci)))
	}
	for i := 0; i < len(sequence); i++ {
		if s.alleleIndex(i, sequence[i]) == -1 {
			return NewGenotypeError(sequence, fmt.Sprintf(
				"invalid character %q at locus %d (%s)", sequence[i], i, s.Loci[i].Name))
		}
	}
	return nil
}

// AlleleIndices decodes a sequence string into its per-locus allele
// index vector.
func (s *AlleleSchema) AlleleIndices(sequence string) ([]int, error) {
	if err := s.Validate(sequence); err != nil {
		return nil, err
	}
	out := make([]int, len(sequence))
	for i := 0; i < len(sequence); i++ {
		out[i] = s.alleleIndex(i, sequence[i])
	}
	return out, nil
}

// IDFromAlleles computes the dense integer id for an allele-index
// vector: id == sum(weight[i] * allele[i]).
func (s *AlleleSchema) IDFromAlleles(alleles []int) int {
	id := 0
	for i, a := range alleles {
		id += s.weights[i] * a
	}
	return id
}

// SequenceFromAlleles re-encodes an allele-index vector back into its
// canonical string sequence.
func (s *AlleleSchema) SequenceFromAlleles(alleles []int) string {
	var b strings.Builder
	for i, a := range alleles {
		b.WriteString(s.Loci[i].Alleles[a])
	}
	return b.String()
}

// Genotype is an interned pathogen sequence: a canonical amino-acid
// string, a dense integer id assigned at first interning, and
// precomputed daily fitness cost plus per-drug log10(EC50)^n values
// (spec.md §3).
type Genotype struct {
	ID         int
	Sequence   string
	Fitness    float64         // daily fitness multiplier, product across loci
	EC50PowerN map[int]float64 // drug id -> log10(EC50)^n, summed across loci
	UID        ksuid.KSUID     // lineage identity for mutation-history tracking
}

// ResistanceLevel returns this genotype's resistance to drugID as a
// value in [0,1], derived from its EC50 relative to the database's
// observed minimum EC50 for that drug (the most-sensitive genotype
// sits at the resistance floor). Used by the within-host DrugEffect
// update function (spec.md §4.6/§4.8).
func (g *Genotype) ResistanceLevel(minEC50 float64, drugID int) float64 {
	ec50, ok := g.EC50PowerN[drugID]
	if !ok || minEC50 <= 0 || ec50 <= minEC50 {
		return 0
	}
	return 1 - minEC50/ec50
}

// EC50Override represents one entry of genotype_parameters's
// override_ec50_patterns: a sequence pattern (with '.' wildcards) that
// forces a specific EC50 power-n value for a drug, applied after the
// additive per-locus computation.
type EC50Override struct {
	Pattern string
	DrugID  int
	Value   float64
}

// matchesPattern reports whether sequence matches a wildcard pattern
// using '.' as "any character at this position".
func matchesPattern(pattern, sequence string) bool {
	if len(pattern) != len(sequence) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '.' && pattern[i] != sequence[i] {
			return false
		}
	}
	return true
}

// GenotypeDatabase is the lazy, canonical interning table: sequence ->
// Genotype (unique) and id -> Genotype (dense), plus a per-drug
// minimum-EC50 cache (spec.md §3/§4.3).
type GenotypeDatabase struct {
	mu        sync.RWMutex
	schema    *AlleleSchema
	bySeq     map[string]*Genotype
	byID      []*Genotype
	minEC50   map[int]float64
	overrides []EC50Override
	nextID    int
}

// NewGenotypeDatabase creates an empty database bound to the given
// allele schema and EC50 override list.
func NewGenotypeDatabase(schema *AlleleSchema, overrides []EC50Override) *GenotypeDatabase {
	return &GenotypeDatabase{
		schema:    schema,
		bySeq:     make(map[string]*Genotype),
		minEC50:   make(map[int]float64),
		overrides: overrides,
	}
}

// Get returns the canonical Genotype for sequence, constructing it
// (validating against the schema, computing fitness and EC50, and
// interning it) on first request. Subsequent calls with the same
// string return the same pointer (spec.md §4.3).
func (db *GenotypeDatabase) Get(sequence string) (*Genotype, error) {
	db.mu.RLock()
	if g, ok := db.bySeq[sequence]; ok {
		db.mu.RUnlock()
		return g, nil
	}
	db.mu.RUnlock()

	if err := db.schema.Validate(sequence); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	// Re-check under the write lock; harmless even though the engine
	// is single-threaded per spec.md §5 -- matches the teacher's own
	// sync.RWMutex-guarded genotypeSet in genotype.go.
	if g, ok := db.bySeq[sequence]; ok {
		return g, nil
	}

	g := &Genotype{
		ID:         db.nextID,
		Sequence:   sequence,
		EC50PowerN: make(map[int]float64),
		UID:        ksuid.New(),
	}
	db.nextID++

	fitness := 1.0
	ec50Sums := make(map[int]float64)
	for i, locus := range db.schema.Loci {
		allele := string(sequence[i])
		if cost, ok := locus.FitnessCost[allele]; ok {
			fitness *= (1 - cost)
		}
		for drugID, power := range locus.DrugEC50Power[allele] {
			ec50Sums[drugID] += power
		}
	}
	g.Fitness = fitness
	for drugID, v := range ec50Sums {
		g.EC50PowerN[drugID] = v
	}

	for _, ov := range db.overrides {
		if matchesPattern(ov.Pattern, sequence) {
			g.EC50PowerN[ov.DrugID] = ov.Value
		}
	}

	for drugID, v := range g.EC50PowerN {
		if cur, ok := db.minEC50[drugID]; !ok || v < cur {
			db.minEC50[drugID] = v
		}
	}

	db.bySeq[sequence] = g
	db.byID = append(db.byID, g)
	return g, nil
}

// GetByID returns the genotype with the given dense id, or nil if out
// of range.
func (db *GenotypeDatabase) GetByID(id int) *Genotype {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if id < 0 || id >= len(db.byID) {
		return nil
	}
	return db.byID[id]
}

// GetByAlleles is an O(L) lookup that decodes an allele-index vector
// back to a sequence and interns/retrieves it.
func (db *GenotypeDatabase) GetByAlleles(alleles []int) (*Genotype, error) {
	sequence := db.schema.SequenceFromAlleles(alleles)
	return db.Get(sequence)
}

// MinEC50 returns the minimum observed log10(EC50)^n across all
// interned genotypes for drugID.
func (db *GenotypeDatabase) MinEC50(drugID int) float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.minEC50[drugID]
}

// Size returns the number of distinct interned genotypes.
func (db *GenotypeDatabase) Size() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.byID)
}

// Mutate applies the configured per-locus mutation mask to sequence,
// flipping each maskable locus independently with probability p and
// replacing it with a uniformly chosen different allele from the
// schema, per spec.md §4.9. mask is a string the same length as the
// sequence where '1' allows mutation at that locus.
func (db *GenotypeDatabase) Mutate(r *Random, sequence, mask string, p float64) (string, bool) {
	if len(mask) != len(sequence) {
		return sequence, false
	}
	mutated := false
	out := []byte(sequence)
	for i := 0; i < len(sequence); i++ {
		if mask[i] != '1' || p <= 0 {
			continue
		}
		if !r.Bool(p) {
			continue
		}
		locus := db.schema.Loci[i]
		if len(locus.Alleles) < 2 {
			continue
		}
		current := db.schema.alleleIndex(i, sequence[i])
		next := current
		for next == current {
			next = r.Intn(len(locus.Alleles))
		}
		out[i] = locus.Alleles[next][0]
		mutated = true
	}
	return string(out), mutated
}
