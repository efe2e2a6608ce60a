package malasim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

// GeneInfo describes one gene's position inside the pf_genotype_str schema:
// its allowed amino-acid alphabet per position and, for genes that carry a
// copy-number digit, the maximum number of copies.
type GeneInfo struct {
	Name      string
	Alphabet  []string // allowed character per amino-acid position
	MaxCopies int      // 0 or 1 means the gene carries no copy-number digit
}

// ChromosomeInfo groups the genes on one chromosome, in pf_genotype_str order.
type ChromosomeInfo struct {
	Genes []GeneInfo
}

// PfGenotypeSchema is genotype_parameters.pf_genotype_info: 14 chromosomes,
// each carrying zero or more modeled genes. GenotypeDB validates and
// interprets every aa_sequence against this schema (I-G1).
type PfGenotypeSchema struct {
	Chromosomes [14]ChromosomeInfo
}

// ValidateSequence checks seq against the schema: chromosome/gene count,
// allowed alphabet per position, and a copy-number digit within
// [1, max_copies] for genes that carry one.
func (s *PfGenotypeSchema) ValidateSequence(seq string) error {
	chromStrs := strings.Split(seq, "|")
	if len(chromStrs) != len(s.Chromosomes) {
		return fmt.Errorf(InvalidGenotypeSequenceError, seq,
			fmt.Sprintf("expected %d chromosomes, got %d", len(s.Chromosomes), len(chromStrs)))
	}
	for ci, chromStr := range chromStrs {
		chrom := s.Chromosomes[ci]
		geneStrs := strings.Split(chromStr, ",")
		if chromStr == "" {
			geneStrs = nil
		}
		if len(geneStrs) != len(chrom.Genes) {
			return fmt.Errorf(InvalidGenotypeSequenceError, seq,
				fmt.Sprintf("chromosome %d: expected %d genes, got %d", ci, len(chrom.Genes), len(geneStrs)))
		}
		for gi, geneStr := range geneStrs {
			gene := chrom.Genes[gi]
			aaPart := geneStr
			if gene.MaxCopies > 1 {
				if len(geneStr) == 0 {
					return fmt.Errorf(InvalidGenotypeSequenceError, seq, "empty gene string, copy-number digit expected")
				}
				copyDigit := geneStr[len(geneStr)-1:]
				aaPart = geneStr[:len(geneStr)-1]
				n, err := strconv.Atoi(copyDigit)
				if err != nil || n < 1 || n > gene.MaxCopies {
					return fmt.Errorf(InvalidGenotypeSequenceError, seq,
						fmt.Sprintf("copy number %q out of range [1,%d]", copyDigit, gene.MaxCopies))
				}
			}
			if len(aaPart) != len(gene.Alphabet) {
				return fmt.Errorf(InvalidGenotypeSequenceError, seq,
					fmt.Sprintf("gene %s: expected %d aa positions, got %d", gene.Name, len(gene.Alphabet), len(aaPart)))
			}
			for pi, allowed := range gene.Alphabet {
				if !strings.ContainsRune(allowed, rune(aaPart[pi])) {
					return fmt.Errorf(InvalidGenotypeSequenceError, seq,
						fmt.Sprintf("gene %s: %q not allowed at aa position %d", gene.Name, aaPart[pi], pi))
				}
			}
		}
	}
	return nil
}

// EC50Override is one override_ec50_patterns entry: a pattern of amino acid
// characters (or '.' wildcards) matched position-by-position against the
// full aa_sequence; on match, the named drug's EC50^n is multiplied by Value.
type EC50Override struct {
	Pattern string
	DrugID  int
	Value   float64
}

// Genotype is a canonical, immutable-after-construction amino-acid sequence
// owned by exactly one GenotypeDB. Two genotypes with equal sequences are
// always the same pointer (I-G2), so genotype equality is pointer equality
// throughout the engine.
type Genotype struct {
	id                            int
	uid                           ksuid.KSUID
	parentUID                     ksuid.KSUID
	aaSequence                    string
	pfGenotypeStr                 [14][]string
	dailyFitnessMultipleInfection float64
	ec50PowerN                    map[int]float64
}

// ID returns the genotype's interned integer identifier.
func (g *Genotype) ID() int { return g.id }

// UID returns the genotype's globally unique, time-sortable lineage
// identifier, minted once at interning time (teacher: sequence_tree.go's
// genotypeNode.uid). Distinct from ID: ID is a dense, DB-local index used
// for array indexing; UID is unique across runs (a fresh KSUID is minted on
// every interning) and safe to log or persist when tracing a resistance
// lineage's origin.
func (g *Genotype) UID() ksuid.KSUID { return g.uid }

// ParentUID returns the lineage UID of the genotype this one mutated from,
// or the zero KSUID for a genotype interned directly (e.g. an imported
// wildtype or founder sequence) rather than produced by MutateUnderDrug.
func (g *Genotype) ParentUID() ksuid.KSUID { return g.parentUID }

// AASequence returns the canonical amino-acid sequence string.
func (g *Genotype) AASequence() string { return g.aaSequence }

// PfGenotypeStr returns the two-level [chromosome][gene] split of the sequence.
func (g *Genotype) PfGenotypeStr() [14][]string { return g.pfGenotypeStr }

// DailyFitnessMultipleInfection is the per-day fitness multiplier applied
// when a clone of this genotype coexists with others in the same host
// (∈ (0,1], I-G4).
func (g *Genotype) DailyFitnessMultipleInfection() float64 {
	return g.dailyFitnessMultipleInfection
}

// EC50PowerN returns (baseEC50 · aa-multipliers · cnv-multipliers)^n for the
// given drug id (I-G3: always >= baseEC50^n, since resistance multipliers
// only scale the base upward).
func (g *Genotype) EC50PowerN(drugID int) float64 {
	return g.ec50PowerN[drugID]
}

// GenotypeDB is the process-wide interning store of canonical Genotypes,
// keyed by aa_sequence (P4, I-G2). The first Get for a sequence computes
// daily_fitness and EC50_power_n and applies override patterns; the
// Genotype then lives until the GenotypeDB itself is torn down.
type GenotypeDB struct {
	mu        sync.RWMutex
	schema    *PfGenotypeSchema
	byID      []*Genotype
	bySeq     map[string]*Genotype
	drugDB    *DrugDB
	overrides []EC50Override
	nextID    int
}

// NewGenotypeDB creates an empty interning pool validated against schema
// and scored against drugDB's base EC50s, with overrides applied to every
// genotype computed afterward.
func NewGenotypeDB(schema *PfGenotypeSchema, drugDB *DrugDB, overrides []EC50Override) *GenotypeDB {
	return &GenotypeDB{
		schema:    schema,
		bySeq:     make(map[string]*Genotype),
		drugDB:    drugDB,
		overrides: overrides,
	}
}

// Size returns the number of distinct genotypes interned so far.
func (db *GenotypeDB) Size() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.byID)
}

// At returns the genotype created with the given id, in creation order.
func (db *GenotypeDB) At(id int) *Genotype {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if id < 0 || id >= len(db.byID) {
		return nil
	}
	return db.byID[id]
}

// Each iterates all interned genotypes in id order.
func (db *GenotypeDB) Each(fn func(*Genotype)) {
	db.mu.RLock()
	snapshot := append([]*Genotype(nil), db.byID...)
	db.mu.RUnlock()
	for _, g := range snapshot {
		fn(g)
	}
}

// Get interns seq if not already present and returns the canonical
// Genotype, validating the sequence against the configured schema (I-G1).
// Idempotent: two Gets with an equal seq return the same pointer (I-G2, P4).
func (db *GenotypeDB) Get(seq string) (*Genotype, error) {
	return db.getWithParent(seq, nil)
}

// getWithParent is Get's implementation, additionally recording parent's
// lineage UID as the newly-interned genotype's ParentUID when seq was not
// already known. parent is nil for a directly-imported sequence (no known
// lineage origin); MutateUnderDrug passes the mutating clone's prior
// genotype so resistance lineages can be traced (teacher: sequence_tree.go
// records parentNodeID the same way).
func (db *GenotypeDB) getWithParent(seq string, parent *Genotype) (*Genotype, error) {
	db.mu.RLock()
	if g, ok := db.bySeq[seq]; ok {
		db.mu.RUnlock()
		return g, nil
	}
	db.mu.RUnlock()

	if db.schema != nil {
		if err := db.schema.ValidateSequence(seq); err != nil {
			return nil, errors.Wrap(err, "GenotypeDB.Get")
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if g, ok := db.bySeq[seq]; ok {
		return g, nil
	}
	g := &Genotype{
		id:         db.nextID,
		uid:        ksuid.New(),
		aaSequence: seq,
		ec50PowerN: make(map[int]float64),
	}
	if parent != nil {
		g.parentUID = parent.uid
	}
	g.pfGenotypeStr = splitPfGenotypeStr(seq)
	g.dailyFitnessMultipleInfection = computeFitnessCost(g)
	if db.drugDB != nil {
		db.drugDB.Each(func(d *DrugType) {
			g.ec50PowerN[d.ID] = computeBaseEC50PowerN(g, d)
		})
		applyEC50Overrides(g, db.overrides)
	}
	db.bySeq[seq] = g
	db.byID = append(db.byID, g)
	db.nextID++
	return g, nil
}

// splitPfGenotypeStr splits a sequence string by '|' then ',' into the
// 2-level pf_genotype_str array described in spec §3.
func splitPfGenotypeStr(seq string) [14][]string {
	var out [14][]string
	chroms := strings.Split(seq, "|")
	for i := 0; i < 14 && i < len(chroms); i++ {
		out[i] = strings.Split(chroms[i], ",")
	}
	return out
}

// computeFitnessCost derives daily_fitness_multiple_infection deterministically
// from the sequence (I-G4): every non-wildtype amino acid or elevated copy
// number multiplies in a fixed per-site cost, floored so the result stays
// in (0, 1].
func computeFitnessCost(g *Genotype) float64 {
	const perMutationCost = 0.002
	fitness := 1.0
	for _, chrom := range g.pfGenotypeStr {
		for _, gene := range chrom {
			for _, ch := range gene {
				if !isWildtypeChar(ch) {
					fitness *= 1 - perMutationCost
				}
			}
		}
	}
	if fitness <= 0 {
		fitness = 1e-6
	}
	return fitness
}

// isWildtypeChar treats lowercase letters and the digit '1' as wildtype
// markers; uppercase letters and copy digits > 1 signal a resistance change.
func isWildtypeChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || ch == '1'
}

// computeBaseEC50PowerN computes (baseEC50 · aa-multipliers · cnv-multipliers)^n
// for drug d against genotype g, before any override pattern is applied.
func computeBaseEC50PowerN(g *Genotype, d *DrugType) float64 {
	ec50 := d.BaseEC50
	for _, loc := range d.ResistantAALocations {
		if loc.Chromosome < 0 || loc.Chromosome >= 14 {
			continue
		}
		genes := g.pfGenotypeStr[loc.Chromosome]
		if loc.Gene < 0 || loc.Gene >= len(genes) {
			continue
		}
		geneStr := genes[loc.Gene]
		if loc.IsCopyNumber {
			if n := copyNumberOf(geneStr); n > 1 {
				ec50 *= math.Pow(1.5, float64(n-1))
			}
			continue
		}
		if loc.AAPosition < 0 || loc.AAPosition >= len(geneStr) {
			continue
		}
		if !isWildtypeChar(rune(geneStr[loc.AAPosition])) {
			ec50 *= 2.0
		}
	}
	return math.Pow(ec50, d.N)
}

// copyNumberOf parses the trailing copy-number digit of a gene string,
// returning 1 when there is none.
func copyNumberOf(geneStr string) int {
	if len(geneStr) == 0 {
		return 1
	}
	last := geneStr[len(geneStr)-1]
	if last < '0' || last > '9' {
		return 1
	}
	n, err := strconv.Atoi(string(last))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// applyEC50Overrides multiplies each drug's EC50^n by the override value of
// every matching pattern (position-wise char match, '.' wildcards). Several
// patterns may match the same genotype; all matching multipliers apply.
func applyEC50Overrides(g *Genotype, overrides []EC50Override) {
	for _, ov := range overrides {
		if matchesPattern(g.aaSequence, ov.Pattern) {
			g.ec50PowerN[ov.DrugID] *= ov.Value
		}
	}
}

func matchesPattern(seq, pattern string) bool {
	if len(seq) != len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p == '.' {
			continue
		}
		if rune(seq[i]) != p {
			return false
		}
	}
	return true
}

// MutateUnderDrug implements spec §4.2's per-(clone, drug, day) mutation
// rule: for every resistant aa-position of d masked on by mutationMask,
// draw u ~ U(0,1); if u < mutationProbPerLocus, build a candidate sequence
// (copy-number step or aa substitution), intern it, and adopt the first
// candidate whose EC50PowerN(d) strictly exceeds g's. At most one adoption
// per call.
func (db *GenotypeDB) MutateUnderDrug(rng *Random, g *Genotype, d *DrugType, mutationMask []bool, mutationProbPerLocus float64, aaAlphabet []string) (*Genotype, bool) {
	for _, loc := range d.ResistantAALocations {
		if !locusMasked(mutationMask, loc) {
			continue
		}
		if rng.Uniform() >= mutationProbPerLocus {
			continue
		}
		candidate, err := db.buildMutationCandidate(rng, g, loc, aaAlphabet)
		if err != nil {
			continue
		}
		newGenotype, err := db.getWithParent(candidate, g)
		if err != nil {
			continue
		}
		if newGenotype.EC50PowerN(d.ID) > g.EC50PowerN(d.ID) {
			return newGenotype, true
		}
	}
	return g, false
}

// locusMasked reports whether the global mutation_mask enables mutation at
// the given resistant aa location.
func locusMasked(mask []bool, loc ResistantAALocation) bool {
	idx := loc.MaskIndex
	if idx < 0 || idx >= len(mask) {
		return true
	}
	return mask[idx]
}

// buildMutationCandidate copies g's sequence and perturbs the single
// resistant aa location: either a ±1 copy-number step bounded to
// [1, max_copies], or a uniform pick from aaAlphabet excluding the current
// character.
func (db *GenotypeDB) buildMutationCandidate(rng *Random, g *Genotype, loc ResistantAALocation, aaAlphabet []string) (string, error) {
	chroms := strings.Split(g.aaSequence, "|")
	if loc.Chromosome < 0 || loc.Chromosome >= len(chroms) {
		return "", fmt.Errorf("resistant_aa_location chromosome %d out of range", loc.Chromosome)
	}
	genes := strings.Split(chroms[loc.Chromosome], ",")
	if loc.Gene < 0 || loc.Gene >= len(genes) {
		return "", fmt.Errorf("resistant_aa_location gene %d out of range", loc.Gene)
	}
	gene := genes[loc.Gene]
	if loc.IsCopyNumber {
		maxCopies := db.maxCopiesFor(loc.Chromosome, loc.Gene)
		cur := copyNumberOf(gene)
		step := 1
		if rng.Uniform() < 0.5 {
			step = -1
		}
		next := cur + step
		if next < 1 {
			next = 1
		}
		if next > maxCopies {
			next = maxCopies
		}
		gene = gene[:len(gene)-1] + strconv.Itoa(next)
	} else {
		if loc.AAPosition < 0 || loc.AAPosition >= len(gene) {
			return "", fmt.Errorf("resistant_aa_location aa_position %d out of range", loc.AAPosition)
		}
		current := string(gene[loc.AAPosition])
		choices := make([]string, 0, len(aaAlphabet))
		for _, c := range aaAlphabet {
			if c != current {
				choices = append(choices, c)
			}
		}
		if len(choices) == 0 {
			return "", fmt.Errorf("no alternate amino acid available at position %d", loc.AAPosition)
		}
		pick := choices[rng.UniformUpTo(len(choices))]
		gene = gene[:loc.AAPosition] + pick + gene[loc.AAPosition+1:]
	}
	genes[loc.Gene] = gene
	chroms[loc.Chromosome] = strings.Join(genes, ",")
	return strings.Join(chroms, "|"), nil
}

func (db *GenotypeDB) maxCopiesFor(chromosome, gene int) int {
	if db.schema == nil {
		return 2
	}
	if chromosome < 0 || chromosome >= len(db.schema.Chromosomes) {
		return 2
	}
	genes := db.schema.Chromosomes[chromosome].Genes
	if gene < 0 || gene >= len(genes) {
		return 2
	}
	if genes[gene].MaxCopies < 1 {
		return 1
	}
	return genes[gene].MaxCopies
}

// Recombine performs the free-recombination cross from spec §4.2: for each
// chromosome independently, single-gene chromosomes flip a coin between
// parents; multi-gene chromosomes recombine within-chromosome with
// probability withinChromRecombinationRate at a uniformly drawn cut point,
// otherwise are inherited whole from a coin-flipped parent.
func (db *GenotypeDB) Recombine(rng *Random, f, m *Genotype, withinChromRecombinationRate float64) (*Genotype, error) {
	fChroms := strings.Split(f.aaSequence, "|")
	mChroms := strings.Split(m.aaSequence, "|")
	childChroms := make([]string, len(fChroms))
	for ci := range fChroms {
		fGenes := strings.Split(fChroms[ci], ",")
		mGenes := strings.Split(mChroms[ci], ",")
		switch {
		case len(fGenes) <= 1:
			if rng.Uniform() < 0.5 {
				childChroms[ci] = fChroms[ci]
			} else {
				childChroms[ci] = mChroms[ci]
			}
		case rng.Uniform() < withinChromRecombinationRate:
			cut := 1 + rng.UniformUpTo(len(fGenes)-1)
			var child []string
			if rng.Uniform() < 0.5 {
				child = append(append([]string{}, fGenes[:cut]...), mGenes[cut:]...)
			} else {
				child = append(append([]string{}, mGenes[:cut]...), fGenes[cut:]...)
			}
			childChroms[ci] = strings.Join(child, ",")
		default:
			if rng.Uniform() < 0.5 {
				childChroms[ci] = fChroms[ci]
			} else {
				childChroms[ci] = mChroms[ci]
			}
		}
	}
	return db.Get(strings.Join(childChroms, "|"))
}
