package malasim

import (
	"math"
	"testing"

	"github.com/segmentio/ksuid"
)

func sampleDrugDB() *DrugDB {
	db := NewDrugDB()
	db.Add(&DrugType{
		ID:         0,
		Name:       "artemisinin",
		HalfLife:   0.0644,
		Kmax:       0.99,
		N:          15,
		K:          4,
		BaseEC50:   0.75,
		DosingDays: 3,
		ResistantAALocations: []ResistantAALocation{
			{Chromosome: 13, Gene: 0, AAPosition: 0, MaskIndex: 0},
		},
	})
	return db
}

func TestGenotypeDB_GetIsIdempotent(t *testing.T) {
	db := NewGenotypeDB(nil, sampleDrugDB(), nil)
	a, err := db.Get("A|B")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "interning a genotype", err)
	}
	b, err := db.Get("A|B")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "interning the same sequence again", err)
	}
	if a != b {
		t.Errorf("expected Get to return the same *Genotype pointer for an equal sequence, got distinct pointers")
	}
	if l := db.Size(); l != 1 {
		t.Errorf(UnequalIntParameterError, "number of interned genotypes", 1, l)
	}
}

func TestGenotypeDB_GetAssignsSequentialIDs(t *testing.T) {
	db := NewGenotypeDB(nil, sampleDrugDB(), nil)
	first, _ := db.Get("A")
	second, _ := db.Get("B")
	if first.ID() != 0 {
		t.Errorf(UnequalIntParameterError, "first genotype id", 0, first.ID())
	}
	if second.ID() != 1 {
		t.Errorf(UnequalIntParameterError, "second genotype id", 1, second.ID())
	}
	if l := db.Size(); l != 2 {
		t.Errorf(UnequalIntParameterError, "number of interned genotypes", 2, l)
	}
}

func TestGenotypeDB_GetValidatesAgainstSchema(t *testing.T) {
	schema := &PfGenotypeSchema{}
	schema.Chromosomes[0] = ChromosomeInfo{Genes: []GeneInfo{{Name: "pfkelch13", Alphabet: []string{"C"}}}}
	for i := 1; i < 14; i++ {
		schema.Chromosomes[i] = ChromosomeInfo{}
	}
	db := NewGenotypeDB(schema, sampleDrugDB(), nil)

	good := "C|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|"
	if _, err := db.Get(good); err != nil {
		t.Errorf(UnexpectedErrorWhileError, "validating a well-formed sequence", err)
	}

	if _, err := db.Get("X|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|" + "|"); err == nil {
		t.Errorf(ExpectedErrorWhileError, "validating a malformed sequence")
	}
}

func TestGenotype_EC50PowerNAtLeastBaseline(t *testing.T) {
	drugDB := sampleDrugDB()
	db := NewGenotypeDB(nil, drugDB, nil)
	wildtype, _ := db.Get("wt")
	baseline := wildtype.EC50PowerN(0)
	dt := drugDB.Get(0)
	if floor := math.Pow(dt.BaseEC50, dt.N); baseline < floor {
		t.Errorf("expected EC50^n of at least baseEC50^n = %f, got %f", floor, baseline)
	}
}

func TestGenotype_DailyFitnessInUnitInterval(t *testing.T) {
	db := NewGenotypeDB(nil, sampleDrugDB(), nil)
	g, _ := db.Get("some-sequence")
	f := g.DailyFitnessMultipleInfection()
	if f <= 0 || f > 1 {
		t.Errorf(InvalidFloatParameterError, "daily fitness multiplier", f, "expected a value in (0, 1]")
	}
}

func TestGenotypeDB_GetAssignsDistinctUIDsWithNoParent(t *testing.T) {
	db := NewGenotypeDB(nil, sampleDrugDB(), nil)
	a, _ := db.Get("A")
	b, _ := db.Get("B")
	if a.UID() == (ksuid.KSUID{}) || b.UID() == (ksuid.KSUID{}) {
		t.Errorf("expected every interned genotype to receive a non-zero lineage UID")
	}
	if a.UID() == b.UID() {
		t.Errorf("expected distinct genotypes to receive distinct lineage UIDs")
	}
	if a.ParentUID() != (ksuid.KSUID{}) {
		t.Errorf("expected a directly-interned genotype's ParentUID to be the zero KSUID")
	}
}

func TestGenotypeDB_EachVisitsEveryInternedGenotype(t *testing.T) {
	db := NewGenotypeDB(nil, sampleDrugDB(), nil)
	db.Get("A")
	db.Get("B")
	db.Get("C")
	visited := 0
	db.Each(func(g *Genotype) { visited++ })
	if visited != 3 {
		t.Errorf(UnequalIntParameterError, "genotypes visited by Each", 3, visited)
	}
}
