package malasim

import "testing"

func TestSHCPP_AddAndRemoveAtMaintainsIndexes(t *testing.T) {
	s := NewSingleHostClonalParasitePopulations(0)
	a := NewClonalParasitePopulation(&Genotype{id: 0}, 0)
	b := NewClonalParasitePopulation(&Genotype{id: 1}, 0)
	c := NewClonalParasitePopulation(&Genotype{id: 2}, 0)
	s.Add(a)
	s.Add(b)
	s.Add(c)

	s.RemoveAt(0) // swap-with-back: c moves into a's old slot
	if s.Size() != 2 {
		t.Errorf(UnequalIntParameterError, "SHCPP size after RemoveAt", 2, s.Size())
	}
	if s.At(0) != c {
		t.Errorf("expected swap-with-back to move the last clone into the removed slot")
	}
	if c.Index() != 0 {
		t.Errorf(UnequalIntParameterError, "moved clone's index after swap-with-back", 0, c.Index())
	}
	if s.Contains(a) {
		t.Errorf("expected the removed clone to no longer be Contains-reachable")
	}
}

func TestSHCPP_ClearCuredParasitesRemovesOnlyDecayedClones(t *testing.T) {
	s := NewSingleHostClonalParasitePopulations(0)
	dead := NewClonalParasitePopulation(&Genotype{id: 0}, 0)
	dead.LastUpdateLog10Density = LogZero
	alive := NewClonalParasitePopulation(&Genotype{id: 1}, 0)
	alive.LastUpdateLog10Density = 3.0
	s.Add(dead)
	s.Add(alive)

	s.ClearCuredParasites(LogZero)
	if s.Size() != 1 {
		t.Errorf(UnequalIntParameterError, "SHCPP size after ClearCuredParasites", 1, s.Size())
	}
	if s.At(0) != alive {
		t.Errorf("expected the surviving clone to be the one above threshold")
	}
}

func TestSHCPP_MutateByDrugsRecordsLineageOnAdoption(t *testing.T) {
	drugDB := sampleDrugDB()
	genotypeDB := NewGenotypeDB(nil, drugDB, nil)
	wildtype, err := genotypeDB.Get("|||||||||||||c")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "interning the wildtype genotype", err)
	}

	s := NewSingleHostClonalParasitePopulations(0)
	clone := NewClonalParasitePopulation(wildtype, 0)
	s.Add(clone)

	blood := NewDrugsInBlood()
	drugType := drugDB.Get(0)
	blood.StartCourse(NewRandom(1), drugType, 0, drugType.DosingDays, 1.0)

	mdc := NewModelDataCollector(1)
	rng := NewRandom(42)
	mutationMask := []bool{true}

	var adopted bool
	for day := 0; day < 50 && !adopted; day++ {
		s.MutateByDrugs(rng, genotypeDB, blood, day, mutationMask, 1.0, []string{"C", "Y"}, mdc, 0)
		adopted = clone.Genotype != wildtype
	}

	if !adopted {
		t.Fatalf("expected repeated high-probability MutateByDrugs calls to eventually adopt a resistant genotype")
	}
	lineage := mdc.MutationLineage()
	if len(lineage) == 0 {
		t.Fatalf("expected at least one mutation lineage event to be recorded")
	}
	last := lineage[len(lineage)-1]
	if last.GenotypeUID != clone.Genotype.UID() {
		t.Errorf("expected the recorded lineage event's GenotypeUID to match the adopted clone's genotype")
	}
	if last.ParentUID != wildtype.UID() {
		t.Errorf("expected the recorded lineage event's ParentUID to reference the wildtype genotype")
	}
	if got := mdc.CumulativeMutantsByLocation()[0]; got == 0 {
		t.Errorf("expected MutateByDrugs to tally the adoption into MDC's cumulative mutants counter")
	}
}
