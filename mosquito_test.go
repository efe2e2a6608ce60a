package malasim

import "testing"

func TestMosquito_SampleGenotypeReturnsNilWhenEmpty(t *testing.T) {
	genotypeDB := NewGenotypeDB(nil, NewDrugDB(), nil)
	m := NewMosquito(genotypeDB, 1, 11, 10, 0.016, 0.5)
	rng := NewRandom(1)
	if got := m.SampleGenotype(rng, 0, 0); got != nil {
		t.Errorf("expected SampleGenotype to return nil when the PRMC slot is empty, got %v", got)
	}
}

func TestMosquito_SampleGenotypeOutOfRangeLocationReturnsNil(t *testing.T) {
	genotypeDB := NewGenotypeDB(nil, NewDrugDB(), nil)
	m := NewMosquito(genotypeDB, 1, 11, 10, 0.016, 0.5)
	rng := NewRandom(1)
	if got := m.SampleGenotype(rng, 0, 5); got != nil {
		t.Errorf("expected SampleGenotype to return nil for an out-of-range location")
	}
}

func TestMosquito_InfectNewCohortClearsSlotWhenNoForceOfInfection(t *testing.T) {
	genotypeDB := NewGenotypeDB(nil, NewDrugDB(), nil)
	m := NewMosquito(genotypeDB, 1, 11, 4, 0.016, 0.5)
	pop := NewPopulation(1, 11)
	mdc := NewModelDataCollector(1)
	rng := NewRandom(1)

	m.InfectNewCohortInPRMC(rng, 0, pop, mdc)
	if got := m.SampleGenotype(rng, 0, 0); got != nil {
		t.Errorf("expected the PRMC slot to stay empty when CurrentForceOfInfectionByLoc is zero, got %v", got)
	}
}
