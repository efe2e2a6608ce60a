package malasim

import "testing"

func TestDrugType_KillingRateMonotonicInConcentration(t *testing.T) {
	d := &DrugType{N: 15, Kmax: 0.99}
	ec50n := 1.0
	low := d.KillingRate(0.3, ec50n)
	high := d.KillingRate(0.9, ec50n)
	if low < 0 || low > 1 {
		t.Errorf(InvalidFloatParameterError, "killing rate at low concentration", low, "expected a value in [0,1]")
	}
	if high <= low {
		t.Errorf("expected killing rate to increase with concentration: low=%f high=%f", low, high)
	}
}

func TestDrugType_KillingRateZeroAtZeroConcentration(t *testing.T) {
	d := &DrugType{N: 15, Kmax: 0.99}
	if k := d.KillingRate(0, 1); k != 0 {
		t.Errorf(UnequalFloatParameterError, "killing rate at zero concentration", 0.0, k)
	}
}

func TestDrugType_MutationProbabilityBoundaries(t *testing.T) {
	d := &DrugType{K: 4}
	p0 := 1e-5
	if p := d.MutationProbability(0, p0); p != 0 {
		t.Errorf(UnequalFloatParameterError, "mutation probability at zero concentration", 0.0, p)
	}
	if p := d.MutationProbability(2, p0); p != p0 {
		t.Errorf(UnequalFloatParameterError, "mutation probability at saturating concentration", p0, p)
	}
}

func TestDrug_ConcentrationAtDecaysAfterDosing(t *testing.T) {
	rng := NewRandom(1)
	d := &Drug{
		Type:          &DrugType{ID: 1, HalfLife: 1},
		DosingDays:    3,
		StartTime:     0,
		StartingValue: 1.0,
	}
	atEnd := d.ConcentrationAt(3, rng)
	afterDecay := d.ConcentrationAt(10, rng)
	if afterDecay >= atEnd {
		t.Errorf("expected concentration to decay after dosing ends: at_end=%f after_decay=%f", atEnd, afterDecay)
	}
}

func TestDrug_ConcentrationAtZeroBeforeStart(t *testing.T) {
	rng := NewRandom(1)
	d := &Drug{Type: &DrugType{ID: 1}, StartTime: 10, DosingDays: 3, StartingValue: 1}
	if c := d.ConcentrationAt(5, rng); c != 0 {
		t.Errorf(UnequalFloatParameterError, "concentration before course start", 0.0, c)
	}
}

func TestDrugsInBlood_StartCourseAndRemove(t *testing.T) {
	rng := NewRandom(1)
	b := NewDrugsInBlood()
	dt := &DrugType{ID: 0, HalfLife: 1}
	b.StartCourse(rng, dt, 0, 3, 1.0)
	if l := b.Size(); l != 1 {
		t.Errorf(UnequalIntParameterError, "drugs in blood after starting a course", 1, l)
	}
	if b.Get(0) == nil {
		t.Errorf("expected Get(0) to return the started course")
	}
	b.Remove(0)
	if l := b.Size(); l != 0 {
		t.Errorf(UnequalIntParameterError, "drugs in blood after removal", 0, l)
	}
}

func TestDrugDB_AddAndGet(t *testing.T) {
	db := NewDrugDB()
	db.Add(&DrugType{ID: 7, Name: "lumefantrine"})
	if got := db.Get(7); got == nil || got.Name != "lumefantrine" {
		t.Errorf("expected DrugDB.Get(7) to return the added drug type")
	}
	if l := db.Size(); l != 1 {
		t.Errorf(UnequalIntParameterError, "drug db size", 1, l)
	}
	visited := 0
	db.Each(func(d *DrugType) { visited++ })
	if visited != 1 {
		t.Errorf(UnequalIntParameterError, "drug types visited by Each", 1, visited)
	}
}
