package malasim

import "testing"

func TestPerson_SetStateNotifiesAttachedIndexes(t *testing.T) {
	idx := NewPopulationIndexes()
	p := NewPerson(1, 0, 0, NewImmuneSystem(&ImmuneParameters{}, 0, 0))
	p.AttachIndex(idx)
	idx.Add(p)

	p.SetState(Clinical)

	if l := len(idx.ByLocationStateAgeClass(0, Susceptible, 0)); l != 0 {
		t.Errorf(UnequalIntParameterError, "susceptible bucket after state change", 0, l)
	}
	if l := len(idx.ByLocationStateAgeClass(0, Clinical, 0)); l != 1 {
		t.Errorf(UnequalIntParameterError, "clinical bucket after state change", 1, l)
	}
}

func TestPerson_SetStateIsNoOpWhenUnchanged(t *testing.T) {
	p := NewPerson(1, 0, 0, NewImmuneSystem(&ImmuneParameters{}, 0, 0))
	p.SetState(Susceptible) // already Susceptible
	if p.State != Susceptible {
		t.Errorf("expected state to remain Susceptible")
	}
}

func TestPerson_SetStateToDeadCancelsPendingEvents(t *testing.T) {
	p := NewPerson(1, 0, 0, NewImmuneSystem(&ImmuneParameters{}, 0, 0))
	p.Events.Schedule(NewMoveParasiteToBloodEvent(5, 0, p, nil))
	p.SetState(Dead)
	due := p.Events.PopDue(5)
	if l := len(due); l != 1 {
		t.Fatalf(UnequalIntParameterError, "events still popped at their scheduled time after death", 1, l)
	}
	if due[0].Executable() {
		t.Errorf("expected a pending event to be marked non-executable once its owning person dies")
	}
}

func TestPerson_MOIReflectsCloneCount(t *testing.T) {
	p := NewPerson(1, 0, 0, NewImmuneSystem(&ImmuneParameters{}, 0, 0))
	if got := p.MOI(); got != 0 {
		t.Errorf(UnequalIntParameterError, "MOI of a freshly-created person", 0, got)
	}
	p.SHCPP.Add(NewClonalParasitePopulation(nil, 0))
	p.SHCPP.Add(NewClonalParasitePopulation(nil, 0))
	if got := p.MOI(); got != 2 {
		t.Errorf(UnequalIntParameterError, "MOI after adding two clones", 2, got)
	}
}

func TestPerson_HasEffectiveDrugFalseWithEmptyBlood(t *testing.T) {
	rng := NewRandom(1)
	p := NewPerson(1, 0, 0, NewImmuneSystem(&ImmuneParameters{}, 0, 0))
	if p.HasEffectiveDrug(rng, 0) {
		t.Errorf("expected a person with no drugs in blood to have no effective drug")
	}
}

func TestPerson_HasEffectiveDrugTrueAfterStartingCourse(t *testing.T) {
	rng := NewRandom(1)
	p := NewPerson(1, 0, 0, NewImmuneSystem(&ImmuneParameters{}, 0, 0))
	p.Blood.StartCourse(rng, &DrugType{ID: 1, HalfLife: 1}, 0, 3, 1.0)
	if !p.HasEffectiveDrug(rng, 0) {
		t.Errorf("expected a person with a freshly-started course to have an effective drug")
	}
}

func TestPerson_UpdateClearsToSusceptibleWhenParasitesClear(t *testing.T) {
	p := NewPerson(1, 0, 0, NewImmuneSystem(&ImmuneParameters{}, 0, 0))
	p.SetState(Asymptomatic)
	ctx := DensityUpdateContext{Rng: NewRandom(1), LogParasiteDensityCured: 1}
	p.Update(1, ctx)
	if p.State != Susceptible {
		t.Errorf("expected a host with zero clones to revert from ASYMPTOMATIC to SUSCEPTIBLE on update, got %s", p.State)
	}
}
