package malasim

import "testing"

func TestPopulationIndexes_ByLocationStateAgeClass(t *testing.T) {
	idx := NewPopulationIndexes()
	p := &Person{ID: 1, Location: 0, State: Susceptible, AgeClass: 2}
	idx.Add(p)

	bucket := idx.ByLocationStateAgeClass(0, Susceptible, 2)
	if l := len(bucket); l != 1 {
		t.Fatalf(UnequalIntParameterError, "bucket size before state change", 1, l)
	}
	if bucket[0] != p {
		t.Errorf("expected the bucket to contain the added person")
	}

	old := p.State
	p.State = Clinical
	idx.NotifyChange(p, "state", old, p.State)

	if l := len(idx.ByLocationStateAgeClass(0, Susceptible, 2)); l != 0 {
		t.Errorf(UnequalIntParameterError, "old bucket size after state change", 0, l)
	}
	if l := len(idx.ByLocationStateAgeClass(0, Clinical, 2)); l != 1 {
		t.Errorf(UnequalIntParameterError, "new bucket size after state change", 1, l)
	}
}

func TestPopulationIndexes_RemoveDropsFromBothIndexes(t *testing.T) {
	idx := NewPopulationIndexes()
	p := &Person{ID: 1, Location: 0, State: Susceptible, AgeClass: 0, MovingLevel: 1}
	idx.Add(p)
	idx.Remove(p)

	if l := len(idx.ByLocationStateAgeClass(0, Susceptible, 0)); l != 0 {
		t.Errorf(UnequalIntParameterError, "loc/state/age bucket after removal", 0, l)
	}
	if l := len(idx.ByLocationMovingLevel(0, 1)); l != 0 {
		t.Errorf(UnequalIntParameterError, "loc/moving bucket after removal", 0, l)
	}
}

func TestPopulationIndexes_SwapWithBackKeepsRemainingPersonFindable(t *testing.T) {
	idx := NewPopulationIndexes()
	a := &Person{ID: 1, Location: 0, State: Susceptible, AgeClass: 0}
	b := &Person{ID: 2, Location: 0, State: Susceptible, AgeClass: 0}
	c := &Person{ID: 3, Location: 0, State: Susceptible, AgeClass: 0}
	idx.Add(a)
	idx.Add(b)
	idx.Add(c)

	idx.Remove(a) // triggers swap-with-back inside the shared bucket

	bucket := idx.ByLocationStateAgeClass(0, Susceptible, 0)
	if l := len(bucket); l != 2 {
		t.Fatalf(UnequalIntParameterError, "bucket size after removing the first person", 2, l)
	}
	found := map[int]bool{}
	for _, p := range bucket {
		found[p.ID] = true
	}
	if !found[2] || !found[3] {
		t.Errorf("expected both remaining persons still findable after swap-with-back removal, got %v", found)
	}
}

func TestPopulationIndexes_NotifyChangePanicsOnUnknownProperty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf(ExpectedErrorWhileError, "calling NotifyChange with an unrecognized property name")
		}
	}()
	idx := NewPopulationIndexes()
	p := &Person{ID: 1}
	idx.Add(p)
	idx.NotifyChange(p, "not_a_real_property", nil, nil)
}
