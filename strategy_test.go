package malasim

import "testing"

func TestSingleTherapyStrategy_AlwaysReturnsSameTherapy(t *testing.T) {
	therapy := &Therapy{ID: 1, Name: "AL"}
	s := &SingleTherapyStrategy{IDValue: 0, Therapy: therapy}
	rng := NewRandom(1)
	for i := 0; i < 5; i++ {
		if got := s.GetTherapy(rng, 0, 10); got != therapy {
			t.Errorf("expected SingleTherapyStrategy to always return the same therapy pointer")
		}
	}
}

func TestAgeBasedTherapyStrategy_PicksGroupByBoundary(t *testing.T) {
	under5 := &Therapy{ID: 0, Name: "under5"}
	over5 := &Therapy{ID: 1, Name: "over5"}
	s := &AgeBasedTherapyStrategy{
		Therapies:     []*Therapy{under5, over5},
		AgeBoundaries: []int{5},
	}
	if got := s.GetTherapy(nil, 0, 3); got != under5 {
		t.Errorf("expected age 3 to fall in the under-5 group")
	}
	if got := s.GetTherapy(nil, 0, 5); got != over5 {
		t.Errorf("expected age 5 to fall in the over-5 group (boundary is inclusive upward)")
	}
	if got := s.GetTherapy(nil, 0, 99); got != over5 {
		t.Errorf("expected an age past every boundary to fall in the last group")
	}
}

func TestCyclingStrategy_RotatesOnPeriodBoundary(t *testing.T) {
	a := &Therapy{ID: 0}
	b := &Therapy{ID: 1}
	s := &CyclingStrategy{Therapies: []*Therapy{a, b}, PeriodDays: 30}
	s.AdjustStartedTimePoint(0)

	if got := s.GetTherapy(nil, 0, 0); got != a {
		t.Errorf("expected the cycling strategy to start on the first therapy")
	}
	s.MonthlyUpdate(30)
	if got := s.GetTherapy(nil, 0, 0); got != b {
		t.Errorf("expected the cycling strategy to rotate to the second therapy after one period")
	}
}

func TestAdaptiveCyclingStrategy_RotatesOnHighFailureRate(t *testing.T) {
	a := &Therapy{ID: 0}
	b := &Therapy{ID: 1}
	mdc := NewModelDataCollector(1)
	mdc.Record1TreatmentFailureByTherapy(0)
	mdc.Record1TreatmentFailureByTherapy(0)
	mdc.Record1TreatmentSuccessByTherapy(0)

	s := &AdaptiveCyclingStrategy{Therapies: []*Therapy{a, b}, FailureThreshold: 0.5, MDC: mdc}
	s.MonthlyUpdate(30)
	if got := s.GetTherapy(nil, 0, 0); got != b {
		t.Errorf("expected the adaptive strategy to rotate away from a therapy whose failure rate exceeds the threshold")
	}
}

func TestAdaptiveCyclingStrategy_StaysOnLowFailureRate(t *testing.T) {
	a := &Therapy{ID: 0}
	b := &Therapy{ID: 1}
	mdc := NewModelDataCollector(1)
	mdc.Record1TreatmentSuccessByTherapy(0)
	mdc.Record1TreatmentSuccessByTherapy(0)
	mdc.Record1TreatmentFailureByTherapy(0)

	s := &AdaptiveCyclingStrategy{Therapies: []*Therapy{a, b}, FailureThreshold: 0.5, MDC: mdc}
	s.MonthlyUpdate(30)
	if got := s.GetTherapy(nil, 0, 0); got != a {
		t.Errorf("expected the adaptive strategy to stay on the current therapy while its failure rate is below threshold")
	}
}

func TestNestedMFTStrategy_InflationGrowsFirstComponent(t *testing.T) {
	inner := &SingleTherapyStrategy{IDValue: 0, Therapy: &Therapy{ID: 0}}
	s := &NestedMFTStrategy{
		Children:          []Strategy{inner, inner},
		StartDistribution: []float64{0.5, 0.5},
		UseInflation:      true,
		InflationFactor:    1.0,
	}
	s.AdjustStartedTimePoint(0)
	before := append([]float64(nil), s.distribution...)
	s.MonthlyUpdate(365)
	if s.distribution[0] <= before[0] {
		t.Errorf("expected inflation to grow the first distribution component: before=%f after=%f", before[0], s.distribution[0])
	}
}

func TestNestedMFTStrategy_LinearInterpolationTracksCurrentDay(t *testing.T) {
	a := &Therapy{ID: 0}
	b := &Therapy{ID: 1}
	childA := &SingleTherapyStrategy{IDValue: 0, Therapy: a}
	childB := &SingleTherapyStrategy{IDValue: 1, Therapy: b}
	s := &NestedMFTStrategy{
		Children:          []Strategy{childA, childB},
		StartDistribution: []float64{1, 0},
		PeakDistribution:  []float64{0, 1},
		PeakAfterDays:     100,
	}
	s.AdjustStartedTimePoint(0)

	rng := NewRandom(1)
	if got := s.GetTherapy(rng, 0, 0); got != a {
		t.Errorf("expected day 0 to still favor the start distribution")
	}
	s.UpdateEndOfTimeStep(100)
	if got := s.GetTherapy(rng, 0, 0); got != b {
		t.Errorf("expected UpdateEndOfTimeStep to advance the distribution toward peak by the current day")
	}
}
