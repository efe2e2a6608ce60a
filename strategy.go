package malasim

import "sort"

// Therapy is one treatment regimen: a single course (SCTherapy, one drug
// per dosing window) or a multi-agent course (MACTherapy, several
// sub-courses layered with independent per-drug compliance draws) —
// spec §4.6's therapy-application paragraph.
type Therapy struct {
	ID         int
	Name       string
	Courses    []DrugCourse
	Compliance float64 // Bernoulli probability a given course's full dosing is actually taken
}

// DrugCourse is one constituent drug of a Therapy: which DrugType, how
// many dosing days, and the starting concentration fraction.
type DrugCourse struct {
	Drug          *DrugType
	DosingDays    int
	StartingValue float64
}

// Strategy selects which Therapy a CLINICAL person receives (spec §4.9).
// Every variant additionally receives the month/end-of-day housekeeping
// hooks so time-varying strategies (Cycling, Adaptive, NestedMFT) can
// update their internal state without special-casing the Scheduler.
type Strategy interface {
	ID() int
	GetTherapy(rng *Random, location, age int) *Therapy
	UpdateEndOfTimeStep(currentDay int)
	MonthlyUpdate(currentDay int)
	AdjustStartedTimePoint(t int)
}

// SingleTherapyStrategy (SFT) always returns the same therapy.
type SingleTherapyStrategy struct {
	IDValue int
	Therapy *Therapy
}

func (s *SingleTherapyStrategy) ID() int { return s.IDValue }
func (s *SingleTherapyStrategy) GetTherapy(rng *Random, location, age int) *Therapy {
	return s.Therapy
}
func (s *SingleTherapyStrategy) UpdateEndOfTimeStep(currentDay int)       {}
func (s *SingleTherapyStrategy) MonthlyUpdate(currentDay int) {}
func (s *SingleTherapyStrategy) AdjustStartedTimePoint(t int) {}

// MultipleFirstLineTherapyStrategy (MFT) samples a therapy per location
// from a categorical distribution over Therapies.
type MultipleFirstLineTherapyStrategy struct {
	IDValue      int
	Therapies    []*Therapy
	Distribution []float64 // weights, one per Therapies entry, same across locations
}

func (s *MultipleFirstLineTherapyStrategy) ID() int { return s.IDValue }
func (s *MultipleFirstLineTherapyStrategy) GetTherapy(rng *Random, location, age int) *Therapy {
	picks := RouletteSample(rng, 1, s.Distribution, s.Therapies, true)
	if len(picks) == 0 {
		return nil
	}
	return picks[0]
}
func (s *MultipleFirstLineTherapyStrategy) UpdateEndOfTimeStep(currentDay int)         {}
func (s *MultipleFirstLineTherapyStrategy) MonthlyUpdate(currentDay int) {}
func (s *MultipleFirstLineTherapyStrategy) AdjustStartedTimePoint(t int) {}

// AgeBasedTherapyStrategy (MFTAgeBased) maps a person's age to a therapy
// group via upper_bound(age_boundaries, age); AgeBoundaries has
// len(Therapies)-1 entries delimiting len(Therapies) groups.
type AgeBasedTherapyStrategy struct {
	IDValue       int
	Therapies     []*Therapy
	AgeBoundaries []int
}

func (s *AgeBasedTherapyStrategy) ID() int { return s.IDValue }
func (s *AgeBasedTherapyStrategy) GetTherapy(rng *Random, location, age int) *Therapy {
	idx := sort.SearchInts(s.AgeBoundaries, age+1)
	if idx >= len(s.Therapies) {
		idx = len(s.Therapies) - 1
	}
	return s.Therapies[idx]
}
func (s *AgeBasedTherapyStrategy) UpdateEndOfTimeStep(currentDay int)         {}
func (s *AgeBasedTherapyStrategy) MonthlyUpdate(currentDay int) {}
func (s *AgeBasedTherapyStrategy) AdjustStartedTimePoint(t int) {}

// CyclingStrategy periodically rotates the active therapy among Therapies
// every PeriodDays.
type CyclingStrategy struct {
	IDValue     int
	Therapies   []*Therapy
	PeriodDays  int
	startedTime int
	activeIndex int
}

func (s *CyclingStrategy) ID() int { return s.IDValue }
func (s *CyclingStrategy) GetTherapy(rng *Random, location, age int) *Therapy {
	return s.Therapies[s.activeIndex%len(s.Therapies)]
}
func (s *CyclingStrategy) UpdateEndOfTimeStep(currentDay int) {}
func (s *CyclingStrategy) MonthlyUpdate(currentDay int) {
	if s.PeriodDays <= 0 {
		return
	}
	elapsed := currentDay - s.startedTime
	s.activeIndex = (elapsed / s.PeriodDays) % len(s.Therapies)
}
func (s *CyclingStrategy) AdjustStartedTimePoint(t int) { s.startedTime = t }

// AdaptiveCyclingStrategy rotates to the next therapy once the active
// therapy's treatment-failure rate exceeds FailureThreshold. The rate
// counts every success and failure MDC has recorded for that therapy since
// the run started; it is not limited to a rolling window.
type AdaptiveCyclingStrategy struct {
	IDValue          int
	Therapies        []*Therapy
	FailureThreshold float64
	MDC              *ModelDataCollector
	activeIndex      int
}

func (s *AdaptiveCyclingStrategy) ID() int { return s.IDValue }
func (s *AdaptiveCyclingStrategy) GetTherapy(rng *Random, location, age int) *Therapy {
	return s.Therapies[s.activeIndex%len(s.Therapies)]
}
func (s *AdaptiveCyclingStrategy) UpdateEndOfTimeStep(currentDay int) {}
func (s *AdaptiveCyclingStrategy) MonthlyUpdate(currentDay int) {
	active := s.Therapies[s.activeIndex%len(s.Therapies)]
	if s.MDC != nil && s.MDC.TreatmentFailureRate(active.ID) > s.FailureThreshold {
		s.activeIndex = (s.activeIndex + 1) % len(s.Therapies)
	}
}
func (s *AdaptiveCyclingStrategy) AdjustStartedTimePoint(t int) {}

// NestedMFTStrategy delegates to a list of child strategies per a
// distribution that evolves over time either by annual inflation of the
// first entry or by linear interpolation from StartDistribution to
// PeakDistribution over PeakAfterDays. One distribution is shared by every
// location; the location argument is only passed on to the chosen child.
type NestedMFTStrategy struct {
	IDValue           int
	Children          []Strategy
	StartDistribution []float64
	PeakDistribution  []float64
	PeakAfterDays     int
	InflationFactor   float64
	UseInflation      bool
	startedTime       int
	currentDay        int
	distribution      []float64
}

func (s *NestedMFTStrategy) ID() int { return s.IDValue }

func (s *NestedMFTStrategy) currentDistribution(currentDay int) []float64 {
	if s.UseInflation {
		return s.distribution
	}
	if s.PeakAfterDays <= 0 {
		return s.PeakDistribution
	}
	elapsed := currentDay - s.startedTime
	if elapsed >= s.PeakAfterDays {
		return s.PeakDistribution
	}
	frac := float64(elapsed) / float64(s.PeakAfterDays)
	out := make([]float64, len(s.StartDistribution))
	for i := range out {
		out[i] = s.StartDistribution[i] + frac*(s.PeakDistribution[i]-s.StartDistribution[i])
	}
	return out
}

func (s *NestedMFTStrategy) GetTherapy(rng *Random, location, age int) *Therapy {
	dist := s.currentDistribution(s.currentDay)
	picks := RouletteSampleTuple(rng, 1, dist, s.Children, true)
	if len(picks) == 0 {
		return nil
	}
	return picks[0].Item.GetTherapy(rng, location, age)
}

func (s *NestedMFTStrategy) UpdateEndOfTimeStep(currentDay int) {
	s.currentDay = currentDay
	for _, c := range s.Children {
		c.UpdateEndOfTimeStep(currentDay)
	}
}

func (s *NestedMFTStrategy) MonthlyUpdate(currentDay int) {
	// Inflation applies once per year since the started time point: on the
	// monthly update that falls within 30 days after each anniversary.
	elapsed := currentDay - s.startedTime
	if s.UseInflation && len(s.distribution) > 0 && elapsed >= 365 && elapsed%365 < 30 {
		s.distribution[0] *= 1 + s.InflationFactor
	}
	for _, c := range s.Children {
		c.MonthlyUpdate(currentDay)
	}
}

func (s *NestedMFTStrategy) AdjustStartedTimePoint(t int) {
	s.startedTime = t
	s.currentDay = t
	if s.distribution == nil {
		s.distribution = append([]float64(nil), s.StartDistribution...)
	}
	for _, c := range s.Children {
		c.AdjustStartedTimePoint(t)
	}
}
