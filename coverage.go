package malasim

import "math"

// TreatmentCoverageModel returns p_treatment(location, age) given today's
// calendar day, distinct from Strategy (which picks the therapy once
// treatment is decided) per spec §4.9.
type TreatmentCoverageModel interface {
	PTreatment(currentDay, location, age int) float64
}

// SteadyTreatmentCoverage returns a constant coverage per location,
// independent of calendar day and age.
type SteadyTreatmentCoverage struct {
	ByLocation []float64
}

func (c *SteadyTreatmentCoverage) PTreatment(currentDay, location, age int) float64 {
	if location < 0 || location >= len(c.ByLocation) {
		return 0
	}
	return c.ByLocation[location]
}

// InflatedTreatmentCoverage compounds a base coverage by a fixed monthly
// inflation factor starting from StartDay.
type InflatedTreatmentCoverage struct {
	ByLocation      []float64
	MonthlyInflation float64
	StartDay        int
}

func (c *InflatedTreatmentCoverage) PTreatment(currentDay, location, age int) float64 {
	if location < 0 || location >= len(c.ByLocation) {
		return 0
	}
	base := c.ByLocation[location]
	if currentDay <= c.StartDay {
		return base
	}
	months := float64(currentDay-c.StartDay) / 30.0
	v := base * pow1p(c.MonthlyInflation, months)
	if v > 1 {
		return 1
	}
	return v
}

// pow1p returns (1+rate)^months, kept as a named helper so the inflation
// formula reads like spec prose at the call site.
func pow1p(rate, months float64) float64 {
	return math.Pow(1+rate, months)
}

// LinearTreatmentCoverage interpolates coverage linearly from FromValue at
// FromDay to ToValue at ToDay, per location, holding flat outside that
// window.
type LinearTreatmentCoverage struct {
	FromValue []float64
	ToValue   []float64
	FromDay   int
	ToDay     int
}

func (c *LinearTreatmentCoverage) PTreatment(currentDay, location, age int) float64 {
	if location < 0 || location >= len(c.FromValue) {
		return 0
	}
	from, to := c.FromValue[location], c.ToValue[location]
	if currentDay <= c.FromDay {
		return from
	}
	if currentDay >= c.ToDay || c.ToDay <= c.FromDay {
		return to
	}
	frac := float64(currentDay-c.FromDay) / float64(c.ToDay-c.FromDay)
	return from + frac*(to-from)
}
