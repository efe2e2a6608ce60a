package malasim

import "math"

// ImmuneParameters carries the age-modulated acquire/decay curves and
// clinical-probability sigmoid shared by every ImmuneSystem (spec §4.4,
// config key immune_system_parameters). A single instance is shared by
// pointer across all persons; it is immutable after construction.
type ImmuneParameters struct {
	AlphaImmune float64
	BetaImmune  float64

	AdultAcquireRateBySlope   float64
	AdultAcquireRateByAge     float64
	AdultAcquireRateMax       float64
	InfantDecayRate           float64
	AdultDecayRate            float64

	DensityMidpoint float64 // midpoint of the f(theta) sigmoid
	DensitySteepness float64

	MinClinicalProb float64
	MaxClinicalProb float64
	ClinicalMidpoint float64
	ClinicalSteepness float64

	InfantMaxAgeDays int // age in days below which the Infant component applies
}

// acquireRate returns the Adult component's age-modulated saturating
// acquire rate, a standard logistic-in-age curve bounded by
// AdultAcquireRateMax.
func (p *ImmuneParameters) acquireRate(ageYears float64) float64 {
	return p.AdultAcquireRateMax / (1 + math.Exp(-p.AdultAcquireRateBySlope*(ageYears-p.AdultAcquireRateByAge)))
}

// sigmoid computes the calibrated f(theta) used by GetParasiteSizeAfterTDays.
func (p *ImmuneParameters) sigmoid(theta float64) float64 {
	return 1 / (1 + math.Exp(p.DensitySteepness*(theta-p.DensityMidpoint)))
}

// ImmuneSystem is a person's unique-owned immune state: a single scalar
// theta in [0,1] tracked with exponential relaxation toward 0 or 1
// depending on whether the host is currently under parasite pressure
// (Increase) or not, with a distinct rate for Infant (age < 6 months) vs.
// Adult hosts (spec §4.4).
type ImmuneSystem struct {
	params           *ImmuneParameters
	latestValue      float64
	latestUpdateTime int
	increase         bool
}

// NewImmuneSystem creates an ImmuneSystem seeded at value0 and time0.
func NewImmuneSystem(params *ImmuneParameters, value0 float64, time0 int) *ImmuneSystem {
	return &ImmuneSystem{params: params, latestValue: value0, latestUpdateTime: time0}
}

// SetIncrease toggles whether the system is relaxing toward 1 (under
// pressure) or decaying toward 0 (pressure released).
func (s *ImmuneSystem) SetIncrease(increase bool) { s.increase = increase }

// Increase reports the current direction.
func (s *ImmuneSystem) Increase() bool { return s.increase }

// LatestValue returns the value committed by the last Update call, without
// projecting it forward.
func (s *ImmuneSystem) LatestValue() float64 { return s.latestValue }

// ageInDays is supplied by the caller (Person) since ImmuneSystem itself
// does not know the host's birthday.
func (s *ImmuneSystem) rate(ageDays int) float64 {
	if ageDays < s.params.InfantMaxAgeDays {
		return s.params.InfantDecayRate
	}
	if s.increase {
		return s.params.acquireRate(float64(ageDays) / 365.0)
	}
	return s.params.AdultDecayRate
}

// CurrentValue projects theta forward to currentTime given the host's age
// in days, per spec §4.4:
//
//	increasing: theta_t = 1 - (1-theta_0) * exp(-acquire_rate(age) * duration)
//	decreasing: theta_t = theta_0 * exp(-decay_rate(age) * duration), floored to 0 below 1e-5
//
// The Infant component only ever decays — it has no acquisition phase — so
// hosts younger than InfantMaxAgeDays always take the decreasing branch
// regardless of Increase().
func (s *ImmuneSystem) CurrentValue(currentTime, ageDays int) float64 {
	duration := float64(currentTime - s.latestUpdateTime)
	if duration < 0 {
		duration = 0
	}
	isInfant := ageDays < s.params.InfantMaxAgeDays
	if s.increase && !isInfant {
		return 1 - (1-s.latestValue)*math.Exp(-s.rate(ageDays)*duration)
	}
	theta := s.latestValue * math.Exp(-s.rate(ageDays)*duration)
	if theta < 1e-5 {
		return 0
	}
	return theta
}

// Update commits CurrentValue(currentTime, ageDays) back into latestValue
// and advances latestUpdateTime.
func (s *ImmuneSystem) Update(currentTime, ageDays int) {
	s.latestValue = s.CurrentValue(currentTime, ageDays)
	s.latestUpdateTime = currentTime
}

// DrawRandomImmune samples a naive immune value from Beta(alpha, beta),
// used to seed newborns and freshly colonized immune systems.
func (p *ImmuneParameters) DrawRandomImmune(rng *Random) float64 {
	return rng.Beta(p.AlphaImmune, p.BetaImmune)
}

// GetParasiteSizeAfterTDays returns log10(10^size0 * fitness^duration * f(theta))
// per spec §4.4, where theta is the immune system's current value.
func (s *ImmuneSystem) GetParasiteSizeAfterTDays(currentTime, ageDays, duration int, size0, fitness float64) float64 {
	theta := s.CurrentValue(currentTime, ageDays)
	f := s.params.sigmoid(theta)
	if f <= 0 {
		f = 1e-12
	}
	return size0 + float64(duration)*math.Log10(fitness) + math.Log10(f)
}

// GetClinicalProgressionProbability returns a sigmoidal function of theta
// clamped to [MinClinicalProb, MaxClinicalProb] (spec §4.4).
func (s *ImmuneSystem) GetClinicalProgressionProbability(currentTime, ageDays int) float64 {
	theta := s.CurrentValue(currentTime, ageDays)
	p := s.params
	raw := p.MinClinicalProb + (p.MaxClinicalProb-p.MinClinicalProb)/
		(1+math.Exp(p.ClinicalSteepness*(theta-p.ClinicalMidpoint)))
	if raw < p.MinClinicalProb {
		return p.MinClinicalProb
	}
	if raw > p.MaxClinicalProb {
		return p.MaxClinicalProb
	}
	return raw
}
