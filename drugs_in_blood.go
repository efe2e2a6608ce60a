package malasim

import "math"

// Drug is a per-person instance of one course of a DrugType: the piecewise
// deterministic concentration trajectory described in spec §4.3, plus the
// stochastic wobble term layered on top of it.
type Drug struct {
	Type          *DrugType
	DosingDays    int
	StartTime     int
	EndTime       int
	StartingValue float64 // residual fraction of peak concentration, [0,1]
}

// ConcentrationAt returns the drug's blood concentration on day, per
// spec §4.3: before the course's start day (days < 0) the concentration is
// zero; while 0 <= days <= DosingDays it is StartingValue plus a
// stochastic wobble (drug 0 draws U(-0.2,0.2) every query; other drugs
// ratchet StartingValue upward by U(0,0.1) once days >= 1); past
// DosingDays it decays exponentially with the drug's half-life and floors
// to 0 once it drops under 0.1.
func (d *Drug) ConcentrationAt(day int, rng *Random) float64 {
	days := day - d.StartTime
	if days < 0 {
		return 0
	}
	if days <= d.DosingDays {
		if d.Type != nil && d.Type.ID == 0 {
			wobble := rng.UniformRange(-0.2, 0.2)
			c := d.StartingValue + wobble
			return clamp01(c)
		}
		if days >= 1 {
			d.StartingValue += rng.UniformRange(0, 0.1)
			if d.StartingValue > 1 {
				d.StartingValue = 1
			}
		}
		return clamp01(d.StartingValue)
	}
	halfLife := 1.0
	if d.Type != nil && d.Type.HalfLife > 0 {
		halfLife = d.Type.HalfLife
	}
	elapsed := float64(days - d.DosingDays)
	c := d.StartingValue * math.Exp(-elapsed*math.Ln2/halfLife)
	if c < 0.1 {
		return 0
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DrugsInBlood maps drug_id to the single owned Drug course currently
// active for a person (spec §4.3/§4.4: at most one Drug per drug_id).
type DrugsInBlood struct {
	byDrugID map[int]*Drug
}

// NewDrugsInBlood returns an empty drug-in-blood set.
func NewDrugsInBlood() *DrugsInBlood {
	return &DrugsInBlood{byDrugID: make(map[int]*Drug)}
}

// Size returns the number of distinct drugs currently in blood.
func (b *DrugsInBlood) Size() int {
	return len(b.byDrugID)
}

// Get returns the Drug instance for drugID, or nil if none is active.
func (b *DrugsInBlood) Get(drugID int) *Drug {
	return b.byDrugID[drugID]
}

// Remove drops drugID's course entirely.
func (b *DrugsInBlood) Remove(drugID int) {
	delete(b.byDrugID, drugID)
}

// Each iterates every active drug course. Iteration order is undefined.
func (b *DrugsInBlood) Each(fn func(drugID int, d *Drug)) {
	for id, d := range b.byDrugID {
		fn(id, d)
	}
}

// StartCourse begins a new course of drugType at currentDay. If a course
// for the same drug is already active and has not yet ended, its residual
// concentration at currentDay is folded into the new course's starting
// value (combined, clamped to 1) instead of being discarded, per spec
// §4.3's "preserves/combines residual concentration" rule.
func (b *DrugsInBlood) StartCourse(rng *Random, drugType *DrugType, currentDay, dosingDays int, startingValue float64) {
	if existing, ok := b.byDrugID[drugType.ID]; ok && currentDay < existing.EndTime {
		residual := existing.ConcentrationAt(currentDay, rng)
		startingValue = clamp01(startingValue + residual)
	}
	b.byDrugID[drugType.ID] = &Drug{
		Type:          drugType,
		DosingDays:    dosingDays,
		StartTime:     currentDay,
		EndTime:       currentDay + dosingDays,
		StartingValue: clamp01(startingValue),
	}
}
