package malasim

import "math"

// LogZero is the default last_update_log10_parasite_density for a clone
// that has not yet been assigned a real density.
const LogZero = -1000.0

// ClonalParasitePopulation is one parasite clone living inside a single
// host (spec §3 CPP). Its Genotype pointer is non-owning: GenotypeDB is
// the sole owner of the Genotype it points to.
type ClonalParasitePopulation struct {
	Genotype                    *Genotype
	LastUpdateLog10Density       float64
	GametocyteLevel              float64
	FirstDateInBlood             int
	owner                        *SingleHostClonalParasitePopulations
	index                        int
	UpdateFunction               DensityUpdateFunc
}

// NewClonalParasitePopulation creates a clone of genotype seeded at
// LogZero density, not yet attached to any SHCPP.
func NewClonalParasitePopulation(genotype *Genotype, firstDateInBlood int) *ClonalParasitePopulation {
	return &ClonalParasitePopulation{
		Genotype:              genotype,
		LastUpdateLog10Density: LogZero,
		FirstDateInBlood:       firstDateInBlood,
	}
}

// Index returns the clone's current position in its owner's vector (I-C1).
func (c *ClonalParasitePopulation) Index() int { return c.index }

// Update runs the clone's active update function, if any, advancing
// LastUpdateLog10Density (spec §4.5).
func (c *ClonalParasitePopulation) Update(duration int, ctx DensityUpdateContext) {
	if c.UpdateFunction == nil {
		return
	}
	c.LastUpdateLog10Density = c.UpdateFunction(c, duration, ctx)
}

// AdvanceGametocyte ramps GametocyteLevel toward full over
// daysToMaturity days, per the gametocyte maturation supplement: a fresh
// blood-stage clone is not yet infectious to mosquitoes until its
// gametocytes mature.
func (c *ClonalParasitePopulation) AdvanceGametocyte(currentTime, daysToMaturity int, full float64) {
	if daysToMaturity <= 0 {
		c.GametocyteLevel = full
		return
	}
	age := currentTime - c.FirstDateInBlood
	if age < 0 {
		age = 0
	}
	if age >= daysToMaturity {
		c.GametocyteLevel = full
		return
	}
	c.GametocyteLevel = full * float64(age) / float64(daysToMaturity)
}

// Log10GametocyteDensity returns log10(10^density * gametocyte_level),
// or LogZero when the clone carries no gametocytes yet.
func (c *ClonalParasitePopulation) Log10GametocyteDensity() float64 {
	if c.GametocyteLevel <= 0 {
		return LogZero
	}
	return c.LastUpdateLog10Density + math.Log10(c.GametocyteLevel)
}

// SingleHostClonalParasitePopulations (SHCPP) owns the dense vector of
// clones inside one host, supporting O(1) swap-with-back removal (spec §3).
type SingleHostClonalParasitePopulations struct {
	clones              []*ClonalParasitePopulation
	latestUpdateTime    int
}

// NewSingleHostClonalParasitePopulations creates an empty SHCPP.
func NewSingleHostClonalParasitePopulations(currentTime int) *SingleHostClonalParasitePopulations {
	return &SingleHostClonalParasitePopulations{latestUpdateTime: currentTime}
}

// Size returns the current multiplicity of infection (MOI).
func (s *SingleHostClonalParasitePopulations) Size() int { return len(s.clones) }

// LatestUpdateTime returns the day this SHCPP was last advanced.
func (s *SingleHostClonalParasitePopulations) LatestUpdateTime() int { return s.latestUpdateTime }

// SetLatestUpdateTime records the day this SHCPP was last advanced.
func (s *SingleHostClonalParasitePopulations) SetLatestUpdateTime(t int) { s.latestUpdateTime = t }

// Add appends clone, attaching it to this SHCPP and fixing its index
// (I-C1).
func (s *SingleHostClonalParasitePopulations) Add(clone *ClonalParasitePopulation) {
	clone.owner = s
	clone.index = len(s.clones)
	s.clones = append(s.clones, clone)
}

// Contains reports whether clone currently belongs to this SHCPP.
func (s *SingleHostClonalParasitePopulations) Contains(clone *ClonalParasitePopulation) bool {
	return clone.owner == s && clone.index >= 0 && clone.index < len(s.clones) && s.clones[clone.index] == clone
}

// RemoveAt removes the clone at index in O(1) by swapping it with the last
// element and popping, then fixing up the moved clone's index.
func (s *SingleHostClonalParasitePopulations) RemoveAt(index int) {
	last := len(s.clones) - 1
	if index < 0 || index > last {
		return
	}
	removed := s.clones[index]
	removed.owner = nil
	removed.index = -1
	if index != last {
		s.clones[index] = s.clones[last]
		s.clones[index].index = index
	}
	s.clones[last] = nil
	s.clones = s.clones[:last]
}

// Remove removes clone if it belongs to this SHCPP.
func (s *SingleHostClonalParasitePopulations) Remove(clone *ClonalParasitePopulation) {
	if s.Contains(clone) {
		s.RemoveAt(clone.index)
	}
}

// Clear empties the SHCPP, detaching every clone.
func (s *SingleHostClonalParasitePopulations) Clear() {
	for _, c := range s.clones {
		c.owner = nil
		c.index = -1
	}
	s.clones = nil
}

// Each iterates clones in current vector order. fn must not mutate the
// SHCPP; callers that need to remove while iterating should collect
// indices first and call RemoveAt from highest to lowest.
func (s *SingleHostClonalParasitePopulations) Each(fn func(*ClonalParasitePopulation)) {
	for _, c := range s.clones {
		fn(c)
	}
}

// At returns the clone at index, or nil if out of range.
func (s *SingleHostClonalParasitePopulations) At(index int) *ClonalParasitePopulation {
	if index < 0 || index >= len(s.clones) {
		return nil
	}
	return s.clones[index]
}

// ClearCuredParasites removes every clone whose density has decayed to or
// below threshold, satisfying P5: after this call no remaining clone has
// LastUpdateLog10Density <= threshold + 1e-5. Iterates back-to-front so
// swap-with-back removal never skips an element.
func (s *SingleHostClonalParasitePopulations) ClearCuredParasites(threshold float64) {
	for i := len(s.clones) - 1; i >= 0; i-- {
		if s.clones[i].LastUpdateLog10Density <= threshold+1e-5 {
			s.RemoveAt(i)
		}
	}
}

// MutateByDrugs applies GenotypeDB.MutateUnderDrug to every clone for
// every drug currently in the host's blood with concentration > 0,
// swapping the clone's Genotype pointer in place when a mutation is
// adopted (spec §4.2's mutation-under-drug-pressure rule). Every adopted
// mutation is tallied into mdc at location, both per-drug and
// cumulatively, so MDC's cumulative_mutants_by_location reflects
// drug-pressure mutation. mosquito.go adds recombination to the same
// counter only when its recordRecombinationEvents flag is set, and no
// constructor or setter sets that flag.
func (s *SingleHostClonalParasitePopulations) MutateByDrugs(rng *Random, db *GenotypeDB, blood *DrugsInBlood, currentDay int, mutationMask []bool, baseMutationProb float64, aaAlphabet []string, mdc *ModelDataCollector, location int) {
	blood.Each(func(drugID int, drug *Drug) {
		c := drug.ConcentrationAt(currentDay, rng)
		if c <= 0 {
			return
		}
		p := drug.Type.MutationProbability(c, baseMutationProb)
		for _, clone := range s.clones {
			newGenotype, adopted := db.MutateUnderDrug(rng, clone.Genotype, drug.Type, mutationMask, p, aaAlphabet)
			if adopted {
				priorUID := clone.Genotype.UID()
				clone.Genotype = newGenotype
				if mdc != nil {
					mdc.Record1MutationByDrug(drugID)
					mdc.Record1Mutation(location)
					mdc.Record1MutationLineage(currentDay, location, drugID, newGenotype.UID(), priorUID)
				}
			}
		}
	})
}

// Log10TotalInfectiousDensity caches log10 Σ 10^(density_i + log10
// gametocyte_i) across every clone, per spec §3's SHCPP definition. Clones
// without mature gametocytes contribute nothing.
func (s *SingleHostClonalParasitePopulations) Log10TotalInfectiousDensity() float64 {
	var sum float64
	any := false
	for _, c := range s.clones {
		gLog := c.Log10GametocyteDensity()
		if gLog <= LogZero {
			continue
		}
		sum += math.Pow(10, gLog)
		any = true
	}
	if !any || sum <= 0 {
		return LogZero
	}
	return math.Log10(sum)
}
