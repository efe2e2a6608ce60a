package malasim

// Mosquito owns the pool of recently infected mosquitoes (PRMC): a ring
// buffer of sampled infectious genotypes per location, one slot per
// simulated mosquito per tracking day (spec §3/§4.8.g).
type Mosquito struct {
	trackingDays int
	mosquitoSize int
	ifr          float64 // mosquito_ifr: probability of interrupted feeding
	table        [][][]*Genotype // [dayIndex][location][slot]
	genotypeDB   *GenotypeDB
	withinChromRecombinationRate float64
	recordRecombinationEvents    bool
}

// NewMosquito creates an empty PRMC sized for numLocations locations,
// trackingDays days, and mosquitoSize slots per (day, location).
func NewMosquito(genotypeDB *GenotypeDB, numLocations, trackingDays, mosquitoSize int, ifr, withinChromRecombinationRate float64) *Mosquito {
	table := make([][][]*Genotype, trackingDays)
	for d := range table {
		table[d] = make([][]*Genotype, numLocations)
		for loc := range table[d] {
			table[d][loc] = make([]*Genotype, mosquitoSize)
		}
	}
	return &Mosquito{
		trackingDays:                 trackingDays,
		mosquitoSize:                 mosquitoSize,
		ifr:                          ifr,
		table:                        table,
		genotypeDB:                   genotypeDB,
		withinChromRecombinationRate: withinChromRecombinationRate,
	}
}

// SampleGenotype draws one genotype uniformly from the non-null slots at
// (trackingIndex, location), returning nil if every slot is empty.
func (m *Mosquito) SampleGenotype(rng *Random, trackingIndex, location int) *Genotype {
	day := m.table[trackingIndex%m.trackingDays]
	if location < 0 || location >= len(day) {
		return nil
	}
	slots := day[location]
	nonNull := make([]*Genotype, 0, len(slots))
	for _, g := range slots {
		if g != nil {
			nonNull = append(nonNull, g)
		}
	}
	if len(nonNull) == 0 {
		return nil
	}
	return nonNull[rng.UniformUpTo(len(nonNull))]
}

// InfectNewCohortInPRMC implements spec §4.8.g: for each location, samples
// two rounds of biting persons by roulette and recombines their parasites
// freely into the next cohort slot, bounded by 10 self-mating retries.
func (m *Mosquito) InfectNewCohortInPRMC(rng *Random, trackingIndex int, pop *Population, mdc *ModelDataCollector) {
	slot := m.table[trackingIndex%m.trackingDays]
	for loc := 0; loc < len(slot); loc++ {
		if pop.CurrentForceOfInfectionByLoc[loc] <= 0 {
			for s := range slot[loc] {
				slot[loc][s] = nil
			}
			continue
		}
		alive := pop.AllAlivePersonsByLocation[loc]
		indFOI := pop.IndividualFOIByLocation[loc]
		indBiting := pop.IndividualRelativeBitingByLoc[loc]
		if len(alive) == 0 {
			continue
		}
		firstMates := RouletteSampleTuple(rng, m.mosquitoSize, indFOI, alive, false)
		secondMates := RouletteSampleTuple(rng, m.mosquitoSize, indBiting, alive, true)

		order := rng.Perm(m.mosquitoSize)
		for slotIdx := 0; slotIdx < m.mosquitoSize; slotIdx++ {
			o := order[slotIdx]
			if o >= len(firstMates) {
				slot[loc][slotIdx] = nil
				continue
			}
			first := firstMates[o].Item
			interrupted := rng.Uniform() < m.ifr
			var second *Person
			if interrupted && o < len(secondMates) {
				cand := secondMates[o].Item
				for attempt := 0; attempt < 10 && cand == first; attempt++ {
					alt := RouletteSampleTuple(rng, 1, indBiting, alive, true)
					if len(alt) == 0 {
						break
					}
					cand = alt[0].Item
				}
				if cand != first {
					second = cand
				}
			}

			f := m.pickClone(rng, first)
			if f == nil {
				slot[loc][slotIdx] = nil
				continue
			}
			child := f
			if second != nil {
				s := m.pickClone(rng, second)
				if s != nil {
					mixed, err := m.genotypeDB.Recombine(rng, f, s, m.withinChromRecombinationRate)
					if err == nil {
						child = mixed
						if m.recordRecombinationEvents {
							mdc.Record1Mutation(loc)
						}
					}
				}
			}
			slot[loc][slotIdx] = child
		}
	}
}

// pickClone uniformly selects one of p's current clone genotypes, or nil
// if p carries none.
func (m *Mosquito) pickClone(rng *Random, p *Person) *Genotype {
	n := p.SHCPP.Size()
	if n == 0 {
		return nil
	}
	idx := rng.UniformUpTo(n)
	return p.SHCPP.At(idx).Genotype
}
