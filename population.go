package malasim

import "math"

// Population owns every living Person plus the per-location aggregates the
// force-of-infection and mosquito pipeline need (spec §3/§4.7/§4.8).
type Population struct {
	persons []*Person
	posByID map[int]int
	nextID  int

	Indexes *PopulationIndexes

	numLocations int
	trackingDays int

	AllAlivePersonsByLocation       [][]*Person
	IndividualFOIByLocation         [][]float64 // per location, per index within AllAlivePersonsByLocation
	IndividualRelativeBitingByLoc   [][]float64
	SumRelativeBitingByLocation     []float64
	CurrentForceOfInfectionByLoc    []float64
	foiRingBuffer                   [][]float64 // [trackingIndex][location]
}

// NewPopulation creates an empty population sized for numLocations
// locations and a PRMC tracking window of trackingDays.
func NewPopulation(numLocations, trackingDays int) *Population {
	p := &Population{
		posByID:                       make(map[int]int),
		Indexes:                       NewPopulationIndexes(),
		numLocations:                  numLocations,
		trackingDays:                  trackingDays,
		AllAlivePersonsByLocation:     make([][]*Person, numLocations),
		IndividualFOIByLocation:       make([][]float64, numLocations),
		IndividualRelativeBitingByLoc: make([][]float64, numLocations),
		SumRelativeBitingByLocation:   make([]float64, numLocations),
		CurrentForceOfInfectionByLoc:  make([]float64, numLocations),
		foiRingBuffer:                 make([][]float64, trackingDays),
	}
	for i := range p.foiRingBuffer {
		p.foiRingBuffer[i] = make([]float64, numLocations)
	}
	return p
}

// Size returns the number of living persons tracked.
func (pop *Population) Size() int { return len(pop.persons) }

// AddPerson inserts p into the all-persons index and both secondary
// indexes, attaching them as p's notification targets.
func (pop *Population) AddPerson(p *Person) {
	p.AttachIndex(pop.Indexes)
	pop.posByID[p.ID] = len(pop.persons)
	pop.persons = append(pop.persons, p)
	pop.Indexes.Add(p)
}

// removeAt detaches the person at index from every index via
// swap-with-back (I-X1 is maintained by PopulationIndexes.Remove, called
// before the owning slice is mutated here).
func (pop *Population) removeAt(index int) {
	last := len(pop.persons) - 1
	p := pop.persons[index]
	pop.Indexes.Remove(p)
	delete(pop.posByID, p.ID)
	if index != last {
		pop.persons[index] = pop.persons[last]
		pop.posByID[pop.persons[index].ID] = index
	}
	pop.persons[last] = nil
	pop.persons = pop.persons[:last]
}

// Each iterates every living person in current vector order.
func (pop *Population) Each(fn func(*Person)) {
	for _, p := range pop.persons {
		fn(p)
	}
}

// UpdateAllIndividuals implements spec §4.8.a: for every alive person, run
// due events then Person.Update.
func (pop *Population) UpdateAllIndividuals(m *Model, currentTime int) {
	for _, p := range pop.persons {
		if p.State == Dead {
			continue
		}
		due := p.Events.PopDue(currentTime)
		for _, ev := range due {
			if ev.Executable() {
				ev.Execute(m)
			}
		}
		p.Update(currentTime, m.densityContext())
	}
}

// PerformDeathEvent implements spec §4.8.b: removes every person currently
// DEAD, then applies natural mortality draws to the rest.
func (pop *Population) PerformDeathEvent(m *Model) {
	for i := len(pop.persons) - 1; i >= 0; i-- {
		if pop.persons[i].State == Dead {
			pop.removeAt(i)
		}
	}
	for i := len(pop.persons) - 1; i >= 0; i-- {
		p := pop.persons[i]
		if m.Rng.Uniform() < m.Config.Demographic.DailyNaturalDeathProbability(p.Age) {
			p.SetState(Dead)
			pop.removeAt(i)
		}
	}
}

// PerformBirthEvent implements spec §4.8.c: Poisson-draws new births per
// location and adds each as a fresh SUSCEPTIBLE age-0 person.
func (pop *Population) PerformBirthEvent(m *Model, currentTime int) {
	for loc := 0; loc < pop.numLocations; loc++ {
		popSize := len(pop.AllAlivePersonsByLocation[loc])
		expected := m.Config.Demographic.BirthRate * float64(popSize)
		if expected <= 0 {
			continue
		}
		n := m.Rng.Poisson(expected)
		for i := 0; i < n; i++ {
			immune := NewImmuneSystem(m.Config.Immune, m.Config.Immune.DrawRandomImmune(m.Rng), currentTime)
			person := NewPerson(pop.nextID, loc, currentTime, immune)
			pop.nextID++
			pop.AddPerson(person)
		}
	}
}

// RecomputeAliveByLocation rebuilds AllAlivePersonsByLocation from the
// current person set; Step calls it at the start of each tick and again
// before UpdateCurrentFOI, since births/deaths may have changed locations.
func (pop *Population) RecomputeAliveByLocation() {
	for i := range pop.AllAlivePersonsByLocation {
		pop.AllAlivePersonsByLocation[i] = pop.AllAlivePersonsByLocation[i][:0]
	}
	for _, p := range pop.persons {
		if p.State == Dead {
			continue
		}
		pop.AllAlivePersonsByLocation[p.Location] = append(pop.AllAlivePersonsByLocation[p.Location], p)
	}
}

// UpdateCurrentFOI implements spec §4.8.d.
func (pop *Population) UpdateCurrentFOI(m *Model, currentTime int) {
	for loc := 0; loc < pop.numLocations; loc++ {
		alive := pop.AllAlivePersonsByLocation[loc]
		pop.IndividualFOIByLocation[loc] = make([]float64, len(alive))
		pop.IndividualRelativeBitingByLoc[loc] = make([]float64, len(alive))
		var sumBiting, sumFOI float64
		for i, p := range alive {
			ageDep := m.Config.Transmission.AgeDependentBitingFactor(p.Age)
			seasonal := m.Config.Transmission.SeasonalFactor(currentTime, loc)
			biteMod := m.Config.Transmission.BiteModifier(p.MovingLevel)
			relBiting := p.InnateRelativeBitingRate * ageDep * seasonal * biteMod
			p.CurrentRelativeBitingRate = relBiting

			var reservoir float64
			p.SHCPP.Each(func(c *ClonalParasitePopulation) {
				gLog := c.Log10GametocyteDensity()
				if gLog <= LogZero {
					return
				}
				reservoir += math.Pow(10, gLog)
			})
			individualFOI := relBiting * (1 - math.Exp(-m.Config.Transmission.InfectivityScale*reservoir))

			pop.IndividualRelativeBitingByLoc[loc][i] = relBiting
			pop.IndividualFOIByLocation[loc][i] = individualFOI
			sumBiting += relBiting
			sumFOI += individualFOI
		}
		pop.SumRelativeBitingByLocation[loc] = sumBiting
		pop.CurrentForceOfInfectionByLoc[loc] = sumFOI
	}
}

// PerformInfectionEvent implements spec §4.8.e.
func (pop *Population) PerformInfectionEvent(m *Model, currentTime, trackingIndex int) {
	for loc := 0; loc < pop.numLocations; loc++ {
		alive := pop.AllAlivePersonsByLocation[loc]
		if len(alive) == 0 {
			continue
		}
		susceptible := make([]*Person, 0, len(alive))
		susceptibleBiting := make([]float64, 0, len(alive))
		for i, p := range alive {
			if p.State == Susceptible || p.State == Asymptomatic {
				susceptible = append(susceptible, p)
				susceptibleBiting = append(susceptibleBiting, pop.IndividualRelativeBitingByLoc[loc][i])
			}
		}
		if len(susceptible) == 0 {
			continue
		}
		expectedBites := m.Config.Transmission.Beta(loc) *
			m.Config.Transmission.SeasonalFactor(currentTime, loc) *
			m.Config.Transmission.TreatmentFactor(loc) *
			float64(len(alive))
		bites := m.Rng.Poisson(expectedBites)
		for b := 0; b < bites; b++ {
			m.MDC.Record1InfectiousBite(loc)
			picks := RouletteSample(m.Rng, 1, susceptibleBiting, susceptible, true)
			if len(picks) == 0 {
				continue
			}
			target := picks[0]
			genotype := m.Mosquito.SampleGenotype(m.Rng, trackingIndex, loc)
			if genotype == nil {
				continue
			}
			pInfect := m.Config.Transmission.PInfectionFromInfectiousBite(target.Age, target.Immune.CurrentValue(currentTime, target.Age*365))
			if m.Rng.Uniform() >= pInfect {
				continue
			}
			m.infectBy(target, genotype, currentTime)
		}
	}
}

// PerformCirculationEvent implements spec §4.8.f: samples origin/
// destination pairs per the configured spatial model and schedules each
// selected person's move for tomorrow.
func (pop *Population) PerformCirculationEvent(m *Model, currentTime int) {
	for loc := 0; loc < pop.numLocations; loc++ {
		alive := pop.AllAlivePersonsByLocation[loc]
		for _, p := range alive {
			dest, ok := m.Config.Movement.SampleDestination(m.Rng, loc, p.MovingLevel)
			if !ok || dest == loc {
				continue
			}
			los := m.Config.Movement.LengthOfStayDays(m.Rng)
			p.Events.Schedule(NewCirculateToTargetLocationNextDayEvent(currentTime+1, currentTime, p, dest, los))
		}
	}
}

// PersistCurrentForceOfInfection implements spec §4.8.h: writes today's
// CurrentForceOfInfectionByLoc into the ring buffer slot for trackingIndex.
func (pop *Population) PersistCurrentForceOfInfection(trackingIndex int) {
	copy(pop.foiRingBuffer[trackingIndex%pop.trackingDays], pop.CurrentForceOfInfectionByLoc)
}

// ForceOfInfectionAt returns the ring-buffer snapshot in slot trackingIndex
// mod trackingDays, the slot PersistCurrentForceOfInfection writes for the
// same trackingIndex.
func (pop *Population) ForceOfInfectionAt(trackingIndex int) []float64 {
	return pop.foiRingBuffer[trackingIndex%pop.trackingDays]
}
