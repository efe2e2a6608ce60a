package malasim

import "math"

// Run steps the model one day at a time until CurrentTime exceeds
// TotalTime or a world event sets ForceStop, implementing spec §4.8's
// top-level loop: begin_time_step, the lettered daily_update sequence,
// end_time_step, calendar_date += 1.
func (m *Model) Run() {
	for m.CurrentTime <= m.TotalTime && !m.ForceStop {
		m.Step()
	}
}

// Step advances the simulation by exactly one day.
func (m *Model) Step() {
	m.MDC.BeginTimeStep()
	for _, r := range m.Reporters {
		r.BeginTimeStep(m)
	}

	due := m.World.PopDue(m.CurrentTime)
	for _, ev := range due {
		if ev.Executable() {
			ev.Execute(m)
		}
	}

	m.Population.RecomputeAliveByLocation()
	m.Population.UpdateAllIndividuals(m, m.CurrentTime) // (a)
	m.applyDrugActions()                                // drug killing + mutation-under-pressure
	m.advanceGametocytes()

	m.Population.PerformDeathEvent(m)                // (b)
	m.Population.PerformBirthEvent(m, m.CurrentTime)  // (c)
	m.Population.RecomputeAliveByLocation()
	m.Population.UpdateCurrentFOI(m, m.CurrentTime)    // (d)

	trackingIndex := m.CurrentTime
	m.Population.PerformInfectionEvent(m, m.CurrentTime, trackingIndex) // (e)
	m.Population.PerformCirculationEvent(m, m.CurrentTime)              // (f)
	m.Mosquito.InfectNewCohortInPRMC(m.Rng, trackingIndex, m.Population, m.MDC) // (g)
	m.Population.PersistCurrentForceOfInfection(trackingIndex)                 // (h)

	if m.CurrentStrategy != nil {
		m.CurrentStrategy.UpdateEndOfTimeStep(m.CurrentTime)
		if m.CurrentTime%30 == 0 {
			m.CurrentStrategy.MonthlyUpdate(m.CurrentTime)
		}
	}

	m.MDC.ComputeBloodSlidePrevalence(m.Population, m.Config.Epi.DetectableLog10Density)
	if m.CurrentTime%365 == 0 {
		m.MDC.RollUpEIR(m.CurrentTime/365, m.populationByLocation())
	}
	if m.onMonthBoundary() {
		m.runMonthlyReporters()
	}
	if m.onYearBoundary() {
		m.runYearlyReporters()
	}

	m.MDC.EndTimeStep()
	m.CurrentTime++
}

// populationByLocation counts currently-alive persons per location, the
// denominator RollUpEIR needs.
func (m *Model) populationByLocation() []int {
	out := make([]int, m.Config.NumLocations)
	for loc := 0; loc < m.Config.NumLocations; loc++ {
		out[loc] = len(m.Population.AllAlivePersonsByLocation[loc])
	}
	return out
}

// onMonthBoundary reports whether CurrentTime lands on a 30-day reporting
// boundary, the cadence spec §4.8.i's monthly hooks use.
func (m *Model) onMonthBoundary() bool {
	return m.CurrentTime > 0 && m.CurrentTime%30 == 0
}

// onYearBoundary reports whether CurrentTime lands on a 365-day reporting
// boundary.
func (m *Model) onYearBoundary() bool {
	return m.CurrentTime > 0 && m.CurrentTime%365 == 0
}

// runMonthlyReporters fans MonthlyReport out to every attached Reporter,
// logging (not aborting) on I/O failure per spec §7.
func (m *Model) runMonthlyReporters() {
	for _, r := range m.Reporters {
		if err := r.MonthlyReport(m); err != nil {
			m.logReporterError("MonthlyReport", err)
		}
	}
}

// runYearlyReporters fans YearlyReport out to every attached Reporter.
func (m *Model) runYearlyReporters() {
	for _, r := range m.Reporters {
		if err := r.YearlyReport(m); err != nil {
			m.logReporterError("YearlyReport", err)
		}
	}
}

// applyDrugActions folds in the drug-pressure half of the daily update that
// Person.Update deliberately leaves alone (HavingDrugUpdate is a no-op):
// for every person currently carrying an active drug, kill each clone's
// density proportionally to that drug's killing rate against the clone's
// genotype-specific EC50, then roll the mutation-under-pressure dice
// (spec §4.3/§4.2).
func (m *Model) applyDrugActions() {
	m.Population.Each(func(p *Person) {
		if p.State == Dead || p.Blood.Size() == 0 {
			return
		}
		p.Blood.Each(func(drugID int, drug *Drug) {
			c := drug.ConcentrationAt(m.CurrentTime, m.Rng)
			if c <= 0 {
				return
			}
			p.SHCPP.Each(func(clone *ClonalParasitePopulation) {
				if clone.Genotype == nil {
					return
				}
				ec50n := clone.Genotype.EC50PowerN(drugID)
				k := drug.Type.KillingRate(c, ec50n)
				if k <= 0 {
					return
				}
				if k >= 1 {
					clone.LastUpdateLog10Density = m.Config.Epi.LogParasiteDensityCured
					return
				}
				clone.LastUpdateLog10Density += math.Log10(1 - k)
			})
		})
		p.SHCPP.MutateByDrugs(m.Rng, m.GenotypeDB, p.Blood, m.CurrentTime, m.Config.MutationMask, m.Config.MutationProbabilityPerLocus, m.Config.AAAlphabet, m.MDC, p.Location)
	})
}

// advanceGametocytes matures every clone's gametocyte level toward full
// over the configured maturation window, making freshly-established clones
// non-infectious to mosquitoes until they mature (supplemented feature).
func (m *Model) advanceGametocytes() {
	m.Population.Each(func(p *Person) {
		if p.State == Dead {
			return
		}
		p.SHCPP.Each(func(clone *ClonalParasitePopulation) {
			clone.AdvanceGametocyte(m.CurrentTime, m.Config.Epi.DaysToGametocyteMaturity, m.Config.Epi.GametocyteLevelFull)
		})
	})
}
