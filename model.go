package malasim

import "log"

// Model is the simulation facade owning every singleton the event types and
// Population methods forward-reference: genotype/drug registries,
// configuration, the master RNG, the population, the mosquito PRMC, the
// data collector, the active treatment strategy and coverage model, and the
// population-wide world event queue (spec §2/§9).
type Model struct {
	GenotypeDB *GenotypeDB
	DrugDB     *DrugDB
	Config     *Config
	Rng        *Random

	Population      *Population
	Mosquito        *Mosquito
	MDC             *ModelDataCollector
	CurrentStrategy Strategy
	Coverage        TreatmentCoverageModel

	World     *EventManager
	Reporters []Reporter

	CurrentTime int
	TotalTime   int
	ForceStop   bool
}

// AttachReporter registers a Reporter to receive before_run/begin_time_step/
// monthly_report/yearly_report/after_run callbacks (spec §6).
func (m *Model) AttachReporter(r Reporter) {
	m.Reporters = append(m.Reporters, r)
}

// logReporterError logs (never aborts) a Reporter I/O failure, per spec
// §7's "Reporter I/O failure: logged; does not abort the simulation."
func (m *Model) logReporterError(hook string, err error) {
	log.Printf("reporter error in %s: %v", hook, err)
}

// Initialize runs every attached Reporter's BeforeRun hook. Per spec §7,
// startup errors propagate out of initialization so main can log and exit
// non-zero; Model.Run itself never returns an error.
func (m *Model) Initialize() error {
	for _, r := range m.Reporters {
		if err := r.BeforeRun(m); err != nil {
			return err
		}
	}
	return nil
}

// Release runs every attached Reporter's AfterRun hook, flushing any
// buffered output (spec §6's after_run hook).
func (m *Model) Release() error {
	var first error
	for _, r := range m.Reporters {
		if err := r.AfterRun(m); err != nil {
			m.logReporterError("AfterRun", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// NewModel wires the singletons together into a fresh, empty-population
// Model ready for Population.AddPerson calls and then Run.
func NewModel(cfg *Config, genotypeDB *GenotypeDB, drugDB *DrugDB, strategy Strategy, coverage TreatmentCoverageModel, seed int64, totalTime int) *Model {
	rng := NewRandom(seed)
	trackingDays := cfg.Epi.NumberOfTrackingDays
	if trackingDays <= 0 {
		trackingDays = 1
	}
	return &Model{
		GenotypeDB:      genotypeDB,
		DrugDB:          drugDB,
		Config:          cfg,
		Rng:             rng,
		Population:      NewPopulation(cfg.NumLocations, trackingDays),
		Mosquito:        NewMosquito(genotypeDB, cfg.NumLocations, trackingDays, cfg.MosquitoSize, cfg.MosquitoIFR, cfg.WithinChromosomeRecombinationRate),
		MDC:             NewModelDataCollector(cfg.NumLocations),
		CurrentStrategy: strategy,
		Coverage:        coverage,
		World:           NewEventManager(),
		TotalTime:       totalTime,
	}
}

// densityContext bundles the inputs Person.Update's per-clone density
// functions need from Model's configuration.
func (m *Model) densityContext() DensityUpdateContext {
	return DensityUpdateContext{
		Rng:                     m.Rng,
		ClinicalDensityFrom:     m.Config.Epi.ClinicalDensityFrom,
		ClinicalDensityTo:       m.Config.Epi.ClinicalDensityTo,
		LogParasiteDensityCured: m.Config.Epi.LogParasiteDensityCured,
	}
}

// pTreatment returns today's treatment-seeking probability for a CLINICAL
// person at location, age, delegating to the active coverage model
// (spec §4.9).
func (m *Model) pTreatment(location, age int) float64 {
	if m.Coverage == nil {
		return 0
	}
	return m.Coverage.PTreatment(m.CurrentTime, location, age)
}

// determineClinicalOrNot decides, for a newly-established clone with no
// other suppressing drug present, whether the host progresses to CLINICAL
// (spec §4.6's A -> C decision): draws against the immune system's
// age-modulated clinical-progression probability, and on a hit assigns the
// clone's density function and schedules the delayed transition.
func (m *Model) determineClinicalOrNot(person *Person, clone *ClonalParasitePopulation, currentTime int) {
	p := person.Immune.GetClinicalProgressionProbability(currentTime, person.Age*365)
	if m.Rng.Uniform() < p {
		clone.UpdateFunction = ClinicalProgressionUpdate
		delay := m.Config.Epi.DaysToClinicalOverFive
		if person.Age < 5 {
			delay = m.Config.Epi.DaysToClinicalUnderFive
		}
		person.Events.Schedule(NewProgressToClinicalEvent(currentTime+delay, currentTime, person, clone))
	} else {
		clone.UpdateFunction = ImmunityClearanceUpdate(person.Immune, currentTime, person.Age*365)
	}
}

// applyTherapy starts every course of therapy in person's blood, accounting
// for partial compliance (an incomplete dosing course when the Bernoulli
// compliance draw fails), marks every current clone as drug-suppressed, and
// schedules a treatment-failure check against the host's highest-density
// clone (spec §4.6/§4.9).
func (m *Model) applyTherapy(person *Person, therapy *Therapy, currentTime int) {
	if therapy == nil {
		return
	}
	for _, course := range therapy.Courses {
		if course.Drug == nil {
			continue
		}
		dosingDays := course.DosingDays
		if therapy.Compliance > 0 && m.Rng.Uniform() >= therapy.Compliance {
			dosingDays = m.Rng.UniformUpTo(dosingDays + 1)
		}
		if dosingDays <= 0 {
			continue
		}
		person.Blood.StartCourse(m.Rng, course.Drug, currentTime, dosingDays, course.StartingValue)
	}
	var causative *ClonalParasitePopulation
	highest := LogZero
	person.SHCPP.Each(func(c *ClonalParasitePopulation) {
		c.UpdateFunction = HavingDrugUpdate
		if c.LastUpdateLog10Density > highest {
			highest = c.LastUpdateLog10Density
			causative = c
		}
	})
	if causative != nil && m.Config.Epi.TFTestingDay > 0 {
		person.Events.Schedule(NewTestTreatmentFailureEvent(currentTime+m.Config.Epi.TFTestingDay, currentTime, person, therapy.ID, causative))
	}
}

// infectBy delivers one infectious bite's genotype to person (spec §4.6's
// S/A -> E transition and superinfection path): a SUSCEPTIBLE host enters
// the liver stage and moves to blood after the incubation period; an
// already-ASYMPTOMATIC host picks up the new clone directly as a
// superinfection, which may independently trigger a clinical decision when
// AllowNewCoinfectionToCauseSymptoms is set and no drug currently
// suppresses the host.
func (m *Model) infectBy(person *Person, genotype *Genotype, currentTime int) {
	if person == nil || genotype == nil || person.State == Dead || person.State == Clinical {
		return
	}
	switch person.State {
	case Susceptible:
		person.LiverParasiteType = genotype
		person.SetState(Exposed)
		person.Events.Schedule(NewMoveParasiteToBloodEvent(currentTime+m.Config.Epi.LiverIncubationDays, currentTime, person, genotype))
	case Asymptomatic:
		clone := NewClonalParasitePopulation(genotype, currentTime)
		clone.LastUpdateLog10Density = m.Rng.NormalTruncated(m.Config.Epi.MeanAsymptomaticLog10Density, 0.5, 3, 100)
		clone.UpdateFunction = ImmunityClearanceUpdate(person.Immune, currentTime, person.Age*365)
		person.SHCPP.Add(clone)
		person.Immune.SetIncrease(true)
		m.MDC.Record1Infection(person.Location)
		if m.Config.Epi.AllowNewCoinfectionToCauseSymptoms && !person.HasEffectiveDrug(m.Rng, currentTime) {
			m.determineClinicalOrNot(person, clone, currentTime)
		}
	}
}
