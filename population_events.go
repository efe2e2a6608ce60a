package malasim

// World events live on Model's world queue (a plain *EventManager keyed by
// absolute day) rather than any single Person's, driving population-wide
// interventions spec §4.10 describes: periodic/random importation, seeding
// a resistant mutant, and switching coverage or strategy mid-run.

// ImportationPeriodicallyEvent seeds NumCases new infections of Genotype
// into Location every PeriodDays, rescheduling itself until EndDay.
type ImportationPeriodicallyEvent struct {
	baseEvent
	Location  int
	Genotype  *Genotype
	NumCases  int
	PeriodDays int
	EndDay    int
}

// NewImportationPeriodicallyEvent schedules the first occurrence at time.
func NewImportationPeriodicallyEvent(time, currentTime, location int, genotype *Genotype, numCases, periodDays, endDay int) *ImportationPeriodicallyEvent {
	return &ImportationPeriodicallyEvent{
		baseEvent:  newBaseEvent(time, currentTime),
		Location:   location,
		Genotype:   genotype,
		NumCases:   numCases,
		PeriodDays: periodDays,
		EndDay:     endDay,
	}
}

// Execute implements Event: infects up to NumCases susceptible persons at
// Location, then reschedules itself PeriodDays later unless
// that would land past EndDay.
func (e *ImportationPeriodicallyEvent) Execute(m *Model) {
	if !e.executable {
		return
	}
	importCases(m, e.Location, e.Genotype, e.NumCases, e.time)
	next := e.time + e.PeriodDays
	if e.PeriodDays > 0 && (e.EndDay <= 0 || next <= e.EndDay) {
		m.World.Schedule(NewImportationPeriodicallyEvent(next, e.time, e.Location, e.Genotype, e.NumCases, e.PeriodDays, e.EndDay))
	}
}

// ImportationPeriodicallyEventV2 behaves like ImportationPeriodicallyEvent
// but draws NumCases from Poisson(MeanCases) each occurrence instead of
// using a fixed count, matching the calibration harness's stochastic
// reseeding mode (supplemented feature, original_source's
// ImportationPeriodicallyEventV2.cpp).
type ImportationPeriodicallyEventV2 struct {
	baseEvent
	Location   int
	Genotype   *Genotype
	MeanCases  float64
	PeriodDays int
	EndDay     int
}

// NewImportationPeriodicallyEventV2 schedules the first occurrence at time.
func NewImportationPeriodicallyEventV2(time, currentTime, location int, genotype *Genotype, meanCases float64, periodDays, endDay int) *ImportationPeriodicallyEventV2 {
	return &ImportationPeriodicallyEventV2{
		baseEvent:  newBaseEvent(time, currentTime),
		Location:   location,
		Genotype:   genotype,
		MeanCases:  meanCases,
		PeriodDays: periodDays,
		EndDay:     endDay,
	}
}

// Execute implements Event.
func (e *ImportationPeriodicallyEventV2) Execute(m *Model) {
	if !e.executable {
		return
	}
	n := m.Rng.Poisson(e.MeanCases)
	importCases(m, e.Location, e.Genotype, n, e.time)
	next := e.time + e.PeriodDays
	if e.PeriodDays > 0 && (e.EndDay <= 0 || next <= e.EndDay) {
		m.World.Schedule(NewImportationPeriodicallyEventV2(next, e.time, e.Location, e.Genotype, e.MeanCases, e.PeriodDays, e.EndDay))
	}
}

// ImportationRandomEvent is a one-shot seeding of NumCases infections at a
// single, uniformly random day within [EarliestDay, LatestDay] — used to
// decorrelate the initial resistant-allele seeding across replicate runs
// (supplemented feature, original_source's ImportationRandomEvent.cpp).
type ImportationRandomEvent struct {
	baseEvent
	Location int
	Genotype *Genotype
	NumCases int
}

// NewImportationRandomEvent picks a uniformly random day in
// [earliestDay, latestDay] and schedules the importation there.
func NewImportationRandomEvent(rng *Random, earliestDay, latestDay, currentTime, location int, genotype *Genotype, numCases int) *ImportationRandomEvent {
	span := latestDay - earliestDay
	day := earliestDay
	if span > 0 {
		day = earliestDay + rng.UniformUpTo(span+1)
	}
	return &ImportationRandomEvent{
		baseEvent: newBaseEvent(day, currentTime),
		Location:  location,
		Genotype:  genotype,
		NumCases:  numCases,
	}
}

// Execute implements Event.
func (e *ImportationRandomEvent) Execute(m *Model) {
	if !e.executable {
		return
	}
	importCases(m, e.Location, e.Genotype, e.NumCases, e.time)
}

// importCases infects up to numCases distinct susceptible persons at
// location with genotype, skipping the draw entirely if location has no
// susceptible host.
func importCases(m *Model, location int, genotype *Genotype, numCases, currentTime int) {
	if genotype == nil || numCases <= 0 {
		return
	}
	// Eligible hosts span every age class, so gather every age class's
	// SUSCEPTIBLE bucket rather than assuming a single class 0.
	var pool []*Person
	for age := 0; age < maxAgeClasses; age++ {
		pool = append(pool, m.Population.Indexes.ByLocationStateAgeClass(location, Susceptible, age)...)
	}
	if len(pool) == 0 {
		return
	}
	n := numCases
	if n > len(pool) {
		n = len(pool)
	}
	order := m.Rng.Perm(len(pool))
	for i := 0; i < n; i++ {
		m.infectBy(pool[order[i]], genotype, currentTime)
	}
}

// maxAgeClasses bounds the age-class sweep importCases performs; kept
// small and local since Population's age-class bucketing never exceeds a
// human lifespan in years.
const maxAgeClasses = 100

// IntroduceMutantEventBase seeds a specific resistant genotype, looked up
// from GenotypeDB by its amino-acid sequence, into a location at a fixed
// frequency of the susceptible pool. Spec §4.10 names several concrete
// mutants (580Y, amodiaquine-resistant, lumefantrine-resistant, plasmepsin
// 2x copy number, and a DHA-piperaquine triple mutant); each constructor
// below fixes only the descriptive label and seeds whatever sequence its
// caller passes in.
type IntroduceMutantEventBase struct {
	baseEvent
	Location    int
	Sequence    string
	Fraction    float64
	MutantLabel string
}

// NewIntroduceMutantEventBase schedules the seeding at time.
func NewIntroduceMutantEventBase(time, currentTime, location int, sequence string, fraction float64, label string) *IntroduceMutantEventBase {
	return &IntroduceMutantEventBase{
		baseEvent:   newBaseEvent(time, currentTime),
		Location:    location,
		Sequence:    sequence,
		Fraction:    fraction,
		MutantLabel: label,
	}
}

// Execute implements Event: interns e.Sequence (or reuses the interned
// genotype if already seen) and infects Fraction of the location's
// susceptible pool with it.
func (e *IntroduceMutantEventBase) Execute(m *Model) {
	if !e.executable {
		return
	}
	genotype, err := m.GenotypeDB.Get(e.Sequence)
	if err != nil {
		return
	}
	var susceptible int
	for age := 0; age < maxAgeClasses; age++ {
		susceptible += len(m.Population.Indexes.ByLocationStateAgeClass(e.Location, Susceptible, age))
	}
	n := int(float64(susceptible) * e.Fraction)
	importCases(m, e.Location, genotype, n, e.time)
}

// pfGenotypeSequenceWithMutation returns base with its first byte equal to
// markerOld replaced by mutantAA (base unchanged if markerOld is absent).
// The mutant constructors below do not call it; they take the full
// sequence from their caller.
func pfGenotypeSequenceWithMutation(base string, markerOld, mutantAA byte) string {
	out := []byte(base)
	for i, c := range out {
		if c == markerOld {
			out[i] = mutantAA
			break
		}
	}
	return string(out)
}

// NewIntroduce580Y seeds the K13 C580Y kelch-propeller mutation associated
// with artemisinin partial resistance.
func NewIntroduce580Y(time, currentTime, location int, baseSequence string, fraction float64) *IntroduceMutantEventBase {
	return NewIntroduceMutantEventBase(time, currentTime, location, baseSequence, fraction, "K13-C580Y")
}

// NewIntroduceAmodiaquineResistant seeds the CRT/MDR1 haplotype conferring
// amodiaquine resistance.
func NewIntroduceAmodiaquineResistant(time, currentTime, location int, baseSequence string, fraction float64) *IntroduceMutantEventBase {
	return NewIntroduceMutantEventBase(time, currentTime, location, baseSequence, fraction, "AQ-resistant")
}

// NewIntroduceLumefantrineResistant seeds the MDR1 N86Y-reverted haplotype
// associated with reduced lumefantrine susceptibility.
func NewIntroduceLumefantrineResistant(time, currentTime, location int, baseSequence string, fraction float64) *IntroduceMutantEventBase {
	return NewIntroduceMutantEventBase(time, currentTime, location, baseSequence, fraction, "LM-resistant")
}

// NewIntroducePlasmepsin2xCopy seeds a plasmepsin 2/3 amplification
// (elevated gene copy number) conferring piperaquine resistance.
func NewIntroducePlasmepsin2xCopy(time, currentTime, location int, baseSequence string, fraction float64) *IntroduceMutantEventBase {
	return NewIntroduceMutantEventBase(time, currentTime, location, baseSequence, fraction, "PLAS2x")
}

// NewIntroduceTripleMutantToDPM seeds a kelch13 + plasmepsin2x + mdr1
// triple mutant resistant to dihydroartemisinin-piperaquine plus
// mefloquine.
func NewIntroduceTripleMutantToDPM(time, currentTime, location int, baseSequence string, fraction float64) *IntroduceMutantEventBase {
	return NewIntroduceMutantEventBase(time, currentTime, location, baseSequence, fraction, "triple-DPM")
}

// TreatmentCoverageChangeEvent swaps Model's active TreatmentCoverageModel
// at time, e.g. transitioning from SteadyTreatmentCoverage to an
// InflatedTreatmentCoverage phase.
type TreatmentCoverageChangeEvent struct {
	baseEvent
	NewCoverage TreatmentCoverageModel
}

// NewTreatmentCoverageChangeEvent schedules the swap at time.
func NewTreatmentCoverageChangeEvent(time, currentTime int, newCoverage TreatmentCoverageModel) *TreatmentCoverageChangeEvent {
	return &TreatmentCoverageChangeEvent{
		baseEvent:   newBaseEvent(time, currentTime),
		NewCoverage: newCoverage,
	}
}

// Execute implements Event.
func (e *TreatmentCoverageChangeEvent) Execute(m *Model) {
	if !e.executable {
		return
	}
	m.Coverage = e.NewCoverage
}

// StrategyChangeEvent swaps Model's active Strategy at time, e.g. moving
// from a SingleTherapyStrategy into a CyclingStrategy once resistance
// crosses a calibration threshold.
type StrategyChangeEvent struct {
	baseEvent
	NewStrategy Strategy
}

// NewStrategyChangeEvent schedules the swap at time.
func NewStrategyChangeEvent(time, currentTime int, newStrategy Strategy) *StrategyChangeEvent {
	return &StrategyChangeEvent{
		baseEvent:   newBaseEvent(time, currentTime),
		NewStrategy: newStrategy,
	}
}

// Execute implements Event.
func (e *StrategyChangeEvent) Execute(m *Model) {
	if !e.executable {
		return
	}
	m.CurrentStrategy = e.NewStrategy
	m.CurrentStrategy.AdjustStartedTimePoint(e.time)
}
