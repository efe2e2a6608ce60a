package malasim

import "fmt"

// Event is one scheduled, one-shot action (spec §3 Event (abstract)). Two
// flavors exist: WorldEvent on the Scheduler's world queue and PersonEvent
// on a Person's EventManager; both satisfy this interface.
type Event interface {
	Time() int
	Executable() bool
	SetExecutable(bool)
	Execute(m *Model)
}

// baseEvent factors the common time/executable bookkeeping shared by every
// concrete event.
type baseEvent struct {
	time       int
	executable bool
}

// Time returns the absolute day this event is scheduled to fire.
func (e *baseEvent) Time() int { return e.time }

// Executable reports whether Execute should run its effect when popped.
func (e *baseEvent) Executable() bool { return e.executable }

// SetExecutable cancels (false) or re-arms (true) the event without
// removing it from its queue; a cancelled event is still popped and
// discarded at its scheduled time, per spec §5.
func (e *baseEvent) SetExecutable(v bool) { e.executable = v }

// newBaseEvent validates time >= currentTime per I-E1 and panics
// otherwise: constructing an event in the past is a programming error, not
// a recoverable runtime condition.
func newBaseEvent(time, currentTime int) baseEvent {
	if time < currentTime {
		panic(fmt.Sprintf(EventScheduledInPastError, time, currentTime))
	}
	return baseEvent{time: time, executable: true}
}

// EventManager is a per-person multimap of time -> []Event, executed in
// insertion order for events sharing a time (spec §5's stable-multimap
// ordering guarantee).
type EventManager struct {
	byTime map[int][]Event
}

// NewEventManager creates an empty queue.
func NewEventManager() *EventManager {
	return &EventManager{byTime: make(map[int][]Event)}
}

// Schedule enqueues event at its own Time().
func (m *EventManager) Schedule(event Event) {
	t := event.Time()
	m.byTime[t] = append(m.byTime[t], event)
}

// PopDue removes and returns, in insertion order, every event scheduled at
// exactly currentTime.
func (m *EventManager) PopDue(currentTime int) []Event {
	due := m.byTime[currentTime]
	delete(m.byTime, currentTime)
	return due
}

// CancelAll marks every still-pending event non-executable; they are still
// popped and discarded when their time arrives, satisfying I-P2 (a DEAD
// person's events are all cancelled in the same tick) without mutating the
// map while iteration elsewhere might be in progress.
func (m *EventManager) CancelAll() {
	for _, events := range m.byTime {
		for _, e := range events {
			e.SetExecutable(false)
		}
	}
}

// CancelWhere cancels every pending event matching pred, used by
// ProgressToClinicalEvent to drop other pending progress-to-clinical
// events for the same person (spec §4.6, A->C transition).
func (m *EventManager) CancelWhere(pred func(Event) bool) {
	for _, events := range m.byTime {
		for _, e := range events {
			if pred(e) {
				e.SetExecutable(false)
			}
		}
	}
}

// MoveParasiteToBloodEvent fires at the end of the liver stage (E -> A):
// adds a new blood clone at a density drawn from a truncated normal around
// the asymptomatic mean, then decides whether the new infection is
// symptomatic from the outset when it is the host's only clone and no
// drug is currently suppressing it (spec §4.6).
type MoveParasiteToBloodEvent struct {
	baseEvent
	Person   *Person
	Genotype *Genotype
}

// NewMoveParasiteToBloodEvent schedules the liver-to-blood transition for
// person at time, carrying genotype as the newly acquired clone's type.
func NewMoveParasiteToBloodEvent(time, currentTime int, person *Person, genotype *Genotype) *MoveParasiteToBloodEvent {
	return &MoveParasiteToBloodEvent{
		baseEvent: newBaseEvent(time, currentTime),
		Person:    person,
		Genotype:  genotype,
	}
}

// Execute implements Event.
func (e *MoveParasiteToBloodEvent) Execute(m *Model) {
	if !e.executable || e.Person.State == Dead {
		return
	}
	clone := NewClonalParasitePopulation(e.Genotype, e.time)
	clone.LastUpdateLog10Density = m.Rng.NormalTruncated(
		m.Config.Epi.MeanAsymptomaticLog10Density, 0.5,
		3, 100,
	)
	e.Person.SHCPP.Add(clone)
	e.Person.SetState(Asymptomatic)
	e.Person.Immune.SetIncrease(true)

	if !e.Person.HasEffectiveDrug(m.Rng, e.time) && e.Person.MOI() <= 1 {
		m.determineClinicalOrNot(e.Person, clone, e.time)
	}
	m.MDC.Record1Infection(e.Person.Location)
}

// ProgressToClinicalEvent fires the A -> C transition, spec §4.6. It only
// takes effect if its causative clone is still present and the person has
// not already progressed to CLINICAL from another clone this tick.
type ProgressToClinicalEvent struct {
	baseEvent
	Person *Person
	Clone  *ClonalParasitePopulation
}

// NewProgressToClinicalEvent schedules a progression check for person at
// time, attributed to clone.
func NewProgressToClinicalEvent(time, currentTime int, person *Person, clone *ClonalParasitePopulation) *ProgressToClinicalEvent {
	return &ProgressToClinicalEvent{
		baseEvent: newBaseEvent(time, currentTime),
		Person:    person,
		Clone:     clone,
	}
}

// Execute implements Event.
func (e *ProgressToClinicalEvent) Execute(m *Model) {
	if !e.executable || e.Person.State == Dead {
		return
	}
	if !e.Person.SHCPP.Contains(e.Clone) {
		return
	}
	if e.Person.State == Clinical {
		return
	}
	e.Clone.LastUpdateLog10Density = m.Rng.UniformRange(
		m.Config.Epi.ClinicalDensityFrom, m.Config.Epi.ClinicalDensityTo,
	)
	e.Person.Events.CancelWhere(func(other Event) bool {
		_, ok := other.(*ProgressToClinicalEvent)
		return ok && other != Event(e)
	})
	e.Person.SetState(Clinical)

	treated := m.Rng.Uniform() < m.pTreatment(e.Person.Location, e.Person.Age)
	if treated {
		therapy := m.CurrentStrategy.GetTherapy(m.Rng, e.Person.Location, e.Person.Age)
		m.applyTherapy(e.Person, therapy, e.time)
		m.MDC.Record1Treatment(e.Person.Location, therapy.ID)
	} else {
		m.MDC.Record1NonTreatedCase(e.Person.Location)
	}

	mortalityProb := m.Config.Epi.UntreatedMortalityProbability
	if treated {
		mortalityProb *= 0.1
	}
	if m.Rng.Uniform() < mortalityProb {
		e.Person.SetState(Dead)
		m.MDC.Record1MalariaDeath(e.Person.Location)
		return
	}

	end := e.time + m.Config.Epi.ClinicalDurationDays
	e.Person.Events.Schedule(NewEndClinicalEvent(end, e.time, e.Person, e.Clone))
}

// EndClinicalEvent fires the C -> A transition: after a configured
// clinical duration, the host returns to ASYMPTOMATIC (or SUSCEPTIBLE if
// no clones remain), with symptomatic recrudescence possible when the
// causative clone's density remains above the re-emergence threshold
// (spec §4.6).
type EndClinicalEvent struct {
	baseEvent
	Person *Person
	Clone  *ClonalParasitePopulation
}

// NewEndClinicalEvent schedules the end of the clinical episode for person
// at time, attributed to clone.
func NewEndClinicalEvent(time, currentTime int, person *Person, clone *ClonalParasitePopulation) *EndClinicalEvent {
	return &EndClinicalEvent{
		baseEvent: newBaseEvent(time, currentTime),
		Person:    person,
		Clone:     clone,
	}
}

// reemergenceLog10Threshold is the log10 density above which a surviving
// causative clone triggers symptomatic recrudescence instead of a quiet
// return to asymptomatic carriage (spec §4.6: "log10 density > 2").
const reemergenceLog10Threshold = 2.0

// Execute implements Event.
func (e *EndClinicalEvent) Execute(m *Model) {
	if !e.executable || e.Person.State == Dead {
		return
	}
	if e.Person.SHCPP.Size() == 0 {
		e.Person.SetState(Susceptible)
		e.Person.Immune.SetIncrease(false)
		return
	}
	e.Person.Immune.SetIncrease(true)
	e.Person.SetState(Asymptomatic)
	if e.Person.SHCPP.Contains(e.Clone) && e.Clone.LastUpdateLog10Density > reemergenceLog10Threshold {
		e.Person.Events.Schedule(NewProgressToClinicalEvent(e.time, e.time, e.Person, e.Clone))
		m.MDC.Record1RecrudescenceTreatment(e.Person.Location)
	}
}

// CirculateToTargetLocationNextDayEvent moves a person to a destination
// location the day after selection by the population-level circulation
// step (spec §4.8.f). On arrival it schedules a symmetrical
// ReturnToResidenceEvent once the person's length-of-stay expires
// (supplemented from original_source's ReturnToResidenceEvent.cpp, §SPEC_FULL).
type CirculateToTargetLocationNextDayEvent struct {
	baseEvent
	Person           *Person
	Destination      int
	LengthOfStayDays int
}

// NewCirculateToTargetLocationNextDayEvent schedules person's arrival at
// destination on time.
func NewCirculateToTargetLocationNextDayEvent(time, currentTime int, person *Person, destination, lengthOfStayDays int) *CirculateToTargetLocationNextDayEvent {
	return &CirculateToTargetLocationNextDayEvent{
		baseEvent:        newBaseEvent(time, currentTime),
		Person:           person,
		Destination:      destination,
		LengthOfStayDays: lengthOfStayDays,
	}
}

// Execute implements Event.
func (e *CirculateToTargetLocationNextDayEvent) Execute(m *Model) {
	if !e.executable || e.Person.State == Dead {
		return
	}
	e.Person.SetLocation(e.Destination)
	if e.Person.Destination() != e.Person.ResidenceLocation {
		returnTime := e.time + e.LengthOfStayDays
		e.Person.Events.Schedule(NewReturnToResidenceEvent(returnTime, e.time, e.Person))
	}
}

// Destination is a small helper so ReturnToResidenceEvent scheduling above
// reads naturally; a person's "destination" right now is just wherever it
// currently is.
func (p *Person) Destination() int { return p.Location }

// ReturnToResidenceEvent sends a circulating person back to its
// residence_location once its length-of-stay at the destination expires
// (supplemented feature, original_source's ReturnToResidenceEvent.cpp).
type ReturnToResidenceEvent struct {
	baseEvent
	Person *Person
}

// NewReturnToResidenceEvent schedules person's return trip for time.
func NewReturnToResidenceEvent(time, currentTime int, person *Person) *ReturnToResidenceEvent {
	return &ReturnToResidenceEvent{
		baseEvent: newBaseEvent(time, currentTime),
		Person:    person,
	}
}

// Execute implements Event.
func (e *ReturnToResidenceEvent) Execute(m *Model) {
	if !e.executable || e.Person.State == Dead {
		return
	}
	e.Person.SetLocation(e.Person.ResidenceLocation)
}

// TestTreatmentFailureEvent fires tf_testing_day days after therapy start
// and records TF/NTF against the therapy actually given (supplemented
// feature, original_source's TestTreatmentFailureEvent.cpp).
type TestTreatmentFailureEvent struct {
	baseEvent
	Person    *Person
	TherapyID int
	Clone     *ClonalParasitePopulation
}

// NewTestTreatmentFailureEvent schedules a treatment-failure check for
// person at time, against therapyID and the clone that triggered treatment.
func NewTestTreatmentFailureEvent(time, currentTime int, person *Person, therapyID int, clone *ClonalParasitePopulation) *TestTreatmentFailureEvent {
	return &TestTreatmentFailureEvent{
		baseEvent: newBaseEvent(time, currentTime),
		Person:    person,
		TherapyID: therapyID,
		Clone:     clone,
	}
}

// Execute implements Event.
func (e *TestTreatmentFailureEvent) Execute(m *Model) {
	if !e.executable || e.Person.State == Dead {
		return
	}
	failed := e.Person.SHCPP.Contains(e.Clone) && e.Clone.LastUpdateLog10Density > reemergenceLog10Threshold
	if failed {
		m.MDC.Record1TF(e.Person.Location)
		m.MDC.Record1TreatmentFailureByTherapy(e.TherapyID)
	} else {
		m.MDC.Record1TreatmentSuccessByTherapy(e.TherapyID)
	}
}
