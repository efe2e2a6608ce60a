package malasim

// HostState is one of the five states in the Person state machine
// (spec §4.6).
type HostState int

const (
	Susceptible HostState = iota
	Exposed
	Asymptomatic
	Clinical
	Dead
)

func (s HostState) String() string {
	switch s {
	case Susceptible:
		return "SUSCEPTIBLE"
	case Exposed:
		return "EXPOSED"
	case Asymptomatic:
		return "ASYMPTOMATIC"
	case Clinical:
		return "CLINICAL"
	case Dead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// PersonIndex is notified of property changes on a Person so it can keep a
// secondary index (population.go) up to date before the next read (I-P1).
type PersonIndex interface {
	NotifyChange(p *Person, property string, oldValue, newValue interface{})
}

// Person is one host: its epidemiological state machine, within-host
// parasite model, and per-person event queue (spec §3/§4.6). A Person
// exclusively owns its ImmuneSystem, SHCPP, DrugsInBlood, and EventManager.
type Person struct {
	ID                         int
	Location                   int
	ResidenceLocation          int
	State                      HostState
	Age                        int
	AgeClass                   int
	Birthday                   int
	MovingLevel                int
	InnateRelativeBitingRate   float64
	CurrentRelativeBitingRate  float64
	LiverParasiteType          *Genotype

	Immune  *ImmuneSystem
	SHCPP   *SingleHostClonalParasitePopulations
	Blood   *DrugsInBlood
	Events  *EventManager

	LatestUpdateTime    int
	NumberOfTimesBitten int

	indexes []PersonIndex
}

// NewPerson creates a fresh SUSCEPTIBLE person at age 0 in location loc,
// wiring its owned per-host state.
func NewPerson(id, loc, currentTime int, immune *ImmuneSystem) *Person {
	return &Person{
		ID:                id,
		Location:          loc,
		ResidenceLocation: loc,
		State:             Susceptible,
		Birthday:          currentTime,
		Immune:            immune,
		SHCPP:             NewSingleHostClonalParasitePopulations(currentTime),
		Blood:             NewDrugsInBlood(),
		Events:            NewEventManager(),
		LatestUpdateTime:  currentTime,
	}
}

// AttachIndex registers a secondary index to be notified of property
// changes on this person. Population wiring calls this once per index at
// person-creation time.
func (p *Person) AttachIndex(idx PersonIndex) {
	p.indexes = append(p.indexes, idx)
}

// notify fans a property change out to every attached index before
// returning control to the caller, satisfying I-P1.
func (p *Person) notify(property string, oldValue, newValue interface{}) {
	for _, idx := range p.indexes {
		idx.NotifyChange(p, property, oldValue, newValue)
	}
}

// SetState transitions the host state, notifying every index first.
func (p *Person) SetState(state HostState) {
	old := p.State
	if old == state {
		return
	}
	p.State = state
	p.notify("state", old, state)
	if state == Dead {
		p.Events.CancelAll()
	}
}

// SetLocation moves the person to a new location, notifying indexes.
func (p *Person) SetLocation(loc int) {
	old := p.Location
	if old == loc {
		return
	}
	p.Location = loc
	p.notify("location", old, loc)
}

// SetAgeClass updates the age-class bucket, notifying indexes.
func (p *Person) SetAgeClass(ageClass int) {
	old := p.AgeClass
	if old == ageClass {
		return
	}
	p.AgeClass = ageClass
	p.notify("age_class", old, ageClass)
}

// SetMovingLevel updates the moving-level bucket, notifying indexes.
func (p *Person) SetMovingLevel(level int) {
	old := p.MovingLevel
	if old == level {
		return
	}
	p.MovingLevel = level
	p.notify("moving_level", old, level)
}

// MOI returns the host's current multiplicity of infection.
func (p *Person) MOI() int {
	return p.SHCPP.Size()
}

// HasEffectiveDrug reports whether any drug currently in blood has a
// nonzero concentration at currentDay.
func (p *Person) HasEffectiveDrug(rng *Random, currentDay int) bool {
	has := false
	p.Blood.Each(func(drugID int, d *Drug) {
		if has {
			return
		}
		if d.ConcentrationAt(currentDay, rng) > 0 {
			has = true
		}
	})
	return has
}

// Update runs the daily per-person protocol step of spec §4.8.a: advance
// immunity, update every clone's density via its active update function,
// clear cured clones, and record the new latest_update_time. Caller
// supplies the density-update context (rng, clinical range, cured
// threshold) since Person does not own global config.
func (p *Person) Update(currentTime int, ctx DensityUpdateContext) {
	if p.State == Dead {
		return
	}
	p.Immune.Update(currentTime, p.Age*365)
	duration := currentTime - p.SHCPP.LatestUpdateTime()
	if duration < 0 {
		duration = 0
	}
	p.SHCPP.Each(func(c *ClonalParasitePopulation) {
		c.Update(duration, ctx)
	})
	p.SHCPP.ClearCuredParasites(ctx.LogParasiteDensityCured)
	p.SHCPP.SetLatestUpdateTime(currentTime)
	if p.SHCPP.Size() == 0 {
		p.Immune.SetIncrease(false)
		if p.State == Asymptomatic {
			p.SetState(Susceptible)
		}
	}
	p.LatestUpdateTime = currentTime
}
