package malasim

import (
	"fmt"
	"sync"

	"github.com/segmentio/ksuid"
)

// MutationLineageEvent is one drug-pressure mutation adoption (recombination
// children are not logged here), keyed by the lineage UIDs genotype.go mints at interning time
// (teacher: sequence_tree.go's node/parent UID pair). Kept separately from
// the plain per-location/per-drug counters since a lineage trace needs the
// genotype identity, not just a tally.
type MutationLineageEvent struct {
	Day         int
	Location    int
	DrugID      int
	GenotypeUID ksuid.KSUID
	ParentUID   ksuid.KSUID
}

// ModelDataCollector (MDC) is a pure write-side aggregator of per-location,
// per-age-class, per-therapy, and per-genotype tallies (spec §4.11). All
// core hooks go through the Record1* methods below; accessors are
// read-only snapshots so callers cannot mutate state behind the
// collector's back.
type ModelDataCollector struct {
	mu sync.Mutex

	numLocations int

	infectionsByLocation      []int
	clinicalEpisodesByLocation []int
	treatmentsByLocation      []int
	recrudescenceByLocation   []int
	nonTreatedByLocation      []int
	tfByLocation              []int
	malariaDeathsByLocation   []int
	mutationsByLocation       []int

	treatmentSuccessByTherapy map[int]int
	treatmentFailureByTherapy map[int]int
	mutationsByDrug           map[int]int

	cumulativeMutantsByLocation []int

	genotypeTally map[int]int // genotype id -> count of hosts currently carrying it

	eirByLocationYear map[string]float64
	infectiousBitesByLocation []int // cumulative since the last EIR roll-up

	bloodSlidePrevalenceByLocation []float64

	// amuUnits/afuUnits accumulate artemisinin-monotherapy-unit and
	// artemisinin-failure-unit counters over the comparison period (§4.11).
	amuUnits float64
	afuUnits float64

	mutationLineage []MutationLineageEvent
}

// NewModelDataCollector creates an MDC sized for numLocations.
func NewModelDataCollector(numLocations int) *ModelDataCollector {
	return &ModelDataCollector{
		numLocations:                numLocations,
		infectionsByLocation:        make([]int, numLocations),
		clinicalEpisodesByLocation:  make([]int, numLocations),
		treatmentsByLocation:        make([]int, numLocations),
		recrudescenceByLocation:     make([]int, numLocations),
		nonTreatedByLocation:        make([]int, numLocations),
		tfByLocation:                make([]int, numLocations),
		malariaDeathsByLocation:     make([]int, numLocations),
		mutationsByLocation:         make([]int, numLocations),
		cumulativeMutantsByLocation: make([]int, numLocations),
		treatmentSuccessByTherapy:   make(map[int]int),
		treatmentFailureByTherapy:   make(map[int]int),
		mutationsByDrug:             make(map[int]int),
		genotypeTally:               make(map[int]int),
		eirByLocationYear:           make(map[string]float64),
		infectiousBitesByLocation:   make([]int, numLocations),
		bloodSlidePrevalenceByLocation: make([]float64, numLocations),
	}
}

// BeginTimeStep resets per-day counters; per-location and per-therapy
// cumulative tallies are untouched (I-M1 only binds per-day counters).
func (d *ModelDataCollector) BeginTimeStep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.infectionsByLocation {
		d.infectionsByLocation[i] = 0
		d.clinicalEpisodesByLocation[i] = 0
		d.treatmentsByLocation[i] = 0
		d.recrudescenceByLocation[i] = 0
		d.nonTreatedByLocation[i] = 0
		d.tfByLocation[i] = 0
		d.malariaDeathsByLocation[i] = 0
		d.mutationsByLocation[i] = 0
	}
}

// EndTimeStep finalizes daily windows (e.g. rolling TF windows owned by
// Strategy, not MDC itself); kept as an explicit hook so Scheduler's call
// order matches spec §4.8 step 3 even though MDC has nothing to flush yet.
func (d *ModelDataCollector) EndTimeStep() {}

func (d *ModelDataCollector) Record1Infection(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.infectionsByLocation[loc]++
}

func (d *ModelDataCollector) Record1ClinicalEpisode(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clinicalEpisodesByLocation[loc]++
}

func (d *ModelDataCollector) Record1Treatment(loc, therapyID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.treatmentsByLocation[loc]++
	_ = therapyID
}

func (d *ModelDataCollector) Record1RecrudescenceTreatment(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recrudescenceByLocation[loc]++
}

func (d *ModelDataCollector) Record1NonTreatedCase(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nonTreatedByLocation[loc]++
}

func (d *ModelDataCollector) Record1TF(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tfByLocation[loc]++
	d.afuUnits++
}

func (d *ModelDataCollector) Record1TreatmentFailureByTherapy(therapyID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.treatmentFailureByTherapy[therapyID]++
}

func (d *ModelDataCollector) Record1TreatmentSuccessByTherapy(therapyID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.treatmentSuccessByTherapy[therapyID]++
	d.amuUnits++
}

func (d *ModelDataCollector) Record1MalariaDeath(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.malariaDeathsByLocation[loc]++
}

func (d *ModelDataCollector) Record1Mutation(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mutationsByLocation[loc]++
	d.cumulativeMutantsByLocation[loc]++
}

func (d *ModelDataCollector) Record1MutationByDrug(drugID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mutationsByDrug[drugID]++
}

// Record1MutationLineage appends one drug-pressure mutation adoption to the
// lineage log, recording which genotype replaced which under which drug at
// which location and day.
func (d *ModelDataCollector) Record1MutationLineage(day, loc, drugID int, genotypeUID, parentUID ksuid.KSUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mutationLineage = append(d.mutationLineage, MutationLineageEvent{
		Day:         day,
		Location:    loc,
		DrugID:      drugID,
		GenotypeUID: genotypeUID,
		ParentUID:   parentUID,
	})
}

// MutationLineage returns a copy of every drug-pressure mutation event
// recorded so far, oldest first.
func (d *ModelDataCollector) MutationLineage() []MutationLineageEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]MutationLineageEvent, len(d.mutationLineage))
	copy(out, d.mutationLineage)
	return out
}

// LatestMutationUID returns the genotype UID of the most recently recorded
// lineage event and true, or the zero KSUID and false if none has happened
// yet.
func (d *ModelDataCollector) LatestMutationUID() (ksuid.KSUID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.mutationLineage) == 0 {
		return ksuid.KSUID{}, false
	}
	return d.mutationLineage[len(d.mutationLineage)-1].GenotypeUID, true
}

// RecordGenotypePrevalence overwrites the current genotype tally snapshot;
// called once per day by Scheduler after the daily update, not
// incrementally, since prevalence is a population-wide recount.
func (d *ModelDataCollector) RecordGenotypePrevalence(tally map[int]int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.genotypeTally = tally
}

// RecordEIR stores the entomological inoculation rate for one
// (location, year) pair.
func (d *ModelDataCollector) RecordEIR(location, year int, value float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eirByLocationYear[eirKey(location, year)] = value
}

func eirKey(location, year int) string {
	return fmt.Sprintf("%d:%d", location, year)
}

// InfectionsByLocation returns a read-only snapshot of today's per-location
// infection counter.
func (d *ModelDataCollector) InfectionsByLocation() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.infectionsByLocation...)
}

// CumulativeMutantsByLocation returns a read-only snapshot of the
// all-time mutation counter per location, used by acceptance test 3
// (`cumulative_mutants_by_location[0] > 0`).
func (d *ModelDataCollector) CumulativeMutantsByLocation() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.cumulativeMutantsByLocation...)
}

// GenotypeTally returns a read-only snapshot of the current prevalence
// tally by genotype id.
func (d *ModelDataCollector) GenotypeTally() map[int]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[int]int, len(d.genotypeTally))
	for k, v := range d.genotypeTally {
		out[k] = v
	}
	return out
}

// AMUAFU returns the artemisinin-monotherapy-unit and
// artemisinin-failure-unit totals accumulated so far (§4.11 supplement).
func (d *ModelDataCollector) AMUAFU() (amu, afu float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.amuUnits, d.afuUnits
}

// Record1InfectiousBite tallies one infectious mosquito bite landing at
// loc, whether or not it goes on to establish an infection, feeding the
// EIR roll-up (entomological inoculation rate counts bites, not successful
// infections).
func (d *ModelDataCollector) Record1InfectiousBite(loc int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.infectiousBitesByLocation[loc]++
}

// RollUpEIR converts the infectious-bite counters accumulated since the
// last call into an EIR value (bites per person per year) for year,
// stores it via RecordEIR, and resets the counters. Called once per
// simulated year by Scheduler.
func (d *ModelDataCollector) RollUpEIR(year int, populationByLocation []int) {
	d.mu.Lock()
	bites := append([]int(nil), d.infectiousBitesByLocation...)
	for i := range d.infectiousBitesByLocation {
		d.infectiousBitesByLocation[i] = 0
	}
	d.mu.Unlock()
	for loc, n := range bites {
		pop := 1
		if loc < len(populationByLocation) && populationByLocation[loc] > 0 {
			pop = populationByLocation[loc]
		}
		d.RecordEIR(loc, year, float64(n)/float64(pop))
	}
}

// EIRByLocation returns the stored EIR for (location, year), or 0 if no
// roll-up has happened yet for that year.
func (d *ModelDataCollector) EIRByLocation(location, year int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eirByLocationYear[eirKey(location, year)]
}

// ComputeBloodSlidePrevalence recomputes, from a live snapshot of pop, the
// fraction of alive persons per location carrying at least one clone whose
// density is at or above the configured microscopy detection threshold
// (spec §4.11's blood-slide prevalence). Overwrites the prior snapshot.
func (d *ModelDataCollector) ComputeBloodSlidePrevalence(pop *Population, detectableLog10Density float64) {
	out := make([]float64, d.numLocations)
	for loc := 0; loc < d.numLocations; loc++ {
		alive := pop.AllAlivePersonsByLocation[loc]
		if len(alive) == 0 {
			continue
		}
		detected := 0
		for _, p := range alive {
			hasDetectable := false
			p.SHCPP.Each(func(c *ClonalParasitePopulation) {
				if hasDetectable {
					return
				}
				if c.LastUpdateLog10Density >= detectableLog10Density {
					hasDetectable = true
				}
			})
			if hasDetectable {
				detected++
			}
		}
		out[loc] = float64(detected) / float64(len(alive))
	}
	d.mu.Lock()
	d.bloodSlidePrevalenceByLocation = out
	d.mu.Unlock()
}

// BloodSlidePrevalenceByLocation returns the last computed prevalence
// snapshot.
func (d *ModelDataCollector) BloodSlidePrevalenceByLocation() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.bloodSlidePrevalenceByLocation...)
}

// TreatmentFailureRate returns failures/(successes+failures) for therapyID
// over every outcome recorded since the run started (no rolling window),
// or 0 when none is recorded; AdaptiveCyclingStrategy rotates on it.
func (d *ModelDataCollector) TreatmentFailureRate(therapyID int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.treatmentSuccessByTherapy[therapyID]
	f := d.treatmentFailureByTherapy[therapyID]
	total := s + f
	if total == 0 {
		return 0
	}
	return float64(f) / float64(total)
}
