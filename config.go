package malasim

import (
	"math"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// EpiParams holds epidemiological_parameters (spec §3) needed to drive the
// per-host state machine and MDC windows.
type EpiParams struct {
	MeanAsymptomaticLog10Density  float64
	ClinicalDensityFrom           float64
	ClinicalDensityTo             float64
	ClinicalDurationDays          int
	UntreatedMortalityProbability float64
	LogParasiteDensityCured       float64
	GametocyteLevelFull           float64
	DaysToGametocyteMaturity      int
	DaysToClinicalUnderFive       int
	DaysToClinicalOverFive        int
	TFWindowSize                  int
	TFTestingDay                  int
	InflationFactor               float64
	AllowNewCoinfectionToCauseSymptoms bool
	NumberOfTrackingDays           int
	LiverIncubationDays           int
	DetectableLog10Density        float64
	DetectablePfprLog10Density    float64
}

// DemographicParams drives births/deaths (spec §4.8.b/.c).
type DemographicParams struct {
	BirthRate              float64
	BaseDeathProbability    float64
	DeathProbabilityByAgeClass []float64 // overrides BaseDeathProbability per age class when present
}

// DailyNaturalDeathProbability returns the per-day mortality draw
// probability for a person of the given age (years).
func (d *DemographicParams) DailyNaturalDeathProbability(age int) float64 {
	if age >= 0 && age < len(d.DeathProbabilityByAgeClass) {
		return d.DeathProbabilityByAgeClass[age]
	}
	return d.BaseDeathProbability
}

// TransmissionParams drives the force-of-infection pipeline (spec §4.8.d/.e).
type TransmissionParams struct {
	BetaByLocation             []float64
	InfectivityScale           float64
	SeasonalAmplitude          float64
	SeasonalPhaseDays          int
	BitingAgeSlope             float64
	BitingAgeMidpoint          float64
	TreatmentFactorByLocation  []float64
	MinInfectionProb           float64
	MaxInfectionProb           float64
	ImmunityInfectionSteepness float64
}

func (t *TransmissionParams) Beta(loc int) float64 {
	if loc < 0 || loc >= len(t.BetaByLocation) {
		return 0
	}
	return t.BetaByLocation[loc]
}

func (t *TransmissionParams) TreatmentFactor(loc int) float64 {
	if loc < 0 || loc >= len(t.TreatmentFactorByLocation) {
		return 1
	}
	return t.TreatmentFactorByLocation[loc]
}

// SeasonalFactor returns a smooth yearly oscillation around 1, the
// standard calibration shape used across the pack's force-of-infection
// code: 1 + amplitude * cos(2*pi*(day-phase)/365).
func (t *TransmissionParams) SeasonalFactor(day, loc int) float64 {
	return 1 + t.SeasonalAmplitude*math.Cos(2*math.Pi*float64(day-t.SeasonalPhaseDays)/365.0)
}

// AgeDependentBitingFactor is a logistic ramp from juvenile to adult
// biting exposure.
func (t *TransmissionParams) AgeDependentBitingFactor(age int) float64 {
	return 1 / (1 + math.Exp(-t.BitingAgeSlope*(float64(age)-t.BitingAgeMidpoint)))
}

// BiteModifier scales exposure down for persons at an elevated moving
// level (e.g., traveling, bed-net use proxies); level 0 is unmodified.
func (t *TransmissionParams) BiteModifier(movingLevel int) float64 {
	if movingLevel <= 0 {
		return 1
	}
	return 1.0 / float64(1+movingLevel)
}

// PInfectionFromInfectiousBite is spec §4.8.e's per-bite infection
// probability, decreasing with acquired immunity theta and floored/capped
// to [MinInfectionProb, MaxInfectionProb].
func (t *TransmissionParams) PInfectionFromInfectiousBite(age int, theta float64) float64 {
	p := t.MaxInfectionProb - (t.MaxInfectionProb-t.MinInfectionProb)*theta*t.ImmunityInfectionSteepness
	if p < t.MinInfectionProb {
		return t.MinInfectionProb
	}
	if p > t.MaxInfectionProb {
		return t.MaxInfectionProb
	}
	return p
}

// MovementParams drives circulation (spec §4.8.f).
type MovementParams struct {
	SpatialWeights    [][]float64 // [origin][destination]
	MeanLengthOfStay  float64
	CirculationProbabilityByMovingLevel []float64
}

// SampleDestination picks a destination location for a person currently at
// loc with the given moving level, proportional to SpatialWeights[loc].
// Returns ok=false if the person is not selected to circulate this tick.
func (mv *MovementParams) SampleDestination(rng *Random, loc, movingLevel int) (int, bool) {
	p := 0.0
	if movingLevel >= 0 && movingLevel < len(mv.CirculationProbabilityByMovingLevel) {
		p = mv.CirculationProbabilityByMovingLevel[movingLevel]
	}
	if rng.Uniform() >= p {
		return 0, false
	}
	if loc < 0 || loc >= len(mv.SpatialWeights) {
		return 0, false
	}
	weights := mv.SpatialWeights[loc]
	dests := make([]int, len(weights))
	for i := range dests {
		dests[i] = i
	}
	picks := RouletteSample(rng, 1, weights, dests, true)
	if len(picks) == 0 {
		return 0, false
	}
	return picks[0], true
}

// LengthOfStayDays draws a circulation trip duration from an exponential
// distribution around MeanLengthOfStay (Gamma with shape 1 is exponential).
func (mv *MovementParams) LengthOfStayDays(rng *Random) int {
	if mv.MeanLengthOfStay <= 0 {
		return 1
	}
	days := int(rng.Gamma(1, mv.MeanLengthOfStay))
	if days < 1 {
		days = 1
	}
	return days
}

// Config bundles every runtime parameter set Model needs to wire
// components A-M together (spec §3's config keys), distinct from the full
// site-file YAML an external loader would own.
type Config struct {
	Epi          *EpiParams
	Demographic  *DemographicParams
	Transmission *TransmissionParams
	Movement     *MovementParams
	Immune       *ImmuneParameters
	Genotype     *PfGenotypeSchema
	EC50Overrides []EC50Override
	MutationMask []bool
	MutationProbabilityPerLocus float64
	AAAlphabet   []string
	WithinChromosomeRecombinationRate float64
	MosquitoSize int
	MosquitoIFR  float64
	NumLocations int
}

// RunConfig is the TOML-decodable shape used by tests, CLI replicates, and
// calibration harnesses (spec §1/§6's wiring surface), matching the
// teacher's toml.DecodeFile convention.
type RunConfig struct {
	NumLocations int `toml:"num_locations"`
	TotalTime    int `toml:"total_time"`
	Epi          EpiTOML          `toml:"epidemiological_parameters"`
	Demographic  DemographicTOML  `toml:"demographic_parameters"`
	Transmission TransmissionTOML `toml:"transmission_parameters"`
	Movement     MovementTOML     `toml:"movement_parameters"`
	Immune       ImmuneTOML       `toml:"immune_system_parameters"`
	Drugs        []DrugTOML       `toml:"drug_parameters"`
	Genotype     GenotypeTOML     `toml:"genotype_parameters"`
	Strategy     StrategyTOML     `toml:"strategy_parameters"`
}

type EpiTOML struct {
	MeanAsymptomaticLog10Density  float64 `toml:"mean_asymptomatic_log10_density"`
	ClinicalDensityFrom           float64 `toml:"clinical_density_from"`
	ClinicalDensityTo             float64 `toml:"clinical_density_to"`
	ClinicalDurationDays          int     `toml:"clinical_duration_days"`
	UntreatedMortalityProbability float64 `toml:"untreated_mortality_probability"`
	LogParasiteDensityCured       float64 `toml:"log_parasite_density_cured"`
	GametocyteLevelFull           float64 `toml:"gametocyte_level_full"`
	DaysToGametocyteMaturity      int     `toml:"days_to_gametocyte_maturity"`
	DaysToClinicalUnderFive       int     `toml:"days_to_clinical_under_five"`
	DaysToClinicalOverFive        int     `toml:"days_to_clinical_over_five"`
	TFWindowSize                  int     `toml:"tf_window_size"`
	TFTestingDay                  int     `toml:"tf_testing_day"`
	InflationFactor               float64 `toml:"inflation_factor"`
	AllowNewCoinfectionToCauseSymptoms bool `toml:"allow_new_coinfection_to_cause_symptoms"`
	NumberOfTrackingDays           int     `toml:"number_of_tracking_days"`
	LiverIncubationDays           int     `toml:"liver_incubation_days"`
	DetectableLog10Density        float64 `toml:"detectable_log10_density"`
	DetectablePfprLog10Density    float64 `toml:"detectable_pfpr_log10_density"`
}

type DemographicTOML struct {
	BirthRate           float64   `toml:"birth_rate"`
	BaseDeathProbability float64  `toml:"base_death_probability"`
	DeathProbabilityByAgeClass []float64 `toml:"death_probability_by_age_class"`
}

type TransmissionTOML struct {
	BetaByLocation             []float64 `toml:"beta_by_location"`
	InfectivityScale           float64   `toml:"infectivity_scale"`
	SeasonalAmplitude          float64   `toml:"seasonal_amplitude"`
	SeasonalPhaseDays          int       `toml:"seasonal_phase_days"`
	BitingAgeSlope             float64   `toml:"biting_age_slope"`
	BitingAgeMidpoint          float64   `toml:"biting_age_midpoint"`
	TreatmentFactorByLocation  []float64 `toml:"treatment_factor_by_location"`
	MinInfectionProb           float64   `toml:"min_infection_probability"`
	MaxInfectionProb           float64   `toml:"max_infection_probability"`
	ImmunityInfectionSteepness float64   `toml:"immunity_infection_steepness"`
}

type MovementTOML struct {
	SpatialWeights                      [][]float64 `toml:"spatial_weights"`
	MeanLengthOfStay                    float64     `toml:"mean_length_of_stay"`
	CirculationProbabilityByMovingLevel []float64   `toml:"circulation_probability_by_moving_level"`
}

type ImmuneTOML struct {
	AlphaImmune             float64 `toml:"alpha_immune"`
	BetaImmune              float64 `toml:"beta_immune"`
	AdultAcquireRateBySlope float64 `toml:"adult_acquire_rate_slope"`
	AdultAcquireRateByAge   float64 `toml:"adult_acquire_rate_midpoint_age"`
	AdultAcquireRateMax     float64 `toml:"adult_acquire_rate_max"`
	InfantDecayRate         float64 `toml:"infant_decay_rate"`
	AdultDecayRate          float64 `toml:"adult_decay_rate"`
	DensityMidpoint         float64 `toml:"density_sigmoid_midpoint"`
	DensitySteepness        float64 `toml:"density_sigmoid_steepness"`
	MinClinicalProb         float64 `toml:"min_clinical_probability"`
	MaxClinicalProb         float64 `toml:"max_clinical_probability"`
	ClinicalMidpoint        float64 `toml:"clinical_sigmoid_midpoint"`
	ClinicalSteepness       float64 `toml:"clinical_sigmoid_steepness"`
	InfantMaxAgeDays        int     `toml:"infant_max_age_days"`
}

type DrugTOML struct {
	ID         int     `toml:"id"`
	Name       string  `toml:"name"`
	HalfLife   float64 `toml:"half_life"`
	Kmax       float64 `toml:"k_max"`
	N          float64 `toml:"n"`
	K          float64 `toml:"k"`
	BaseEC50   float64 `toml:"base_ec50"`
	DosingDays int     `toml:"dosing_days"`
	ResistantAALocations []ResistantAALocationTOML `toml:"resistant_aa_locations"`
}

type ResistantAALocationTOML struct {
	Chromosome   int  `toml:"chromosome"`
	Gene         int  `toml:"gene"`
	AAPosition   int  `toml:"aa_position"`
	IsCopyNumber bool `toml:"is_copy_number"`
	MaskIndex    int  `toml:"mask_index"`
}

type GenotypeTOML struct {
	MutationMask              string         `toml:"mutation_mask"`
	MutationProbabilityPerLocus float64      `toml:"mutation_probability_per_locus"`
	AAAlphabet                 []string      `toml:"aa_alphabet"`
	WithinChromosomeRecombinationRate float64 `toml:"within_chromosome_recombination_rate"`
	OverrideEC50Patterns        []EC50OverrideTOML `toml:"override_ec50_patterns"`
}

type EC50OverrideTOML struct {
	Pattern string  `toml:"pattern"`
	DrugID  int     `toml:"drug_id"`
	Value   float64 `toml:"value"`
}

type StrategyTOML struct {
	MosquitoSize int     `toml:"mosquito_size"`
	MosquitoIFR  float64 `toml:"mosquito_ifr"`
}

// LoadRunConfig decodes a TOML file at path into a RunConfig, matching the
// teacher's toml.DecodeFile("path", &cfg) pattern.
func LoadRunConfig(path string) (*RunConfig, error) {
	var cfg RunConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(err, "LoadRunConfig")
	}
	return &cfg, nil
}

// FromSiteFile adapts a pre-parsed generic map (the shape an external YAML
// site-file loader hands in) into a RunConfig, so this core does not import
// a YAML parser. Only num_locations (int64 or int) is read; every other
// section of the returned RunConfig is left at its zero value.
func FromSiteFile(raw map[string]any) (*RunConfig, error) {
	var cfg RunConfig
	if v, ok := raw["num_locations"].(int64); ok {
		cfg.NumLocations = int(v)
	} else if v, ok := raw["num_locations"].(int); ok {
		cfg.NumLocations = v
	}
	return &cfg, nil
}

// Build converts a decoded RunConfig into the runtime Config wired into
// Model, interning the mutation mask string into a []bool.
func (rc *RunConfig) Build(drugDB *DrugDB) *Config {
	mask := make([]bool, len(rc.Genotype.MutationMask))
	for i, ch := range rc.Genotype.MutationMask {
		mask[i] = ch == '1'
	}
	overrides := make([]EC50Override, len(rc.Genotype.OverrideEC50Patterns))
	for i, ov := range rc.Genotype.OverrideEC50Patterns {
		overrides[i] = EC50Override{Pattern: ov.Pattern, DrugID: ov.DrugID, Value: ov.Value}
	}
	return &Config{
		Epi: &EpiParams{
			MeanAsymptomaticLog10Density:       rc.Epi.MeanAsymptomaticLog10Density,
			ClinicalDensityFrom:                rc.Epi.ClinicalDensityFrom,
			ClinicalDensityTo:                  rc.Epi.ClinicalDensityTo,
			ClinicalDurationDays:               rc.Epi.ClinicalDurationDays,
			UntreatedMortalityProbability:      rc.Epi.UntreatedMortalityProbability,
			LogParasiteDensityCured:            rc.Epi.LogParasiteDensityCured,
			GametocyteLevelFull:                rc.Epi.GametocyteLevelFull,
			DaysToGametocyteMaturity:           rc.Epi.DaysToGametocyteMaturity,
			DaysToClinicalUnderFive:            rc.Epi.DaysToClinicalUnderFive,
			DaysToClinicalOverFive:             rc.Epi.DaysToClinicalOverFive,
			TFWindowSize:                       rc.Epi.TFWindowSize,
			TFTestingDay:                       rc.Epi.TFTestingDay,
			InflationFactor:                    rc.Epi.InflationFactor,
			AllowNewCoinfectionToCauseSymptoms: rc.Epi.AllowNewCoinfectionToCauseSymptoms,
			NumberOfTrackingDays:               rc.Epi.NumberOfTrackingDays,
			LiverIncubationDays:                rc.Epi.LiverIncubationDays,
			DetectableLog10Density:             rc.Epi.DetectableLog10Density,
			DetectablePfprLog10Density:         rc.Epi.DetectablePfprLog10Density,
		},
		Demographic: &DemographicParams{
			BirthRate:                  rc.Demographic.BirthRate,
			BaseDeathProbability:       rc.Demographic.BaseDeathProbability,
			DeathProbabilityByAgeClass: rc.Demographic.DeathProbabilityByAgeClass,
		},
		Transmission: &TransmissionParams{
			BetaByLocation:             rc.Transmission.BetaByLocation,
			InfectivityScale:           rc.Transmission.InfectivityScale,
			SeasonalAmplitude:          rc.Transmission.SeasonalAmplitude,
			SeasonalPhaseDays:          rc.Transmission.SeasonalPhaseDays,
			BitingAgeSlope:             rc.Transmission.BitingAgeSlope,
			BitingAgeMidpoint:          rc.Transmission.BitingAgeMidpoint,
			TreatmentFactorByLocation:  rc.Transmission.TreatmentFactorByLocation,
			MinInfectionProb:           rc.Transmission.MinInfectionProb,
			MaxInfectionProb:           rc.Transmission.MaxInfectionProb,
			ImmunityInfectionSteepness: rc.Transmission.ImmunityInfectionSteepness,
		},
		Movement: &MovementParams{
			SpatialWeights:                       rc.Movement.SpatialWeights,
			MeanLengthOfStay:                     rc.Movement.MeanLengthOfStay,
			CirculationProbabilityByMovingLevel:  rc.Movement.CirculationProbabilityByMovingLevel,
		},
		Immune: &ImmuneParameters{
			AlphaImmune:             rc.Immune.AlphaImmune,
			BetaImmune:              rc.Immune.BetaImmune,
			AdultAcquireRateBySlope: rc.Immune.AdultAcquireRateBySlope,
			AdultAcquireRateByAge:   rc.Immune.AdultAcquireRateByAge,
			AdultAcquireRateMax:     rc.Immune.AdultAcquireRateMax,
			InfantDecayRate:         rc.Immune.InfantDecayRate,
			AdultDecayRate:          rc.Immune.AdultDecayRate,
			DensityMidpoint:         rc.Immune.DensityMidpoint,
			DensitySteepness:        rc.Immune.DensitySteepness,
			MinClinicalProb:         rc.Immune.MinClinicalProb,
			MaxClinicalProb:         rc.Immune.MaxClinicalProb,
			ClinicalMidpoint:        rc.Immune.ClinicalMidpoint,
			ClinicalSteepness:       rc.Immune.ClinicalSteepness,
			InfantMaxAgeDays:        rc.Immune.InfantMaxAgeDays,
		},
		EC50Overrides:                     overrides,
		MutationMask:                      mask,
		MutationProbabilityPerLocus:       rc.Genotype.MutationProbabilityPerLocus,
		AAAlphabet:                        rc.Genotype.AAAlphabet,
		WithinChromosomeRecombinationRate: rc.Genotype.WithinChromosomeRecombinationRate,
		MosquitoSize:                      rc.Strategy.MosquitoSize,
		MosquitoIFR:                       rc.Strategy.MosquitoIFR,
		NumLocations:                      rc.NumLocations,
	}
}

// BuildDrugDB registers every configured drug into a fresh DrugDB.
func (rc *RunConfig) BuildDrugDB() *DrugDB {
	db := NewDrugDB()
	for _, dt := range rc.Drugs {
		locs := make([]ResistantAALocation, len(dt.ResistantAALocations))
		for i, l := range dt.ResistantAALocations {
			locs[i] = ResistantAALocation{
				Chromosome:   l.Chromosome,
				Gene:         l.Gene,
				AAPosition:   l.AAPosition,
				IsCopyNumber: l.IsCopyNumber,
				MaskIndex:    l.MaskIndex,
			}
		}
		db.Add(&DrugType{
			ID:                   dt.ID,
			Name:                 dt.Name,
			HalfLife:             dt.HalfLife,
			Kmax:                 dt.Kmax,
			N:                    dt.N,
			K:                    dt.K,
			BaseEC50:             dt.BaseEC50,
			DosingDays:           dt.DosingDays,
			ResistantAALocations: locs,
		})
	}
	return db
}
