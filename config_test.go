package malasim

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRunConfigTOML = `
num_locations = 2
total_time = 100

[epidemiological_parameters]
mean_asymptomatic_log10_density = 4.0
clinical_density_from = 5.0
clinical_density_to = 7.0
clinical_duration_days = 14
untreated_mortality_probability = 0.001
log_parasite_density_cured = 0.1
gametocyte_level_full = 1.0
days_to_gametocyte_maturity = 12
days_to_clinical_under_five = 4
days_to_clinical_over_five = 6
tf_window_size = 28
tf_testing_day = 28
inflation_factor = 0.01
allow_new_coinfection_to_cause_symptoms = true
number_of_tracking_days = 11
liver_incubation_days = 7
detectable_log10_density = 2.0
detectable_pfpr_log10_density = 1.7

[demographic_parameters]
birth_rate = 0.0001
base_death_probability = 0.00003

[transmission_parameters]
beta_by_location = [0.01, 0.02]
infectivity_scale = 1.0
seasonal_amplitude = 0.1
seasonal_phase_days = 30
biting_age_slope = 0.5
biting_age_midpoint = 5.0
treatment_factor_by_location = [1.0, 1.0]
min_infection_probability = 0.01
max_infection_probability = 0.5
immunity_infection_steepness = 1.0

[movement_parameters]
spatial_weights = [[0.0, 1.0], [1.0, 0.0]]
mean_length_of_stay = 3.0
circulation_probability_by_moving_level = [0.0, 0.1]

[immune_system_parameters]
alpha_immune = 0.5
beta_immune = 0.5
adult_acquire_rate_slope = 0.2
adult_acquire_rate_midpoint_age = 10
adult_acquire_rate_max = 0.9
infant_decay_rate = 0.1
adult_decay_rate = 0.05
density_sigmoid_midpoint = 0.5
density_sigmoid_steepness = 2.0
min_clinical_probability = 0.01
max_clinical_probability = 0.9
clinical_sigmoid_midpoint = 0.5
clinical_sigmoid_steepness = 2.0
infant_max_age_days = 365

[[drug_parameters]]
id = 0
name = "artemisinin"
half_life = 0.0644
k_max = 0.99
n = 15
k = 4
base_ec50 = 0.75
dosing_days = 3

[genotype_parameters]
mutation_mask = "10"
mutation_probability_per_locus = 0.00001
aa_alphabet = ["K", "N"]
within_chromosome_recombination_rate = 0.5

[strategy_parameters]
mosquito_size = 1000
mosquito_ifr = 0.2
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run_config.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "writing a temp config file", err)
	}
	return path
}

func TestLoadRunConfig_DecodesEveryTable(t *testing.T) {
	path := writeTempConfig(t, sampleRunConfigTOML)
	rc, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "loading a valid run config", err)
	}
	if rc.NumLocations != 2 {
		t.Errorf(UnequalIntParameterError, "num_locations", 2, rc.NumLocations)
	}
	if rc.TotalTime != 100 {
		t.Errorf(UnequalIntParameterError, "total_time", 100, rc.TotalTime)
	}
	if len(rc.Drugs) != 1 || rc.Drugs[0].Name != "artemisinin" {
		t.Errorf("expected exactly one decoded drug named artemisinin, got %+v", rc.Drugs)
	}
	if rc.Genotype.MutationMask != "10" {
		t.Errorf(InvalidStringParameterError, "mutation_mask", rc.Genotype.MutationMask, "expected the raw mask string to round-trip unchanged")
	}
}

func TestLoadRunConfig_MissingFileReturnsError(t *testing.T) {
	if _, err := LoadRunConfig(filepath.Join(t.TempDir(), "does-not-exist.toml")); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a run config from a nonexistent path")
	}
}

func TestRunConfig_BuildInternsMutationMask(t *testing.T) {
	path := writeTempConfig(t, sampleRunConfigTOML)
	rc, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "loading a valid run config", err)
	}
	drugDB := rc.BuildDrugDB()
	cfg := rc.Build(drugDB)

	want := []bool{true, false}
	if len(cfg.MutationMask) != len(want) {
		t.Fatalf(UnequalIntParameterError, "mutation mask length", len(want), len(cfg.MutationMask))
	}
	for i, v := range want {
		if cfg.MutationMask[i] != v {
			t.Errorf("expected mutation_mask[%d] to decode to %v, got %v", i, v, cfg.MutationMask[i])
		}
	}
	if cfg.NumLocations != 2 {
		t.Errorf(UnequalIntParameterError, "built config num locations", 2, cfg.NumLocations)
	}
	if cfg.Epi.DetectableLog10Density != 2.0 {
		t.Errorf(UnequalFloatParameterError, "detectable log10 density", 2.0, cfg.Epi.DetectableLog10Density)
	}
}

func TestRunConfig_BuildDrugDBRegistersResistantLocations(t *testing.T) {
	rc := &RunConfig{
		Drugs: []DrugTOML{
			{
				ID: 0, Name: "artemisinin", N: 15, Kmax: 0.99,
				ResistantAALocations: []ResistantAALocationTOML{
					{Chromosome: 13, Gene: 0, AAPosition: 0, MaskIndex: 0},
				},
			},
		},
	}
	db := rc.BuildDrugDB()
	dt := db.Get(0)
	if dt == nil {
		t.Fatalf("expected drug id 0 to be registered")
	}
	if l := len(dt.ResistantAALocations); l != 1 {
		t.Errorf(UnequalIntParameterError, "resistant aa locations on drug 0", 1, l)
	}
}
