package malasim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func minimalTestModel(numLocations int) *Model {
	cfg := &Config{
		Epi:          &EpiParams{NumberOfTrackingDays: 1},
		Demographic:  &DemographicParams{},
		Transmission: &TransmissionParams{},
		Movement:     &MovementParams{},
		Immune:       &ImmuneParameters{},
		NumLocations: numLocations,
	}
	genotypeDB := NewGenotypeDB(nil, NewDrugDB(), nil)
	return NewModel(cfg, genotypeDB, NewDrugDB(), &SingleTherapyStrategy{}, &SteadyTreatmentCoverage{ByLocation: make([]float64, numLocations)}, 1, 10)
}

func TestCSVReporter_BeforeRunCreatesHeaderedFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "run")
	r := NewCSVReporter(base, 1)
	m := minimalTestModel(1)

	if err := r.BeforeRun(m); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "CSVReporter.BeforeRun", err)
	}

	monthly, err := os.ReadFile(base + ".001.monthly.csv")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "reading the monthly CSV file", err)
	}
	if !strings.HasPrefix(string(monthly), "day,location,infections") {
		t.Errorf("expected the monthly CSV to start with its header row, got %q", string(monthly))
	}
}

func TestCSVReporter_MonthlyReportAppendsOneRowPerLocation(t *testing.T) {
	base := filepath.Join(t.TempDir(), "run")
	r := NewCSVReporter(base, 1)
	m := minimalTestModel(2)
	if err := r.BeforeRun(m); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "CSVReporter.BeforeRun", err)
	}

	m.MDC.Record1Infection(0)
	if err := r.MonthlyReport(m); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "CSVReporter.MonthlyReport", err)
	}

	contents, err := os.ReadFile(base + ".001.monthly.csv")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "reading the monthly CSV file", err)
	}
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	// header + one row per location
	if l := len(lines); l != 3 {
		t.Errorf(UnequalIntParameterError, "monthly CSV line count (header + 2 locations)", 3, l)
	}
}

func TestCSVReporter_YearlyReportWritesEIRPerLocation(t *testing.T) {
	base := filepath.Join(t.TempDir(), "run")
	r := NewCSVReporter(base, 2)
	m := minimalTestModel(1)
	if err := r.BeforeRun(m); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "CSVReporter.BeforeRun", err)
	}
	m.MDC.RecordEIR(0, 0, 3.5)

	if err := r.YearlyReport(m); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "CSVReporter.YearlyReport", err)
	}
	contents, err := os.ReadFile(base + ".002.yearly.csv")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "reading the yearly CSV file", err)
	}
	if !strings.Contains(string(contents), "3.500000") {
		t.Errorf("expected the yearly CSV to contain the recorded EIR value, got %q", string(contents))
	}
}

func TestCSVReporter_BeforeRunFailsIfFileAlreadyExists(t *testing.T) {
	base := filepath.Join(t.TempDir(), "run")
	r := NewCSVReporter(base, 1)
	m := minimalTestModel(1)
	if err := r.BeforeRun(m); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "first CSVReporter.BeforeRun", err)
	}
	if err := r.BeforeRun(m); err == nil {
		t.Errorf(ExpectedErrorWhileError, "calling BeforeRun a second time against the same output files")
	}
}
