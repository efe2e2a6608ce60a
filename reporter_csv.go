package malasim

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// CSVReporter is a Reporter that writes monthly/yearly aggregate rows as
// comma-delimited files, one file per series, matching the teacher's
// CSVLogger split (logger.go): a fixed header line on creation, then
// appended rows at each reporting boundary.
type CSVReporter struct {
	monthlyPath  string
	yearlyPath   string
	genotypePath string
}

// NewCSVReporter derives every output file's path from basepath, trimming
// a trailing "." and suffixing a series tag before ".csv", the same
// convention CSVLogger.SetBasePath uses.
func NewCSVReporter(basepath string, replicateIndex int) *CSVReporter {
	trimmed := strings.TrimSuffix(basepath, ".")
	return &CSVReporter{
		monthlyPath:  fmt.Sprintf("%s.%03d.monthly.csv", trimmed, replicateIndex),
		yearlyPath:   fmt.Sprintf("%s.%03d.yearly.csv", trimmed, replicateIndex),
		genotypePath: fmt.Sprintf("%s.%03d.genotype.csv", trimmed, replicateIndex),
	}
}

// BeforeRun creates the three output files with header rows.
func (r *CSVReporter) BeforeRun(m *Model) error {
	if err := csvNewFile(r.monthlyPath, "day,location,infections,cumulative_mutants,blood_slide_prevalence,amu,afu\n"); err != nil {
		return err
	}
	if err := csvNewFile(r.yearlyPath, "year,location,eir\n"); err != nil {
		return err
	}
	return csvNewFile(r.genotypePath, "day,genotype_id,count\n")
}

// BeginTimeStep is a no-op; CSVReporter only writes at monthly/yearly
// boundaries.
func (r *CSVReporter) BeginTimeStep(m *Model) {}

// MonthlyReport appends one row per location to the monthly CSV.
func (r *CSVReporter) MonthlyReport(m *Model) error {
	snap := m.Snapshot()
	var b bytes.Buffer
	for loc := 0; loc < m.Config.NumLocations; loc++ {
		prevalence := 0.0
		if loc < len(snap.BloodSlidePrevalenceByLoc) {
			prevalence = snap.BloodSlidePrevalenceByLoc[loc]
		}
		cumulative := 0
		if loc < len(snap.CumulativeMutantsByLoc) {
			cumulative = snap.CumulativeMutantsByLoc[loc]
		}
		infections := 0
		if loc < len(snap.InfectionsByLocation) {
			infections = snap.InfectionsByLocation[loc]
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d,%f,%f,%f\n",
			snap.Day, loc, infections, cumulative, prevalence, snap.AMUUnits, snap.AFUUnits)
	}
	if err := csvAppendToFile(r.monthlyPath, b.Bytes()); err != nil {
		return err
	}
	return r.writeGenotypeTally(snap)
}

// writeGenotypeTally appends one row per currently-tallied genotype id, in
// sorted order so repeated runs diff cleanly.
func (r *CSVReporter) writeGenotypeTally(snap ReportSnapshot) error {
	ids := make([]int, 0, len(snap.GenotypeTally))
	for id := range snap.GenotypeTally {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var b bytes.Buffer
	for _, id := range ids {
		fmt.Fprintf(&b, "%d,%d,%d\n", snap.Day, id, snap.GenotypeTally[id])
	}
	return csvAppendToFile(r.genotypePath, b.Bytes())
}

// YearlyReport appends one EIR row per location to the yearly CSV.
func (r *CSVReporter) YearlyReport(m *Model) error {
	year := m.CurrentTime / 365
	var b bytes.Buffer
	for loc := 0; loc < m.Config.NumLocations; loc++ {
		fmt.Fprintf(&b, "%d,%d,%f\n", year, loc, m.MDC.EIRByLocation(loc, year))
	}
	return csvAppendToFile(r.yearlyPath, b.Bytes())
}

// AfterRun is a no-op; every write above is already flushed to disk.
func (r *CSVReporter) AfterRun(m *Model) error { return nil }

// csvNewFile creates path with the given header, failing if it already exists,
// matching the teacher's NewFile (logger.go).
func csvNewFile(path, header string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(header); err != nil {
		return err
	}
	return f.Sync()
}

// csvAppendToFile appends b to path, creating it first if needed, matching
// the teacher's AppendToFile (logger.go).
func csvAppendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}
