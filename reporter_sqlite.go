package malasim

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteReporter is a Reporter that persists monthly/yearly aggregates to
// a SQLite database, matching the teacher's SQLiteLogger (sqlite_logger.go):
// one table per series created in BeforeRun, one transaction-wrapped
// insert per reporting boundary.
type SQLiteReporter struct {
	path           string
	replicateIndex int
	db             *sql.DB
}

// NewSQLiteReporter targets a SQLite database file at path, scoping every
// table name with replicateIndex so multiple replicates can share one
// file without colliding (teacher's "Genotype%03d" table-naming
// convention).
func NewSQLiteReporter(path string, replicateIndex int) *SQLiteReporter {
	return &SQLiteReporter{path: path, replicateIndex: replicateIndex}
}

func (r *SQLiteReporter) monthlyTable() string {
	return fmt.Sprintf("monthly_report_%03d", r.replicateIndex)
}

func (r *SQLiteReporter) yearlyTable() string {
	return fmt.Sprintf("yearly_report_%03d", r.replicateIndex)
}

func (r *SQLiteReporter) genotypeTable() string {
	return fmt.Sprintf("genotype_tally_%03d", r.replicateIndex)
}

// BeforeRun opens the database and creates this replicate's three tables,
// dropping any stale rows left from a previous run with the same index.
func (r *SQLiteReporter) BeforeRun(m *Model) error {
	db, err := sql.Open("sqlite3", r.path)
	if err != nil {
		return err
	}
	r.db = db

	stmts := []string{
		fmt.Sprintf(`create table if not exists %s (
			day integer, location integer, infections integer,
			cumulative_mutants integer, blood_slide_prevalence real,
			amu real, afu real)`, r.monthlyTable()),
		fmt.Sprintf(`delete from %s`, r.monthlyTable()),
		fmt.Sprintf(`create table if not exists %s (year integer, location integer, eir real)`, r.yearlyTable()),
		fmt.Sprintf(`delete from %s`, r.yearlyTable()),
		fmt.Sprintf(`create table if not exists %s (day integer, genotype_id integer, count integer)`, r.genotypeTable()),
		fmt.Sprintf(`delete from %s`, r.genotypeTable()),
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("%q: %s", err, stmt)
		}
	}
	return nil
}

// BeginTimeStep is a no-op; SQLiteReporter only writes at monthly/yearly
// boundaries.
func (r *SQLiteReporter) BeginTimeStep(m *Model) {}

// MonthlyReport inserts one row per location into the monthly table and
// one row per tallied genotype into the genotype table, both within a
// single transaction.
func (r *SQLiteReporter) MonthlyReport(m *Model) error {
	snap := m.Snapshot()
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		"insert into %s(day, location, infections, cumulative_mutants, blood_slide_prevalence, amu, afu) values(?, ?, ?, ?, ?, ?, ?)",
		r.monthlyTable()))
	if err != nil {
		tx.Rollback()
		return err
	}
	for loc := 0; loc < m.Config.NumLocations; loc++ {
		infections, cumulative, prevalence := 0, 0, 0.0
		if loc < len(snap.InfectionsByLocation) {
			infections = snap.InfectionsByLocation[loc]
		}
		if loc < len(snap.CumulativeMutantsByLoc) {
			cumulative = snap.CumulativeMutantsByLoc[loc]
		}
		if loc < len(snap.BloodSlidePrevalenceByLoc) {
			prevalence = snap.BloodSlidePrevalenceByLoc[loc]
		}
		if _, err := stmt.Exec(snap.Day, loc, infections, cumulative, prevalence, snap.AMUUnits, snap.AFUUnits); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()

	genoStmt, err := tx.Prepare(fmt.Sprintf("insert into %s(day, genotype_id, count) values(?, ?, ?)", r.genotypeTable()))
	if err != nil {
		tx.Rollback()
		return err
	}
	for id, count := range snap.GenotypeTally {
		if _, err := genoStmt.Exec(snap.Day, id, count); err != nil {
			genoStmt.Close()
			tx.Rollback()
			return err
		}
	}
	genoStmt.Close()
	return tx.Commit()
}

// YearlyReport inserts one EIR row per location into the yearly table.
func (r *SQLiteReporter) YearlyReport(m *Model) error {
	year := m.CurrentTime / 365
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf("insert into %s(year, location, eir) values(?, ?, ?)", r.yearlyTable()))
	if err != nil {
		tx.Rollback()
		return err
	}
	for loc := 0; loc < m.Config.NumLocations; loc++ {
		if _, err := stmt.Exec(year, loc, m.MDC.EIRByLocation(loc, year)); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()
	return tx.Commit()
}

// AfterRun closes the database handle.
func (r *SQLiteReporter) AfterRun(m *Model) error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
