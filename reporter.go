package malasim

// Reporter is the external collaborator interface spec §6 describes:
// read-only snapshots handed out at fixed points in the daily/monthly/
// yearly cycle. The core never prescribes a persistence format; concrete
// reporters (reporter_csv.go, reporter_sqlite.go) own their own schema,
// matching the teacher's DataLogger split between CSVLogger and
// SQLiteLogger (logger.go/sqlite_logger.go).
type Reporter interface {
	// BeforeRun runs once, before the first Step, e.g. to create files or
	// tables. A non-nil error here is a startup failure (spec §7) and
	// propagates out of Model.Initialize.
	BeforeRun(m *Model) error
	// BeginTimeStep runs once per day, before any daily_update substep.
	BeginTimeStep(m *Model)
	// MonthlyReport runs at each 30-day boundary.
	MonthlyReport(m *Model) error
	// YearlyReport runs at each 365-day boundary.
	YearlyReport(m *Model) error
	// AfterRun runs once, after the scheduler loop exits, e.g. to flush
	// buffers or close file handles.
	AfterRun(m *Model) error
}

// ReportSnapshot is a view of MDC state built at a reporting boundary; the
// concrete reporters' MonthlyReport writes its rows from it. Every Reporter
// hook also receives the *Model itself, and both YearlyReport
// implementations read m.MDC.EIRByLocation directly.
type ReportSnapshot struct {
	Day                     int
	InfectionsByLocation    []int
	CumulativeMutantsByLoc  []int
	GenotypeTally           map[int]int
	BloodSlidePrevalenceByLoc []float64
	AMUUnits                float64
	AFUUnits                float64
	// LatestMutationUID is the lineage UID (spec: genotype.go's ksuid-backed
	// Genotype.UID) of the most recently adopted drug-pressure mutation, or
	// "" if none has occurred yet. Reporters that want to trace a resistance
	// lineage's origin read MDC.MutationLineage directly; this field is a
	// cheap at-a-glance marker for the common case.
	LatestMutationUID string
}

// Snapshot builds a ReportSnapshot from m's current MDC state.
func (m *Model) Snapshot() ReportSnapshot {
	amu, afu := m.MDC.AMUAFU()
	var latestUID string
	if uid, ok := m.MDC.LatestMutationUID(); ok {
		latestUID = uid.String()
	}
	return ReportSnapshot{
		Day:                       m.CurrentTime,
		InfectionsByLocation:      m.MDC.InfectionsByLocation(),
		CumulativeMutantsByLoc:    m.MDC.CumulativeMutantsByLocation(),
		GenotypeTally:             m.MDC.GenotypeTally(),
		BloodSlidePrevalenceByLoc: m.MDC.BloodSlidePrevalenceByLocation(),
		AMUUnits:                  amu,
		AFUUnits:                  afu,
		LatestMutationUID:         latestUID,
	}
}
