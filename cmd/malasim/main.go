// Command malasim runs the malaria transmission/resistance-evolution
// engine for one or more replicate instances against a TOML run
// configuration, matching the teacher's bin/contagion/main.go CLI shape
// (flag parsing, a per-replicate logger, one line on stderr and a non-zero
// exit on startup failure).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/kentwait/malasim"
)

func main() {
	inputPath := flag.String("i", "", "path to the TOML run configuration")
	outputDir := flag.String("o", ".", "output directory for reporter files")
	reporterType := flag.String("r", "csv", "reporter type (csv|sqlite)")
	jobNumber := flag.Int("j", 1, "job number, used to namespace output files")
	replicateCount := flag.Int("replicate", 1, "number of replicate instances to run")
	verbosity := flag.Int("v", 0, "verbosity: 0=info, 1=debug, 2=trace")
	importMode := flag.Bool("im", false, "importation-only calibration mode (parsed; has no effect on the run)")
	mcFlag := flag.Bool("mc", false, "mosquito-coverage calibration variant (parsed; has no effect on the run)")
	mdFlag := flag.Bool("md", false, "mosquito-density calibration variant (parsed; has no effect on the run)")
	flag.Parse()

	if *mcFlag && *mdFlag {
		fmt.Fprintln(os.Stderr, "malasim: --mc and --md are mutually exclusive")
		os.Exit(1)
	}
	configureVerbosity(*verbosity)

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "malasim: -i INPUT is required")
		os.Exit(1)
	}

	runConfig, err := malasim.LoadRunConfig(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "malasim: %v\n", err)
		os.Exit(1)
	}

	drugDB := runConfig.BuildDrugDB()
	genotypeDB := malasim.NewGenotypeDB(nil, drugDB, nil)
	cfg := runConfig.Build(drugDB)

	runtime.GOMAXPROCS(runtime.NumCPU())
	_ = *importMode

	firstStart := time.Now()
	for i := 1; i <= *replicateCount; i++ {
		log.Printf("starting instance %03d\n", i)
		start := time.Now()

		seed := int64(0)
		strategy := &malasim.SingleTherapyStrategy{IDValue: 0}
		coverage := &malasim.SteadyTreatmentCoverage{ByLocation: make([]float64, cfg.NumLocations)}
		model := malasim.NewModel(cfg, genotypeDB, drugDB, strategy, coverage, seed, runConfig.TotalTime)

		basepath := fmt.Sprintf("%s/malasim.job%03d", *outputDir, *jobNumber)
		var reporter malasim.Reporter
		switch *reporterType {
		case "csv":
			reporter = malasim.NewCSVReporter(basepath, i)
		case "sqlite":
			reporter = malasim.NewSQLiteReporter(basepath+".db", i)
		default:
			fmt.Fprintf(os.Stderr, "malasim: %q is not a valid reporter type (csv|sqlite)\n", *reporterType)
			os.Exit(1)
		}
		model.AttachReporter(reporter)

		if err := model.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "malasim: instance %03d failed to initialize: %v\n", i, err)
			os.Exit(1)
		}
		model.Run()
		if err := model.Release(); err != nil {
			log.Printf("instance %03d: reporter release error: %v", i, err)
		}
		log.Printf("finished instance %03d in %s\n", i, time.Since(start))
	}
	log.Printf("completed all runs in %s", time.Since(firstStart))
}

// configureVerbosity maps the CLI's 0/1/2 verbosity levels onto the
// standard logger's flag set; malasim has no structured logging
// dependency beyond what the teacher uses (spec §6).
func configureVerbosity(v int) {
	switch {
	case v >= 2:
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case v == 1:
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	default:
		log.SetFlags(log.Ldate | log.Ltime)
	}
}
