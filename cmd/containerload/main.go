// Containerload — stochastic 3D container loading
//
// Reads a box table (CSV or Excel), runs a multi-trial randomized
// constructive search for a loading plan, prints the best plan's scores for
// the requested objective, and writes a PDF score summary and a table of
// whatever didn't fit. The best plan's placements are written out only for
// load type 2, as the checkpoint a later resume run reads.
//
// Build:
//
//	go build -o containerload ./cmd/containerload
//
// Usage:
//
//	containerload -viaje VBCN2403750 -file viajes/test_VBCN2403750.xlsx -load-type 1
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/piwi3910/containerload/internal/checkpoint"
	"github.com/piwi3910/containerload/internal/export"
	"github.com/piwi3910/containerload/internal/importer"
	"github.com/piwi3910/containerload/internal/model"
	"github.com/piwi3910/containerload/internal/preprocess"
	"github.com/piwi3910/containerload/internal/trial"
)

var objectiveLabels = map[model.Objective]string{
	model.ObjectiveMaxVolume: "max volume",
	model.ObjectiveMinXAxis:  "min x axis",
	model.ObjectiveMaxFloor:  "max floor",
	model.ObjectiveResume:    "resume",
}

func main() {
	viaje := flag.String("viaje", "", "trip code identifying this load")
	loadType := flag.Int("load-type", 1, "objective: 1=max volume, 2=min x axis, 3=max floor, 4=resume")
	file := flag.String("file", "", "path to the input box table (CSV or Excel)")
	trials := flag.Int("trials", 0, "number of trials to run (0 = use the default)")
	outDir := flag.String("out-dir", ".", "directory for output files")
	flag.Parse()

	if *viaje == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "usage: containerload -viaje <code> -file <path> [-load-type N] [-trials N] [-out-dir DIR]")
		os.Exit(2)
	}

	if err := run(*viaje, *file, model.Objective(*loadType), *trials, *outDir); err != nil {
		log.Fatalf("containerload: %v", err)
	}
}

func run(viaje, file string, objective model.Objective, trials int, outDir string) error {
	imported := importer.LoadBoxTable(file)
	for _, w := range imported.Warnings {
		log.Printf("warning: %s", w)
	}
	if len(imported.Errors) > 0 {
		for _, e := range imported.Errors {
			log.Printf("error: %s", e)
		}
		return fmt.Errorf("%d row error(s) in %s", len(imported.Errors), file)
	}

	settings := model.DefaultSettings()
	settings.Objective = objective
	if trials > 0 {
		settings.NumTrials = trials
	}

	boxes, hmap, err := preprocess.Preprocess(imported.Boxes, settings)
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}

	checkpointPath := filepath.Join(outDir, fmt.Sprintf("checkpoint_%s.json", viaje))

	driver := &trial.Driver{
		Boxes:     boxes,
		Hmap:      hmap,
		Container: settings.Container,
		Settings:  settings,
		Objective: objective,
		Seed:      1,
	}

	if objective == model.ObjectiveResume {
		solution, pps, err := checkpoint.Load(checkpointPath)
		if err != nil {
			return fmt.Errorf("loading checkpoint for resume: %w", err)
		}
		driver.ResumeSolution = solution
		driver.ResumePPs = pps
	}

	summary, err := driver.Run(context.Background())
	if err != nil {
		return fmt.Errorf("trial run failed: %w", err)
	}
	if len(summary.Ranked) == 0 {
		return fmt.Errorf("no trials produced a result")
	}
	best := summary.Ranked[0]

	fmt.Printf("(%.2f, (%.2f, %.2f, %d), %d)\n",
		summary.AvgVolumePctg, best.PctgVolume, best.PctgFloor, best.XAxis, len(summary.NotLoadedForExport))

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	unloadedPath := filepath.Join(outDir, fmt.Sprintf("not_loaded_%s.xlsx", viaje))
	if err := export.WriteUnloadedTable(unloadedPath, summary.NotLoadedForExport); err != nil {
		return fmt.Errorf("writing unloaded table: %w", err)
	}

	reportPath := filepath.Join(outDir, fmt.Sprintf("summary_%s.pdf", viaje))
	if _, err := export.WriteSummaryReport(reportPath, export.SummaryStats{
		Viaje:          viaje,
		ObjectiveLabel: objectiveLabels[objective],
		PctgVolume:     best.PctgVolume,
		PctgFloor:      best.PctgFloor,
		XAxis:          best.XAxis,
		BoxesLoaded:    len(best.Solution),
		BoxesRejected:  len(summary.NotLoadedForExport),
	}); err != nil {
		return fmt.Errorf("writing summary report: %w", err)
	}

	if objective == model.ObjectiveMinXAxis {
		if err := checkpoint.Save(checkpointPath, best.Solution, best.PPs); err != nil {
			return fmt.Errorf("saving checkpoint: %w", err)
		}
	}

	return nil
}
