package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/export"
	"github.com/joseph-ayodele/inspection-wizard/internal/inspection"
	"github.com/joseph-ayodele/inspection-wizard/internal/snapshot"
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out     = flag.String("out", "inspection.xlsx", "output XLSX file path")
		weights = flag.String("weights", "", "scoring weights JSON (defaults to SCORING_WEIGHTS_FILE)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *weights == "" {
		*weights = cfg.Scoring.WeightsFile
	}

	snapshots, err := snapshot.Open(ctx, cfg.Snapshot)
	if err != nil {
		printError("Error: opening snapshot store (%s): %v\n", cfg.Snapshot.Backend, err)
		os.Exit(1)
	}
	defer snapshots.Close()

	store := inspection.NewStore(ctx, inspection.WithSnapshotStore(snapshots), inspection.WithLogger(logger))
	doc := store.Inspection()
	if doc.Country == "" {
		printError("Error: no inspection draft found in %s backend\n", cfg.Snapshot.Backend)
		os.Exit(1)
	}

	w, err := submission.LoadWeights(*weights)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	payload := submission.NewAssembler(w, nil).Assemble(doc)

	data, err := export.NewService(logger).WorkbookXLSX(payload)
	if err != nil {
		printError("Error: building workbook: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}

	logger.Info("inspection exported",
		"inspection_id", doc.ID,
		"status", doc.Status,
		"risk_score", payload.Inspection.RiskScore,
		"quality_score", payload.Inspection.QualityScore,
		"photos", len(payload.Photos),
		"out", *out)
}
