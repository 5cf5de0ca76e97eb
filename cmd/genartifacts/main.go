package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/common"
	"demand-dashboard/internal/dataset"
	"demand-dashboard/internal/ml"
	"demand-dashboard/internal/report"
)

func main() {
	var (
		artifactsDir = flag.String("artifacts", common.DefaultArtifactsDir, "Directory for model artifacts and manifest")
		datasetPath  = flag.String("dataset", common.DefaultDatasetPath, "Sample dataset file (.xlsx or .csv), empty to skip")
		sheet        = flag.String("sheet", "", "Sheet name for .xlsx output")
		rows         = flag.Int("rows", 500, "Number of sample dataset rows")
		seed         = flag.Int64("seed", 42, "Random seed for the sample dataset")
		reportDir    = flag.String("report", "", "Also write the report files into this directory")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fmt.Println("=== Sample Artifacts ===")
	fmt.Printf("Artifacts: %s\n", *artifactsDir)
	fmt.Printf("Dataset: %s (%d rows)\n", *datasetPath, *rows)
	fmt.Println("========================")

	if err := os.MkdirAll(*artifactsDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create artifacts directory")
	}
	if err := ml.WriteSampleArtifacts(*artifactsDir, time.Now().UTC()); err != nil {
		log.Fatal().Err(err).Msg("Failed to write artifacts")
	}
	// round-trip through the loader so a broken artifact fails here, not at dashboard start
	registry, err := ml.LoadRegistry(*artifactsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Written artifacts do not load")
	}

	summary := dataset.Summary{}
	if *datasetPath != "" {
		t := dataset.SampleTable(*rows, *seed)
		if err := writeDataset(*datasetPath, *sheet, t); err != nil {
			log.Fatal().Err(err).Str("path", *datasetPath).Msg("Failed to write dataset")
		}
		summary = dataset.Summarize(t)
		log.Info().Str("path", *datasetPath).Int("rows", t.Len()).Msg("Sample dataset written")
	}

	if *reportDir != "" {
		r := report.NewReporter(registry.Manifest(), registry.Models(), summary)
		if err := r.GenerateReport(*reportDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to write report")
		}
	}

	fmt.Printf("✓ Generated %d model artifacts and the scaler in %s\n", len(registry.Models()), *artifactsDir)
}

func writeDataset(path, sheet string, t dataset.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return dataset.WriteXLSX(path, sheet, t)
	case ".csv":
		var buf bytes.Buffer
		if err := dataset.WriteCSV(&buf, t); err != nil {
			return err
		}
		return os.WriteFile(path, buf.Bytes(), 0o644)
	default:
		return fmt.Errorf("%w: %s", dataset.ErrUnsupportedFormat, filepath.Ext(path))
	}
}
