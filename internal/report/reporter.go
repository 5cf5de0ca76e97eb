// Package report renders the downloadable dashboard report: a text summary of
// the model evaluation and dataset, plus CSV and JSON exports of the metrics.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/dataset"
	"demand-dashboard/internal/ml"
)

// Reporter generates dashboard reports
type Reporter struct {
	manifest ml.Manifest
	models   []ml.ModelInfo
	summary  dataset.Summary
	now      func() time.Time
}

// NewReporter creates a new reporter
func NewReporter(manifest ml.Manifest, models []ml.ModelInfo, summary dataset.Summary) *Reporter {
	return &Reporter{
		manifest: manifest,
		models:   models,
		summary:  summary,
		now:      time.Now,
	}
}

// JSONReport is the machine-readable report body
type JSONReport struct {
	GeneratedAt     time.Time          `json:"generated_at"`
	Models          []ModelRow         `json:"models"`
	Best            string             `json:"best_model"`
	ConfusionMatrix ml.ConfusionMatrix `json:"confusion_matrix"`
	Dataset         DatasetRow         `json:"dataset"`
}

type ModelRow struct {
	Name      string  `json:"name"`
	Version   string  `json:"version"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

type DatasetRow struct {
	Rows          int     `json:"rows"`
	Columns       int     `json:"columns"`
	Countries     int     `json:"countries"`
	TotalQuantity float64 `json:"total_quantity"`
}

// Rows returns the metric rows in manifest order.
func (r *Reporter) Rows() []ModelRow {
	rows := make([]ModelRow, 0, len(r.manifest.Models))
	for _, v := range r.manifest.Models {
		row := ModelRow{
			Name:      v.Name,
			Version:   v.Version,
			Accuracy:  v.Metrics.Accuracy,
			Precision: v.Metrics.Precision,
			Recall:    v.Metrics.Recall,
			F1Score:   v.Metrics.F1Score,
		}
		for _, m := range r.models {
			if m.Name == v.Name && m.Version != "" {
				row.Version = m.Version
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteSummary writes a human-readable summary
func (r *Reporter) WriteSummary(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("DEMAND DASHBOARD REPORT\n")
	ew.printf("=======================\n\n")
	ew.printf("Generated: %s\n\n", r.now().UTC().Format("2006-01-02 15:04:05 MST"))

	ew.printf("MODEL PERFORMANCE\n")
	ew.printf("-----------------\n")
	ew.printf("%-22s %9s %10s %7s %9s\n", "Model", "Accuracy", "Precision", "Recall", "F1 Score")
	for _, row := range r.Rows() {
		ew.printf("%-22s %9.3f %10.3f %7.3f %9.3f\n", row.Name, row.Accuracy, row.Precision, row.Recall, row.F1Score)
	}
	if ranked := r.manifest.Ranked(); len(ranked) > 0 {
		ew.printf("\nBest model by F1 score: %s (%.3f)\n", ranked[0].Name, ranked[0].Metrics.F1Score)
	}

	cm := r.manifest.ConfusionMatrix
	if len(cm.Values) > 0 {
		ew.printf("\nCONFUSION MATRIX (%s)\n", cm.Model)
		ew.printf("--------------------\n")
		ew.printf("%-18s", "")
		for _, c := range cm.Columns {
			ew.printf(" %20s", c)
		}
		ew.printf("\n")
		for i, row := range cm.Values {
			ew.printf("%-18s", cm.Rows[i])
			for _, v := range row {
				ew.printf(" %20d", v)
			}
			ew.printf("\n")
		}
	}

	ew.printf("\nDATASET\n")
	ew.printf("-------\n")
	ew.printf("Rows: %d\n", r.summary.Rows)
	ew.printf("Columns: %d\n", r.summary.Columns)
	if r.summary.Countries > 0 {
		ew.printf("Countries: %d\n", r.summary.Countries)
	}
	if r.summary.TotalQuantity > 0 {
		ew.printf("Total Quantity: %.0f\n", r.summary.TotalQuantity)
	}

	return ew.err
}

// WriteMetricsCSV writes one row per model
func (r *Reporter) WriteMetricsCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"model", "version", "accuracy", "precision", "recall", "f1_score"}); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		record := []string{
			row.Name,
			row.Version,
			strconv.FormatFloat(row.Accuracy, 'f', 3, 64),
			strconv.FormatFloat(row.Precision, 'f', 3, 64),
			strconv.FormatFloat(row.Recall, 'f', 3, 64),
			strconv.FormatFloat(row.F1Score, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// JSON builds the machine-readable report
func (r *Reporter) JSON() JSONReport {
	rep := JSONReport{
		GeneratedAt:     r.now().UTC(),
		Models:          r.Rows(),
		ConfusionMatrix: r.manifest.ConfusionMatrix,
		Dataset: DatasetRow{
			Rows:          r.summary.Rows,
			Columns:       r.summary.Columns,
			Countries:     r.summary.Countries,
			TotalQuantity: r.summary.TotalQuantity,
		},
	}
	if ranked := r.manifest.Ranked(); len(ranked) > 0 {
		rep.Best = ranked[0].Name
	}
	return rep
}

// WriteJSON writes the JSON report
func (r *Reporter) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.JSON())
}

// GenerateReport writes all report formats into outputPath
func (r *Reporter) GenerateReport(outputPath string) error {
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"report_summary.txt", r.WriteSummary},
		{"model_metrics.csv", r.WriteMetricsCSV},
		{"report.json", r.WriteJSON},
	}
	for _, f := range files {
		path := filepath.Join(outputPath, f.name)
		if err := writeFile(path, f.write); err != nil {
			return err
		}
		log.Info().Str("file", path).Msg("Report generated")
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

// errWriter keeps the first write error
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
