package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/common"
)

// ModelVersion records one shipped model artifact
type ModelVersion struct {
	Name      string       `json:"name"`
	File      string       `json:"file"`
	Version   string       `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Metrics   ModelMetrics `json:"metrics"`
}

// ModelMetrics contains offline evaluation metrics for a model
type ModelMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1Score         float64 `json:"f1_score"`
	TrainingSamples int     `json:"training_samples"`
}

// ConfusionMatrix is a labelled 2-D count table, rows are actual classes
type ConfusionMatrix struct {
	Model   string   `json:"model"`
	Columns []string `json:"columns"`
	Rows    []string `json:"rows"`
	Values  [][]int  `json:"values"`
}

// Max returns the largest cell, used for heat shading.
func (c ConfusionMatrix) Max() int {
	m := 0
	for _, row := range c.Values {
		for _, v := range row {
			if v > m {
				m = v
			}
		}
	}
	return m
}

// Manifest lists the shipped artifacts and their evaluation results
type Manifest struct {
	Models          []ModelVersion  `json:"models"`
	ConfusionMatrix ConfusionMatrix `json:"confusion_matrix"`
}

// DefaultManifest carries the evaluation figures published with the bundled models.
func DefaultManifest() Manifest {
	return Manifest{
		Models: []ModelVersion{
			{
				Name:    ModelLogisticRegression.String(),
				File:    common.LinearRegressionFile,
				Version: "1.0.0",
				Metrics: ModelMetrics{Accuracy: 0.89, Precision: 0.87, Recall: 0.88, F1Score: 0.875},
			},
			{
				Name:    ModelRandomForest.String(),
				File:    common.RandomForestFile,
				Version: "1.0.0",
				Metrics: ModelMetrics{Accuracy: 0.93, Precision: 0.94, Recall: 0.92, F1Score: 0.93},
			},
			{
				Name:    ModelSVM.String(),
				File:    common.SVRFile,
				Version: "1.0.0",
				Metrics: ModelMetrics{Accuracy: 0.91, Precision: 0.90, Recall: 0.91, F1Score: 0.905},
			},
		},
		ConfusionMatrix: ConfusionMatrix{
			Model:   ModelRandomForest.String(),
			Columns: []string{"Predicted Negative", "Predicted Positive"},
			Rows:    []string{"Actual Negative", "Actual Positive"},
			Values:  [][]int{{90, 10}, {5, 95}},
		},
	}
}

// LoadManifest reads manifest.json from dir. A missing file yields the default manifest.
func LoadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, common.ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Manifest not found, using bundled evaluation metrics")
			return DefaultManifest(), nil
		}
		return Manifest{}, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return m, nil
}

// SaveManifest writes m to dir/manifest.json
func SaveManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, common.ManifestFile), data, 0o644)
}

// Version looks up the entry for a model name.
func (m Manifest) Version(name string) (ModelVersion, bool) {
	for _, v := range m.Models {
		if v.Name == name {
			return v, true
		}
	}
	return ModelVersion{}, false
}

// Ranked returns the entries ordered by F1 score, best first.
func (m Manifest) Ranked() []ModelVersion {
	out := append([]ModelVersion(nil), m.Models...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics.F1Score > out[j].Metrics.F1Score
	})
	return out
}

func (m Manifest) validate() error {
	for _, v := range m.Models {
		if _, err := ParseModel(v.Name); err != nil {
			return err
		}
	}
	cm := m.ConfusionMatrix
	if len(cm.Values) != len(cm.Rows) {
		return fmt.Errorf("confusion matrix has %d rows and %d row labels", len(cm.Values), len(cm.Rows))
	}
	for i, row := range cm.Values {
		if len(row) != len(cm.Columns) {
			return fmt.Errorf("confusion matrix row %d has %d cells, want %d", i, len(row), len(cm.Columns))
		}
	}
	return nil
}
