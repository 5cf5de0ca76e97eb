package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"demand-dashboard/internal/common"
	"demand-dashboard/internal/features"
)

// SampleArtifacts builds small deterministic artifacts with the production layout.
// They are used for local runs and fixtures; the values carry no trained meaning.
func SampleArtifacts(trainedAt time.Time) (map[string]Artifact, error) {
	labels := features.Labels()
	md := ArtifactMetadata{
		Version:      "sample-" + trainedAt.UTC().Format("20060102"),
		TrainedAt:    trainedAt.UTC(),
		Features:     labels[:],
		TrainingRows: 500,
	}
	scalerMD := md
	scalerMD.Features = []string{features.UnitPrice.String(), features.CountryCode.String()}

	specs := []struct {
		file   string
		kind   Kind
		md     ArtifactMetadata
		params any
	}{
		{
			file: common.LinearRegressionFile,
			kind: KindLinear,
			md:   md,
			params: LinearParams{
				Coef:      []float64{0.002, -0.35, 0.04, -0.03, 0.12},
				Intercept: 0.9,
			},
		},
		{
			file: common.RandomForestFile,
			kind: KindForest,
			md:   md,
			params: ForestParams{
				NFeatures: features.SlotCount,
				Trees: []TreeParams{
					{Nodes: []TreeNode{
						{Feature: int(features.UnitPrice), Threshold: 0, Left: 1, Right: 2},
						{Feature: int(features.Hour), Threshold: 12, Left: 3, Right: 4},
						{Leaf: true, Value: 0.4},
						{Leaf: true, Value: 1.1},
						{Leaf: true, Value: 1.6},
					}},
					{Nodes: []TreeNode{
						{Feature: int(features.DayOfWeek), Threshold: 4, Left: 1, Right: 2},
						{Leaf: true, Value: 1.2},
						{Leaf: true, Value: 0.7},
					}},
				},
			},
		},
		{
			file: common.SVRFile,
			kind: KindSVR,
			md:   md,
			params: SVRParams{
				Kernel: KernelRBF,
				Gamma:  0.05,
				SupportVectors: [][]float64{
					{10, -0.5, 9, 1, -0.2},
					{25, 0.3, 14, 3, 0.8},
					{40, 1.2, 18, 5, -1.0},
				},
				DualCoef:  []float64{0.8, 0.5, -0.4},
				Intercept: 0.6,
			},
		},
		{
			file: common.ScalerFile,
			kind: KindStandardScaler,
			md:   scalerMD,
			params: ScalerParams{
				Center: []float64{3.6, 18.0},
				Scale:  []float64{2.4, 9.5},
			},
		},
	}

	out := make(map[string]Artifact, len(specs))
	for _, s := range specs {
		a, err := NewArtifact(s.kind, s.md, s.params)
		if err != nil {
			return nil, err
		}
		out[s.file] = a
	}
	return out, nil
}

// WriteSampleArtifacts writes the sample artifacts and the default manifest to dir.
func WriteSampleArtifacts(dir string, trainedAt time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	artifacts, err := SampleArtifacts(trainedAt)
	if err != nil {
		return err
	}
	for file, a := range artifacts {
		if err := WriteArtifact(filepath.Join(dir, file), a); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}

	m := DefaultManifest()
	for i := range m.Models {
		m.Models[i].Version = artifacts[m.Models[i].File].Metadata.Version
		m.Models[i].CreatedAt = trainedAt.UTC()
		m.Models[i].Metrics.TrainingSamples = artifacts[m.Models[i].File].Metadata.TrainingRows
	}
	return SaveManifest(dir, m)
}
