package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/common"
	"demand-dashboard/internal/features"
)

// ArtifactInfo describes a loaded artifact file.
type ArtifactInfo struct {
	Name     string           `json:"name"`
	File     string           `json:"file"`
	Kind     Kind             `json:"kind"`
	Inputs   int              `json:"inputs"`
	Metadata ArtifactMetadata `json:"metadata"`
	ModTime  time.Time        `json:"modified_at"`
}

// Age reports how long ago the artifact file was written.
func (a ArtifactInfo) Age(now time.Time) time.Duration {
	if a.ModTime.IsZero() {
		return 0
	}
	return now.Sub(a.ModTime)
}

// ModelInfo joins a model's artifact with its published evaluation.
type ModelInfo struct {
	ID       ModelID      `json:"-"`
	Name     string       `json:"name"`
	Artifact ArtifactInfo `json:"artifact"`
	Version  string       `json:"version"`
	Metrics  ModelMetrics `json:"metrics"`
}

// Registry maps every ModelID to its predictor and holds the shared scaler.
// It is built once and never mutated.
type Registry struct {
	predictors map[ModelID]Predictor
	artifacts  map[ModelID]ArtifactInfo
	scaler     Scaler
	scalerInfo ArtifactInfo
	manifest   Manifest
}

// NewRegistry assembles a registry from already constructed models.
// Every ModelID must be present.
func NewRegistry(predictors map[ModelID]Predictor, scaler Scaler, manifest Manifest) (*Registry, error) {
	if scaler == nil {
		return nil, fmt.Errorf("scaler is required")
	}
	if err := checkWidth(scaler.NumFeatures(), len(features.ScaledSlots)); err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}

	r := &Registry{
		predictors: make(map[ModelID]Predictor, len(predictors)),
		artifacts:  make(map[ModelID]ArtifactInfo, len(predictors)),
		scaler:     scaler,
		manifest:   manifest,
	}
	for _, id := range Models() {
		p, ok := predictors[id]
		if !ok || p == nil {
			return nil, fmt.Errorf("model %s: no predictor", id)
		}
		if err := checkWidth(p.NumFeatures(), features.SlotCount); err != nil {
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
		r.predictors[id] = p
		r.artifacts[id] = ArtifactInfo{Name: id.String(), File: id.ArtifactFile(), Inputs: p.NumFeatures()}
	}
	r.scalerInfo = ArtifactInfo{Name: "scaler", File: common.ScalerFile, Inputs: scaler.NumFeatures()}
	return r, nil
}

// LoadRegistry reads the three model artifacts, the scaler and the manifest from dir.
// Any missing or malformed artifact is an error.
func LoadRegistry(dir string) (*Registry, error) {
	predictors := make(map[ModelID]Predictor, len(Models()))
	infos := make(map[ModelID]ArtifactInfo, len(Models()))

	for _, id := range Models() {
		a, info, err := readArtifactInfo(dir, id.ArtifactFile())
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
		p, err := a.Predictor()
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
		info.Name = id.String()
		info.Inputs = p.NumFeatures()
		predictors[id] = p
		infos[id] = info
	}

	a, scalerInfo, err := readArtifactInfo(dir, common.ScalerFile)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	scaler, err := a.Scaler()
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	scalerInfo.Name = "scaler"
	scalerInfo.Inputs = scaler.NumFeatures()

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	r, err := NewRegistry(predictors, scaler, manifest)
	if err != nil {
		return nil, err
	}
	r.artifacts = infos
	r.scalerInfo = scalerInfo

	log.Info().
		Str("dir", dir).
		Int("models", len(predictors)).
		Str("scaler", string(scalerInfo.Kind)).
		Msg("Artifacts loaded")

	return r, nil
}

func readArtifactInfo(dir, file string) (Artifact, ArtifactInfo, error) {
	path := filepath.Join(dir, file)
	st, err := os.Stat(path)
	if err != nil {
		return Artifact{}, ArtifactInfo{}, err
	}
	a, err := ReadArtifact(path)
	if err != nil {
		return Artifact{}, ArtifactInfo{}, err
	}
	return a, ArtifactInfo{File: file, Kind: a.Kind, Metadata: a.Metadata, ModTime: st.ModTime()}, nil
}

// Predictor returns the model registered under id.
func (r *Registry) Predictor(id ModelID) (Predictor, error) {
	p, ok := r.predictors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return p, nil
}

// Resolve looks a predictor up by display name.
func (r *Registry) Resolve(name string) (Predictor, error) {
	id, err := ParseModel(name)
	if err != nil {
		return nil, err
	}
	return r.Predictor(id)
}

func (r *Registry) Scaler() Scaler { return r.scaler }

func (r *Registry) Manifest() Manifest { return r.manifest }

// Models describes every registered model in dropdown order.
func (r *Registry) Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(r.predictors))
	for _, id := range Models() {
		info := ModelInfo{ID: id, Name: id.String(), Artifact: r.artifacts[id]}
		if v, ok := r.manifest.Version(id.String()); ok {
			info.Version = v.Version
			info.Metrics = v.Metrics
		}
		if info.Version == "" {
			info.Version = info.Artifact.Metadata.Version
		}
		out = append(out, info)
	}
	return out
}

// Artifacts lists model artifacts followed by the scaler.
func (r *Registry) Artifacts() []ArtifactInfo {
	out := make([]ArtifactInfo, 0, len(r.artifacts)+1)
	for _, id := range Models() {
		out = append(out, r.artifacts[id])
	}
	return append(out, r.scalerInfo)
}
