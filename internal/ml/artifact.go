package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrShape is returned when an input row or artifact has the wrong dimensions.
var ErrShape = errors.New("shape mismatch")

// Kind names the serialized estimator type.
type Kind string

const (
	KindLinear         Kind = "linear"
	KindTree           Kind = "tree"
	KindForest         Kind = "forest"
	KindSVR            Kind = "svr"
	KindStandardScaler Kind = "standard"
	KindMinMaxScaler   Kind = "minmax"
)

// ArtifactMetadata describes how an artifact was produced.
type ArtifactMetadata struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	Features     []string  `json:"features"`
	TrainingRows int       `json:"training_rows"`
}

// Artifact is the on-disk envelope shared by every model and scaler file.
type Artifact struct {
	Kind     Kind             `json:"kind"`
	Metadata ArtifactMetadata `json:"metadata"`
	Params   json.RawMessage  `json:"params"`
}

// NewArtifact encodes params into an envelope.
func NewArtifact(kind Kind, md ArtifactMetadata, params any) (Artifact, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Artifact{}, fmt.Errorf("encode %s params: %w", kind, err)
	}
	return Artifact{Kind: kind, Metadata: md, Params: raw}, nil
}

// ReadArtifact decodes the envelope at path. Params are left raw.
func ReadArtifact(path string) (Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return Artifact{}, err
	}
	defer file.Close()

	var a Artifact
	if err := json.NewDecoder(file).Decode(&a); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if a.Kind == "" {
		return Artifact{}, fmt.Errorf("artifact %s: missing kind", path)
	}
	return a, nil
}

// WriteArtifact stores a as indented JSON.
func WriteArtifact(path string, a Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Predictor decodes the params into an evaluable model.
func (a Artifact) Predictor() (Predictor, error) {
	switch a.Kind {
	case KindLinear:
		var p LinearParams
		if err := json.Unmarshal(a.Params, &p); err != nil {
			return nil, fmt.Errorf("decode linear params: %w", err)
		}
		return NewLinear(p)
	case KindTree:
		var p TreeParams
		if err := json.Unmarshal(a.Params, &p); err != nil {
			return nil, fmt.Errorf("decode tree params: %w", err)
		}
		return NewTree(p)
	case KindForest:
		var p ForestParams
		if err := json.Unmarshal(a.Params, &p); err != nil {
			return nil, fmt.Errorf("decode forest params: %w", err)
		}
		return NewForest(p)
	case KindSVR:
		var p SVRParams
		if err := json.Unmarshal(a.Params, &p); err != nil {
			return nil, fmt.Errorf("decode svr params: %w", err)
		}
		return NewSVR(p)
	default:
		return nil, fmt.Errorf("artifact kind %q is not a predictor", a.Kind)
	}
}

// Scaler decodes the params into a fitted scaler.
func (a Artifact) Scaler() (Scaler, error) {
	var p ScalerParams
	if err := json.Unmarshal(a.Params, &p); err != nil {
		return nil, fmt.Errorf("decode %s scaler params: %w", a.Kind, err)
	}
	switch a.Kind {
	case KindStandardScaler:
		return NewStandardScaler(p)
	case KindMinMaxScaler:
		return NewMinMaxScaler(p)
	default:
		return nil, fmt.Errorf("artifact kind %q is not a scaler", a.Kind)
	}
}

func checkWidth(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: expected %d features, got %d", ErrShape, want, got)
	}
	return nil
}
