package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ScalerParams covers both scaler kinds: Center is the mean (standard) or the
// additive min term (minmax); Scale is the per-column divisor or multiplier.
type ScalerParams struct {
	Center []float64 `json:"center"`
	Scale  []float64 `json:"scale"`
}

func (p ScalerParams) validate() error {
	if len(p.Center) == 0 || len(p.Center) != len(p.Scale) {
		return fmt.Errorf("%w: scaler has %d centers and %d scales", ErrShape, len(p.Center), len(p.Scale))
	}
	for i, s := range p.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("scaler column %d has invalid scale %v", i, s)
		}
	}
	return nil
}

// StandardScaler computes (x - mean) / scale per column.
type StandardScaler struct {
	mean, scale []float64
}

func NewStandardScaler(p ScalerParams) (*StandardScaler, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &StandardScaler{
		mean:  append([]float64(nil), p.Center...),
		scale: append([]float64(nil), p.Scale...),
	}, nil
}

func (s *StandardScaler) NumFeatures() int { return len(s.mean) }

func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if err := checkWidth(len(values), len(s.mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	floats.SubTo(out, values, s.mean)
	floats.Div(out, s.scale)
	return out, nil
}

func (s *StandardScaler) InverseTransform(values []float64) ([]float64, error) {
	if err := checkWidth(len(values), len(s.mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	floats.MulTo(out, values, s.scale)
	floats.Add(out, s.mean)
	return out, nil
}

// MinMaxScaler computes x*scale + min per column.
type MinMaxScaler struct {
	min, scale []float64
}

func NewMinMaxScaler(p ScalerParams) (*MinMaxScaler, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &MinMaxScaler{
		min:   append([]float64(nil), p.Center...),
		scale: append([]float64(nil), p.Scale...),
	}, nil
}

func (s *MinMaxScaler) NumFeatures() int { return len(s.min) }

func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if err := checkWidth(len(values), len(s.min)); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	floats.MulTo(out, values, s.scale)
	floats.Add(out, s.min)
	return out, nil
}

func (s *MinMaxScaler) InverseTransform(values []float64) ([]float64, error) {
	if err := checkWidth(len(values), len(s.min)); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	floats.SubTo(out, values, s.min)
	floats.Div(out, s.scale)
	return out, nil
}
