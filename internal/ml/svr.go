package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	KernelRBF    = "rbf"
	KernelLinear = "linear"
)

// SVRParams hold a fitted epsilon-SVR: support vectors, their dual coefficients and the bias.
type SVRParams struct {
	Kernel         string      `json:"kernel"`
	Gamma          float64     `json:"gamma,omitempty"`
	SupportVectors [][]float64 `json:"support_vectors"`
	DualCoef       []float64   `json:"dual_coef"`
	Intercept      float64     `json:"intercept"`
}

// SVR evaluates f(x) = sum_i dual_i * K(sv_i, x) + intercept.
type SVR struct {
	kernel    string
	gamma     float64
	sv        [][]float64
	dual      []float64
	intercept float64
	nFeatures int
}

func NewSVR(p SVRParams) (*SVR, error) {
	switch p.Kernel {
	case KernelRBF:
		if p.Gamma <= 0 {
			return nil, fmt.Errorf("rbf kernel needs a positive gamma, got %v", p.Gamma)
		}
	case KernelLinear:
	default:
		return nil, fmt.Errorf("unsupported svr kernel %q", p.Kernel)
	}
	if len(p.SupportVectors) == 0 {
		return nil, fmt.Errorf("%w: svr has no support vectors", ErrShape)
	}
	if len(p.DualCoef) != len(p.SupportVectors) {
		return nil, fmt.Errorf("%w: %d dual coefficients for %d support vectors", ErrShape, len(p.DualCoef), len(p.SupportVectors))
	}

	width := len(p.SupportVectors[0])
	sv := make([][]float64, len(p.SupportVectors))
	for i, v := range p.SupportVectors {
		if len(v) != width || width == 0 {
			return nil, fmt.Errorf("%w: support vector %d has %d features, want %d", ErrShape, i, len(v), width)
		}
		sv[i] = append([]float64(nil), v...)
	}

	return &SVR{
		kernel:    p.Kernel,
		gamma:     p.Gamma,
		sv:        sv,
		dual:      append([]float64(nil), p.DualCoef...),
		intercept: p.Intercept,
		nFeatures: width,
	}, nil
}

func (s *SVR) NumFeatures() int { return s.nFeatures }

func (s *SVR) Predict(features []float64) ([]float64, error) {
	if err := checkWidth(len(features), s.nFeatures); err != nil {
		return nil, err
	}
	y := s.intercept
	for i, v := range s.sv {
		y += s.dual[i] * s.k(v, features)
	}
	return []float64{y}, nil
}

func (s *SVR) k(a, b []float64) float64 {
	if s.kernel == KernelLinear {
		return floats.Dot(a, b)
	}
	d := floats.Distance(a, b, 2)
	return math.Exp(-s.gamma * d * d)
}
