package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearParams are the fitted weights of an ordinary least squares regressor.
type LinearParams struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// Linear evaluates y = x·coef + intercept.
type Linear struct {
	coef      *mat.VecDense
	intercept float64
}

func NewLinear(p LinearParams) (*Linear, error) {
	if len(p.Coef) == 0 {
		return nil, fmt.Errorf("%w: linear model has no coefficients", ErrShape)
	}
	coef := make([]float64, len(p.Coef))
	copy(coef, p.Coef)
	return &Linear{coef: mat.NewVecDense(len(coef), coef), intercept: p.Intercept}, nil
}

func (l *Linear) NumFeatures() int { return l.coef.Len() }

func (l *Linear) Predict(features []float64) ([]float64, error) {
	if err := checkWidth(len(features), l.coef.Len()); err != nil {
		return nil, err
	}
	x := mat.NewVecDense(len(features), append([]float64(nil), features...))
	return []float64{mat.Dot(x, l.coef) + l.intercept}, nil
}
