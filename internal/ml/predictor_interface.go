// Package ml loads the pre-trained demand models and the feature scaler from
// JSON artifacts and evaluates them.
//
// Artifacts are read once at startup into an immutable Registry, so predictors
// and the scaler can be shared by concurrent requests without locking.
package ml

// Predictor evaluates a trained regression model.
// Implementations return a single-element output for one input row.
type Predictor interface {
	// Predict returns the raw model output for a feature row.
	Predict(features []float64) ([]float64, error)

	// NumFeatures is the input width the model was trained on.
	NumFeatures() int
}

// Scaler applies a fitted per-column transform.
type Scaler interface {
	Transform(values []float64) ([]float64, error)
	InverseTransform(values []float64) ([]float64, error)
	NumFeatures() int
}
