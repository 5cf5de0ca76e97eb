// Package predict turns a completed feature form into a quantity estimate.
package predict

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"demand-dashboard/internal/features"
	"demand-dashboard/internal/ml"
)

// Display strings.
const (
	MsgIncomplete    = "⚠️ Please fill in all fields."
	msgSuccessFormat = "✅ Quantity Needed: %.2f units."
	MsgErrorPrefix   = "❌ Error: "
)

// QuantityFactor converts the raw model output into units.
const QuantityFactor = 10.0

// ErrIncompleteInput is returned when any slot is missing.
var ErrIncompleteInput = errors.New("incomplete input")

// Computation stages reported in ComputationError.
const (
	StageParse   = "parse"
	StageModel   = "model"
	StageScale   = "scale"
	StagePredict = "predict"
	StageOutput  = "output"
)

// ComputationError wraps any failure after the input was accepted.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *ComputationError) Unwrap() error { return e.Err }

// Result is the outcome of one prediction request.
type Result struct {
	Quantity float64
	Err      error
}

// OK reports whether the result carries a quantity.
func (r Result) OK() bool { return r.Err == nil }

// Message is the user-facing line for the result.
func (r Result) Message() string {
	switch {
	case r.Err == nil:
		return FormatQuantity(r.Quantity)
	case errors.Is(r.Err, ErrIncompleteInput):
		return MsgIncomplete
	default:
		return MsgErrorPrefix + r.Err.Error()
	}
}

// FormatQuantity renders a quantity with two decimals.
func FormatQuantity(q float64) string {
	return fmt.Sprintf(msgSuccessFormat, q)
}

// Resolver provides the models and scaler a Handler needs.
type Resolver interface {
	Resolve(name string) (ml.Predictor, error)
	Scaler() ml.Scaler
}

// Handler runs predictions against a read-only Resolver. It keeps no state
// between calls and is safe for concurrent use.
type Handler struct {
	models Resolver
}

func NewHandler(models Resolver) *Handler {
	return &Handler{models: models}
}

// Predict validates values, scales UnitPrice and CountryCode, runs the selected model
// and converts its output into a quantity.
func (h *Handler) Predict(modelName string, values features.Values) (res Result) {
	vec, ok := values.Complete()
	if !ok {
		return Result{Err: ErrIncompleteInput}
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &ComputationError{Stage: StagePredict, Err: fmt.Errorf("model panicked: %v", r)}}
		}
	}()

	q, err := h.compute(modelName, vec)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Quantity: q}
}

// PredictRaw parses form text and predicts. A blank field reports incomplete input
// even when another field is malformed.
func (h *Handler) PredictRaw(modelName string, raw [features.SlotCount]string) Result {
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			return Result{Err: ErrIncompleteInput}
		}
	}
	values, err := features.ParseValues(raw)
	if err != nil {
		return Result{Err: &ComputationError{Stage: StageParse, Err: err}}
	}
	return h.Predict(modelName, values)
}

func (h *Handler) compute(modelName string, vec features.Vector) (float64, error) {
	predictor, err := h.models.Resolve(modelName)
	if err != nil {
		return 0, &ComputationError{Stage: StageModel, Err: err}
	}

	scaler := h.models.Scaler()
	if scaler == nil {
		return 0, &ComputationError{Stage: StageScale, Err: errors.New("no scaler loaded")}
	}
	in := make([]float64, len(features.ScaledSlots))
	for i, s := range features.ScaledSlots {
		in[i] = vec[s]
	}
	scaled, err := scaler.Transform(in)
	if err != nil {
		return 0, &ComputationError{Stage: StageScale, Err: err}
	}
	if len(scaled) != len(features.ScaledSlots) {
		return 0, &ComputationError{Stage: StageScale, Err: fmt.Errorf("%w: scaler returned %d values", ml.ErrShape, len(scaled))}
	}
	for i, s := range features.ScaledSlots {
		vec[s] = scaled[i]
	}

	out, err := predictor.Predict(vec[:])
	if err != nil {
		return 0, &ComputationError{Stage: StagePredict, Err: err}
	}
	if len(out) == 0 {
		return 0, &ComputationError{Stage: StageOutput, Err: fmt.Errorf("%w: model returned no output", ml.ErrShape)}
	}
	raw := out[0]
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, &ComputationError{Stage: StageOutput, Err: fmt.Errorf("model returned non-finite value %v", raw)}
	}

	return math.Abs(raw * QuantityFactor), nil
}
