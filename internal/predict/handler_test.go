package predict

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-dashboard/internal/features"
	"demand-dashboard/internal/ml"
)

// fakeModels resolves every known model name to the same stub predictor.
type fakeModels struct {
	predictor *ml.StubPredictor
	scaler    *ml.StubScaler
}

func (f *fakeModels) Resolve(name string) (ml.Predictor, error) {
	if _, err := ml.ParseModel(name); err != nil {
		return nil, err
	}
	return f.predictor, nil
}

func (f *fakeModels) Scaler() ml.Scaler { return f.scaler }

func newFixture(raw float64) (*Handler, *fakeModels) {
	models := &fakeModels{
		predictor: &ml.StubPredictor{Output: []float64{raw}},
		scaler:    &ml.StubScaler{Output: []float64{0.12, -0.3}},
	}
	return NewHandler(models), models
}

func fullValues() features.Values {
	return features.Values{
		features.Some(12), features.Some(5.5), features.Some(14), features.Some(3), features.Some(2),
	}
}

func TestPredict_RandomForestScenario(t *testing.T) {
	h, models := newFixture(4.7)

	res := h.Predict("Random Forest", fullValues())

	require.NoError(t, res.Err)
	assert.InDelta(t, 47.0, res.Quantity, 1e-9)
	assert.Equal(t, "✅ Quantity Needed: 47.00 units.", res.Message())

	assert.Equal(t, []float64{5.5, 2}, models.scaler.LastInput())
	assert.Equal(t, []float64{12, 0.12, 14, 3, -0.3}, models.predictor.LastInput())
}

func TestPredict_MissingInputInvokesNothing(t *testing.T) {
	h, models := newFixture(4.7)

	values := fullValues()
	values[features.UnitPrice] = nil

	res := h.Predict("Random Forest", values)

	assert.True(t, errors.Is(res.Err, ErrIncompleteInput))
	assert.Equal(t, "⚠️ Please fill in all fields.", res.Message())
	assert.Zero(t, models.scaler.Calls())
	assert.Zero(t, models.predictor.Calls())
}

func TestPredict_MissingInputWinsOverUnknownModel(t *testing.T) {
	h, _ := newFixture(1)

	res := h.Predict("", features.Values{})
	assert.Equal(t, MsgIncomplete, res.Message())
}

func TestPredict_NegativeOutputIsAbsolute(t *testing.T) {
	h, _ := newFixture(-2.0)

	res := h.Predict("SVM", fullValues())

	require.NoError(t, res.Err)
	assert.Equal(t, "✅ Quantity Needed: 20.00 units.", res.Message())
}

func TestPredict_QuantityNeverNegative(t *testing.T) {
	for _, raw := range []float64{-1e6, -3.14159, -0.0, 0, 0.004, 1e6} {
		h, _ := newFixture(raw)
		res := h.Predict("Logistic Regression", fullValues())
		require.NoError(t, res.Err)
		assert.GreaterOrEqual(t, res.Quantity, 0.0)
		assert.Equal(t, math.Abs(raw*10), res.Quantity)
		assert.False(t, strings.Contains(res.Message(), "-"), res.Message())
	}
}

func TestPredict_TwoDecimalFormatting(t *testing.T) {
	testCases := []struct {
		raw  float64
		want string
	}{
		{0.12345, "✅ Quantity Needed: 1.23 units."},
		{1, "✅ Quantity Needed: 10.00 units."},
		{0.0004, "✅ Quantity Needed: 0.00 units."},
		{123.456, "✅ Quantity Needed: 1234.56 units."},
	}
	for _, tc := range testCases {
		h, _ := newFixture(tc.raw)
		assert.Equal(t, tc.want, h.Predict("SVM", fullValues()).Message())
	}
}

func TestPredict_UnscaledSlotsPassThrough(t *testing.T) {
	h, models := newFixture(1)

	values := features.Values{
		features.Some(math.Nextafter(7, 8)),
		features.Some(1),
		features.Some(-0.1),
		features.Some(1e-300),
		features.Some(1),
	}
	h.Predict("SVM", values)

	got := models.predictor.LastInput()
	require.Len(t, got, features.SlotCount)
	for _, s := range []features.Slot{features.ProductCode, features.Hour, features.DayOfWeek} {
		assert.Equal(t, math.Float64bits(*values[s]), math.Float64bits(got[s]), s.String())
	}
}

func TestPredict_ComputationFailures(t *testing.T) {
	boom := errors.New("feature mismatch")

	testCases := []struct {
		name      string
		model     string
		predictor *ml.StubPredictor
		scaler    *ml.StubScaler
		stage     string
		contains  string
	}{
		{
			name:      "predictor error",
			model:     "SVM",
			predictor: &ml.StubPredictor{Err: boom},
			scaler:    &ml.StubScaler{},
			stage:     StagePredict,
			contains:  "feature mismatch",
		},
		{
			name:      "scaler error",
			model:     "SVM",
			predictor: &ml.StubPredictor{Output: []float64{1}},
			scaler:    &ml.StubScaler{Err: boom},
			stage:     StageScale,
			contains:  "feature mismatch",
		},
		{
			name:      "unknown model",
			model:     "Gradient Boosting",
			predictor: &ml.StubPredictor{Output: []float64{1}},
			scaler:    &ml.StubScaler{},
			stage:     StageModel,
			contains:  "Gradient Boosting",
		},
		{
			name:      "empty output",
			model:     "SVM",
			predictor: &ml.StubPredictor{Output: []float64{}},
			scaler:    &ml.StubScaler{},
			stage:     StageOutput,
			contains:  "no output",
		},
		{
			name:      "nan output",
			model:     "SVM",
			predictor: &ml.StubPredictor{Output: []float64{math.NaN()}},
			scaler:    &ml.StubScaler{},
			stage:     StageOutput,
			contains:  "non-finite",
		},
		{
			name:      "infinite output",
			model:     "SVM",
			predictor: &ml.StubPredictor{Output: []float64{math.Inf(-1)}},
			scaler:    &ml.StubScaler{},
			stage:     StageOutput,
			contains:  "non-finite",
		},
		{
			name:      "scaler shape",
			model:     "SVM",
			predictor: &ml.StubPredictor{Output: []float64{1}},
			scaler:    &ml.StubScaler{Output: []float64{1, 2, 3}},
			stage:     StageScale,
			contains:  "shape",
		},
		{
			name:      "model panic",
			model:     "SVM",
			predictor: &ml.StubPredictor{Panic: "index out of range"},
			scaler:    &ml.StubScaler{},
			stage:     StagePredict,
			contains:  "index out of range",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&fakeModels{predictor: tc.predictor, scaler: tc.scaler})

			res := h.Predict(tc.model, fullValues())

			require.Error(t, res.Err)
			var cerr *ComputationError
			require.True(t, errors.As(res.Err, &cerr))
			assert.Equal(t, tc.stage, cerr.Stage)
			assert.True(t, strings.HasPrefix(res.Message(), "❌ Error: "), res.Message())
			assert.Contains(t, res.Message(), tc.contains)
			assert.False(t, res.OK())
		})
	}
}

func TestPredict_UnknownModelWrapsSentinel(t *testing.T) {
	h, _ := newFixture(1)
	res := h.Predict("Gradient Boosting", fullValues())
	assert.True(t, errors.Is(res.Err, ml.ErrUnknownModel))
}

func TestPredict_Idempotent(t *testing.T) {
	h, _ := newFixture(4.7)

	first := h.Predict("Random Forest", fullValues())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, h.Predict("Random Forest", fullValues()))
	}
}

func TestPredict_Concurrent(t *testing.T) {
	h, models := newFixture(4.7)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := h.Predict("Random Forest", fullValues())
			assert.Equal(t, "✅ Quantity Needed: 47.00 units.", res.Message())
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, models.predictor.Calls())
}

func TestPredictRaw(t *testing.T) {
	testCases := []struct {
		name string
		raw  [features.SlotCount]string
		want string
	}{
		{"complete", [features.SlotCount]string{"12", "5.5", "14", "3", "2"}, "✅ Quantity Needed: 47.00 units."},
		{"blank slot", [features.SlotCount]string{"12", "", "14", "3", "2"}, MsgIncomplete},
		{"whitespace slot", [features.SlotCount]string{"12", "5.5", "  ", "3", "2"}, MsgIncomplete},
		{"blank beats malformed", [features.SlotCount]string{"abc", "", "14", "3", "2"}, MsgIncomplete},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newFixture(4.7)
			assert.Equal(t, tc.want, h.PredictRaw("Random Forest", tc.raw).Message())
		})
	}

	t.Run("malformed slot", func(t *testing.T) {
		h, models := newFixture(4.7)
		res := h.PredictRaw("Random Forest", [features.SlotCount]string{"12", "five", "14", "3", "2"})

		var cerr *ComputationError
		require.True(t, errors.As(res.Err, &cerr))
		assert.Equal(t, StageParse, cerr.Stage)
		assert.True(t, strings.HasPrefix(res.Message(), MsgErrorPrefix))
		assert.Zero(t, models.predictor.Calls())
	})
}

func TestPredict_WithSampleArtifacts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ml.WriteSampleArtifacts(dir, testTime))
	reg, err := ml.LoadRegistry(dir)
	require.NoError(t, err)

	h := NewHandler(reg)
	for _, name := range ml.ModelNames() {
		res := h.Predict(name, fullValues())
		require.NoError(t, res.Err, name)
		assert.True(t, strings.HasPrefix(res.Message(), "✅ Quantity Needed: "), res.Message())
	}
}
