package ml

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinear_Predict(t *testing.T) {
	m, err := NewLinear(LinearParams{Coef: []float64{1, 2, 3, 4, 5}, Intercept: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 5, m.NumFeatures())

	out, err := m.Predict([]float64{1, 1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{15.5}, out)

	_, err = m.Predict([]float64{1, 1})
	assert.True(t, errors.Is(err, ErrShape))

	_, err = NewLinear(LinearParams{})
	assert.Error(t, err)
}

func TestTree_Predict(t *testing.T) {
	tree, err := NewTree(TreeParams{
		NFeatures: 5,
		Nodes: []TreeNode{
			{Feature: 1, Threshold: 0, Left: 1, Right: 2},
			{Leaf: true, Value: 3},
			{Leaf: true, Value: 7},
		},
	})
	require.NoError(t, err)

	testCases := []struct {
		name string
		x    []float64
		want float64
	}{
		{"equal goes left", []float64{0, 0, 0, 0, 0}, 3},
		{"below goes left", []float64{0, -1, 0, 0, 0}, 3},
		{"above goes right", []float64{0, 0.1, 0, 0, 0}, 7},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := tree.Predict(tc.x)
			require.NoError(t, err)
			assert.Equal(t, []float64{tc.want}, out)
		})
	}
}

func TestTree_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		params TreeParams
	}{
		{"no nodes", TreeParams{NFeatures: 5}},
		{"no features", TreeParams{Nodes: []TreeNode{{Leaf: true}}}},
		{"backward child", TreeParams{NFeatures: 5, Nodes: []TreeNode{
			{Feature: 0, Left: 0, Right: 1},
			{Leaf: true},
		}}},
		{"child out of range", TreeParams{NFeatures: 5, Nodes: []TreeNode{
			{Feature: 0, Left: 1, Right: 5},
			{Leaf: true},
		}}},
		{"feature out of range", TreeParams{NFeatures: 5, Nodes: []TreeNode{
			{Feature: 5, Left: 1, Right: 2},
			{Leaf: true},
			{Leaf: true},
		}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTree(tc.params)
			assert.True(t, errors.Is(err, ErrShape), "got %v", err)
		})
	}
}

func TestForest_MeanOfTrees(t *testing.T) {
	f, err := NewForest(ForestParams{
		NFeatures: 5,
		Trees: []TreeParams{
			{Nodes: []TreeNode{{Leaf: true, Value: 1}}},
			{Nodes: []TreeNode{{Leaf: true, Value: 2}}},
		},
	})
	require.NoError(t, err)

	out, err := f.Predict(make([]float64, 5))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, out)

	_, err = NewForest(ForestParams{NFeatures: 5})
	assert.Error(t, err)

	_, err = NewForest(ForestParams{NFeatures: 5, Trees: []TreeParams{
		{NFeatures: 3, Nodes: []TreeNode{{Leaf: true}}},
	}})
	assert.True(t, errors.Is(err, ErrShape))
}

func TestSVR_Predict(t *testing.T) {
	t.Run("linear kernel", func(t *testing.T) {
		m, err := NewSVR(SVRParams{
			Kernel:         KernelLinear,
			SupportVectors: [][]float64{{1, 0, 0, 0, 0}},
			DualCoef:       []float64{2},
			Intercept:      1,
		})
		require.NoError(t, err)

		out, err := m.Predict([]float64{3, 9, 9, 9, 9})
		require.NoError(t, err)
		assert.Equal(t, []float64{7}, out)
	})

	t.Run("rbf kernel", func(t *testing.T) {
		m, err := NewSVR(SVRParams{
			Kernel:         KernelRBF,
			Gamma:          0.5,
			SupportVectors: [][]float64{{0, 0, 0, 0, 0}},
			DualCoef:       []float64{2},
			Intercept:      1,
		})
		require.NoError(t, err)

		out, err := m.Predict([]float64{0, 0, 0, 0, 0})
		require.NoError(t, err)
		assert.InDelta(t, 3.0, out[0], 1e-12)

		out, err = m.Predict([]float64{1, 0, 0, 0, 0})
		require.NoError(t, err)
		assert.InDelta(t, 2*math.Exp(-0.5)+1, out[0], 1e-12)
	})

	t.Run("invalid params", func(t *testing.T) {
		_, err := NewSVR(SVRParams{Kernel: "poly", SupportVectors: [][]float64{{1}}, DualCoef: []float64{1}})
		assert.Error(t, err)

		_, err = NewSVR(SVRParams{Kernel: KernelRBF, SupportVectors: [][]float64{{1}}, DualCoef: []float64{1}})
		assert.Error(t, err, "rbf without gamma")

		_, err = NewSVR(SVRParams{Kernel: KernelLinear, SupportVectors: [][]float64{{1}, {2}}, DualCoef: []float64{1}})
		assert.True(t, errors.Is(err, ErrShape))

		_, err = NewSVR(SVRParams{Kernel: KernelLinear, SupportVectors: [][]float64{{1, 2}, {2}}, DualCoef: []float64{1, 1}})
		assert.True(t, errors.Is(err, ErrShape))
	})
}

func TestScalers(t *testing.T) {
	params := ScalerParams{Center: []float64{1, 2}, Scale: []float64{2, 4}}

	t.Run("standard", func(t *testing.T) {
		s, err := NewStandardScaler(params)
		require.NoError(t, err)

		out, err := s.Transform([]float64{5, 10})
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 2}, out)

		back, err := s.InverseTransform(out)
		require.NoError(t, err)
		assert.Equal(t, []float64{5, 10}, back)
	})

	t.Run("minmax", func(t *testing.T) {
		s, err := NewMinMaxScaler(params)
		require.NoError(t, err)

		out, err := s.Transform([]float64{5, 10})
		require.NoError(t, err)
		assert.Equal(t, []float64{11, 42}, out)

		back, err := s.InverseTransform(out)
		require.NoError(t, err)
		assert.Equal(t, []float64{5, 10}, back)
	})

	t.Run("width and params checked", func(t *testing.T) {
		s, err := NewStandardScaler(params)
		require.NoError(t, err)
		_, err = s.Transform([]float64{1, 2, 3})
		assert.True(t, errors.Is(err, ErrShape))

		_, err = NewStandardScaler(ScalerParams{Center: []float64{1, 2}, Scale: []float64{0, 1}})
		assert.Error(t, err)

		_, err = NewMinMaxScaler(ScalerParams{Center: []float64{1}, Scale: []float64{1, 1}})
		assert.True(t, errors.Is(err, ErrShape))
	})

	t.Run("inputs and fitted params are not modified", func(t *testing.T) {
		std, err := NewStandardScaler(params)
		require.NoError(t, err)
		mm, err := NewMinMaxScaler(params)
		require.NoError(t, err)

		for _, s := range []Scaler{std, mm} {
			in := []float64{5.5, 2}
			_, err := s.Transform(in)
			require.NoError(t, err)
			_, err = s.InverseTransform(in)
			require.NoError(t, err)
			assert.Equal(t, []float64{5.5, 2}, in)

			again, err := s.Transform([]float64{5, 10})
			require.NoError(t, err)
			first, err := s.Transform([]float64{5, 10})
			require.NoError(t, err)
			assert.Equal(t, first, again)

			_, err = s.InverseTransform([]float64{1})
			assert.True(t, errors.Is(err, ErrShape))
		}
		assert.Equal(t, []float64{1, 2}, params.Center)
		assert.Equal(t, []float64{2, 4}, params.Scale)
	})
}

func TestArtifact_Decode(t *testing.T) {
	a, err := NewArtifact(KindLinear, ArtifactMetadata{Version: "v1"}, LinearParams{Coef: []float64{1, 1, 1, 1, 1}})
	require.NoError(t, err)

	p, err := a.Predictor()
	require.NoError(t, err)
	assert.Equal(t, 5, p.NumFeatures())

	_, err = a.Scaler()
	assert.Error(t, err, "linear artifact is not a scaler")

	s, err := NewArtifact(KindMinMaxScaler, ArtifactMetadata{}, ScalerParams{Center: []float64{0, 0}, Scale: []float64{1, 1}})
	require.NoError(t, err)
	_, err = s.Predictor()
	assert.Error(t, err, "scaler artifact is not a predictor")

	bad := Artifact{Kind: KindTree, Params: []byte(`{"nodes": "oops"}`)}
	_, err = bad.Predictor()
	assert.Error(t, err)
}
