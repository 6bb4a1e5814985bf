package iml_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iml "github.com/monkey-w1n5t0n/MEMLNaut-NISPS"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/loss"
)

func TestNewMLPRejectsTooFewLayerSizes(t *testing.T) {
	_, err := iml.NewMLP[float64]([]int{3}, nil, loss.MSE, false, 0, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidConfig))
}

func TestNewMLPRejectsMismatchedActivationCount(t *testing.T) {
	_, err := iml.NewMLP[float64]([]int{3, 4, 2}, []activation.Kind{activation.Tanh}, loss.MSE, false, 0, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidConfig))
}

func TestMLPForwardWidth(t *testing.T) {
	m, err := iml.NewMLP[float64]([]int{3, 5, 2}, []activation.Kind{activation.Tanh, activation.Sigmoid}, loss.MSE, false, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	out, err := m.Forward([]float64{0.1, 0.2, 0.3}, nil, false)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestMLPForwardShapeMismatch(t *testing.T) {
	m, err := iml.NewMLP[float64]([]int{3, 2}, []activation.Kind{activation.Linear}, loss.MSE, true, 0, nil)
	require.NoError(t, err)

	_, err = m.Forward([]float64{1, 2}, nil, false)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ShapeMismatch))
}

func TestMLPSoftmaxOnlyForInferenceCrossEntropyMultiOutput(t *testing.T) {
	m, err := iml.NewMLP[float64]([]int{2, 3}, []activation.Kind{activation.Linear}, loss.CategoricalCrossEntropy, true, 1, nil)
	require.NoError(t, err)

	trainTime, err := m.Forward([]float64{1, 1}, nil, false)
	require.NoError(t, err)
	inferTime, err := m.Forward([]float64{1, 1}, nil, true)
	require.NoError(t, err)

	var trainSum, inferSum float64
	for _, v := range trainTime {
		trainSum += v
	}
	for _, v := range inferTime {
		inferSum += v
	}
	assert.NotEqual(t, trainSum, inferSum)
	assert.InDelta(t, 1.0, inferSum, 1e-9)
}

func TestMLPTrainEmptyDatasetIsEmptyInputError(t *testing.T) {
	m, err := iml.NewMLP[float64]([]int{1, 1}, []activation.Kind{activation.Linear}, loss.MSE, true, 0, nil)
	require.NoError(t, err)

	err = m.Train(nil, nil, 0.1, 10, 0, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.EmptyInput))
}

func TestMLPTrainConvergesOnIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m, err := iml.NewMLP[float64]([]int{2, 8, 1}, []activation.Kind{activation.Tanh, activation.Sigmoid}, loss.MSE, false, 0, rng)
	require.NoError(t, err)

	features := [][]float64{{0.1, 1}, {0.5, 1}, {0.9, 1}}
	labels := [][]float64{{0.1}, {0.5}, {0.9}}

	err = m.Train(features, labels, 0.5, 4000, 1e-6, nil)
	require.NoError(t, err)

	for i, f := range features {
		out, err := m.Forward(f, nil, false)
		require.NoError(t, err)
		assert.InDelta(t, labels[i][0], out[0], 0.2)
	}
}

func TestMLPTrainBatchAppliesGlobalNormClip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m, err := iml.NewMLP[float64]([]int{1, 1}, []activation.Kind{activation.Linear}, loss.MSE, true, 100, rng)
	require.NoError(t, err)

	features := [][]float64{{1}}
	labels := [][]float64{{-1000}}

	err = m.TrainBatch(features, labels, 1, 1, -1, 1, nil)
	require.NoError(t, err)

	w := m.GetWeights()
	// with a single huge-error sample and batch size 1, the clipped
	// gradient norm bounds how far the weight can move in one apply step;
	// it must not explode to anywhere near the raw error magnitude.
	assert.False(t, math.IsNaN(w[0][0][0]))
	assert.Less(t, math.Abs(w[0][0][0]), 200.0)
}

func TestMLPSanitiseAllFixesCorruption(t *testing.T) {
	m, err := iml.NewMLP[float64]([]int{1, 1}, []activation.Kind{activation.Linear}, loss.MSE, true, 1, nil)
	require.NoError(t, err)

	w := m.GetWeights()
	w[0][0][0] = math.NaN()
	m.SetWeights(w)

	corrupted := m.SanitiseAll()
	assert.True(t, corrupted)
	assert.Equal(t, 0.0, m.GetWeights()[0][0][0])
}

func TestMLPTrainReportsCorruptionThroughLogHook(t *testing.T) {
	m, err := iml.NewMLP[float64]([]int{1, 1}, []activation.Kind{activation.Linear}, loss.MSE, true, 1, nil)
	require.NoError(t, err)

	w := m.GetWeights()
	w[0][0][0] = math.NaN()
	m.SetWeights(w)

	var messages []string
	m.SetLogger(func(msg string) { messages = append(messages, msg) })

	err = m.Train([][]float64{{1}}, [][]float64{{1}}, 0.1, 1, -1, nil)
	require.NoError(t, err)

	require.NotEmpty(t, messages)
	assert.Equal(t, 0.0, m.GetWeights()[0][0][0])
}

func TestMLPGetSetWeightsRoundTripIsForwardNoOp(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	m, err := iml.NewMLP[float64]([]int{2, 4, 2}, []activation.Kind{activation.Tanh, activation.Linear}, loss.MSE, false, 0, rng)
	require.NoError(t, err)

	before, err := m.Forward([]float64{0.3, 0.7}, nil, false)
	require.NoError(t, err)

	m.SetWeights(m.GetWeights())

	after, err := m.Forward([]float64{0.3, 0.7}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
