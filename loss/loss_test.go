package loss_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/loss"
)

func TestMSEZeroWhenEqual(t *testing.T) {
	fn, err := loss.Resolve[float64](loss.MSE)
	require.NoError(t, err)

	grad := make([]float64, 2)
	l, err := fn([]float64{0.2, 0.8}, []float64{0.2, 0.8}, grad, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, l)
	assert.Equal(t, []float64{0, 0}, grad)
}

func TestMSEShapeMismatch(t *testing.T) {
	fn, err := loss.Resolve[float64](loss.MSE)
	require.NoError(t, err)

	_, err = fn([]float64{1}, []float64{1, 2}, make([]float64, 2), 1)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ShapeMismatch))
}

func TestMSEGradientSign(t *testing.T) {
	fn, err := loss.Resolve[float64](loss.MSE)
	require.NoError(t, err)

	grad := make([]float64, 1)
	_, err = fn([]float64{1.0}, []float64{0.0}, grad, 1)
	require.NoError(t, err)
	// gradient is -2/L*(expected-actual); actual below expected gives a
	// negative gradient (push actual up).
	assert.Less(t, grad[0], 0.0)
}

func TestCategoricalCrossEntropyOneHot(t *testing.T) {
	fn, err := loss.Resolve[float64](loss.CategoricalCrossEntropy)
	require.NoError(t, err)

	expected := []float64{0, 1, 0}
	actual := []float64{0, 0, 0}
	grad := make([]float64, 3)
	l, err := fn(expected, actual, grad, 1)
	require.NoError(t, err)
	// uniform logits: softmax is 1/3 each, loss = log(3) - 0.
	assert.InDelta(t, 1.0986122886681098, l, 1e-9)
	assert.InDelta(t, 1.0/3.0, grad[1]+expected[1], 1e-9)
}

func TestCategoricalCrossEntropyNoOneHotDefaultsLossToZero(t *testing.T) {
	fn, err := loss.Resolve[float64](loss.CategoricalCrossEntropy)
	require.NoError(t, err)

	expected := []float64{0.2, 0.3, 0.4}
	actual := []float64{0, 0, 0}
	grad := make([]float64, 3)
	l, err := fn(expected, actual, grad, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, l)
	// the softmax gradient is still computed even though loss is reported
	// as zero; see SPEC_FULL.md / DESIGN.md for this open-question decision.
	assert.InDelta(t, 1.0/3.0-0.2, grad[0], 1e-9)
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, loss.Argmax([]float64{0.1, 0.2, 0.9}))
	assert.Equal(t, -1, loss.Argmax([]float64{}))
}

func TestSoftmaxSumsToOne(t *testing.T) {
	x := []float64{1, 2, 3}
	out := make([]float64, 3)
	loss.Softmax(x, out)
	sum := out[0] + out[1] + out[2]
	assert.InDelta(t, 1.0, sum, 1e-9)
}
