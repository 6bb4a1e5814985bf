package activation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
)

func TestResolveUnknownKind(t *testing.T) {
	_, err := activation.Resolve[float64](activation.Kind(999))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidConfig))
}

func TestSigmoidForwardAndDeriv(t *testing.T) {
	pair, err := activation.Resolve[float64](activation.Sigmoid)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, pair.Forward(0), 1e-9)
	assert.InDelta(t, 0.25, pair.Deriv(0), 1e-9)
}

func TestLinearIsIdentity(t *testing.T) {
	pair, err := activation.Resolve[float64](activation.Linear)
	require.NoError(t, err)

	assert.Equal(t, 3.5, pair.Forward(3.5))
	assert.Equal(t, 1.0, pair.Deriv(3.5))
}

func TestReLULeak(t *testing.T) {
	pair, err := activation.Resolve[float64](activation.ReLU)
	require.NoError(t, err)

	assert.InDelta(t, -0.01, pair.Forward(-1), 1e-9)
	assert.Equal(t, 2.0, pair.Forward(2))
	assert.InDelta(t, 0.01, pair.Deriv(-1), 1e-9)
	assert.Equal(t, 1.0, pair.Deriv(2))
}

func TestHardSigmoidClips(t *testing.T) {
	pair, err := activation.Resolve[float64](activation.HardSigmoid)
	require.NoError(t, err)

	assert.Equal(t, 0.0, pair.Forward(-5))
	assert.Equal(t, 1.0, pair.Forward(5))
	assert.InDelta(t, 0.5, pair.Forward(0), 1e-9)
}

func TestHardTanhClips(t *testing.T) {
	pair, err := activation.Resolve[float64](activation.HardTanh)
	require.NoError(t, err)

	assert.Equal(t, -1.0, pair.Forward(-5))
	assert.Equal(t, 1.0, pair.Forward(5))
	assert.Equal(t, 0.5, pair.Forward(0.5))
}

func TestHardSwishRegions(t *testing.T) {
	pair, err := activation.Resolve[float64](activation.HardSwish)
	require.NoError(t, err)

	assert.Equal(t, 0.0, pair.Forward(-4))
	assert.Equal(t, 4.0, pair.Forward(4))
	// x * hardsigmoid(x) at x=0 is 0.
	assert.InDelta(t, 0.0, pair.Forward(0), 1e-9)
}

// Upper-kink derivatives use the right-hand (outer-region) value at the
// exact boundary, consistent with ReLU's x>=0 convention.
func TestDerivUpperKinksUseRightHandValue(t *testing.T) {
	hardSigmoid, err := activation.Resolve[float64](activation.HardSigmoid)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hardSigmoid.Deriv(3))

	hardTanh, err := activation.Resolve[float64](activation.HardTanh)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hardTanh.Deriv(1))

	hardSwish, err := activation.Resolve[float64](activation.HardSwish)
	require.NoError(t, err)
	assert.Equal(t, 1.0, hardSwish.Deriv(3))
}
