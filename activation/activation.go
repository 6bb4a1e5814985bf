// Package activation provides the closed registry of named activation
// functions and their derivatives used by the parameter-mapping engine's
// layers.
package activation

import (
	"math"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
)

// Float is the numeric type every layer of the engine is generic over.
type Float interface {
	~float32 | ~float64
}

// Kind names one of the closed set of supported activations.
type Kind int

const (
	Sigmoid Kind = iota
	Tanh
	Linear
	ReLU
	HardSigmoid
	HardTanh
	HardSwish
)

func (k Kind) String() string {
	switch k {
	case Sigmoid:
		return "Sigmoid"
	case Tanh:
		return "Tanh"
	case Linear:
		return "Linear"
	case ReLU:
		return "ReLU"
	case HardSigmoid:
		return "HardSigmoid"
	case HardTanh:
		return "HardTanh"
	case HardSwish:
		return "HardSwish"
	default:
		return "Unknown"
	}
}

// leakySlope is the slope ReLU applies on the negative side, matching the
// original implementation's leaky variant rather than a hard zero.
const leakySlope = 0.01

// Pair bundles an activation's forward function with its derivative. Both
// are pure functions of a single pre-activation value.
type Pair[F Float] struct {
	Forward func(F) F
	Deriv   func(F) F
}

// Resolve looks up the Pair for kind. Requesting an unknown Kind fails with
// errs.InvalidConfig; the registry itself is immutable and has no teardown.
func Resolve[F Float](kind Kind) (Pair[F], error) {
	switch kind {
	case Sigmoid:
		return Pair[F]{Forward: sigmoid[F], Deriv: sigmoidDeriv[F]}, nil
	case Tanh:
		return Pair[F]{Forward: tanhFn[F], Deriv: tanhDeriv[F]}, nil
	case Linear:
		return Pair[F]{Forward: linear[F], Deriv: linearDeriv[F]}, nil
	case ReLU:
		return Pair[F]{Forward: relu[F], Deriv: reluDeriv[F]}, nil
	case HardSigmoid:
		return Pair[F]{Forward: hardSigmoid[F], Deriv: hardSigmoidDeriv[F]}, nil
	case HardTanh:
		return Pair[F]{Forward: hardTanh[F], Deriv: hardTanhDeriv[F]}, nil
	case HardSwish:
		return Pair[F]{Forward: hardSwish[F], Deriv: hardSwishDeriv[F]}, nil
	default:
		return Pair[F]{}, errs.New(errs.InvalidConfig, "activation: unknown kind %v", kind)
	}
}

func clip[F Float](x, lo, hi F) F {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func sigmoid[F Float](x F) F {
	return F(1 / (1 + math.Exp(-float64(x))))
}

func sigmoidDeriv[F Float](x F) F {
	s := sigmoid(x)
	return s * (1 - s)
}

func tanhFn[F Float](x F) F {
	return F(math.Tanh(float64(x)))
}

func tanhDeriv[F Float](x F) F {
	t := tanhFn(x)
	return 1 - t*t
}

func linear[F Float](x F) F { return x }

func linearDeriv[F Float](_ F) F { return 1 }

// relu applies a 0.01 leak on the negative side rather than a hard zero.
func relu[F Float](x F) F {
	if x >= 0 {
		return x
	}
	return F(leakySlope) * x
}

func reluDeriv[F Float](x F) F {
	if x >= 0 {
		return 1
	}
	return F(leakySlope)
}

// hardSigmoid is clip((x+3)/6, 0, 1).
func hardSigmoid[F Float](x F) F {
	return clip((x+3)/6, F(0), F(1))
}

func hardSigmoidDeriv[F Float](x F) F {
	if x < -3 || x >= 3 {
		return 0
	}
	return F(1.0 / 6.0)
}

// hardTanh is clip(x, -1, 1).
func hardTanh[F Float](x F) F {
	return clip(x, F(-1), F(1))
}

func hardTanhDeriv[F Float](x F) F {
	if x < -1 || x >= 1 {
		return 0
	}
	return 1
}

// hardSwish is x*hardSigmoid(x) on [-3,3], 0 below, identity above.
func hardSwish[F Float](x F) F {
	switch {
	case x <= -3:
		return 0
	case x >= 3:
		return x
	default:
		return x * hardSigmoid(x)
	}
}

// hardSwishDeriv uses the right-hand derivative at the kinks, consistent
// with the forward's piecewise definition.
func hardSwishDeriv[F Float](x F) F {
	switch {
	case x < -3:
		return 0
	case x >= 3:
		return 1
	default:
		// d/dx [x * clip((x+3)/6, 0, 1)] on the linear middle region.
		return hardSigmoid(x) + x*F(1.0/6.0)
	}
}
