// Package loss provides the closed registry of named loss functions used by
// the parameter-mapping engine's MLP. Each loss both returns a scalar and
// writes the per-output gradient into a caller-supplied slice.
package loss

import (
	"math"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
)

// Float is the numeric type the loss registry is generic over, re-exported
// from activation so callers importing only loss don't need to import
// activation as well.
type Float = activation.Float

// Kind names one of the closed set of supported losses.
type Kind int

const (
	MSE Kind = iota
	CategoricalCrossEntropy
)

func (k Kind) String() string {
	switch k {
	case MSE:
		return "MSE"
	case CategoricalCrossEntropy:
		return "CategoricalCrossEntropy"
	default:
		return "Unknown"
	}
}

// Func computes the scalar loss for one sample and writes dE/d(actual_j)
// into outGrad (which must already be sized len(actual)). sampleScale
// multiplies both the returned loss and the written gradient, letting
// callers fold in a 1/N averaging factor without a second pass.
type Func[F Float] func(expected, actual, outGrad []F, sampleScale F) (F, error)

// Resolve looks up the Func for kind. An unknown Kind fails with
// errs.InvalidConfig.
func Resolve[F Float](kind Kind) (Func[F], error) {
	switch kind {
	case MSE:
		return mse[F], nil
	case CategoricalCrossEntropy:
		return categoricalCrossEntropy[F], nil
	default:
		return nil, errs.New(errs.InvalidConfig, "loss: unknown kind %v", kind)
	}
}

func mse[F Float](expected, actual, outGrad []F, sampleScale F) (F, error) {
	if len(expected) != len(actual) || len(outGrad) != len(actual) {
		return 0, errs.New(errs.ShapeMismatch, "loss: MSE shape mismatch (expected=%d actual=%d grad=%d)", len(expected), len(actual), len(outGrad))
	}
	n := F(len(actual))
	var sum F
	for j := range actual {
		diff := expected[j] - actual[j]
		sum += diff * diff
		outGrad[j] = -2 / n * diff * sampleScale
	}
	return sampleScale * sum / n, nil
}

// categoricalCrossEntropy applies an implicit softmax to actual via the
// log-sum-exp trick. The one-hot target is the first index in expected with
// value > 0.5; if none exists the loss is reported as zero while the
// softmax gradient is still computed and returned (see DESIGN.md for the
// reasoning behind this case).
func categoricalCrossEntropy[F Float](expected, actual, outGrad []F, sampleScale F) (F, error) {
	if len(expected) != len(actual) || len(outGrad) != len(actual) {
		return 0, errs.New(errs.ShapeMismatch, "loss: CategoricalCrossEntropy shape mismatch (expected=%d actual=%d grad=%d)", len(expected), len(actual), len(outGrad))
	}

	maxV := actual[0]
	for _, v := range actual[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sumExp float64
	for _, v := range actual {
		sumExp += math.Exp(float64(v - maxV))
	}
	logSumExp := F(math.Log(sumExp)) + maxV

	target := -1
	for i, v := range expected {
		if v > 0.5 {
			target = i
			break
		}
	}

	for j, v := range actual {
		softmaxJ := F(math.Exp(float64(v-maxV))) / F(sumExp)
		outGrad[j] = (softmaxJ - expected[j]) * sampleScale
	}

	if target < 0 {
		return 0, nil
	}
	return sampleScale * (logSumExp - actual[target]), nil
}

// Argmax returns the index of the largest value in v (the first such index on
// ties), or -1 if v is empty, for callers doing classification.
// CategoricalCrossEntropy does not use it: its one-hot target is the first
// index with value > 0.5, found by its own loop.
func Argmax[F Float](v []F) int {
	if len(v) == 0 {
		return -1
	}
	best := 0
	for i, x := range v[1:] {
		if x > v[best] {
			best = i + 1
		}
	}
	return best
}

// Softmax writes the softmax of x into out (which may alias x), using the
// log-sum-exp trick for numeric stability. Used by the MLP's inference-time
// post-processing for CategoricalCrossEntropy outputs.
func Softmax[F Float](x, out []F) {
	maxV := x[0]
	for _, v := range x[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sumExp float64
	for _, v := range x {
		sumExp += math.Exp(float64(v - maxV))
	}
	for i, v := range x {
		out[i] = F(math.Exp(float64(v-maxV)) / sumExp)
	}
}
