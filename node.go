package iml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// randSource adapts a *math/rand.Rand to gonum/stat/distuv's expected
// golang.org/x/exp/rand.Source interface (Uint64/Seed(uint64)), since the
// public API here takes *math/rand.Rand.
type randSource struct {
	rng *rand.Rand
}

func (s randSource) Uint64() uint64 {
	return s.rng.Uint64()
}

func (s randSource) Seed(seed uint64) {
	s.rng.Seed(int64(seed))
}

// RMSProp constants carried over verbatim from the original implementation.
// These are contractual: the numeric policy they encode, not merely their
// shape, is what keeps interactive-rate training on small noisy datasets
// from diverging.
const (
	gradClip        = 10
	squaredAvgClip  = 1e6
	effectiveLRClip = 1.0
	denomFloor      = 1e-6
	rmsPropDecay    = 0.9
	rmsPropDecayInv = 0.1
)

// node is a single neuron: a weight per input, a bias, the matching RMSProp
// running averages, and a gradient accumulator. Every slice has length
// nIn; node never resizes itself after construction.
type node[F Float] struct {
	weights            []F
	bias               F
	squaredGradAvg     []F
	biasSquaredGradAvg F
	gradAccum          []F
	biasGradAccum      F
	lastPreActivation  F
}

func newNode[F Float](nIn int, initConstant bool, initValue F, rng *rand.Rand) *node[F] {
	n := &node[F]{
		weights:        make([]F, nIn),
		squaredGradAvg: make([]F, nIn),
		gradAccum:      make([]F, nIn),
	}
	if initConstant {
		for j := range n.weights {
			n.weights[j] = initValue
		}
		n.bias = initValue
		return n
	}
	u := distuv.Uniform{Min: -1, Max: 1, Src: randSource{rng}}
	for j := range n.weights {
		n.weights[j] = F(u.Rand())
	}
	n.bias = F(u.Rand())
	return n
}

// forward computes sum_j w_j*input_j + bias, caches it as the pre-activation
// and returns it. The caller (layer) applies the activation function.
func (n *node[F]) forward(input []F) F {
	var inner F
	for j, w := range n.weights {
		inner += w * input[j]
	}
	inner += n.bias
	n.lastPreActivation = inner
	return inner
}

// accumulate adds to the gradient accumulator. signal is dE/d(inner).
func (n *node[F]) accumulate(input []F, signal F) {
	for j, x := range input {
		n.gradAccum[j] += x * signal
	}
	n.biasGradAccum += signal
}

// applyStep performs the per-parameter RMSProp-style adaptive update and
// resets the accumulator.
func (n *node[F]) applyStep(lr, invBatch F) {
	for j := range n.weights {
		n.weights[j] = rmsPropUpdate(n.weights[j], &n.gradAccum[j], &n.squaredGradAvg[j], lr, invBatch)
	}
	n.bias = rmsPropUpdate(n.bias, &n.biasGradAccum, &n.biasSquaredGradAvg, lr, invBatch)
}

func rmsPropUpdate[F Float](w F, accum, squaredAvg *F, lr, invBatch F) F {
	g := clampF(*accum*invBatch, -gradClip, gradClip)
	*squaredAvg = F(rmsPropDecay)*(*squaredAvg) + F(rmsPropDecayInv)*g*g
	if *squaredAvg > squaredAvgClip {
		*squaredAvg = squaredAvgClip
	}
	eta := lr / (F(math.Sqrt(float64(*squaredAvg))) + denomFloor)
	if eta > effectiveLRClip {
		eta = effectiveLRClip
	}
	*accum = 0
	return w - eta*g
}

// updateDirect performs the unaccumulated per-sample weight update used only
// by per-sample training mode.
func (n *node[F]) updateDirect(input []F, signal, lr F) {
	for j, x := range input {
		n.weights[j] += lr * x * signal
	}
	n.bias += lr * signal
}

// randomise draws each weight uniformly in [-scale, scale]. The bias is
// deliberately left untouched; see DESIGN.md for the open-question decision.
func (n *node[F]) randomise(scale F, rng *rand.Rand) {
	u := distuv.Uniform{Min: -1, Max: 1, Src: randSource{rng}}
	for j := range n.weights {
		n.weights[j] = F(u.Rand()) * scale
	}
}

// perturb adds the sum of three independent uniform-in-[-1,1] draws, scaled
// by 3*speed, to each weight. The bias is left untouched, matching
// randomise's treatment of it.
func (n *node[F]) perturb(speed F, rng *rand.Rand) {
	u := distuv.Uniform{Min: -1, Max: 1, Src: randSource{rng}}
	for j := range n.weights {
		noise := F(u.Rand()) + F(u.Rand()) + F(u.Rand())
		n.weights[j] += noise * 3 * speed
	}
}

// smoothUpdate replaces each weight with a convex combination of itself and
// the corresponding weight of other.
func (n *node[F]) smoothUpdate(other *node[F], alpha F) {
	for j := range n.weights {
		n.weights[j] = (1-alpha)*n.weights[j] + alpha*other.weights[j]
	}
	n.bias = (1-alpha)*n.bias + alpha*other.bias
}

func (n *node[F]) resetOptimiser() {
	for j := range n.squaredGradAvg {
		n.squaredGradAvg[j] = 0
	}
	n.biasSquaredGradAvg = 0
}

// sanitise replaces any non-finite weight, bias, or running average with
// zero and reports whether any substitution occurred.
func (n *node[F]) sanitise() bool {
	corrupted := false
	for j := range n.weights {
		if !isFinite(n.weights[j]) {
			n.weights[j] = 0
			n.squaredGradAvg[j] = 0
			corrupted = true
		}
		if !isFinite(n.squaredGradAvg[j]) {
			n.squaredGradAvg[j] = 0
			corrupted = true
		}
	}
	if !isFinite(n.bias) {
		n.bias = 0
		n.biasSquaredGradAvg = 0
		corrupted = true
	}
	if !isFinite(n.biasSquaredGradAvg) {
		n.biasSquaredGradAvg = 0
		corrupted = true
	}
	return corrupted
}

func isFinite[F Float](x F) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clampF[F Float](x, lo, hi F) F {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
