package iml

import (
	"math/rand"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"
)

// layer is a fixed-width slab of homogeneous neurons sharing one activation.
type layer[F Float] struct {
	nodes []*node[F]
	nIn   int
	act   activation.Pair[F]
	kind  activation.Kind
}

func newLayer[F Float](nIn, nOut int, kind activation.Kind, initConstant bool, initValue F, rng *rand.Rand) (*layer[F], error) {
	act, err := activation.Resolve[F](kind)
	if err != nil {
		return nil, err
	}
	l := &layer[F]{
		nodes: make([]*node[F], nOut),
		nIn:   nIn,
		act:   act,
		kind:  kind,
	}
	for i := range l.nodes {
		l.nodes[i] = newNode[F](nIn, initConstant, initValue, rng)
	}
	return l, nil
}

func (l *layer[F]) nOut() int { return len(l.nodes) }

// forward computes the layer's output, optionally appending input to an
// activation history for later use by a backward pass.
func (l *layer[F]) forward(input []F, history *[][]F) []F {
	if history != nil {
		*history = append(*history, append([]F(nil), input...))
	}
	out := make([]F, len(l.nodes))
	for i, n := range l.nodes {
		out[i] = l.act.Forward(n.forward(input))
	}
	return out
}

// accumulate runs backward-with-accumulation: computes each node's signal,
// accumulates its gradient, and returns the downstream gradient.
func (l *layer[F]) accumulate(inputActivations, upstreamGrad []F) []F {
	downstream := make([]F, l.nIn)
	for i, n := range l.nodes {
		signal := upstreamGrad[i] * l.act.Deriv(n.lastPreActivation)
		n.accumulate(inputActivations, signal)
		for j, w := range n.weights {
			downstream[j] += signal * w
		}
	}
	return downstream
}

// update runs backward-with-direct-update: identical to accumulate except
// each node's weights are updated in place via updateDirect. The downstream
// gradient is computed first from the pre-update weights.
func (l *layer[F]) update(inputActivations, upstreamGrad []F, lr F) []F {
	downstream := make([]F, l.nIn)
	signals := make([]F, len(l.nodes))
	for i, n := range l.nodes {
		signal := upstreamGrad[i] * l.act.Deriv(n.lastPreActivation)
		signals[i] = signal
		for j, w := range n.weights {
			downstream[j] += signal * w
		}
	}
	for i, n := range l.nodes {
		n.updateDirect(inputActivations, -signals[i], lr)
	}
	return downstream
}

// gradSumSq sums, over nodes, the squares of the accumulator entries (weights
// and bias) scaled by invBatch. No clipping is applied here.
func (l *layer[F]) gradSumSq(invBatch F) F {
	var sum F
	for _, n := range l.nodes {
		for _, g := range n.gradAccum {
			scaled := g * invBatch
			sum += scaled * scaled
		}
		biasScaled := n.biasGradAccum * invBatch
		sum += biasScaled * biasScaled
	}
	return sum
}

// scaleGrads multiplies every node's accumulator (weights and bias) by c.
func (l *layer[F]) scaleGrads(c F) {
	for _, n := range l.nodes {
		for j := range n.gradAccum {
			n.gradAccum[j] *= c
		}
		n.biasGradAccum *= c
	}
}

func (l *layer[F]) initAccumulators() {
	for _, n := range l.nodes {
		n.gradAccum = make([]F, l.nIn)
		n.biasGradAccum = 0
	}
}

func (l *layer[F]) clearAccumulators() {
	for _, n := range l.nodes {
		for j := range n.gradAccum {
			n.gradAccum[j] = 0
		}
		n.biasGradAccum = 0
	}
}

func (l *layer[F]) applyStep(lr, invBatch F) {
	for _, n := range l.nodes {
		n.applyStep(lr, invBatch)
	}
}

func (l *layer[F]) resetOptimiser() {
	for _, n := range l.nodes {
		n.resetOptimiser()
	}
}

func (l *layer[F]) sanitise() bool {
	corrupted := false
	for _, n := range l.nodes {
		if n.sanitise() {
			corrupted = true
		}
	}
	return corrupted
}

func (l *layer[F]) getWeights() [][]F {
	w := make([][]F, len(l.nodes))
	for i, n := range l.nodes {
		row := make([]F, len(n.weights)+1)
		copy(row, n.weights)
		row[len(n.weights)] = n.bias
		w[i] = row
	}
	return w
}

func (l *layer[F]) setWeights(w [][]F) {
	for i, n := range l.nodes {
		copy(n.weights, w[i][:len(n.weights)])
		n.bias = w[i][len(n.weights)]
	}
}

func (l *layer[F]) randomiseAll(scale F, rng *rand.Rand) {
	for _, n := range l.nodes {
		n.randomise(scale, rng)
	}
}

func (l *layer[F]) perturbAll(speed F, rng *rand.Rand) {
	for _, n := range l.nodes {
		n.perturb(speed, rng)
	}
}

func (l *layer[F]) smoothUpdate(other *layer[F], alpha F) {
	for i, n := range l.nodes {
		n.smoothUpdate(other.nodes[i], alpha)
	}
}
