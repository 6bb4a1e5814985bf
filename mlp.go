package iml

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/loss"
)

// globalGradNormClip bounds the mini-batch gradient's global L2 norm, a
// numeric safety knob on top of the per-parameter RMSProp clamps.
const globalGradNormClip = 5.0

// progressEvery32 is the per-sample training progress callback interval.
const progressEvery32 = 32

// ProgressFunc is invoked during training with the current iteration and
// loss. It has no return value; the core defines no cooperative-cancellation
// protocol — bound MaxIter if cancellation is required.
type ProgressFunc[F Float] func(iteration uint, loss F)

// LogProgress returns a ProgressFunc that prints "iteration / loss" to
// stdout, restoring the original implementation's default progress
// reporter. Passing it is optional and has no effect on engine state.
func LogProgress[F Float]() ProgressFunc[F] {
	return func(iteration uint, l F) {
		fmt.Printf("%d / %v\n", iteration, l)
	}
}

// MLP is an ordered sequence of layers, L_1...L_K (K>=1), with
// L_i.nOut == L_{i+1}.nIn, L_1.nIn == n_inputs and L_K.nOut == n_outputs.
type MLP[F Float] struct {
	layers   []*layer[F]
	nInputs  int
	nOutputs int
	lossKind loss.Kind
	lossFn   loss.Func[F]
	rng      *rand.Rand
	log      LogFunc
}

// NewMLP constructs an MLP from layerSizes (length >= 2) and one activation
// per adjacent pair (len(activations) == len(layerSizes)-1). initConstant
// selects a constant fill of initValue instead of the default uniform
// random draw in [-1,1].
func NewMLP[F Float](layerSizes []int, activations []activation.Kind, lossKind loss.Kind, initConstant bool, initValue F, rng *rand.Rand) (*MLP[F], error) {
	if len(layerSizes) < 2 {
		return nil, errs.New(errs.InvalidConfig, "mlp: need at least 2 layer sizes (got %d)", len(layerSizes))
	}
	if len(activations) != len(layerSizes)-1 {
		return nil, errs.New(errs.InvalidConfig, "mlp: need %d activations for %d layer sizes, got %d", len(layerSizes)-1, len(layerSizes), len(activations))
	}
	lossFn, err := loss.Resolve[F](lossKind)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	m := &MLP[F]{
		nInputs:  layerSizes[0],
		nOutputs: layerSizes[len(layerSizes)-1],
		lossKind: lossKind,
		lossFn:   lossFn,
		rng:      rng,
	}
	for i := 0; i+1 < len(layerSizes); i++ {
		l, err := newLayer[F](layerSizes[i], layerSizes[i+1], activations[i], initConstant, initValue, rng)
		if err != nil {
			return nil, err
		}
		m.layers = append(m.layers, l)
	}
	return m, nil
}

func (m *MLP[F]) NumInputs() int  { return m.nInputs }
func (m *MLP[F]) NumOutputs() int { return m.nOutputs }

// SetLogger installs the hook Train/TrainBatch use to report numeric
// corruption recovered by their automatic post-training sanitise pass.
func (m *MLP[F]) SetLogger(fn LogFunc) { m.log = fn }

func (m *MLP[F]) logf(msg string) {
	if m.log != nil {
		m.log(msg)
	}
}

// sanitiseAndReport runs SanitiseAll and logs through the optional hook if
// any non-finite state was found and reset.
func (m *MLP[F]) sanitiseAndReport() {
	if m.SanitiseAll() {
		m.logf("Numeric corruption detected and reset.")
	}
}

// Forward passes input through every layer in order. When history is
// non-nil, each layer's input is appended to it (K entries total: one per
// layer, the last being the final layer's input). When forInference is true
// and the configured loss is categorical cross-entropy with more than one
// output, softmax is applied to the result before it is returned.
func (m *MLP[F]) Forward(input []F, history *[][]F, forInference bool) ([]F, error) {
	if len(input) != m.nInputs {
		return nil, errs.New(errs.ShapeMismatch, "mlp: forward expected input width %d, got %d", m.nInputs, len(input))
	}
	cur := input
	for _, l := range m.layers {
		cur = l.forward(cur, history)
	}
	out := cur
	if forInference && m.lossKind == loss.CategoricalCrossEntropy && m.nOutputs > 1 {
		softmaxed := make([]F, len(out))
		loss.Softmax(out, softmaxed)
		out = softmaxed
	}
	return out, nil
}

// Train runs the per-sample training loop for up to maxIter iterations,
// early-stopping once the epoch loss falls below convergenceThreshold.
func (m *MLP[F]) Train(features, labels [][]F, lr F, maxIter uint, convergenceThreshold F, progress ProgressFunc[F]) error {
	if len(features) == 0 {
		return errs.New(errs.EmptyInput, "mlp: train called with an empty dataset")
	}
	n := F(len(features))
	for iter := uint(0); iter < maxIter; iter++ {
		var epochLoss F
		for s := range features {
			out, history, err := m.forwardCapture(features[s])
			if err != nil {
				return err
			}
			outGrad := make([]F, m.nOutputs)
			sampleLoss, err := m.lossFn(labels[s], out, outGrad, 1/n)
			if err != nil {
				return err
			}
			m.backwardDirect(history, outGrad, lr)
			epochLoss += sampleLoss
		}
		if progress != nil && (iter == maxIter-1 || iter%progressEvery32 == 0) {
			progress(iter, epochLoss)
		}
		if epochLoss < convergenceThreshold {
			break
		}
	}
	m.sanitiseAndReport()
	return nil
}

// TrainBatch runs the mini-batch training loop: per iteration it shuffles
// sample indices, partitions them into batches of size batchSize (the last
// may be shorter), accumulates gradients per batch with global-norm
// clipping at 5.0, and applies the RMSProp step.
func (m *MLP[F]) TrainBatch(features, labels [][]F, lr F, maxIter uint, convergenceThreshold F, batchSize int, progress ProgressFunc[F]) error {
	if len(features) == 0 {
		return errs.New(errs.EmptyInput, "mlp: train_batch called with an empty dataset")
	}
	if batchSize <= 0 {
		batchSize = len(features)
	}

	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}

	for iter := uint(0); iter < maxIter; iter++ {
		m.rng.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

		var epochLoss F
		nBatches := 0
		for start := 0; start < len(indices); start += batchSize {
			end := start + batchSize
			if end > len(indices) {
				end = len(indices)
			}
			batch := indices[start:end]
			nBatches++

			for _, l := range m.layers {
				l.initAccumulators()
			}

			var batchLoss F
			for _, idx := range batch {
				out, history, err := m.forwardCapture(features[idx])
				if err != nil {
					return err
				}
				outGrad := make([]F, m.nOutputs)
				sampleLoss, err := m.lossFn(labels[idx], out, outGrad, 1)
				if err != nil {
					return err
				}
				m.backwardAccumulate(history, outGrad)
				batchLoss += sampleLoss
			}

			invBatch := 1 / F(len(batch))
			var sumSq F
			for _, l := range m.layers {
				sumSq += l.gradSumSq(invBatch)
			}
			gradNorm := F(math.Sqrt(float64(sumSq)))
			if gradNorm > globalGradNormClip {
				scale := F(globalGradNormClip) / gradNorm
				for _, l := range m.layers {
					l.scaleGrads(scale)
				}
			}

			for _, l := range m.layers {
				l.applyStep(lr, invBatch)
			}

			epochLoss += batchLoss / F(len(batch))
		}

		epochLoss /= F(nBatches)
		if progress != nil {
			progress(iter, epochLoss)
		}
		if epochLoss < convergenceThreshold {
			break
		}
	}
	m.sanitiseAndReport()
	return nil
}

// forwardCapture runs Forward with activation capture enabled, for use by
// the training loops (never for_inference, since training always operates
// on raw layer outputs).
func (m *MLP[F]) forwardCapture(input []F) ([]F, [][]F, error) {
	var history [][]F
	out, err := m.Forward(input, &history, false)
	if err != nil {
		return nil, nil, err
	}
	return out, history, nil
}

// backwardDirect walks layers in reverse applying direct per-sample weight
// updates, as used by per-sample training.
func (m *MLP[F]) backwardDirect(history [][]F, outGrad []F, lr F) {
	grad := outGrad
	for i := len(m.layers) - 1; i >= 0; i-- {
		grad = m.layers[i].update(history[i], grad, lr)
	}
}

// backwardAccumulate walks layers in reverse accumulating gradients, as used
// by mini-batch training.
func (m *MLP[F]) backwardAccumulate(history [][]F, outGrad []F) {
	grad := outGrad
	for i := len(m.layers) - 1; i >= 0; i-- {
		grad = m.layers[i].accumulate(history[i], grad)
	}
}

// GetWeights copies the full layer->node->weights(+bias) structure.
func (m *MLP[F]) GetWeights() [][][]F {
	w := make([][][]F, len(m.layers))
	for i, l := range m.layers {
		w[i] = l.getWeights()
	}
	return w
}

// SetWeights restores a structure previously returned by GetWeights.
func (m *MLP[F]) SetWeights(w [][][]F) {
	for i, l := range m.layers {
		l.setWeights(w[i])
	}
}

func (m *MLP[F]) RandomiseAll(scale F) {
	for _, l := range m.layers {
		l.randomiseAll(scale, m.rng)
	}
}

func (m *MLP[F]) PerturbAll(speed F) {
	for _, l := range m.layers {
		l.perturbAll(speed, m.rng)
	}
}

// SmoothUpdateAll reads other by borrow only: no shared ownership is implied.
func (m *MLP[F]) SmoothUpdateAll(other *MLP[F], alpha F) {
	for i, l := range m.layers {
		l.smoothUpdate(other.layers[i], alpha)
	}
}

// SanitiseAll reports whether any layer had non-finite state that was
// replaced with zero.
func (m *MLP[F]) SanitiseAll() bool {
	corrupted := false
	for _, l := range m.layers {
		if l.sanitise() {
			corrupted = true
		}
	}
	return corrupted
}

func (m *MLP[F]) ResetOptimiserAll() {
	for _, l := range m.layers {
		l.resetOptimiser()
	}
}
