package iml

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/loss"
)

// Mode selects whether the facade is gating inference or accepting
// training edits.
type Mode int

const (
	Inference Mode = iota
	Training
)

// saveState tracks the two-step interactive save-example protocol.
type saveState int

const (
	awaitingInput saveState = iota
	awaitingOutput
)

// LogFunc receives human-oriented, non-contractual-format log messages; the
// events themselves (not their exact strings) are contractual, see
// SPEC_FULL.md §6.
type LogFunc func(string)

// Config configures a new IML facade.
type Config struct {
	NumInputs   int
	NumOutputs  int
	Hidden      []int
	Activations []activation.Kind
	Loss        loss.Kind

	InitConstant bool
	InitValue    float64

	LearningRate         float64
	MaxIter              uint
	ConvergenceThreshold float64

	MaxExamples int
	ForgetMode  ForgetMode
	Replay      bool

	RandSeed int64
}

// IML is the facade class composing one MLP and one Dataset under the
// control protocol described in SPEC_FULL.md §4.7. All exported mutating
// methods take the embedded mutex, so a caller who holds one *IML per
// control loop already gets the serialisation the concurrency model
// requires.
type IML[F Float] struct {
	mu sync.Mutex

	mlp     *MLP[F]
	dataset *Dataset[F]

	inputState  []F
	outputState []F

	mode Mode

	performInference     atomic.Bool
	inputDirty           atomic.Bool
	weightsWerePerturbed atomic.Bool

	storedWeights [][][]F
	save          saveState

	lr                   F
	maxIter              uint
	convergenceThreshold F

	log LogFunc
}

// New constructs an IML facade. layer sizes are NumInputs+1 (bias is
// appended at training/inference time, not at input-storage time),
// Hidden..., NumOutputs.
func New[F Float](cfg Config) (*IML[F], error) {
	if cfg.NumInputs <= 0 || cfg.NumOutputs <= 0 {
		return nil, errs.New(errs.InvalidConfig, "iml: NumInputs and NumOutputs must be positive (got %d, %d)", cfg.NumInputs, cfg.NumOutputs)
	}
	layerSizes := make([]int, 0, len(cfg.Hidden)+2)
	layerSizes = append(layerSizes, cfg.NumInputs+1)
	layerSizes = append(layerSizes, cfg.Hidden...)
	layerSizes = append(layerSizes, cfg.NumOutputs)

	rng := rand.New(rand.NewSource(cfg.RandSeed))
	mlp, err := NewMLP[F](layerSizes, cfg.Activations, cfg.Loss, cfg.InitConstant, F(cfg.InitValue), rng)
	if err != nil {
		return nil, err
	}

	maxExamples := cfg.MaxExamples
	if maxExamples <= 0 {
		maxExamples = 100
	}
	dataset := NewDataset[F](maxExamples, rng)
	dataset.SetReplayEnabled(cfg.Replay)
	dataset.SetForgetMode(cfg.ForgetMode)

	m := &IML[F]{
		mlp:                  mlp,
		dataset:              dataset,
		inputState:           make([]F, cfg.NumInputs),
		outputState:          make([]F, cfg.NumOutputs),
		mode:                 Inference,
		lr:                   F(cfg.LearningRate),
		maxIter:              cfg.MaxIter,
		convergenceThreshold: F(cfg.ConvergenceThreshold),
	}
	for i := range m.inputState {
		m.inputState[i] = 0.5
	}
	m.performInference.Store(true)
	return m, nil
}

func (m *IML[F]) SetLogger(fn LogFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = fn
	m.mlp.SetLogger(fn)
}

func (m *IML[F]) logf(msg string) {
	if m.log != nil {
		m.log(msg)
	}
}

func clamp01[F Float](v F) F {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SetInput clamps v to [0,1], stores it, and marks the input dirty.
func (m *IML[F]) SetInput(i int, v F) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputState[i] = clamp01(v)
	m.inputDirty.Store(true)
}

// SetInputs is the bulk form of SetInput.
func (m *IML[F]) SetInputs(vs []F) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range vs {
		m.inputState[i] = clamp01(v)
	}
	m.inputDirty.Store(true)
}

// SetOutput clamps v to [0,1] and stores it into the output state. Used by
// external UIs and by the interactive save protocol.
func (m *IML[F]) SetOutput(j int, v F) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputState[j] = clamp01(v)
}

func (m *IML[F]) SetOutputs(vs []F) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for j, v := range vs {
		m.outputState[j] = clamp01(v)
	}
}

// GetOutputs reads the current output state.
func (m *IML[F]) GetOutputs() []F {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]F(nil), m.outputState...)
}

// GetInputState reads the current input state.
func (m *IML[F]) GetInputState() []F {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]F(nil), m.inputState...)
}

func (m *IML[F]) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Process runs one inference pass when gated in (performInference &&
// inputDirty); otherwise it is a no-op.
func (m *IML[F]) Process() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processLocked()
}

func (m *IML[F]) processLocked() error {
	if !m.performInference.Load() || !m.inputDirty.Load() {
		return nil
	}
	if err := m.inferLocked(); err != nil {
		return err
	}
	m.inputDirty.Store(false)
	return nil
}

// inferLocked runs the MLP forward on input_state with the bias unit
// appended and writes the (clamped) result into output_state.
func (m *IML[F]) inferLocked() error {
	withBias := make([]F, len(m.inputState)+1)
	copy(withBias, m.inputState)
	withBias[len(m.inputState)] = 1

	out, err := m.mlp.Forward(withBias, nil, true)
	if err != nil {
		return errors.Wrapf(err, "iml: inference pass failed")
	}
	for j, v := range out {
		m.outputState[j] = clamp01(v)
	}
	return nil
}

// AddExample delegates to the dataset directly, with no interactive
// gating. This is the programmatic path.
func (m *IML[F]) AddExample(feature, label []F) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.dataset.Add(feature, label); err != nil {
		return errors.Wrapf(err, "iml: add example failed")
	}
	return nil
}

// SaveExample drives the two-step interactive save protocol:
//
// In state A (awaiting input), it suppresses inference, logs the prompt to
// move to the desired output position, and transitions to state B. While in
// B, Process is a no-op so the output vector is free for the caller/UI to
// edit via SetOutput.
//
// In state B (awaiting output), it appends (input_state, output_state) to
// the dataset, re-enables inference, runs one inference pass so the
// displayed output reflects the network again, logs that the example was
// saved, and transitions back to A.
func (m *IML[F]) SaveExample() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.save {
	case awaitingInput:
		m.performInference.Store(false)
		m.logf("Move to desired output position...")
		m.save = awaitingOutput
		return nil
	default: // awaitingOutput
		if err := m.dataset.Add(m.inputState, m.outputState); err != nil {
			return errors.Wrapf(err, "iml: save example failed")
		}
		m.performInference.Store(true)
		if err := m.inferLocked(); err != nil {
			return err
		}
		m.logf("Example saved.")
		m.save = awaitingInput
		return nil
	}
}

// ClearDataset is allowed only in Training mode; the A/B save state is
// unaffected.
func (m *IML[F]) ClearDataset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != Training {
		return
	}
	m.dataset.Clear()
	m.logf("Dataset cleared.")
}

// RandomiseWeights is allowed only in Training mode: it snapshots the
// current weights, draws fresh ones, marks weightsWerePerturbed, and runs
// one inference pass so the caller sees the effect. The snapshot is what
// lets SetMode(Inference) restore the pre-exploration weights afterward;
// PerturbWeights deliberately does not snapshot, see PerturbWeights.
func (m *IML[F]) RandomiseWeights(scale F) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != Training {
		return
	}
	m.storedWeights = m.mlp.GetWeights()
	m.mlp.RandomiseAll(scale)
	m.weightsWerePerturbed.Store(true)
	m.logf("Weights randomised.")
	_ = m.inferLocked()
}

// PerturbWeights adds noise to the weights without snapshotting: the result
// is meant to be either kept by the user or discarded by a subsequent fresh
// RandomiseWeights, not restored automatically. This asymmetry with
// RandomiseWeights is load-bearing, see SPEC_FULL.md §9: unlike
// RandomiseWeights, it must NOT set weightsWerePerturbed, since that flag
// gates restoring RandomiseWeights's snapshot on the next Training->Inference
// transition and perturbed weights have no snapshot to restore.
func (m *IML[F]) PerturbWeights(speed F) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != Training {
		return
	}
	m.mlp.PerturbAll(speed)
	_ = m.inferLocked()
}

// SetMode transitions the facade's mode. Transitioning from Training to
// Inference trains the network first (see trainOnExitLocked) and then
// remains in Inference.
func (m *IML[F]) SetMode(mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == Training && mode == Inference {
		if err := m.trainOnExitLocked(); err != nil {
			m.mode = mode
			return err
		}
	}
	m.mode = mode
	return nil
}

// trainOnExitLocked implements the Training->Inference transition: restore
// any perturbation snapshot, then train on the current dataset, then infer.
func (m *IML[F]) trainOnExitLocked() error {
	if m.weightsWerePerturbed.Load() {
		if m.storedWeights != nil {
			m.mlp.SetWeights(m.storedWeights)
			m.storedWeights = nil
		}
		m.weightsWerePerturbed.Store(false)
	}

	features := m.dataset.Features(true)
	labels := m.dataset.Labels()
	if len(features) == 0 {
		m.logf("Empty dataset, skipping training.")
		return nil
	}

	m.logf("Training...")
	if err := m.mlp.Train(features, labels, m.lr, m.maxIter, m.convergenceThreshold, nil); err != nil {
		return errors.Wrapf(err, "iml: training on mode exit failed")
	}
	m.logf("Training complete.")
	return m.inferLocked()
}

// DatasetSize reports the current number of stored examples.
func (m *IML[F]) DatasetSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataset.Size()
}

// Weights returns a copy of the MLP's weights, for snapshot/compare tests.
func (m *IML[F]) Weights() [][][]F {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mlp.GetWeights()
}
