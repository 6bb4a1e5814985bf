package iml

import (
	"math/rand"

	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/errs"
)

// ForgetMode selects the eviction policy a Dataset applies once it reaches
// capacity with replay enabled.
type ForgetMode int

const (
	// FIFO removes the oldest example.
	FIFO ForgetMode = iota
	// RandomEqual draws an index to evict uniformly.
	RandomEqual
	// RandomOlder weights each index by its age, favouring eviction of
	// older examples.
	RandomOlder
)

// Dataset is a bounded store of (feature, label) pairs with a selectable
// eviction policy and random full-dataset sampling.
type Dataset[F Float] struct {
	features   [][]F
	labels     [][]F
	timestamps []uint64

	maxExamples   int
	replayEnabled bool
	forgetMode    ForgetMode
	nextTimestamp uint64

	rng *rand.Rand
}

// NewDataset constructs an empty dataset with the given capacity.
func NewDataset[F Float](maxExamples int, rng *rand.Rand) *Dataset[F] {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Dataset[F]{maxExamples: maxExamples, rng: rng}
}

func (d *Dataset[F]) Size() int { return len(d.features) }

// Add appends a (feature, label) pair. It rejects a width mismatch against
// the dataset's established widths with ShapeMismatch. At capacity, it
// evicts per the forget mode if replay is enabled, or rejects with
// CapacityExceeded if not.
func (d *Dataset[F]) Add(feature, label []F) error {
	if len(d.features) > 0 {
		if len(feature) != len(d.features[0]) || len(label) != len(d.labels[0]) {
			return errs.New(errs.ShapeMismatch, "dataset: add expected feature width %d / label width %d, got %d / %d",
				len(d.features[0]), len(d.labels[0]), len(feature), len(label))
		}
	}
	if len(d.features) == d.maxExamples {
		if !d.replayEnabled {
			return errs.New(errs.CapacityExceeded, "dataset: at capacity (%d) with replay disabled", d.maxExamples)
		}
		d.evictOne()
	}

	d.features = append(d.features, append([]F(nil), feature...))
	d.labels = append(d.labels, append([]F(nil), label...))
	d.timestamps = append(d.timestamps, d.nextTimestamp)
	d.nextTimestamp++
	return nil
}

func (d *Dataset[F]) evictOne() {
	n := len(d.features)
	if n == 0 {
		return
	}
	var idx int
	switch d.forgetMode {
	case FIFO:
		idx = 0
	case RandomEqual:
		idx = d.rng.Intn(n)
	case RandomOlder:
		idx = d.sampleOlderIndex()
	}
	d.removeAt(idx)
}

// sampleOlderIndex weights each index by age = nextTimestamp - timestamp_i
// and draws proportionally to that weight. On zero total weight (all
// examples share the current timestamp) it falls back to uniform; with a
// single candidate (N==1) it deterministically picks index 0 either way.
func (d *Dataset[F]) sampleOlderIndex() int {
	n := len(d.timestamps)
	weights := make([]uint64, n)
	var total uint64
	for i, ts := range d.timestamps {
		age := d.nextTimestamp - ts
		weights[i] = age
		total += age
	}
	if total == 0 {
		return d.rng.Intn(n)
	}
	draw := uint64(d.rng.Int63n(int64(total)))
	var cum uint64
	for i, w := range weights {
		cum += w
		if draw < cum {
			return i
		}
	}
	return n - 1
}

func (d *Dataset[F]) removeAt(idx int) {
	d.features = append(d.features[:idx], d.features[idx+1:]...)
	d.labels = append(d.labels[:idx], d.labels[idx+1:]...)
	d.timestamps = append(d.timestamps[:idx], d.timestamps[idx+1:]...)
}

// Clear empties the dataset and resets the timestamp counter.
func (d *Dataset[F]) Clear() {
	d.features = nil
	d.labels = nil
	d.timestamps = nil
	d.nextTimestamp = 0
}

// Features returns a copy of the feature vectors, appending a bias term of
// 1.0 to each when withBias is true.
func (d *Dataset[F]) Features(withBias bool) [][]F {
	return addBias(d.features, withBias)
}

// Labels returns a copy of the label vectors.
func (d *Dataset[F]) Labels() [][]F {
	out := make([][]F, len(d.labels))
	for i, l := range d.labels {
		out[i] = append([]F(nil), l...)
	}
	return out
}

func addBias[F Float](vecs [][]F, withBias bool) [][]F {
	out := make([][]F, len(vecs))
	for i, v := range vecs {
		if withBias {
			row := make([]F, len(v)+1)
			copy(row, v)
			row[len(v)] = 1
			out[i] = row
		} else {
			out[i] = append([]F(nil), v...)
		}
	}
	return out
}

// Sample returns the dataset in shuffled order when replay is enabled, or in
// insertion order otherwise.
func (d *Dataset[F]) Sample(withBias bool) (features, labels [][]F) {
	n := len(d.features)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if d.replayEnabled {
		d.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	features = make([][]F, n)
	labels = make([][]F, n)
	for pos, idx := range order {
		if withBias {
			row := make([]F, len(d.features[idx])+1)
			copy(row, d.features[idx])
			row[len(d.features[idx])] = 1
			features[pos] = row
		} else {
			features[pos] = append([]F(nil), d.features[idx]...)
		}
		labels[pos] = append([]F(nil), d.labels[idx]...)
	}
	return features, labels
}

// SetMaxExamples changes the capacity. When it shrinks below the current
// size, examples are dropped down to the new cap: by repeated eviction per
// the current forget mode when replay is enabled, or by plain
// right-truncation when it is not.
func (d *Dataset[F]) SetMaxExamples(max int) {
	d.maxExamples = max
	for len(d.features) > max {
		if d.replayEnabled {
			d.evictOne()
		} else {
			d.features = d.features[:max]
			d.labels = d.labels[:max]
			d.timestamps = d.timestamps[:max]
		}
	}
}

func (d *Dataset[F]) SetReplayEnabled(enabled bool) { d.replayEnabled = enabled }
func (d *Dataset[F]) SetForgetMode(mode ForgetMode) { d.forgetMode = mode }
func (d *Dataset[F]) NextTimestamp() uint64         { return d.nextTimestamp }
