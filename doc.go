// Package iml provides an interactive parameter-mapping engine: a small
// feed-forward neural network trained online from examples a user supplies
// by demonstration.
//
// The center of the package is IML, which composes one MLP and one Dataset
// under a control protocol meant for a real-time caller:
//
//		m, err := iml.New[float32](iml.Config{
//			NumInputs:  2,
//			NumOutputs: 2,
//			Hidden:     []int{8, 8},
//			Activations: []activation.Kind{activation.Tanh, activation.Tanh, activation.Sigmoid},
//			Loss:       loss.MSE,
//			LearningRate: 1.0,
//			MaxIter:      3000,
//		})
//		if err != nil {
//			return err
//		}
//
//		m.SetMode(iml.Training)
//		m.SetInputs([]float32{0.1, 0.1})
//		m.SetOutputs([]float32{0.1, 0.9})
//		m.SaveExample()
//		m.SaveExample()
//		m.SetMode(iml.Inference) // trains, then infers
//		out := m.GetOutputs()
//
// The exported types below IML, MLP and Dataset, are usable standalone for
// callers that want the training primitives without the interactive
// save-example state machine. Layers and nodes are internal to MLP and are
// not exported.
//
// IML, MLP and Dataset are all generic over Float, typically
// instantiated at float32 for a real-time control path or float64 for
// offline analysis.
package iml

import "github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"

// Float is the numeric type every type in this package is parameterised
// over, re-exported from activation so importers of iml alone don't need a
// second import for the constraint.
type Float = activation.Float
