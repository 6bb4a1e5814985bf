// Command demo is a terminal exercise of the iml facade: it maps a 2-D
// gesture to two channel-strip-style parameters, in the spirit of
// voice-space mappings used by the hosts this engine is meant for. It is an
// external collaborator, not part of the core, and imports only iml's
// public API.
package main

import (
	"bufio"
	"fmt"
	"os"

	iml "github.com/monkey-w1n5t0n/MEMLNaut-NISPS"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/activation"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/climanager"
	"github.com/monkey-w1n5t0n/MEMLNaut-NISPS/loss"
)

const (
	learningRate         = 1.0
	maxIterations        = 3000
	convergenceThreshold = 1e-5
	maxExamples          = 64
)

func newEngine() (*iml.IML[float64], error) {
	return iml.New[float64](iml.Config{
		NumInputs:            2,
		NumOutputs:           2,
		Hidden:               []int{8, 8},
		Activations:          []activation.Kind{activation.Tanh, activation.Tanh, activation.Sigmoid},
		Loss:                 loss.MSE,
		LearningRate:         learningRate,
		MaxIter:              maxIterations,
		ConvergenceThreshold: convergenceThreshold,
		MaxExamples:          maxExamples,
		Replay:               true,
		ForgetMode:           iml.FIFO,
	})
}

func main() {
	m, err := newEngine()
	if err != nil {
		panic(err.Error())
	}
	m.SetLogger(func(msg string) { fmt.Println(msg) })

	sc := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: mode <train|infer> | in | out | save | clear | randomise | perturb | show | quit")
	fmt.Println("after 'in' or 'out' enter x and y, after 'perturb' enter a speed, one value per line")

	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		switch sc.Text() {
		case "mode train":
			if err := m.SetMode(iml.Training); err != nil {
				fmt.Println("error:", err)
			}
		case "mode infer":
			if err := m.SetMode(iml.Inference); err != nil {
				fmt.Println("error:", err)
			}
		case "save":
			if err := m.SaveExample(); err != nil {
				fmt.Println("error:", err)
			}
		case "clear":
			m.ClearDataset()
		case "randomise":
			m.RandomiseWeights(1)
		case "show":
			fmt.Println("outputs:", m.GetOutputs(), "dataset size:", m.DatasetSize())
		case "quit", "q":
			return
		default:
			handleValueCommand(sc, m, sc.Text())
		}
		if err := m.Process(); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func handleValueCommand(sc *bufio.Scanner, m *iml.IML[float64], cmd string) {
	switch cmd {
	case "in":
		x, quit, err := climanager.QueryFloat(sc, climanager.UnitInterval)
		if quit || err != nil {
			return
		}
		y, quit, err := climanager.QueryFloat(sc, climanager.UnitInterval)
		if quit || err != nil {
			return
		}
		m.SetInputs([]float64{x, y})
	case "out":
		x, quit, err := climanager.QueryFloat(sc, climanager.UnitInterval)
		if quit || err != nil {
			return
		}
		y, quit, err := climanager.QueryFloat(sc, climanager.UnitInterval)
		if quit || err != nil {
			return
		}
		m.SetOutputs([]float64{x, y})
	case "perturb":
		speed, quit, err := climanager.QueryFloat(sc, climanager.UnitInterval)
		if quit || err != nil {
			return
		}
		m.PerturbWeights(speed)
	default:
		fmt.Println("unknown command:", cmd)
	}
}
