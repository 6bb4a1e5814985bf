// Package climanager provides scanner-driven prompt helpers for interactive
// command-line tools that sit on top of the iml engine.
package climanager

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// QueryTF reads a yes/no answer from sc. The second return is true only if
// the user quit ("quit"/"q"); the third return is non-nil only if the
// scanner ran out of input.
func QueryTF(sc *bufio.Scanner) (bool, bool, error) {
	for {
		if !sc.Scan() {
			return false, false, errors.Errorf("Scanner.Scan() failed.")
		}

		switch sc.Text() {
		case "quit", "q":
			return false, true, nil
		case "y", "yes":
			return true, false, nil
		case "n", "no":
			return false, false, nil
		default:
			fmt.Print("Please enter 'y' or 'n': ")
		}
	}
}

// QueryInt reads an integer from sc. isValid returns a non-empty message to
// reject the value and re-prompt. Returns true for the second value only if
// the user quit; errors only if the scanner ran out of input.
func QueryInt(sc *bufio.Scanner, isValid func(int) string) (int, bool, error) {
	for {
		if !sc.Scan() {
			return 0, false, errors.Errorf("Scanner.Scan() failed.")
		}

		if sc.Text() == "quit" || sc.Text() == "q" {
			return 0, true, nil
		}

		if v, err := strconv.Atoi(sc.Text()); err != nil {
			fmt.Print("Please enter an integer: ")
		} else if errMsg := isValid(v); errMsg != "" {
			fmt.Print(errMsg)
		} else {
			return v, false, nil
		}
	}
}

// QueryFloat is QueryInt's float64 counterpart, used for the normalised
// [0,1] input/output values the engine expects.
func QueryFloat(sc *bufio.Scanner, isValid func(float64) string) (float64, bool, error) {
	for {
		if !sc.Scan() {
			return 0, false, errors.Errorf("Scanner.Scan() failed.")
		}

		if sc.Text() == "quit" || sc.Text() == "q" {
			return 0, true, nil
		}

		if v, err := strconv.ParseFloat(sc.Text(), 64); err != nil {
			fmt.Print("Please enter a floating point number: ")
		} else if errMsg := isValid(v); errMsg != "" {
			fmt.Print(errMsg)
		} else {
			return v, false, nil
		}
	}
}

// UnitInterval is a ready-made isValid for QueryFloat that rejects anything
// outside [0,1], matching the engine's own ingress clamp so a user gets
// immediate feedback instead of a silently clamped value.
func UnitInterval(v float64) string {
	if v < 0 || v > 1 {
		return "Please enter a value between 0 and 1: "
	}
	return ""
}
