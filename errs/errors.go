// Package errs defines the closed error taxonomy shared by the parameter-mapping
// engine's packages.
package errs

import "github.com/pkg/errors"

// Kind identifies which of the engine's contractual failure modes an Error
// represents. The set is closed; callers branch on it with Is.
type Kind int

const (
	// InvalidConfig covers unknown activation/loss identifiers, zero layers,
	// and mismatched activation counts at construction time.
	InvalidConfig Kind = iota
	// ShapeMismatch covers any disagreement between an expected and an
	// actual vector width: dataset widths, MLP layer widths, forward-pass
	// input widths.
	ShapeMismatch
	// CapacityExceeded covers Dataset.Add at capacity with replay disabled.
	CapacityExceeded
	// EmptyInput covers training requested on an empty dataset.
	EmptyInput
	// NumericCorruption covers non-finite weights found by a sanitise pass.
	// It is a recovery signal rather than a hard failure: by the time a
	// caller sees it, the affected parameters have already been zeroed.
	NumericCorruption
)

func (k Kind) String() string {
	switch k {
	case InvalidConfig:
		return "InvalidConfig"
	case ShapeMismatch:
		return "ShapeMismatch"
	case CapacityExceeded:
		return "CapacityExceeded"
	case EmptyInput:
		return "EmptyInput"
	case NumericCorruption:
		return "NumericCorruption"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with a human-readable message. It wraps cleanly with
// github.com/pkg/errors so call sites can add context while preserving Kind.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// New originates a new Error of the given Kind.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, msg: errors.Errorf(format, args...).Error()}
}

// Is reports whether err is, or wraps, an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		cause := errors.Unwrap(err)
		if cause == nil {
			return false
		}
		err = cause
	}
	return false
}
