// Package simerror defines the fatal error kinds a simulation run can fail
// with, per the netlist-to-solve pipeline: parse errors abort before any
// solve. A solve error carries its kind and a message naming the analysis
// that failed; it does not record the time or sweep point of the failure.
package simerror

import "github.com/pkg/errors"

// Kind identifies which stage and condition caused a run to fail.
type Kind int

const (
	ParseError Kind = iota
	NoGround
	SensorNotFound
	SensorNotVoltageSource
	DuplicateElementName
	DidNotConverge
	LinearSolveFailed
	ICFailed
	IntegratorFailed
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case NoGround:
		return "NoGround"
	case SensorNotFound:
		return "SensorNotFound"
	case SensorNotVoltageSource:
		return "SensorNotVoltageSource"
	case DuplicateElementName:
		return "DuplicateElementName"
	case DidNotConverge:
		return "DidNotConverge"
	case LinearSolveFailed:
		return "LinearSolveFailed"
	case ICFailed:
		return "ICFailed"
	case IntegratorFailed:
		return "IntegratorFailed"
	default:
		return "Unknown"
	}
}

// SimError is the single error type the pipeline returns. It is never
// retried internally; the CLI reports it on stderr and exits non-zero.
type SimError struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *SimError) Error() string {
	if e.err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *SimError) Unwrap() error { return e.err }

// New creates a SimError of the given kind with a message.
func New(kind Kind, msg string) *SimError {
	return &SimError{Kind: kind, Msg: msg}
}

// Wrap attaches kind and msg to an underlying error, preserving the chain
// so errors.Is/errors.As keep working through parser -> circuit -> solver.
func Wrap(kind Kind, err error, msg string) *SimError {
	if err == nil {
		return nil
	}
	return &SimError{Kind: kind, Msg: msg, err: errors.WithStack(err)}
}

// Is reports whether err is a SimError of the given kind.
func Is(err error, kind Kind) bool {
	var se *SimError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
