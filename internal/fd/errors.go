package fd

import (
	"errors"
	"fmt"
)

// Domain errors for equilibrium solves.
var (
	// ErrInvalidInput indicates malformed topology or mismatched input sizes.
	ErrInvalidInput = errors.New("fd: invalid input")

	// ErrSingularSystem indicates an under-constrained network.
	ErrSingularSystem = errors.New("fd: singular system (network is under-constrained)")

	// ErrTimeout indicates the solve exceeded its wall-clock budget.
	ErrTimeout = errors.New("fd: solve exceeded its time budget")
)

// InputError describes which part of the input was rejected.
type InputError struct {
	Field  string
	Index  int
	Reason string
}

func (e *InputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("fd: invalid input: %s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("fd: invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field string, index int, format string, args ...any) error {
	return &InputError{Field: field, Index: index, Reason: fmt.Sprintf(format, args...)}
}

// SingularSystemError wraps a failed solve. Nodes lists free node indices
// known to be unconstrained; it is empty when the failure was numerical.
type SingularSystemError struct {
	Nodes  []int
	Reason string
	Err    error
}

func (e *SingularSystemError) Error() string {
	msg := ErrSingularSystem.Error() + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SingularSystemError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSingularSystem}
	}
	return []error{ErrSingularSystem, e.Err}
}
