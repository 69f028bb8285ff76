package nn

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrBackwardBeforeForward = errors.New("backward called without a matching forward")
	ErrNotInitialized        = errors.New("parameters are not initialized")
	ErrShapeMismatch         = errors.New("shape mismatch")
	ErrInvalidConfig         = errors.New("invalid operator configuration")
	ErrUnknownOperator       = errors.New("unknown operator type")
)

// PreconditionError reports a call made in a state where it is not allowed,
// such as Backward without a prior Forward. It is a programming error, not a
// data problem.
type PreconditionError struct {
	Op  string // Operation that was refused (e.g. "Dense(4, tanh).Backward")
	Err error  // Underlying sentinel
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: precondition violated: %v", e.Op, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// NumericError reports a non-finite or undefined value produced during
// computation.
type NumericError struct {
	Location string  // Where the value was produced (operator or channel)
	Index    int     // Flat index of the offending element, -1 if not applicable
	Value    float64 // The offending value
	Details  string  // Additional details
}

// Error implements the error interface.
func (e *NumericError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("numeric error in %s: %s", e.Location, e.Details)
	}
	return fmt.Sprintf("numeric error in %s at index %d (value %v): %s", e.Location, e.Index, e.Value, e.Details)
}

// Mismatch is one parameter whose analytic gradient disagrees with the
// finite-difference estimate.
type Mismatch struct {
	Operator  string
	Parameter string
	Index     int
	Analytic  float64
	Numeric   float64
}

// GradientCheckError lists every parameter that failed a gradient check.
type GradientCheckError struct {
	Mismatches []Mismatch
}

// Error implements the error interface.
func (e *GradientCheckError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gradient check failed for %d parameter(s)", len(e.Mismatches))
	for i, m := range e.Mismatches {
		if i == 5 {
			fmt.Fprintf(&b, "; ...")
			break
		}
		fmt.Fprintf(&b, "; %s %s[%d]: analytic %.6g, numeric %.6g",
			m.Operator, m.Parameter, m.Index, m.Analytic, m.Numeric)
	}
	return b.String()
}

func precondition(op Operator, method string, err error) error {
	return &PreconditionError{Op: op.String() + "." + method, Err: err}
}

func shapeError(op Operator, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrShapeMismatch, fmt.Sprintf(format, args...))
}
