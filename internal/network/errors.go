package network

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrInvalidNetwork = errors.New("network is not valid")
	ErrNoForward      = errors.New("no forward pass to propagate")
	ErrNoSample       = errors.New("no expected output recorded")
	ErrUnknownInput   = errors.New("unknown input")
	ErrUnknownChannel = errors.New("unknown channel")
	ErrUnknownLayer   = errors.New("unknown layer")
	ErrIndexRange     = errors.New("index out of range")
	ErrInvalidClass   = errors.New("class out of range")
)

// ValidationType classifies a validation failure.
type ValidationType string

// Validation failure types.
const (
	InvalidID           ValidationType = "invalid_id"
	DuplicateID         ValidationType = "duplicate_id"
	NoInputs            ValidationType = "no_inputs"
	NoLayers            ValidationType = "no_layers"
	EmptyLayer          ValidationType = "empty_layer"
	NoSources           ValidationType = "no_sources"
	UnresolvedSource    ValidationType = "unresolved_source"
	IncompatibleConcat  ValidationType = "incompatible_concat"
	OperatorShape       ValidationType = "operator_shape"
	MisplacedActivation ValidationType = "misplaced_activation"
	InvalidShape        ValidationType = "invalid_shape"
)

// ValidationError describes one structural problem found by Validate.
type ValidationError struct {
	Layer   string // Layer id, empty for network-level problems
	Channel string // Channel (or input) id, empty if not applicable
	Type    ValidationType
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var where []string
	if e.Layer != "" {
		where = append(where, "layer "+e.Layer)
	}
	if e.Channel != "" {
		where = append(where, "channel "+e.Channel)
	}
	if len(where) == 0 {
		return fmt.Sprintf("%s: %s", e.Type, e.Details)
	}
	return fmt.Sprintf("%s: %s: %s", strings.Join(where, " "), e.Type, e.Details)
}

// ValidationErrors is the full list of problems found by one Validate call.
// It matches ErrInvalidNetwork and each contained *ValidationError.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidNetwork, strings.Join(msgs, "; "))
}

// Unwrap exposes ErrInvalidNetwork followed by every validation error.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v)+1)
	errs = append(errs, ErrInvalidNetwork)
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}
