package document

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrMissingField       = errors.New("missing required field")
	ErrWrongType          = errors.New("field has wrong type")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrKindMismatch       = errors.New("document kind mismatch")
	ErrUnknownFormat      = errors.New("unknown document format")
	ErrInvalidID          = errors.New("invalid identifier")
)

// FieldError reports a field that could not be read from a document.
type FieldError struct {
	Path   string // Dotted path of the enclosing node (e.g. "layers[1].channels[0]")
	Key    string // Field name within that node
	Reason string // Human readable details
	Err    error  // Usually ErrMissingField or ErrWrongType
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	field := e.Key
	if e.Path != "" {
		field = e.Path + "." + e.Key
	}
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", field, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", field, e.Err, e.Reason)
}

// Unwrap returns the sentinel error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// WithPath prefixes the path of a *FieldError found in err's chain with elem,
// so that decoders can report where in a nested document a field failed.
// Errors that carry no FieldError are returned unchanged.
func WithPath(err error, elem string) error {
	var fe *FieldError
	if !errors.As(err, &fe) {
		return err
	}
	prefixed := *fe
	switch {
	case fe.Path == "":
		prefixed.Path = elem
	case strings.HasPrefix(fe.Path, "["):
		prefixed.Path = elem + fe.Path
	default:
		prefixed.Path = elem + "." + fe.Path
	}
	return &prefixed
}

func missing(key string) error {
	return &FieldError{Key: key, Err: ErrMissingField}
}

func wrongType(key, want string, got any) error {
	return &FieldError{
		Key:    key,
		Err:    ErrWrongType,
		Reason: fmt.Sprintf("expected %s, got %T", want, got),
	}
}
