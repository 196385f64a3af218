package tact

import (
	"errors"
	"fmt"
)

// Sentinel errors for binding failures.
var (
	// ErrInvalidPrefix indicates a message whose 32-bit header does not match its type.
	ErrInvalidPrefix = errors.New("tact: invalid serialization prefix")

	// ErrMissingField indicates a required field has no value.
	ErrMissingField = errors.New("tact: missing required field")

	// ErrTypeNotFound indicates a type name not present in the ABI.
	ErrTypeNotFound = errors.New("tact: type not found")

	// ErrUnsupportedType indicates an ABI field kind or type the codec cannot encode.
	ErrUnsupportedType = errors.New("tact: unsupported field type")

	// ErrValueType indicates a record value of the wrong Go type for its field.
	ErrValueType = errors.New("tact: value has wrong type for field")
)

// FieldError wraps a failure with the type and field it occurred in.
type FieldError struct {
	Type  string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("tact: %s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// fieldErr returns nil when err is nil, otherwise a *FieldError.
func fieldErr(typ, field string, err error) error {
	if err == nil {
		return nil
	}
	return &FieldError{Type: typ, Field: field, Err: err}
}
