package codegen

import (
	"errors"
	"fmt"
)

var (
	// ErrNaming marks failures to derive an identifier for an operation,
	// module, or parameter.
	ErrNaming = errors.New("codegen: naming failure")
	// ErrTypeResolution marks schema references that cannot be mapped to a type.
	ErrTypeResolution = errors.New("codegen: type resolution failure")
)

// NamingError reports an identifier that could not be sanitized. It aborts
// the whole generation run.
type NamingError struct {
	Operation string
	Name      string
	Err       error
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("operation %s: cannot derive identifier from %q: %v", e.Operation, e.Name, e.Err)
}

func (e *NamingError) Unwrap() error { return e.Err }

func (e *NamingError) Is(target error) bool { return target == ErrNaming }

// TypeResolutionError reports a schema reference with no type name.
type TypeResolutionError struct {
	Operation string
	Ref       string
	Err       error
}

func (e *TypeResolutionError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("cannot resolve type for %q: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("operation %s: cannot resolve type for %q: %v", e.Operation, e.Ref, e.Err)
}

func (e *TypeResolutionError) Unwrap() error { return e.Err }

func (e *TypeResolutionError) Is(target error) bool { return target == ErrTypeResolution }
