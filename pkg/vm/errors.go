package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned by Lower for statements the engine does not
	// execute: components, modifiers, attribute splats and block queries.
	ErrUnsupported = errors.New("vm: unsupported statement")

	// ErrStackUnderflow signals a malformed program.
	ErrStackUnderflow = errors.New("vm: operand stack underflow")

	// ErrNotCallable is returned when a call head does not resolve to a helper.
	ErrNotCallable = errors.New("vm: value is not callable")

	// ErrClosed is returned by Rerender after Close.
	ErrClosed = errors.New("vm: result closed")
)

// HelperError reports a failed helper invocation.
type HelperError struct {
	Name string
	Err  error
}

func (e *HelperError) Error() string {
	return fmt.Sprintf("vm: helper %q: %v", e.Name, e.Err)
}

func (e *HelperError) Unwrap() error {
	return e.Err
}
