package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnimplemented reports a statement or expression kind the compiler
	// does not support.
	ErrUnimplemented = errors.New("compiler: unimplemented")
	// ErrUnexpectedLiteral reports a literal outside the representable set
	// for its position.
	ErrUnexpectedLiteral = errors.New("compiler: unexpected literal")
	// ErrUnresolvedLocal reports an explicit local not bound by any scope.
	ErrUnresolvedLocal = errors.New("compiler: unresolved local")
	// ErrMissingParams reports a keyword invoked without its required params.
	ErrMissingParams = errors.New("compiler: missing params")
)

// Error carries the offending kind and name of a compile failure.
type Error struct {
	Kind string
	Name string
	Err  error
}

func (e *Error) Error() string {
	msg := "compile failed"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Kind != "" && e.Name != "":
		return fmt.Sprintf("%s %s %q", msg, e.Kind, e.Name)
	case e.Kind != "":
		return fmt.Sprintf("%s %s", msg, e.Kind)
	case e.Name != "":
		return fmt.Sprintf("%s %q", msg, e.Name)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func unimplemented(kind, name string) error {
	return &Error{Kind: kind, Name: name, Err: ErrUnimplemented}
}
