package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFunction is matched by errors.Is for *MalformedFunctionError.
	ErrMalformedFunction = errors.New("malformed function")
	// ErrUnsupportedParameter is matched by errors.Is for *UnsupportedParameterError.
	ErrUnsupportedParameter = errors.New("unsupported parameter syntax")
)

// MalformedFunctionError means a function_definition node lacks a required
// field, which happens on partial or error-recovered parses.
type MalformedFunctionError struct {
	Field string // "name", "parameters" or "body"
	Name  string // function name when the name field itself is present
	Line  int
}

func (e *MalformedFunctionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("line %d: malformed function %q: missing %s", e.Line, e.Name, e.Field)
	}
	return fmt.Sprintf("line %d: malformed function: missing %s", e.Line, e.Field)
}

func (e *MalformedFunctionError) Unwrap() error {
	return ErrMalformedFunction
}

// UnsupportedParameterError carries the node kind of a parameter the
// extractor cannot map to a Parameter variant.
type UnsupportedParameterError struct {
	Kind     string
	Function string
	Line     int
}

func (e *UnsupportedParameterError) Error() string {
	return fmt.Sprintf("line %d: function %q: unsupported parameter syntax %q", e.Line, e.Function, e.Kind)
}

func (e *UnsupportedParameterError) Unwrap() error {
	return ErrUnsupportedParameter
}
