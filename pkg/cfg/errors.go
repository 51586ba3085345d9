package cfg

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-cfg-query/pkg/walk"
)

// ErrUnsupportedStatement is matched by errors.Is for *UnsupportedStatementError.
var ErrUnsupportedStatement = errors.New("unsupported statement")

// UnsupportedStatementError carries the kind of a statement the builder
// cannot place in the graph.
type UnsupportedStatementError struct {
	Kind   string
	Line   int
	Reason string
}

func (e *UnsupportedStatementError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d: unsupported statement %q: %s", e.Line, e.Kind, e.Reason)
	}
	return fmt.Sprintf("line %d: unsupported statement %q", e.Line, e.Kind)
}

func (e *UnsupportedStatementError) Unwrap() error {
	return ErrUnsupportedStatement
}

// NestingLimitError is returned when statements nest deeper than the
// builder's bound. It matches walk.ErrTraversalLimitExceeded.
type NestingLimitError struct {
	MaxNesting int
	Line       int
}

func (e *NestingLimitError) Error() string {
	return fmt.Sprintf("line %d: traversal limit exceeded: statement nesting > %d", e.Line, e.MaxNesting)
}

func (e *NestingLimitError) Unwrap() error {
	return walk.ErrTraversalLimitExceeded
}
