// Package walk provides a lazy depth-first traversal over cursor-navigated trees.
//
// The walker never recurses and never materializes parent pointers: all
// navigation goes through a positional cursor, so deep trees cost no stack
// and a traversal can be bounded with WithMaxDepth.
package walk

import (
	"errors"
	"fmt"
	"iter"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrTraversalLimitExceeded is matched by errors.Is when a walk hits its depth bound.
var ErrTraversalLimitExceeded = errors.New("traversal limit exceeded")

// Cursor is the three-move navigation capability the walker needs.
// *sitter.TreeCursor implements Cursor[*sitter.Node].
type Cursor[N any] interface {
	GoToFirstChild() bool
	GoToNextSibling() bool
	GoToParent() bool
	CurrentNode() N
}

// LimitError reports the depth at which a walk was stopped.
type LimitError struct {
	MaxDepth int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("traversal limit exceeded: depth > %d", e.MaxDepth)
}

func (e *LimitError) Unwrap() error {
	return ErrTraversalLimitExceeded
}

// Option configures a Walker.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth stops the walk with a *LimitError once the cursor would
// descend below depth n (the start node is depth 0). Zero disables the bound.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// Walker yields nodes in depth-first prefix order: a node before its
// descendants, siblings left to right. It is single-pass; obtain a fresh
// cursor to walk again.
type Walker[N any] struct {
	cursor    Cursor[N]
	ascending bool
	done      bool
	depth     int
	maxDepth  int
	err       error
}

// New returns a walker positioned at the cursor's current node.
func New[N any](cursor Cursor[N], opts ...Option) *Walker[N] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Walker[N]{cursor: cursor, maxDepth: o.maxDepth}
}

// Next returns the next node, or false once the traversal is finished.
func (w *Walker[N]) Next() (N, bool) {
	if w.done {
		var zero N
		return zero, false
	}

	node := w.cursor.CurrentNode()
	w.advance()
	return node, true
}

// advance moves the cursor to the next node in prefix order.
func (w *Walker[N]) advance() {
	for {
		// never re-enter a subtree we just climbed out of
		if !w.ascending && w.cursor.GoToFirstChild() {
			w.depth++
			if w.maxDepth > 0 && w.depth > w.maxDepth {
				w.err = &LimitError{MaxDepth: w.maxDepth}
				w.done = true
			}
			return
		}
		if w.cursor.GoToNextSibling() {
			w.ascending = false
			return
		}
		if w.cursor.GoToParent() {
			w.depth--
			w.ascending = true
			continue
		}
		w.done = true
		return
	}
}

// Err returns the error that stopped the walk early, if any.
func (w *Walker[N]) Err() error {
	return w.err
}

// Depth returns the cursor depth relative to the start node.
func (w *Walker[N]) Depth() int {
	return w.depth
}

// All adapts the walker to a range-over-func sequence.
func (w *Walker[N]) All() iter.Seq[N] {
	return func(yield func(N) bool) {
		for {
			node, ok := w.Next()
			if !ok || !yield(node) {
				return
			}
		}
	}
}

// Close releases the underlying cursor if it holds native resources.
func (w *Walker[N]) Close() {
	if c, ok := w.cursor.(interface{ Close() }); ok {
		c.Close()
	}
}

// Tree walks a whole tree-sitter tree from its root.
func Tree(tree *sitter.Tree, opts ...Option) *Walker[*sitter.Node] {
	return Node(tree.RootNode(), opts...)
}

// Node walks the subtree rooted at n. The cursor cannot climb above n.
func Node(n *sitter.Node, opts ...Option) *Walker[*sitter.Node] {
	return New[*sitter.Node](sitter.NewTreeCursor(n), opts...)
}
