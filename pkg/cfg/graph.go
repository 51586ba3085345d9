// Package cfg builds per-function control flow graphs from Python syntax trees.
//
// A Graph is an append-only list of basic blocks. Each block holds a run of
// statement nodes and ends with a Terminator describing how control leaves
// it. Block ids are indexes into Graph.Blocks, assigned in creation order, and
// the entry block is always 0.
package cfg

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// BlockID identifies a block within its Graph.
type BlockID int

// NoBlock marks an absent optional target.
const NoBlock BlockID = -1

// Block is a maximal run of statements with a single entry and single exit.
type Block struct {
	ID         BlockID
	Statements []*sitter.Node
	Terminator Terminator
}

// EdgeKind classifies a control transfer.
type EdgeKind string

const (
	EdgeFallthrough EdgeKind = "unconditional" // Fall into the next block
	EdgeTrue        EdgeKind = "true"          // Condition held
	EdgeFalse       EdgeKind = "false"         // Condition failed
	EdgeLoopEntry   EdgeKind = "loop_entry"    // Into a loop header
	EdgeBackEdge    EdgeKind = "back_edge"     // End of loop body to header
	EdgeBreak       EdgeKind = "break"         // Out of the enclosing loop
	EdgeContinue    EdgeKind = "continue"      // To the enclosing loop header
	EdgeTryBody     EdgeKind = "try_body"      // Into a protected region
	EdgeException   EdgeKind = "exception"     // Into an exception handler
	EdgeFinally     EdgeKind = "finally"       // Into a finally clause
)

// Edge is one control transfer between two blocks.
type Edge struct {
	From BlockID
	To   BlockID
	Kind EdgeKind
}

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

// DiagnosticUnreachableCode marks statements that follow a return, raise,
// break or continue in the same statement sequence.
const DiagnosticUnreachableCode DiagnosticKind = "unreachable_code"

// Diagnostic is a non-fatal finding recorded while building a graph.
type Diagnostic struct {
	Kind  DiagnosticKind
	Block BlockID // the block whose terminator made Node unreachable
	Node  *sitter.Node
}

// Graph is the control flow graph of one function body.
// It is immutable once returned by Build.
type Graph struct {
	Entry       BlockID
	Blocks      []*Block
	Exits       []BlockID
	Diagnostics []Diagnostic

	preds [][]BlockID
}

// Block returns the block with the given id, or nil if it does not exist.
func (g *Graph) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(g.Blocks) {
		return nil
	}
	return g.Blocks[id]
}

// Successors returns the targets of id's terminator in edge order.
func (g *Graph) Successors(id BlockID) []BlockID {
	b := g.Block(id)
	if b == nil || b.Terminator == nil {
		return nil
	}
	return b.Terminator.Successors()
}

// Predecessors returns the blocks with an edge into id, in ascending id order.
func (g *Graph) Predecessors(id BlockID) []BlockID {
	if g.Block(id) == nil {
		return nil
	}
	if g.preds == nil {
		g.preds = g.computePredecessors()
	}
	return g.preds[id]
}

func (g *Graph) computePredecessors() [][]BlockID {
	preds := make([][]BlockID, len(g.Blocks))
	for _, b := range g.Blocks {
		for _, succ := range g.Successors(b.ID) {
			if g.Block(succ) == nil {
				continue
			}
			// a branch may target the same block twice; record it once
			if n := len(preds[succ]); n > 0 && preds[succ][n-1] == b.ID {
				continue
			}
			preds[succ] = append(preds[succ], b.ID)
		}
	}
	return preds
}

// Edges returns every edge of the graph grouped by source block.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, b := range g.Blocks {
		if b.Terminator == nil {
			continue
		}
		edges = append(edges, b.Terminator.edges(b.ID)...)
	}
	return edges
}

// Reachable returns the ids of blocks reachable from the entry, in ascending order.
func (g *Graph) Reachable() []BlockID {
	if g.Block(g.Entry) == nil {
		return nil
	}

	seen := make([]bool, len(g.Blocks))
	stack := []BlockID{g.Entry}
	seen[g.Entry] = true
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range g.Successors(id) {
			if g.Block(succ) != nil && !seen[succ] {
				seen[succ] = true
				stack = append(stack, succ)
			}
		}
	}

	var ids []BlockID
	for i, ok := range seen {
		if ok {
			ids = append(ids, BlockID(i))
		}
	}
	return ids
}

// finalize derives the exit set and predecessor cache after construction.
func (g *Graph) finalize() {
	g.Exits = g.Exits[:0]
	for _, b := range g.Blocks {
		if b.Terminator != nil && len(b.Terminator.Successors()) == 0 {
			g.Exits = append(g.Exits, b.ID)
		}
	}
	g.preds = g.computePredecessors()
}

// Validate checks the structural invariants of the graph and reports every
// violation found.
func (g *Graph) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(g.Blocks) == 0 {
		return errors.New("graph has no blocks")
	}
	if g.Block(g.Entry) == nil {
		add("entry block %d does not exist", g.Entry)
	}

	for i, b := range g.Blocks {
		if b == nil {
			add("block %d is nil", i)
			continue
		}
		if b.ID != BlockID(i) {
			add("block at index %d has id %d", i, b.ID)
		}
		if b.Terminator == nil {
			add("block %d has no terminator", i)
			continue
		}
		for _, succ := range b.Terminator.Successors() {
			if g.Block(succ) == nil {
				add("block %d: edge to missing block %d", i, succ)
			}
		}
	}

	for _, id := range g.Exits {
		if len(g.Successors(id)) != 0 {
			add("exit block %d has successors", id)
		}
	}

	return errors.Join(errs...)
}
