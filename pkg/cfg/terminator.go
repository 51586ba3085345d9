package cfg

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Terminator describes how control leaves a block. The variants are closed
// to this package; switch on the concrete type.
type Terminator interface {
	// Successors returns the target blocks in edge order.
	Successors() []BlockID
	// Kind names the variant.
	Kind() string

	edges(from BlockID) []Edge
}

// Fallthrough continues unconditionally into Target.
type Fallthrough struct {
	Target BlockID
}

// Branch evaluates Cond and continues into Then or Else. For a for loop
// header, Cond is the iterable and Else is taken on exhaustion.
type Branch struct {
	Cond *sitter.Node
	Then BlockID
	Else BlockID
}

// Return leaves the function. Value is nil for a bare return.
type Return struct {
	Value *sitter.Node
}

// JumpKind tells why a Jump was emitted.
type JumpKind int

const (
	JumpLoopEntry JumpKind = iota
	JumpBackEdge
	JumpBreak
	JumpContinue
)

// Jump transfers control to Target outside ordinary fall through.
type Jump struct {
	Target BlockID
	Reason JumpKind
}

// Raise leaves the function by raising. Value is nil for a bare re-raise.
type Raise struct {
	Value *sitter.Node
}

// Try enters a protected region. Any handler may be entered from the body,
// and Finally (NoBlock when absent) is entered on every way out.
type Try struct {
	Body     BlockID
	Handlers []BlockID
	Finally  BlockID
}

// Unreachable ends a path with no successors.
type Unreachable struct{}

func (t Fallthrough) Successors() []BlockID { return []BlockID{t.Target} }
func (t Branch) Successors() []BlockID      { return []BlockID{t.Then, t.Else} }
func (Return) Successors() []BlockID        { return nil }
func (t Jump) Successors() []BlockID        { return []BlockID{t.Target} }
func (Raise) Successors() []BlockID         { return nil }
func (Unreachable) Successors() []BlockID   { return nil }

func (t Try) Successors() []BlockID {
	succs := make([]BlockID, 0, len(t.Handlers)+2)
	succs = append(succs, t.Body)
	succs = append(succs, t.Handlers...)
	if t.Finally != NoBlock {
		succs = append(succs, t.Finally)
	}
	return succs
}

func (Fallthrough) Kind() string { return "fallthrough" }
func (Branch) Kind() string      { return "branch" }
func (Return) Kind() string      { return "return" }
func (Jump) Kind() string        { return "jump" }
func (Raise) Kind() string       { return "raise" }
func (Try) Kind() string         { return "try" }
func (Unreachable) Kind() string { return "unreachable" }

func (t Fallthrough) edges(from BlockID) []Edge {
	return []Edge{{From: from, To: t.Target, Kind: EdgeFallthrough}}
}

func (t Branch) edges(from BlockID) []Edge {
	return []Edge{
		{From: from, To: t.Then, Kind: EdgeTrue},
		{From: from, To: t.Else, Kind: EdgeFalse},
	}
}

func (t Jump) edges(from BlockID) []Edge {
	kind := EdgeLoopEntry
	switch t.Reason {
	case JumpBackEdge:
		kind = EdgeBackEdge
	case JumpBreak:
		kind = EdgeBreak
	case JumpContinue:
		kind = EdgeContinue
	}
	return []Edge{{From: from, To: t.Target, Kind: kind}}
}

func (t Try) edges(from BlockID) []Edge {
	edges := []Edge{{From: from, To: t.Body, Kind: EdgeTryBody}}
	for _, h := range t.Handlers {
		edges = append(edges, Edge{From: from, To: h, Kind: EdgeException})
	}
	if t.Finally != NoBlock {
		edges = append(edges, Edge{From: from, To: t.Finally, Kind: EdgeFinally})
	}
	return edges
}

func (Return) edges(BlockID) []Edge      { return nil }
func (Raise) edges(BlockID) []Edge       { return nil }
func (Unreachable) edges(BlockID) []Edge { return nil }

// String names the jump kind.
func (k JumpKind) String() string {
	switch k {
	case JumpLoopEntry:
		return "loop_entry"
	case JumpBackEdge:
		return "back_edge"
	case JumpBreak:
		return "break"
	case JumpContinue:
		return "continue"
	default:
		return "unknown"
	}
}
