package cfg

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// BlockType represents the role of a CFG block in rendered output.
type BlockType string

const (
	BlockTypeEntry      BlockType = "entry"       // Function entry point
	BlockTypeBranch     BlockType = "branch"      // Ends in a conditional branch
	BlockTypeLoopHeader BlockType = "loop_header" // Target of a back edge
	BlockTypeTry        BlockType = "try"         // Enters a protected region
	BlockTypeReturn     BlockType = "return"      // Return statement
	BlockTypeRaise      BlockType = "raise"       // Raise statement
	BlockTypeExit       BlockType = "exit"        // Falls off the end of the function
	BlockTypePlain      BlockType = "plain"       // Regular statements
)

// CFGBlock is the rendered form of a basic block.
type CFGBlock struct {
	ID           string    `json:"id" yaml:"id" msgpack:"id"`
	Type         BlockType `json:"type" yaml:"type" msgpack:"type"`
	StartLine    int       `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	EndLine      int       `json:"end_line" yaml:"end_line" msgpack:"end_line"`
	Statements   []string  `json:"statements" yaml:"statements" msgpack:"statements"`
	Terminator   string    `json:"terminator" yaml:"terminator" msgpack:"terminator"`
	Predecessors []string  `json:"predecessors" yaml:"predecessors" msgpack:"predecessors"`
}

// CFGEdge is the rendered form of an edge.
type CFGEdge struct {
	SourceID  string   `json:"source_id" yaml:"source_id" msgpack:"source_id"`
	TargetID  string   `json:"target_id" yaml:"target_id" msgpack:"target_id"`
	EdgeType  EdgeKind `json:"edge_type" yaml:"edge_type" msgpack:"edge_type"`
	Condition string   `json:"condition,omitempty" yaml:"condition,omitempty" msgpack:"condition,omitempty"`
}

// CFGDiagnostic is the rendered form of a Diagnostic.
type CFGDiagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind" msgpack:"kind"`
	BlockID string         `json:"block_id" yaml:"block_id" msgpack:"block_id"`
	Line    int            `json:"line" yaml:"line" msgpack:"line"`
	Text    string         `json:"text" yaml:"text" msgpack:"text"`
}

// CFGInfo is a self-contained rendering of a Graph. Unlike Graph it copies
// statement text, so it stays valid after the syntax tree is closed.
type CFGInfo struct {
	FunctionName         string          `json:"function_name" yaml:"function_name" msgpack:"function_name"`
	Params               []string        `json:"params" yaml:"params" msgpack:"params"`
	Line                 int             `json:"line" yaml:"line" msgpack:"line"`
	Blocks               []CFGBlock      `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	Edges                []CFGEdge       `json:"edges" yaml:"edges" msgpack:"edges"`
	EntryBlockID         string          `json:"entry_block_id" yaml:"entry_block_id" msgpack:"entry_block_id"`
	ExitBlockIDs         []string        `json:"exit_block_ids" yaml:"exit_block_ids" msgpack:"exit_block_ids"`
	Diagnostics          []CFGDiagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	CyclomaticComplexity int             `json:"cyclomatic_complexity" yaml:"cyclomatic_complexity" msgpack:"cyclomatic_complexity"`
}

// BlockName formats a block id for rendered output.
func BlockName(id BlockID) string {
	return fmt.Sprintf("block_%d", id)
}

// Info renders g using content, the buffer the tree was parsed from.
func (g *Graph) Info(functionName string, content []byte) *CFGInfo {
	info := &CFGInfo{
		FunctionName:         functionName,
		Blocks:               make([]CFGBlock, 0, len(g.Blocks)),
		Edges:                make([]CFGEdge, 0),
		EntryBlockID:         BlockName(g.Entry),
		ExitBlockIDs:         make([]string, 0, len(g.Exits)),
		CyclomaticComplexity: g.CyclomaticComplexity(),
	}

	loopHeaders := make(map[BlockID]bool)
	for _, e := range g.Edges() {
		if e.Kind == EdgeBackEdge {
			loopHeaders[e.To] = true
		}
	}

	for _, b := range g.Blocks {
		block := CFGBlock{
			ID:           BlockName(b.ID),
			Type:         g.blockType(b, loopHeaders),
			Statements:   make([]string, 0, len(b.Statements)),
			Predecessors: make([]string, 0),
		}
		for _, stmt := range b.Statements {
			block.Statements = append(block.Statements, nodeText(stmt, content))
		}
		if len(b.Statements) > 0 {
			block.StartLine = line(b.Statements[0])
			block.EndLine = int(b.Statements[len(b.Statements)-1].EndPoint().Row) + 1
		}
		if b.Terminator != nil {
			block.Terminator = b.Terminator.Kind()
		}
		for _, p := range g.Predecessors(b.ID) {
			block.Predecessors = append(block.Predecessors, BlockName(p))
		}
		info.Blocks = append(info.Blocks, block)

		var cond string
		if br, ok := b.Terminator.(Branch); ok {
			cond = nodeText(br.Cond, content)
		}
		for _, e := range g.edgesFrom(b) {
			edge := CFGEdge{
				SourceID: BlockName(e.From),
				TargetID: BlockName(e.To),
				EdgeType: e.Kind,
			}
			if e.Kind == EdgeTrue || e.Kind == EdgeFalse {
				edge.Condition = cond
			}
			info.Edges = append(info.Edges, edge)
		}
	}

	for _, id := range g.Exits {
		info.ExitBlockIDs = append(info.ExitBlockIDs, BlockName(id))
	}

	for _, d := range g.Diagnostics {
		info.Diagnostics = append(info.Diagnostics, CFGDiagnostic{
			Kind:    d.Kind,
			BlockID: BlockName(d.Block),
			Line:    line(d.Node),
			Text:    nodeText(d.Node, content),
		})
	}

	return info
}

func (g *Graph) edgesFrom(b *Block) []Edge {
	if b.Terminator == nil {
		return nil
	}
	return b.Terminator.edges(b.ID)
}

func (g *Graph) blockType(b *Block, loopHeaders map[BlockID]bool) BlockType {
	if b.ID == g.Entry {
		return BlockTypeEntry
	}
	if loopHeaders[b.ID] {
		return BlockTypeLoopHeader
	}
	switch b.Terminator.(type) {
	case Branch:
		return BlockTypeBranch
	case Try:
		return BlockTypeTry
	case Return:
		return BlockTypeReturn
	case Raise:
		return BlockTypeRaise
	case Unreachable:
		return BlockTypeExit
	}
	return BlockTypePlain
}

// CyclomaticComplexity computes E - N + 2 over the blocks reachable from entry.
func (g *Graph) CyclomaticComplexity() int {
	reachable := g.Reachable()
	if len(reachable) == 0 {
		return 1
	}

	in := make(map[BlockID]bool, len(reachable))
	for _, id := range reachable {
		in[id] = true
	}

	edges := 0
	for _, id := range reachable {
		for _, succ := range g.Successors(id) {
			if in[succ] {
				edges++
			}
		}
	}

	// paths that leave the function all reach a single virtual exit
	exits := 0
	for _, id := range reachable {
		if len(g.Successors(id)) == 0 {
			exits++
		}
	}
	if exits > 0 {
		return edges + exits - (len(reachable) + 1) + 2
	}
	return edges - len(reachable) + 2
}

// nodeText extracts the text content of a node from the source.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(content)) {
		return ""
	}
	return string(content[start:end])
}
