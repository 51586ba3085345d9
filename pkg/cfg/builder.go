package cfg

import (
	"errors"

	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultMaxNesting bounds statement nesting during a build. CPython rejects
// source indented deeper than 100 levels, so real code never reaches it.
const DefaultMaxNesting = 100

// BuildOption configures Build.
type BuildOption func(*builder)

// WithMaxNesting sets the statement nesting bound; n <= 0 disables it.
func WithMaxNesting(n int) BuildOption {
	return func(b *builder) {
		b.maxNesting = n
	}
}

// simpleStatements are appended to the current block as-is. Nested
// definitions only bind a name here; their bodies get their own graphs.
var simpleStatements = map[string]bool{
	"expression_statement":    true,
	"pass_statement":          true,
	"assert_statement":        true,
	"delete_statement":        true,
	"global_statement":        true,
	"nonlocal_statement":      true,
	"import_statement":        true,
	"import_from_statement":   true,
	"future_import_statement": true,
	"print_statement":         true,
	"exec_statement":          true,
	"type_alias_statement":    true,
	"function_definition":     true,
	"class_definition":        true,
	"decorated_definition":    true,
}

// loopFrame is the break/continue context of one enclosing loop.
type loopFrame struct {
	header BlockID
	exit   *mergePoint
}

// mergePoint allocates a join block the first time something targets it.
type mergePoint struct {
	id BlockID
}

func newMergePoint() *mergePoint {
	return &mergePoint{id: NoBlock}
}

func (m *mergePoint) get(b *builder) BlockID {
	if m.id == NoBlock {
		m.id = b.newBlock()
	}
	return m.id
}

// arm is one guarded alternative of an if/elif chain or a match.
type arm struct {
	cond *sitter.Node
	body *sitter.Node
}

type builder struct {
	g          *Graph
	cur        BlockID
	open       bool
	loops      []loopFrame
	nesting    int
	maxNesting int
}

// Build constructs the control flow graph of a function body block.
// Statement nodes in the graph point into the caller's tree.
func Build(body *sitter.Node, opts ...BuildOption) (*Graph, error) {
	if body == nil {
		return nil, errors.New("nil function body")
	}

	b := &builder{
		g:          &Graph{},
		maxNesting: DefaultMaxNesting,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.g.Entry = b.newBlock()
	b.enter(b.g.Entry)

	if err := b.sequence(body); err != nil {
		return nil, err
	}
	if b.open {
		b.terminate(Unreachable{})
	}

	b.g.finalize()
	return b.g, nil
}

func (b *builder) newBlock() BlockID {
	id := BlockID(len(b.g.Blocks))
	b.g.Blocks = append(b.g.Blocks, &Block{ID: id})
	return id
}

func (b *builder) enter(id BlockID) {
	b.cur = id
	b.open = true
}

// terminate closes the current block. b.cur keeps pointing at it so that
// statements that follow can be attributed to it.
func (b *builder) terminate(t Terminator) {
	b.g.Blocks[b.cur].Terminator = t
	b.open = false
}

func (b *builder) closeBlock(id BlockID, t Terminator) {
	b.g.Blocks[id].Terminator = t
}

func (b *builder) appendStmt(stmt *sitter.Node) {
	blk := b.g.Blocks[b.cur]
	blk.Statements = append(blk.Statements, stmt)
}

// sequence builds the statements of a block node in source order.
func (b *builder) sequence(block *sitter.Node) error {
	if block == nil {
		return nil
	}

	b.nesting++
	defer func() { b.nesting-- }()
	if b.maxNesting > 0 && b.nesting > b.maxNesting {
		return &NestingLimitError{MaxNesting: b.maxNesting, Line: line(block)}
	}

	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		if stmt == nil || stmt.Type() == "comment" {
			continue
		}
		if !b.open {
			b.g.Diagnostics = append(b.g.Diagnostics, Diagnostic{
				Kind:  DiagnosticUnreachableCode,
				Block: b.cur,
				Node:  stmt,
			})
			continue
		}
		if err := b.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) statement(stmt *sitter.Node) error {
	kind := stmt.Type()
	if simpleStatements[kind] {
		b.appendStmt(stmt)
		return nil
	}

	switch kind {
	case "return_statement":
		b.appendStmt(stmt)
		b.terminate(Return{Value: firstNamedChild(stmt)})

	case "raise_statement":
		b.appendStmt(stmt)
		b.terminate(Raise{Value: firstNamedChild(stmt)})

	case "break_statement":
		frame, ok := b.innermostLoop()
		if !ok {
			return &UnsupportedStatementError{Kind: kind, Line: line(stmt), Reason: "outside loop"}
		}
		b.appendStmt(stmt)
		b.terminate(Jump{Target: frame.exit.get(b), Reason: JumpBreak})

	case "continue_statement":
		frame, ok := b.innermostLoop()
		if !ok {
			return &UnsupportedStatementError{Kind: kind, Line: line(stmt), Reason: "outside loop"}
		}
		b.appendStmt(stmt)
		b.terminate(Jump{Target: frame.header, Reason: JumpContinue})

	case "if_statement":
		return b.ifStatement(stmt)

	case "while_statement":
		return b.loop(field(stmt, "condition"), nil, field(stmt, "body"), elseBody(stmt))

	case "for_statement":
		return b.loop(field(stmt, "right"), field(stmt, "left"), field(stmt, "body"), elseBody(stmt))

	case "try_statement":
		return b.tryStatement(stmt)

	case "with_statement":
		return b.withStatement(stmt)

	case "match_statement":
		return b.matchStatement(stmt)

	default:
		return &UnsupportedStatementError{Kind: kind, Line: line(stmt)}
	}
	return nil
}

func (b *builder) innermostLoop() (loopFrame, bool) {
	if len(b.loops) == 0 {
		return loopFrame{}, false
	}
	return b.loops[len(b.loops)-1], true
}

// ifStatement flattens if/elif/else into arms sharing one merge block.
func (b *builder) ifStatement(stmt *sitter.Node) error {
	arms := []arm{{cond: field(stmt, "condition"), body: field(stmt, "consequence")}}
	var alt *sitter.Node

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "elif_clause":
			arms = append(arms, arm{cond: field(child, "condition"), body: field(child, "consequence")})
		case "else_clause":
			alt = field(child, "body")
		}
	}

	return b.branches(arms, alt)
}

// branches closes the current block with a Branch per arm. Without an
// alternative the last arm's else edge goes straight to the merge block,
// which then doubles as the continuation.
func (b *builder) branches(arms []arm, alt *sitter.Node) error {
	merge := newMergePoint()
	var exits []BlockID

	for i, a := range arms {
		toMerge := i == len(arms)-1 && alt == nil

		thenID := b.newBlock()
		var elseID BlockID
		if toMerge {
			elseID = merge.get(b)
		} else {
			elseID = b.newBlock()
		}
		b.terminate(Branch{Cond: a.cond, Then: thenID, Else: elseID})

		b.enter(thenID)
		if err := b.sequence(a.body); err != nil {
			return err
		}
		if b.open {
			exits = append(exits, b.cur)
		}

		if !toMerge {
			b.enter(elseID)
		}
	}

	if alt != nil {
		if err := b.sequence(alt); err != nil {
			return err
		}
		if b.open {
			exits = append(exits, b.cur)
		}
	}

	b.join(merge, exits)
	return nil
}

// join wires every open exit into the merge block and continues there. With
// no exits and no other reference to the merge block, the path ends.
func (b *builder) join(merge *mergePoint, exits []BlockID) {
	if len(exits) == 0 && merge.id == NoBlock {
		b.open = false
		return
	}
	id := merge.get(b)
	for _, exit := range exits {
		b.closeBlock(exit, Fallthrough{Target: id})
	}
	b.enter(id)
}

// loop builds while and for loops. target is the for loop's assignment
// target, assigned at the top of every iteration.
func (b *builder) loop(cond, target, body, orelse *sitter.Node) error {
	header := b.newBlock()
	b.terminate(Jump{Target: header, Reason: JumpLoopEntry})

	bodyID := b.newBlock()
	exit := newMergePoint()

	elseID := NoBlock
	if orelse != nil {
		elseID = b.newBlock()
	} else {
		exit.get(b)
	}

	falseTarget := elseID
	if elseID == NoBlock {
		falseTarget = exit.id
	}
	b.closeBlock(header, Branch{Cond: cond, Then: bodyID, Else: falseTarget})

	b.loops = append(b.loops, loopFrame{header: header, exit: exit})
	b.enter(bodyID)
	if target != nil {
		b.appendStmt(target)
	}
	err := b.sequence(body)
	b.loops = b.loops[:len(b.loops)-1]
	if err != nil {
		return err
	}
	if b.open {
		b.terminate(Jump{Target: header, Reason: JumpBackEdge})
	}

	// the else clause runs only when the condition fails; break skips it
	if elseID != NoBlock {
		b.enter(elseID)
		if err := b.sequence(orelse); err != nil {
			return err
		}
		if b.open {
			b.terminate(Fallthrough{Target: exit.get(b)})
		}
	}

	if exit.id == NoBlock {
		b.open = false
		return nil
	}
	b.enter(exit.id)
	return nil
}

// tryStatement models exceptions conservatively: the protected region may
// transfer to any handler, and the finally block is entered on every way out.
func (b *builder) tryStatement(stmt *sitter.Node) error {
	var handlers []*sitter.Node
	var orelse, finally *sitter.Node

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "except_clause", "except_group_clause":
			handlers = append(handlers, child)
		case "else_clause":
			orelse = field(child, "body")
		case "finally_clause":
			finally = suite(child)
		}
	}

	bodyID := b.newBlock()
	handlerIDs := make([]BlockID, len(handlers))
	for i := range handlers {
		handlerIDs[i] = b.newBlock()
	}
	finallyID := NoBlock
	if finally != nil {
		finallyID = b.newBlock()
	}
	b.terminate(Try{Body: bodyID, Handlers: handlerIDs, Finally: finallyID})

	var exits []BlockID

	b.enter(bodyID)
	if err := b.sequence(field(stmt, "body")); err != nil {
		return err
	}
	if err := b.sequence(orelse); err != nil {
		return err
	}
	if b.open {
		exits = append(exits, b.cur)
	}

	for i, h := range handlers {
		b.enter(handlerIDs[i])
		if match := firstNamedChild(h); match != nil && match.Type() != "block" {
			b.appendStmt(match)
		}
		if err := b.sequence(suite(h)); err != nil {
			return err
		}
		if b.open {
			exits = append(exits, b.cur)
		}
	}

	if finallyID == NoBlock {
		b.join(newMergePoint(), exits)
		return nil
	}

	for _, exit := range exits {
		b.closeBlock(exit, Fallthrough{Target: finallyID})
	}
	b.enter(finallyID)
	if err := b.sequence(finally); err != nil {
		return err
	}
	if !b.open {
		return nil
	}
	// reached only by abrupt exits, which resume outside this function
	if len(exits) == 0 {
		b.terminate(Unreachable{})
		return nil
	}
	// the Try edge also enters finally, so code after the statement
	// needs a block of its own
	next := b.newBlock()
	b.terminate(Fallthrough{Target: next})
	b.enter(next)
	return nil
}

// withStatement keeps the context manager header and body in the current block.
func (b *builder) withStatement(stmt *sitter.Node) error {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		if child := stmt.NamedChild(i); child.Type() == "with_clause" {
			b.appendStmt(child)
		}
	}
	return b.sequence(field(stmt, "body"))
}

// matchStatement evaluates the subject, then tests each case in order.
func (b *builder) matchStatement(stmt *sitter.Node) error {
	body := field(stmt, "body")

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		if t := child.Type(); t != "block" && t != "comment" {
			b.appendStmt(child)
		}
	}
	if body == nil {
		return nil
	}

	var arms []arm
	var alt *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		clause := body.NamedChild(i)
		if clause.Type() != "case_clause" {
			continue
		}
		// an irrefutable case must come last, so it is the fallback arm
		if irrefutable(clause) {
			alt = field(clause, "consequence")
			break
		}
		arms = append(arms, arm{cond: childOfType(clause, "case_pattern"), body: field(clause, "consequence")})
	}
	if len(arms) == 0 {
		return b.sequence(alt)
	}
	return b.branches(arms, alt)
}

// irrefutable reports whether a case clause matches every subject: an
// unguarded wildcard or bare capture pattern.
func irrefutable(clause *sitter.Node) bool {
	if field(clause, "guard") != nil {
		return false
	}
	var pattern *sitter.Node
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		if child.Type() != "case_pattern" {
			continue
		}
		if pattern != nil {
			return false
		}
		pattern = child
	}
	if pattern == nil {
		return false
	}
	switch pattern.NamedChildCount() {
	case 0:
		return pattern.ChildCount() == 1 && pattern.Child(0).Type() == "_"
	case 1:
		name := pattern.NamedChild(0)
		return name.Type() == "dotted_name" && name.NamedChildCount() == 1
	}
	return false
}

// field returns the named field child, treating parser-inserted MISSING nodes as absent.
func field(node *sitter.Node, name string) *sitter.Node {
	child := node.ChildByFieldName(name)
	if child == nil || child.IsMissing() {
		return nil
	}
	return child
}

// elseBody returns the body of a loop's else clause.
func elseBody(stmt *sitter.Node) *sitter.Node {
	alt := field(stmt, "alternative")
	if alt == nil {
		return nil
	}
	return field(alt, "body")
}

// suite returns the block of a clause whose body is not a named field.
func suite(node *sitter.Node) *sitter.Node {
	return childOfType(node, "block")
}

func childOfType(node *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child != nil && child.Type() == kind {
			return child
		}
	}
	return nil
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child != nil && child.Type() != "comment" {
			return child
		}
	}
	return nil
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}
