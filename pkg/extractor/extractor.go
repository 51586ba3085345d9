// Package extractor finds Python function definitions in a tree-sitter tree
// and decodes their name and parameter list.
package extractor

import (
	"iter"

	sitter "github.com/smacker/go-tree-sitter"
)

// FunctionKind is the node kind of a Python function definition.
const FunctionKind = "function_definition"

// Functions filters nodes for function definitions and yields, in source
// order, either a decoded FunctionDef or the error that prevented decoding it.
// A failure on one function never stops the sequence.
func Functions(nodes iter.Seq[*sitter.Node], content []byte) iter.Seq2[FunctionDef, error] {
	return func(yield func(FunctionDef, error) bool) {
		for node := range nodes {
			if node.Type() != FunctionKind {
				continue
			}
			def, err := ParseFunction(node, content)
			if !yield(def, err) {
				return
			}
		}
	}
}

// Collect drains Functions into the decoded definitions and the per-function errors.
func Collect(nodes iter.Seq[*sitter.Node], content []byte) ([]FunctionDef, []error) {
	var defs []FunctionDef
	var errs []error
	for def, err := range Functions(nodes, content) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errs
}

// ParseFunction decodes a single function_definition node.
func ParseFunction(node *sitter.Node, content []byte) (FunctionDef, error) {
	line := int(node.StartPoint().Row) + 1

	nameNode := field(node, "name")
	if nameNode == nil {
		return FunctionDef{}, &MalformedFunctionError{Field: "name", Line: line}
	}
	name := nodeText(nameNode, content)

	paramsNode := field(node, "parameters")
	if paramsNode == nil {
		return FunctionDef{}, &MalformedFunctionError{Field: "parameters", Name: name, Line: line}
	}
	body := field(node, "body")
	if body == nil {
		return FunctionDef{}, &MalformedFunctionError{Field: "body", Name: name, Line: line}
	}

	params, err := parseParameters(paramsNode, content, name)
	if err != nil {
		return FunctionDef{}, err
	}

	return FunctionDef{
		Name:   name,
		Params: params,
		Body:   body,
		Node:   node,
		Line:   line,
	}, nil
}

// parseParameters maps each named child of a parameters node to a Parameter.
func parseParameters(node *sitter.Node, content []byte, funcName string) ([]Parameter, error) {
	count := int(node.NamedChildCount())
	params := make([]Parameter, 0, count)

	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		p, ok := parseParameter(child, content)
		if !ok {
			return nil, &UnsupportedParameterError{
				Kind:     child.Type(),
				Function: funcName,
				Line:     int(child.StartPoint().Row) + 1,
			}
		}
		params = append(params, p)
	}

	return params, nil
}

func parseParameter(node *sitter.Node, content []byte) (Parameter, bool) {
	switch node.Type() {
	case "identifier":
		return Ident{Name: nodeText(node, content)}, true

	case "typed_parameter":
		// typed_parameter has no name field; the first named child is the
		// identifier or a splat pattern.
		target := node.NamedChild(0)
		typ := field(node, "type")
		if target == nil {
			return nil, false
		}
		switch target.Type() {
		case "identifier":
			return Typed{Name: nodeText(target, content), Type: typ}, true
		case "list_splat_pattern":
			name, ok := splatName(target, content)
			return ListSplat{Name: name, Type: typ}, ok
		case "dictionary_splat_pattern":
			name, ok := splatName(target, content)
			return DictSplat{Name: name, Type: typ}, ok
		}
		return nil, false

	case "default_parameter":
		name := field(node, "name")
		if name == nil || name.Type() != "identifier" {
			return nil, false
		}
		return Default{Name: nodeText(name, content), Value: field(node, "value")}, true

	case "typed_default_parameter":
		name := field(node, "name")
		if name == nil {
			return nil, false
		}
		return TypedDefault{
			Name:  nodeText(name, content),
			Type:  field(node, "type"),
			Value: field(node, "value"),
		}, true

	case "list_splat_pattern":
		name, ok := splatName(node, content)
		return ListSplat{Name: name}, ok

	case "dictionary_splat_pattern":
		name, ok := splatName(node, content)
		return DictSplat{Name: name}, ok

	case "keyword_separator":
		return KeywordSeparator{}, true

	case "positional_separator":
		return PositionalSeparator{}, true
	}

	return nil, false
}

// splatName returns the identifier inside *args or **kwargs.
func splatName(node *sitter.Node, content []byte) (string, bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "identifier" {
			return nodeText(child, content), true
		}
	}
	return "", false
}

// field returns the named field child, treating parser-inserted MISSING nodes as absent.
func field(node *sitter.Node, name string) *sitter.Node {
	child := node.ChildByFieldName(name)
	if child == nil || child.IsMissing() {
		return nil
	}
	return child
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
