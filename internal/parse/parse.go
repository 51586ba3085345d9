// Package parse turns Python source into tree-sitter syntax trees.
package parse

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Source is a parsed file. Content must not be modified while Tree is open,
// since every node span indexes into it.
type Source struct {
	Path    string
	Content []byte
	Tree    *sitter.Tree
}

// Close releases the tree.
func (s *Source) Close() {
	if s.Tree != nil {
		s.Tree.Close()
	}
}

// NewPythonParser creates a tree-sitter parser for Python.
// Parsers are not safe for concurrent use; create one per goroutine.
func NewPythonParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return parser
}

// Parse parses Python source held in memory.
func Parse(ctx context.Context, content []byte) (*Source, error) {
	parser := NewPythonParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing source: no tree produced")
	}

	return &Source{Content: content, Tree: tree}, nil
}

// ParseFile reads and parses a Python file.
func ParseFile(ctx context.Context, path string) (*Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	src, err := Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("parsing file %s: %w", path, err)
	}
	src.Path = path
	return src, nil
}
