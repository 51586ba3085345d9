package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// FunctionDef is one function definition found in a parsed file.
// Body and Node point into the caller's tree and are only valid while that
// tree is open.
type FunctionDef struct {
	Name   string       `json:"name"`
	Params []Parameter  `json:"params"`
	Body   *sitter.Node `json:"-"`
	Node   *sitter.Node `json:"-"`
	Line   int          `json:"line"`
}

// Parameter is one entry in a function's parameter list.
// The set of variants is closed to this package; switch on the concrete type.
type Parameter interface {
	// ParamName returns the bound name, or "" for separators.
	ParamName() string
	isParameter()
}

// Ident is a plain positional parameter: def f(x).
type Ident struct {
	Name string `json:"name"`
}

// Typed is an annotated parameter: def f(x: int).
type Typed struct {
	Name string       `json:"name"`
	Type *sitter.Node `json:"-"`
}

// Default is a parameter with a default value: def f(x=1).
type Default struct {
	Name  string       `json:"name"`
	Value *sitter.Node `json:"-"`
}

// TypedDefault is an annotated parameter with a default: def f(x: int = 1).
type TypedDefault struct {
	Name  string       `json:"name"`
	Type  *sitter.Node `json:"-"`
	Value *sitter.Node `json:"-"`
}

// ListSplat collects extra positional arguments: def f(*args).
type ListSplat struct {
	Name string       `json:"name"`
	Type *sitter.Node `json:"-"`
}

// DictSplat collects extra keyword arguments: def f(**kwargs).
type DictSplat struct {
	Name string       `json:"name"`
	Type *sitter.Node `json:"-"`
}

// KeywordSeparator is the bare * marking keyword-only parameters.
type KeywordSeparator struct{}

// PositionalSeparator is the / marking positional-only parameters.
type PositionalSeparator struct{}

func (p Ident) ParamName() string             { return p.Name }
func (p Typed) ParamName() string             { return p.Name }
func (p Default) ParamName() string           { return p.Name }
func (p TypedDefault) ParamName() string      { return p.Name }
func (p ListSplat) ParamName() string         { return p.Name }
func (p DictSplat) ParamName() string         { return p.Name }
func (KeywordSeparator) ParamName() string    { return "" }
func (PositionalSeparator) ParamName() string { return "" }
func (Ident) isParameter()                    {}
func (Typed) isParameter()                    {}
func (Default) isParameter()                  {}
func (TypedDefault) isParameter()             {}
func (ListSplat) isParameter()                {}
func (DictSplat) isParameter()                {}
func (KeywordSeparator) isParameter()         {}
func (PositionalSeparator) isParameter()      {}

// ParamNames returns the bound names of params in order, skipping separators.
func ParamNames(params []Parameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if name := p.ParamName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
