// Package analysis runs the extraction pipeline over parsed Python sources:
// walk the tree, decode every function definition and build its control
// flow graph. Failures are collected per function and never abort the rest.
package analysis

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-cfg-query/internal/log"
	"github.com/l3aro/go-cfg-query/pkg/cfg"
	"github.com/l3aro/go-cfg-query/pkg/extractor"
	"github.com/l3aro/go-cfg-query/pkg/walk"
)

// Options bounds and instruments a run.
type Options struct {
	MaxDepth   int        // syntax tree depth bound, 0 for none
	MaxNesting int        // statement nesting bound, 0 for cfg.DefaultMaxNesting, negative for none
	Verify     bool       // run Graph.Validate on every built graph
	Logger     log.Logger // nil discards
}

// DefaultOptions returns the bounds used when nothing is configured.
func DefaultOptions() Options {
	return Options{MaxNesting: cfg.DefaultMaxNesting}
}

func (o Options) logger() log.Logger {
	if o.Logger == nil {
		return log.Nop()
	}
	return o.Logger
}

// Function pairs a decoded definition with its graph. Both borrow nodes from
// the analyzed tree.
type Function struct {
	Def   extractor.FunctionDef
	Graph *cfg.Graph
}

// Info renders the graph with the function's signature filled in.
func (f Function) Info(content []byte) *cfg.CFGInfo {
	info := f.Graph.Info(f.Def.Name, content)
	info.Params = extractor.ParamNames(f.Def.Params)
	info.Line = f.Def.Line
	return info
}

// Failure records why a function, or the whole tree when Function is empty
// and Line is 0, produced no graph.
type Failure struct {
	Function string
	Line     int
	Err      error
}

func (f Failure) Error() string {
	if f.Function == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %v", f.Function, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result holds everything one Analyze call produced.
type Result struct {
	Functions []Function
	Failures  []Failure
}

// Lookup returns the functions named name, in source order.
func (r *Result) Lookup(name string) []Function {
	var out []Function
	for _, fn := range r.Functions {
		if fn.Def.Name == name {
			out = append(out, fn)
		}
	}
	return out
}

// Analyze extracts every function definition in tree, nested ones included,
// and builds its graph. content must be the buffer tree was parsed from.
func Analyze(tree *sitter.Tree, content []byte, opts Options) *Result {
	logger := opts.logger()
	res := &Result{}

	var walkOpts []walk.Option
	if opts.MaxDepth > 0 {
		walkOpts = append(walkOpts, walk.WithMaxDepth(opts.MaxDepth))
	}
	w := walk.Tree(tree, walkOpts...)
	defer w.Close()

	maxNesting := opts.MaxNesting
	if maxNesting == 0 {
		maxNesting = cfg.DefaultMaxNesting
	}
	buildOpts := []cfg.BuildOption{cfg.WithMaxNesting(maxNesting)}

	for def, err := range extractor.Functions(w.All(), content) {
		if err != nil {
			res.fail(logger, failureFromExtract(err))
			continue
		}

		g, err := cfg.Build(def.Body, buildOpts...)
		if err != nil {
			res.fail(logger, Failure{Function: def.Name, Line: def.Line, Err: err})
			continue
		}
		if opts.Verify {
			if err := g.Validate(); err != nil {
				res.fail(logger, Failure{Function: def.Name, Line: def.Line, Err: fmt.Errorf("invalid graph: %w", err)})
				continue
			}
		}
		if n := len(g.Diagnostics); n > 0 {
			logger.Debug("unreachable code", "function", def.Name, "line", def.Line, "statements", n)
		}
		res.Functions = append(res.Functions, Function{Def: def, Graph: g})
	}

	if err := w.Err(); err != nil {
		res.fail(logger, Failure{Err: err})
	}

	logger.Debug("analysis finished", "functions", len(res.Functions), "failures", len(res.Failures))
	return res
}

func (r *Result) fail(logger log.Logger, f Failure) {
	r.Failures = append(r.Failures, f)
	logger.Warn("skipping function", "function", f.Function, "line", f.Line, "error", f.Err)
}

// failureFromExtract recovers the function identity carried by extractor errors.
func failureFromExtract(err error) Failure {
	var malformed *extractor.MalformedFunctionError
	if errors.As(err, &malformed) {
		return Failure{Function: malformed.Name, Line: malformed.Line, Err: err}
	}
	var unsupported *extractor.UnsupportedParameterError
	if errors.As(err, &unsupported) {
		return Failure{Function: unsupported.Function, Line: unsupported.Line, Err: err}
	}
	return Failure{Err: err}
}
