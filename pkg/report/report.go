// Package report renders analysis results as text, JSON, YAML or msgpack.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-cfg-query/pkg/analysis"
	"github.com/l3aro/go-cfg-query/pkg/cfg"
)

// TextWriter is implemented by values with a human-readable rendering.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// Encode writes v to w in the named format: text, json, yaml or msgpack.
func Encode(w io.Writer, format string, v TextWriter) error {
	switch strings.ToLower(format) {
	case "", "text":
		return v.WriteText(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "msgpack":
		enc := msgpack.NewEncoder(w)
		enc.SetOmitEmpty(true)
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q", format)
}

// Failure is the rendered form of analysis.Failure.
type Failure struct {
	Function string `json:"function,omitempty" yaml:"function,omitempty" msgpack:"function,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
	Error    string `json:"error" yaml:"error" msgpack:"error"`
}

// File holds the graphs of one source file.
type File struct {
	Path      string         `json:"path" yaml:"path" msgpack:"path"`
	Functions []*cfg.CFGInfo `json:"functions" yaml:"functions" msgpack:"functions"`
	Failures  []Failure      `json:"failures,omitempty" yaml:"failures,omitempty" msgpack:"failures,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// Document is the full output of the cfg and check commands.
type Document struct {
	Files []File `json:"files" yaml:"files" msgpack:"files"`
}

// NewDocument converts analysis reports, keeping their order.
func NewDocument(reports []analysis.FileReport) *Document {
	doc := &Document{Files: make([]File, 0, len(reports))}
	for _, r := range reports {
		f := File{Path: r.Path, Functions: r.Functions}
		if f.Functions == nil {
			f.Functions = []*cfg.CFGInfo{}
		}
		if r.Err != nil {
			f.Error = r.Err.Error()
		}
		for _, fail := range r.Failures {
			f.Failures = append(f.Failures, Failure{Function: fail.Function, Line: fail.Line, Error: fail.Err.Error()})
		}
		doc.Files = append(doc.Files, f)
	}
	return doc
}

// FailureCount counts unreadable files and functions without a graph.
func (d *Document) FailureCount() int {
	n := 0
	for _, f := range d.Files {
		if f.Error != "" {
			n++
		}
		n += len(f.Failures)
	}
	return n
}

// Filter keeps only the functions named name and drops files left empty.
func (d *Document) Filter(name string) *Document {
	out := &Document{}
	for _, f := range d.Files {
		var keep []*cfg.CFGInfo
		for _, fn := range f.Functions {
			if fn.FunctionName == name {
				keep = append(keep, fn)
			}
		}
		if len(keep) > 0 {
			out.Files = append(out.Files, File{Path: f.Path, Functions: keep})
		}
	}
	return out
}

// WriteText prints every graph followed by the failures of its file.
func (d *Document) WriteText(w io.Writer) error {
	p := &printer{w: w}
	for i, f := range d.Files {
		if i > 0 {
			p.printf("\n")
		}
		p.printf("# %s\n", f.Path)
		if f.Error != "" {
			p.printf("error: %s\n", f.Error)
			continue
		}
		for _, info := range f.Functions {
			p.printf("\n")
			writeGraph(p, info)
		}
		for _, fail := range f.Failures {
			p.printf("\nskipped: %s\n", failureText(fail))
		}
	}
	return p.err
}

func failureText(f Failure) string {
	switch {
	case f.Function != "":
		return fmt.Sprintf("%s (line %d): %s", f.Function, f.Line, f.Error)
	case f.Line > 0:
		return fmt.Sprintf("line %d: %s", f.Line, f.Error)
	}
	return f.Error
}

func writeGraph(p *printer, info *cfg.CFGInfo) {
	p.printf("=== CFG for function: %s(%s) line %d ===\n", info.FunctionName, strings.Join(info.Params, ", "), info.Line)
	p.printf("Cyclomatic Complexity: %d\n", info.CyclomaticComplexity)
	p.printf("Entry Block: %s\n", info.EntryBlockID)
	p.printf("Exit Blocks: %s\n", strings.Join(info.ExitBlockIDs, ", "))
	p.printf("\nBlocks (%d):\n", len(info.Blocks))
	for _, block := range info.Blocks {
		if block.StartLine > 0 {
			p.printf("  %s (%s, lines %d-%d) -> %s\n", block.ID, block.Type, block.StartLine, block.EndLine, block.Terminator)
		} else {
			p.printf("  %s (%s) -> %s\n", block.ID, block.Type, block.Terminator)
		}
		for _, stmt := range block.Statements {
			p.printf("    %s\n", firstLine(stmt))
		}
	}

	p.printf("\nEdges (%d):\n", len(info.Edges))
	for _, edge := range info.Edges {
		if edge.Condition != "" {
			p.printf("  %s --%s [%s]--> %s\n", edge.SourceID, edge.EdgeType, firstLine(edge.Condition), edge.TargetID)
		} else {
			p.printf("  %s --%s--> %s\n", edge.SourceID, edge.EdgeType, edge.TargetID)
		}
	}

	if len(info.Diagnostics) > 0 {
		p.printf("\nDiagnostics (%d):\n", len(info.Diagnostics))
		for _, d := range info.Diagnostics {
			p.printf("  line %d: %s after %s: %s\n", d.Line, d.Kind, d.BlockID, firstLine(d.Text))
		}
	}
}

// firstLine shortens multi-line statements to their first line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// printer remembers the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
