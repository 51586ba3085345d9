package report

import (
	"io"
	"strings"
	"text/tabwriter"

	"github.com/l3aro/go-cfg-query/pkg/analysis"
)

// FunctionSummary is one row of the functions listing.
type FunctionSummary struct {
	Path        string   `json:"path" yaml:"path" msgpack:"path"`
	Name        string   `json:"name" yaml:"name" msgpack:"name"`
	Line        int      `json:"line" yaml:"line" msgpack:"line"`
	Params      []string `json:"params" yaml:"params" msgpack:"params"`
	Blocks      int      `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	Complexity  int      `json:"cyclomatic_complexity" yaml:"cyclomatic_complexity" msgpack:"cyclomatic_complexity"`
	Unreachable int      `json:"unreachable_statements" yaml:"unreachable_statements" msgpack:"unreachable_statements"`
}

// Summary lists every extracted function without its graph.
type Summary struct {
	Functions []FunctionSummary `json:"functions" yaml:"functions" msgpack:"functions"`
	Failures  int               `json:"failures" yaml:"failures" msgpack:"failures"`
}

// NewSummary flattens analysis reports into one row per function.
func NewSummary(reports []analysis.FileReport) *Summary {
	s := &Summary{Functions: []FunctionSummary{}}
	for _, r := range reports {
		if r.Err != nil {
			s.Failures++
		}
		s.Failures += len(r.Failures)
		for _, info := range r.Functions {
			s.Functions = append(s.Functions, FunctionSummary{
				Path:        r.Path,
				Name:        info.FunctionName,
				Line:        info.Line,
				Params:      info.Params,
				Blocks:      len(info.Blocks),
				Complexity:  info.CyclomaticComplexity,
				Unreachable: len(info.Diagnostics),
			})
		}
	}
	return s
}

// WriteText prints an aligned table.
func (s *Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := &printer{w: tw}
	p.printf("LOCATION\tFUNCTION\tBLOCKS\tCOMPLEXITY\n")
	for _, fn := range s.Functions {
		p.printf("%s:%d\t%s(%s)\t%d\t%d\n", fn.Path, fn.Line, fn.Name, strings.Join(fn.Params, ", "), fn.Blocks, fn.Complexity)
	}
	if p.err != nil {
		return p.err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if s.Failures > 0 {
		p = &printer{w: w}
		p.printf("\n%d function(s) or file(s) could not be analyzed\n", s.Failures)
	}
	return p.err
}
