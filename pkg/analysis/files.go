package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-cfg-query/internal/parse"
	"github.com/l3aro/go-cfg-query/pkg/cfg"
)

// FileReport is the detached outcome of analyzing one file. Graphs are
// rendered before the file's tree is released, so a report outlives it.
type FileReport struct {
	Path      string
	Functions []*cfg.CFGInfo
	Failures  []Failure
	Err       error // reading or parsing failed; nothing else is set
}

// AnalyzeFiles analyzes paths with at most workers files in flight and
// returns one report per path, in input order. Each file gets its own
// parser and cursor. Per-file errors land in FileReport.Err; only context
// cancellation is returned.
func AnalyzeFiles(ctx context.Context, paths []string, workers int, opts Options) ([]FileReport, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.logger()
	reports := make([]FileReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = analyzeFile(ctx, path, opts)
			if reports[i].Err != nil {
				logger.Error("analyzing file", "path", path, "error", reports[i].Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func analyzeFile(ctx context.Context, path string, opts Options) FileReport {
	report := FileReport{Path: path}

	src, err := parse.ParseFile(ctx, path)
	if err != nil {
		report.Err = err
		return report
	}
	defer src.Close()

	res := Analyze(src.Tree, src.Content, opts)
	report.Functions = make([]*cfg.CFGInfo, 0, len(res.Functions))
	for _, fn := range res.Functions {
		report.Functions = append(report.Functions, fn.Info(src.Content))
	}
	report.Failures = res.Failures
	return report
}
