package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-query/internal/config"
	"github.com/l3aro/go-cfg-query/pkg/report"
)

// ErrCheckFailed is returned by the check command when any function could
// not be analyzed, or with --strict when unreachable code was found.
var ErrCheckFailed = errors.New("check failed")

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Build and validate every graph",
	Long: `Builds the control flow graph of every function under path, validates its
structure and reports the functions that could not be analyzed. Exits non-zero
when there are failures, or with --strict when unreachable code is found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		opts := analysisOptions(settings)
		opts.Verify = true
		reports, err := analyzePath(cmd.Context(), args[0], settings.Workers, opts)
		if err != nil {
			return err
		}
		doc := report.NewDocument(reports)

		if settings.Format == config.FormatText {
			if err := writeCheckText(cmd.OutOrStdout(), doc); err != nil {
				return err
			}
		} else if err := report.Encode(cmd.OutOrStdout(), string(settings.Format), doc); err != nil {
			return err
		}

		failures := doc.FailureCount()
		unreachable := unreachableCount(doc)
		if failures > 0 {
			return fmt.Errorf("%w: %d failure(s)", ErrCheckFailed, failures)
		}
		if strict && unreachable > 0 {
			return fmt.Errorf("%w: %d unreachable statement(s)", ErrCheckFailed, unreachable)
		}
		return nil
	},
}

func unreachableCount(doc *report.Document) int {
	n := 0
	for _, f := range doc.Files {
		for _, fn := range f.Functions {
			n += len(fn.Diagnostics)
		}
	}
	return n
}

// writeCheckText lists problems only, one per line, then a totals line.
func writeCheckText(w io.Writer, doc *report.Document) error {
	functions := 0
	for _, f := range doc.Files {
		if f.Error != "" {
			if _, err := fmt.Fprintf(w, "%s: %s\n", f.Path, f.Error); err != nil {
				return err
			}
			continue
		}
		functions += len(f.Functions)
		for _, fail := range f.Failures {
			if _, err := fmt.Fprintf(w, "%s:%d: %s: %s\n", f.Path, fail.Line, orModule(fail.Function), fail.Error); err != nil {
				return err
			}
		}
		for _, fn := range f.Functions {
			for _, d := range fn.Diagnostics {
				if _, err := fmt.Fprintf(w, "%s:%d: %s: %s\n", f.Path, d.Line, fn.FunctionName, d.Kind); err != nil {
					return err
				}
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d file(s), %d function(s), %d failure(s), %d unreachable statement(s)\n",
		len(doc.Files), functions, doc.FailureCount(), unreachableCount(doc))
	return err
}

func orModule(name string) string {
	if name == "" {
		return "<module>"
	}
	return name
}

func init() {
	checkCmd.Flags().Bool("strict", false, "Treat unreachable code as a failure")
	RootCmd.AddCommand(checkCmd)
}
