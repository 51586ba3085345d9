package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-query/pkg/report"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <path> [function]",
	Short: "Print control flow graphs",
	Long: `Prints the control flow graph of every function under path, or only of the
functions with the given name. Functions that cannot be analyzed are listed
after the graphs of their file.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		reports, err := analyzePath(cmd.Context(), path, settings.Workers, analysisOptions(settings))
		if err != nil {
			return err
		}
		doc := report.NewDocument(reports)

		if len(args) == 2 {
			name := args[1]
			filtered := doc.Filter(name)
			if len(filtered.Files) == 0 {
				if suggestions := similarFunctions(doc, name); len(suggestions) > 0 {
					return fmt.Errorf("function %q not found in %s\nDid you mean: %s?", name, path, strings.Join(suggestions, ", "))
				}
				return fmt.Errorf("function %q not found in %s", name, path)
			}
			doc = filtered
		}

		return report.Encode(cmd.OutOrStdout(), string(settings.Format), doc)
	},
}

// similarFunctions returns function names sharing a case-insensitive
// substring with name.
func similarFunctions(doc *report.Document, name string) []string {
	needle := strings.ToLower(name)
	seen := make(map[string]bool)
	var out []string
	for _, f := range doc.Files {
		for _, fn := range f.Functions {
			candidate := strings.ToLower(fn.FunctionName)
			if seen[fn.FunctionName] {
				continue
			}
			if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
				seen[fn.FunctionName] = true
				out = append(out, fn.FunctionName)
			}
		}
	}
	sort.Strings(out)
	return out
}

func init() {
	RootCmd.AddCommand(cfgCmd)
}
