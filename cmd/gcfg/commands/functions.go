package commands

import (
	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-query/pkg/report"
)

// functionsCmd represents the functions command
var functionsCmd = &cobra.Command{
	Use:   "functions <path>",
	Short: "List functions with their graph size and complexity",
	Long: `Lists every function definition found under path, nested functions and
methods included, in source order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := analyzePath(cmd.Context(), args[0], settings.Workers, analysisOptions(settings))
		if err != nil {
			return err
		}
		return report.Encode(cmd.OutOrStdout(), string(settings.Format), report.NewSummary(reports))
	},
}

func init() {
	RootCmd.AddCommand(functionsCmd)
}
