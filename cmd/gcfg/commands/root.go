// Package commands provides the CLI commands for the gcfg tool.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-query/internal/config"
	"github.com/l3aro/go-cfg-query/internal/log"
	"github.com/l3aro/go-cfg-query/internal/scanner"
	"github.com/l3aro/go-cfg-query/pkg/analysis"
)

// settings is the configuration in effect for the running command, after
// flags have been applied over the loaded config.
var settings *config.Config

// logger is shared by every command.
var logger = log.Default()

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gcfg",
	Short: "gcfg - Control flow graphs for Python functions",
	Long: `gcfg extracts every function from Python sources and builds its control flow graph.

Commands:
  functions   List functions with block counts and cyclomatic complexity
  cfg         Print control flow graphs
  check       Build every graph and report functions that cannot be analyzed
  init        Create a configuration file interactively

Use "gcfg [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		settings = c

		logger.SetLevel(c.Level())
		logger.SetJSONOutput(c.JSONLogs)
		logger.SetOutput(cmd.ErrOrStderr())
		return nil
	},
}

func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	var c *config.Config
	var err error
	if path, _ := flags.GetString("config"); path != "" {
		c, err = config.LoadFromFile(path)
	} else {
		c, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		c.Format = config.Format(format)
	}
	if flags.Changed("max-depth") {
		c.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("max-nesting") {
		c.MaxNesting, _ = flags.GetInt("max-nesting")
	}
	if flags.Changed("workers") {
		c.Workers, _ = flags.GetInt("workers")
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		c.LogLevel = "debug"
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func analysisOptions(c *config.Config) analysis.Options {
	opts := analysis.Options{
		MaxDepth:   c.MaxDepth,
		MaxNesting: c.MaxNesting,
		Logger:     logger,
	}
	// a zero max_nesting in config means unbounded
	if opts.MaxNesting == 0 {
		opts.MaxNesting = -1
	}
	return opts
}

// analyzePath scans path for Python files and analyzes them.
func analyzePath(ctx context.Context, path string, workers int, opts analysis.Options) ([]analysis.FileReport, error) {
	files, err := scanner.Scan(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Python files found in %s", path)
	}
	logger.Debug("scanned", "path", path, "files", len(files))

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.FullPath
	}
	reports, err := analysis.AnalyzeFiles(ctx, paths, workers, opts)
	if err != nil {
		return nil, err
	}

	// show paths the way the user can find them again
	for i := range reports {
		reports[i].Path = displayPath(path, files[i])
	}
	return reports, nil
}

func displayPath(root string, f scanner.FileInfo) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(f.Path))
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.String("config", "", "Config file path (default: .gcfg/config.yaml, then ~/.gcfg/config.yaml)")
	pf.StringP("format", "f", "", "Output format: text, json, yaml or msgpack")
	pf.Int("max-depth", 0, "Stop walking syntax trees deeper than this (0 = unbounded)")
	pf.Int("max-nesting", 0, "Reject functions whose statements nest deeper than this (0 = unbounded)")
	pf.IntP("workers", "j", 0, "Number of files analyzed concurrently")
	pf.BoolP("verbose", "v", false, "Verbose logging")
}
