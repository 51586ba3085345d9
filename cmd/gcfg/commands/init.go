package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-query/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gcfg configuration interactively",
	Long: `Guides you through setting up gcfg configuration step by step and writes
it to the project (.gcfg/config.yaml) or global (~/.gcfg/config.yaml) config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

func runInit(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	c := config.DefaultConfig()

	scope := "project"
	format := string(c.Format)
	logLevel := c.LogLevel
	maxNesting := strconv.Itoa(c.MaxNesting)
	maxDepth := strconv.Itoa(c.MaxDepth)
	workers := strconv.Itoa(c.Workers)

	formatOptions := make([]huh.Option[string], 0, len(config.Formats))
	for _, f := range config.Formats {
		formatOptions = append(formatOptions, huh.NewOption(string(f), string(f)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the configuration be saved?").
				Options(
					huh.NewOption("This project (.gcfg/config.yaml)", "project"),
					huh.NewOption("Global (~/.gcfg/config.yaml)", "global"),
				).
				Value(&scope),
			huh.NewSelect[string]().
				Title("Default output format").
				Options(formatOptions...).
				Value(&format),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&logLevel),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Maximum statement nesting").
				Description("Functions nested deeper are reported instead of graphed. 0 disables the limit.").
				Value(&maxNesting).
				Validate(nonNegativeInt),
			huh.NewInput().
				Title("Maximum syntax tree depth").
				Description("The walk over each file stops below this depth. 0 disables the limit.").
				Value(&maxDepth).
				Validate(nonNegativeInt),
			huh.NewInput().
				Title("Files analyzed concurrently").
				Value(&workers).
				Validate(positiveInt),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	c.Format = config.Format(format)
	c.LogLevel = logLevel
	c.MaxNesting, _ = strconv.Atoi(maxNesting)
	c.MaxDepth, _ = strconv.Atoi(maxDepth)
	c.Workers, _ = strconv.Atoi(workers)

	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if scope == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		overwrite := false
		confirm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := confirm.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := c.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\n=== Configuration ===")
	fmt.Fprintf(out, "Format: %s\n", c.Format)
	fmt.Fprintf(out, "Log level: %s\n", c.LogLevel)
	fmt.Fprintf(out, "Max nesting: %d\n", c.MaxNesting)
	fmt.Fprintf(out, "Max depth: %d\n", c.MaxDepth)
	fmt.Fprintf(out, "Workers: %d\n", c.Workers)
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func positiveInt(s string) error {
	if err := nonNegativeInt(s); err != nil {
		return err
	}
	if n, _ := strconv.Atoi(s); n == 0 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
