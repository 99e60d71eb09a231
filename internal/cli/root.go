package cli

import (
	"fmt"
	"slices"

	"github.com/creastat/infra/telemetry"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional YAML file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the logmerge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "logmerge",
		Short: "Merge time-ordered log sources into one ordered stream",
		Long: `logmerge merges many individually time-ordered log sources into a
single chronologically ordered stream, either synchronously or with sources
that deliver records at their own pace.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a YAML run configuration")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// newLogger returns the diagnostics logger for the chosen verbosity
func newLogger(opts *RootOptions) telemetry.Logger {
	level := "error"
	if opts.Verbose {
		level = "debug"
	}
	return telemetry.New(telemetry.Config{Level: level})
}
