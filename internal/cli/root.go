package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/armseq/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// EnvFiles are the .env files read for defaults. Empty means ".env".
	EnvFiles []string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the armseq CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "armseq",
		Short: "armseq - robotic arm choreography store",
		Long: `Manage robotic-arm choreography projects: named sequences of frames,
each holding six servo targets, a hold time and an optional sound cue.

Projects live in a local SQLite database. Defaults for the global flags
come from ARMSEQ_DB, ARMSEQ_FORMAT and ARMSEQ_VERBOSE, which may be set
in a .env file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd, opts); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.DefaultFormat, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", config.DefaultDBPath, "path to SQLite database")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewFrameCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// applyConfig fills every global flag the user did not set from the
// environment (and .env files).
func applyConfig(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("db") {
		opts.Database = cfg.DBPath
	}
	if !flags.Changed("format") {
		opts.Format = cfg.Format
	}
	if !flags.Changed("verbose") {
		opts.Verbose = cfg.Verbose
	}
	return nil
}

// setupLogging installs a text handler on stderr, at debug level when
// verbose.
func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
