package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/armseq/internal/document"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
	As     string // document format when writing to stdout
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a project as a JSON or YAML document",
		Long: `Export a project as a portable document.

With --out the format follows the file extension (.json, .yaml, .yml).
Otherwise the document is written to stdout in the --as format.
The document does not carry the project identity or timestamps, so it
can be imported into any database.`,
		Example: `  armseq export 3
  armseq export 3 --as yaml
  armseq export 3 --out wave.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file (format from extension)")
	cmd.Flags().StringVar(&opts.As, "as", string(document.FormatJSON), "document format for stdout (json|yaml)")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	format := document.Format(opts.As)
	if opts.Output != "" {
		format, err = document.FormatOf(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid output file", err)
		}
	}
	if format != document.FormatJSON && format != document.FormatYAML {
		return NewExitError(ExitCommandError, fmt.Sprintf("cannot export as %q: must be json or yaml", format))
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	a, err := getProject(cmd, st, id)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := document.Encode(&buf, format, a); err != nil {
		return WrapExitError(ExitFailure, "failed to encode project", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output file", err)
	}
	newFormatter(cmd, opts.RootOptions).VerboseLog("Exported project %d to %s", id, opts.Output)
	return nil
}
