package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/document"
)

// importParallelism bounds how many files are decoded and written at once.
const importParallelism = 4

// ImportedProject reports one imported file.
type ImportedProject struct {
	File   string `json:"file"`
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Frames int    `json:"frames"`
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import project files as new projects",
		Long: `Import project files as new projects.

The format is chosen by extension: .yaml/.yml, .json, .cue or .tox.
Every file is decoded and validated before anything is written; if any
file is invalid, nothing is imported. Each project is then stored
atomically with its frames.`,
		Example: `  armseq import wave.yaml
  armseq import moves/*.tox --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args)
		},
	}
}

func runImport(cmd *cobra.Command, opts *RootOptions, files []string) error {
	// Decode everything first so a bad file imports nothing.
	decoded := make([]choreo.ProjectWithFrames, len(files))
	var dg errgroup.Group
	dg.SetLimit(importParallelism)
	for i, file := range files {
		i, file := i, file
		dg.Go(func() error {
			a, err := document.ReadFile(file)
			if err != nil {
				return err
			}
			decoded[i] = a
			return nil
		})
	}
	if err := dg.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read project file", err)
	}

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	imported := make([]ImportedProject, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(importParallelism)
	for i, a := range decoded {
		i, a := i, a
		g.Go(func() error {
			id, err := st.InsertProjectWithFrames(ctx, a.Project, a.Frames)
			if err != nil {
				return fmt.Errorf("%s: %w", files[i], err)
			}
			slog.Debug("project imported", "file", files[i], "id", id, "frames", len(a.Frames))
			imported[i] = ImportedProject{File: files[i], ID: id, Name: a.Name, Frames: len(a.Frames)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return storeExitError("failed to import project", err)
	}

	return newFormatter(cmd, opts).Result(imported, func(w io.Writer) {
		for _, p := range imported {
			fmt.Fprintf(w, "Imported %s as project %d: %s (%d frames)\n", p.File, p.ID, p.Name, p.Frames)
		}
	})
}
