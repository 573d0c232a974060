package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/document"
)

// NewUpdateCommand creates the update command.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <file>",
		Short: "Replace a project's fields and frames from a file",
		Long: `Replace a project's fields and whole frame sequence from a project file.

The project row is updated, every existing frame is removed and the
file's frames are inserted, all in one transaction. The creation time is
kept and the modification time is set to now.`,
		Example:       `  armseq update 3 wave-v2.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := document.ReadFile(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read project file", err)
			}
			a.ID = choreo.Assigned(id)

			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if err := st.UpdateProjectWithFrames(cmd.Context(), a); err != nil {
				return storeExitError(fmt.Sprintf("failed to update project %d", id), err)
			}
			stored, err := getProject(cmd, st, id)
			if err != nil {
				return err
			}
			return newFormatter(cmd, opts).Result(summarize(stored), func(w io.Writer) {
				fmt.Fprintf(w, "Updated project %d: %s (%d frames)\n", id, stored.Name, len(stored.Frames))
			})
		},
	}
}
