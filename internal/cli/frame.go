package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewFrameCommand creates the frame command group.
func NewFrameCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Operate on individual frames",
	}
	cmd.AddCommand(newFrameDeleteCommand(opts))
	return cmd
}

func newFrameDeleteCommand(opts *RootOptions) *cobra.Command {
	var seq int

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete the frames at a sequence position",
		Long: `Delete every frame of a project at the given sequence position.

The remaining frames keep their positions; nothing is renumbered.`,
		Example:       `  armseq frame delete 3 --seq 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if err := st.DeleteFrameBySequence(cmd.Context(), id, seq); err != nil {
				return storeExitError("failed to delete frame", err)
			}
			data := map[string]int64{"project": id, "sequence": int64(seq)}
			return newFormatter(cmd, opts).Result(data, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted frame %d of project %d\n", seq, id)
			})
		},
	}

	cmd.Flags().IntVar(&seq, "seq", 0, "sequence position (required)")
	_ = cmd.MarkFlagRequired("seq")

	return cmd
}
