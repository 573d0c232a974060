package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/document"
	"github.com/roach88/armseq/internal/store"
)

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently modified first",
		Args:  cobra.NoArgs,
		Example: `  armseq list
  armseq list --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			all, err := st.ListProjectsWithFrames(cmd.Context())
			if err != nil {
				return storeExitError("failed to list projects", err)
			}

			summaries := make([]ProjectSummary, 0, len(all))
			for _, a := range all {
				summaries = append(summaries, summarize(a))
			}
			return newFormatter(cmd, opts).Result(summaries, func(w io.Writer) {
				writeSummaries(w, summaries)
			})
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show a project and its frames",
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

			a, err := getProject(cmd, st, id)
			if err != nil {
				return err
			}

			detail := ProjectDetail{
				ID:         a.ID.Int64(),
				CreatedAt:  a.CreatedAt,
				ModifiedAt: a.ModifiedAt,
				Document:   document.FromAggregate(a),
			}
			return newFormatter(cmd, opts).Result(detail, func(w io.Writer) {
				writeDetail(w, a)
			})
		},
	}
}

// getProject reads an aggregate, reporting a missing project as ExitFailure.
func getProject(cmd *cobra.Command, st *store.Store, id int64) (choreo.ProjectWithFrames, error) {
	a, ok, err := st.GetProjectWithFrames(cmd.Context(), id)
	if err != nil {
		return choreo.ProjectWithFrames{}, storeExitError("failed to read project", err)
	}
	if !ok {
		return choreo.ProjectWithFrames{}, NewExitError(ExitFailure, fmt.Sprintf("project %d not found", id))
	}
	return a, nil
}

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Name string
	Slot int
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty project",
		Args:  cobra.NoArgs,
		Example: `  armseq create --name "Wave"
  armseq create --name "Bow" --slot 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := choreo.Project{Name: choreo.NormalizeName(opts.Name)}
			if cmd.Flags().Changed("slot") {
				p.RemoteSlot = choreo.IntPtr(opts.Slot)
			}
			if err := p.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid project", err)
			}

			st, err := openStore(opts.RootOptions)
			if err != nil {
				return err
			}
			defer closeStore(st)

			id, err := st.InsertProject(cmd.Context(), p, store.InsertOrFail)
			if err != nil {
				return storeExitError("failed to create project", err)
			}
			slog.Debug("project created", "id", id, "name", p.Name)

			return newFormatter(cmd, opts.RootOptions).Result(map[string]int64{"id": id}, func(w io.Writer) {
				fmt.Fprintf(w, "Created project %d: %s\n", id, p.Name)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "project name (required)")
	cmd.Flags().IntVar(&opts.Slot, "slot", 0, "remote control slot (1-10)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and all of its frames",
		Long: `Delete a project and all of its frames.

Deleting a project that does not exist is not an error.`,
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

			if err := st.DeleteProjectByID(cmd.Context(), id); err != nil {
				return storeExitError("failed to delete project", err)
			}
			return newFormatter(cmd, opts).Result(map[string]int64{"deleted": id}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted project %d\n", id)
			})
		},
	}
}
