package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/document"
	"github.com/roach88/armseq/internal/store"
)

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openStore opens the database named by --db. The caller closes it.
func openStore(opts *RootOptions) (*store.Store, error) {
	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database, store.WithLogger(slog.Default()))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// parseID parses a project identity argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid project id %q", arg))
	}
	return id, nil
}

// ProjectSummary is one row of the list output.
type ProjectSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	RemoteSlot    *int   `json:"remote_slot,omitempty"`
	Frames        int    `json:"frames"`
	TotalDuration int    `json:"total_duration_ms"`
	ModifiedAt    int64  `json:"modified_at"`
}

func summarize(a choreo.ProjectWithFrames) ProjectSummary {
	return ProjectSummary{
		ID:            a.ID.Int64(),
		Name:          a.Name,
		RemoteSlot:    a.RemoteSlot,
		Frames:        len(a.Frames),
		TotalDuration: a.TotalDuration(),
		ModifiedAt:    a.ModifiedAt,
	}
}

// ProjectDetail is the show output: the portable document plus the
// stored identity and timestamps.
type ProjectDetail struct {
	ID         int64 `json:"id"`
	CreatedAt  int64 `json:"created_at"`
	ModifiedAt int64 `json:"modified_at"`
	document.Document
}

func writeSummaries(w io.Writer, summaries []ProjectSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No projects.")
		return
	}
	fmt.Fprintf(w, "%-6s %-30s %-5s %7s %9s\n", "ID", "NAME", "SLOT", "FRAMES", "DURATION")
	for _, s := range summaries {
		slot := "-"
		if s.RemoteSlot != nil {
			slot = strconv.Itoa(*s.RemoteSlot)
		}
		name := choreo.Project{Name: s.Name}.TruncatedName()
		fmt.Fprintf(w, "%-6d %-30s %-5s %7d %8dms\n", s.ID, name, slot, s.Frames, s.TotalDuration)
	}
}

func writeDetail(w io.Writer, a choreo.ProjectWithFrames) {
	fmt.Fprintf(w, "Project %d: %s\n", a.ID.Int64(), a.Name)
	if a.RemoteSlot != nil {
		fmt.Fprintf(w, "Remote slot: %d\n", *a.RemoteSlot)
	}
	fmt.Fprintf(w, "Frames: %d (%dms)\n", len(a.Frames), a.TotalDuration())
	for _, f := range a.Frames {
		fmt.Fprintf(w, "  #%-3d %5dms servos=%v", f.Sequence, f.Duration, f.Servos)
		if f.SoundID != nil {
			fmt.Fprintf(w, " sound=%d", *f.SoundID)
		}
		fmt.Fprintln(w)
	}
}
