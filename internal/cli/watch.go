package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Poll time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the project list on every change",
		Long: `Print the project list now and again after every committed change,
until interrupted.

Changes made by other processes are picked up by polling the database
every --poll interval. Set --poll 0 to disable polling.`,
		Example: `  armseq watch
  armseq watch --poll 2s --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Poll, "poll", 500*time.Millisecond, "interval for detecting changes from other processes (0 disables)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sub, err := st.WatchProjectsWithFrames(ctx)
	if err != nil {
		return storeExitError("failed to watch projects", err)
	}
	defer sub.Cancel()

	if opts.Poll > 0 {
		pollDone := make(chan struct{})
		go func() {
			defer close(pollDone)
			if err := st.WatchExternal(ctx, opts.Poll); err != nil {
				slog.Error("change polling stopped", "error", err)
			}
		}()
		defer func() { <-pollDone }()
		defer cancel()
	}

	out := newFormatter(cmd, opts.RootOptions)
	for snap := range sub.C() {
		if snap.Err != nil {
			slog.Warn("live query failed", "seq", snap.Seq, "error", snap.Err)
			continue
		}
		summaries := make([]ProjectSummary, 0, len(snap.Value))
		for _, a := range snap.Value {
			summaries = append(summaries, summarize(a))
		}
		err := out.Result(summaries, func(w io.Writer) {
			fmt.Fprintf(w, "--- update %d ---\n", snap.Seq)
			writeSummaries(w, summaries)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
