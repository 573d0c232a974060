package store

import (
	"context"
	"time"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/notify"
)

// WatchProjects starts a live ListProjects. The first snapshot is the
// current project list; a new one follows every committed write that
// touches the projects table, including cascades.
//
// Cancel the subscription (or ctx) to release it. Closing the store ends
// every subscription.
func (s *Store) WatchProjects(ctx context.Context) (*notify.Subscription[[]choreo.Project], error) {
	if err := s.checkOpen(ctx, "watch projects"); err != nil {
		return nil, err
	}
	sub, err := notify.Subscribe[[]choreo.Project](ctx, s.notifier, s.ListProjects, TableProjects)
	if err != nil {
		return nil, unavailable("watch projects", err)
	}
	return sub, nil
}

// WatchProjectsWithFrames starts a live ListProjectsWithFrames, refreshed
// on writes to either table.
func (s *Store) WatchProjectsWithFrames(ctx context.Context) (*notify.Subscription[[]choreo.ProjectWithFrames], error) {
	if err := s.checkOpen(ctx, "watch projects with frames"); err != nil {
		return nil, err
	}
	sub, err := notify.Subscribe[[]choreo.ProjectWithFrames](ctx, s.notifier, s.ListProjectsWithFrames, TableProjects, TableFrames)
	if err != nil {
		return nil, unavailable("watch projects with frames", err)
	}
	return sub, nil
}

// WatchExternal polls for commits made outside this Store (another
// process, or a write through DB()) and publishes both tables when one is
// seen, so live queries refresh. It blocks until ctx is done.
//
// Detection uses PRAGMA data_version on a dedicated connection, which
// also changes for this Store's own pooled writes; subscribers then see
// one extra, identical snapshot.
func (s *Store) WatchExternal(ctx context.Context, interval time.Duration) error {
	const op = "watch external"
	if err := s.checkOpen(ctx, op); err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return unavailable(op, err)
	}
	defer conn.Close()

	dataVersion := func() (int64, error) {
		var v int64
		err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
		return v, err
	}

	last, err := dataVersion()
	if err != nil {
		return classify(op, "", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		v, err := dataVersion()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return classify(op, "", err)
		}
		if v != last {
			last = v
			s.logger.Debug("external change detected", "data_version", v)
			s.notifier.Publish(TableProjects, TableFrames)
		}
	}
}
