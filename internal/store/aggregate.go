package store

import (
	"context"

	"github.com/roach88/armseq/internal/choreo"
)

// InsertProjectWithFrames atomically inserts a project and its frames.
//
// Each frame's ProjectID is set to the new project's identity, and frame
// identities are allocated by the store. If any step fails nothing is
// stored and a TRANSACTION_FAILURE wrapping the cause is returned.
func (s *Store) InsertProjectWithFrames(ctx context.Context, p choreo.Project, frames []choreo.Frame) (int64, error) {
	const op = "insert project with frames"

	var id int64
	err := s.atomically(ctx, op, func(ctx context.Context, t *txn) error {
		var err error
		id, err = t.insertProject(ctx, p, InsertOrFail)
		if err != nil {
			return err
		}
		stored := p
		stored.ID = choreo.Assigned(id)
		_, rows := choreo.Decompose(choreo.Assemble(stored, frames))
		_, err = t.insertFrames(ctx, rows, InsertOrFail)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateProjectWithFrames atomically replaces a project's fields and its
// whole frame sequence: the project row is updated, every existing frame
// is deleted, and the aggregate's frames are inserted in order.
//
// The project must exist (the wrapped cause is NOT_FOUND otherwise).
func (s *Store) UpdateProjectWithFrames(ctx context.Context, a choreo.ProjectWithFrames) error {
	const op = "update project with frames"

	return s.atomically(ctx, op, func(ctx context.Context, t *txn) error {
		p, frames := choreo.Decompose(a)
		if err := t.updateProject(ctx, p); err != nil {
			return err
		}
		id, _ := p.ID.Value()
		if err := t.deleteAllFrames(ctx, id); err != nil {
			return err
		}
		_, err := t.insertFrames(ctx, frames, InsertOrFail)
		return err
	})
}

// GetProjectWithFrames reads a project and its ordered frames from one
// consistent snapshot. The bool is false if the project does not exist.
func (s *Store) GetProjectWithFrames(ctx context.Context, id int64) (choreo.ProjectWithFrames, bool, error) {
	var (
		agg   choreo.ProjectWithFrames
		found bool
	)
	err := s.snapshot(ctx, "get project with frames", func(ctx context.Context, q queryer) error {
		p, ok, err := queryProject(ctx, q, id)
		if err != nil || !ok {
			return err
		}
		frames, err := queryFrames(ctx, q, id)
		if err != nil {
			return err
		}
		agg, found = choreo.Assemble(p, frames), true
		return nil
	})
	if err != nil {
		return choreo.ProjectWithFrames{}, false, err
	}
	return agg, found, nil
}

// ListProjectsWithFrames reads every project with its frames from one
// consistent snapshot, most recently modified project first.
func (s *Store) ListProjectsWithFrames(ctx context.Context) ([]choreo.ProjectWithFrames, error) {
	var out []choreo.ProjectWithFrames
	err := s.snapshot(ctx, "list projects with frames", func(ctx context.Context, q queryer) error {
		projects, err := queryProjects(ctx, q)
		if err != nil {
			return err
		}
		out = make([]choreo.ProjectWithFrames, 0, len(projects))
		for _, p := range projects {
			frames, err := queryFrames(ctx, q, p.ID.Int64())
			if err != nil {
				return err
			}
			out = append(out, choreo.Assemble(p, frames))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
