package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/armseq/internal/choreo"
)

const frameColumns = `id, project_id, sequence_id, duration, servo1, servo2, servo3, servo4, servo5, servo6, sound_id`

// InsertFrame inserts a frame and returns its identity.
// The owning project must exist (CONSTRAINT_VIOLATION otherwise).
func (s *Store) InsertFrame(ctx context.Context, f choreo.Frame, mode InsertMode) (int64, error) {
	var id int64
	err := s.write(ctx, "insert frame", func(ctx context.Context, t *txn) error {
		var err error
		id, err = t.insertFrame(ctx, f, mode)
		return err
	})
	return id, err
}

// InsertFrames inserts frames in order, in one transaction, and returns
// their identities in the same order. Either every frame is stored or none.
func (s *Store) InsertFrames(ctx context.Context, frames []choreo.Frame, mode InsertMode) ([]int64, error) {
	var ids []int64
	err := s.write(ctx, "insert frames", func(ctx context.Context, t *txn) error {
		var err error
		ids, err = t.insertFrames(ctx, frames, mode)
		return err
	})
	return ids, err
}

// UpdateFrame replaces every field of an existing frame.
// Returns NOT_FOUND if no frame has f's identity.
func (s *Store) UpdateFrame(ctx context.Context, f choreo.Frame) error {
	return s.write(ctx, "update frame", func(ctx context.Context, t *txn) error {
		return t.updateFrame(ctx, f)
	})
}

// DeleteFrame deletes a frame by identity. Deleting an absent or
// Unassigned frame is not an error.
func (s *Store) DeleteFrame(ctx context.Context, f choreo.Frame) error {
	id, ok := f.ID.Value()
	if !ok {
		return nil
	}
	return s.write(ctx, "delete frame", func(ctx context.Context, t *txn) error {
		return t.deleteFrames(ctx, "delete frame", `DELETE FROM frames WHERE id = ?`, id)
	})
}

// DeleteFrameBySequence deletes every frame of a project at the given
// sequence position.
func (s *Store) DeleteFrameBySequence(ctx context.Context, projectID int64, seq int) error {
	return s.write(ctx, "delete frame by sequence", func(ctx context.Context, t *txn) error {
		return t.deleteFrames(ctx, "delete frame by sequence",
			`DELETE FROM frames WHERE project_id = ? AND sequence_id = ?`, projectID, seq)
	})
}

// DeleteAllFramesForProject deletes every frame of a project. The project
// itself is kept.
func (s *Store) DeleteAllFramesForProject(ctx context.Context, projectID int64) error {
	return s.write(ctx, "delete frames for project", func(ctx context.Context, t *txn) error {
		return t.deleteAllFrames(ctx, projectID)
	})
}

// FramesByProject returns a project's frames ordered by ascending
// sequence position. Returns an empty slice (not nil) if there are none.
func (s *Store) FramesByProject(ctx context.Context, projectID int64) ([]choreo.Frame, error) {
	if err := s.checkOpen(ctx, "get frames"); err != nil {
		return nil, err
	}
	return queryFrames(ctx, s.db, projectID)
}

func (t *txn) insertFrame(ctx context.Context, f choreo.Frame, mode InsertMode) (int64, error) {
	const op = "insert frame"

	args := []any{
		f.ProjectID, f.Sequence, f.Duration,
		f.Servos[0], f.Servos[1], f.Servos[2], f.Servos[3], f.Servos[4], f.Servos[5],
		nullInt(f.SoundID),
	}

	id, assigned := f.ID.Value()
	if !assigned {
		result, err := t.tx.ExecContext(ctx, `
			INSERT INTO frames
			(project_id, sequence_id, duration, servo1, servo2, servo3, servo4, servo5, servo6, sound_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return 0, classify(op, TableFrames, err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return 0, classify(op, TableFrames, err)
		}
		t.touch(TableFrames)
		return id, nil
	}

	query := `
		INSERT INTO frames
		(id, project_id, sequence_id, duration, servo1, servo2, servo3, servo4, servo5, servo6, sound_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if mode == InsertOrReplace {
		query += `
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			sequence_id = excluded.sequence_id,
			duration = excluded.duration,
			servo1 = excluded.servo1,
			servo2 = excluded.servo2,
			servo3 = excluded.servo3,
			servo4 = excluded.servo4,
			servo5 = excluded.servo5,
			servo6 = excluded.servo6,
			sound_id = excluded.sound_id
		`
	}
	if _, err := t.tx.ExecContext(ctx, query, append([]any{id}, args...)...); err != nil {
		return 0, classify(op, TableFrames, err)
	}
	t.touch(TableFrames)
	return id, nil
}

func (t *txn) insertFrames(ctx context.Context, frames []choreo.Frame, mode InsertMode) ([]int64, error) {
	ids := make([]int64, 0, len(frames))
	for _, f := range frames {
		id, err := t.insertFrame(ctx, f, mode)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *txn) updateFrame(ctx context.Context, f choreo.Frame) error {
	const op = "update frame"

	id, ok := f.ID.Value()
	if !ok {
		return &Error{Code: ErrCodeNotFound, Op: op, Table: TableFrames, Err: errors.New("frame identity is unassigned")}
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE frames
		SET project_id = ?, sequence_id = ?, duration = ?,
		    servo1 = ?, servo2 = ?, servo3 = ?, servo4 = ?, servo5 = ?, servo6 = ?,
		    sound_id = ?
		WHERE id = ?
	`,
		f.ProjectID, f.Sequence, f.Duration,
		f.Servos[0], f.Servos[1], f.Servos[2], f.Servos[3], f.Servos[4], f.Servos[5],
		nullInt(f.SoundID), id,
	)
	if err != nil {
		return classify(op, TableFrames, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify(op, TableFrames, err)
	}
	if n == 0 {
		return notFound(op, TableFrames, id)
	}
	t.touch(TableFrames)
	return nil
}

func (t *txn) deleteAllFrames(ctx context.Context, projectID int64) error {
	return t.deleteFrames(ctx, "delete frames for project",
		`DELETE FROM frames WHERE project_id = ?`, projectID)
}

// deleteFrames runs a frame DELETE and marks the table touched only if a
// row went away.
func (t *txn) deleteFrames(ctx context.Context, op, query string, args ...any) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, TableFrames, err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		t.touch(TableFrames)
	}
	return nil
}

// queryFrames returns a project's frames ordered by sequence_id ASC, id ASC.
// Returns an empty slice (not nil) if there are none.
func queryFrames(ctx context.Context, q queryer, projectID int64) ([]choreo.Frame, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+frameColumns+`
		FROM frames
		WHERE project_id = ?
		ORDER BY sequence_id ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, classify("query frames", TableFrames, err)
	}
	defer rows.Close()

	frames := []choreo.Frame{}
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, classify("scan frame", TableFrames, err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate frames", TableFrames, err)
	}
	return frames, nil
}

func scanFrame(r rowScanner) (choreo.Frame, error) {
	var (
		f     choreo.Frame
		id    int64
		sound sql.NullInt64
	)
	if err := r.Scan(
		&id, &f.ProjectID, &f.Sequence, &f.Duration,
		&f.Servos[0], &f.Servos[1], &f.Servos[2], &f.Servos[3], &f.Servos[4], &f.Servos[5],
		&sound,
	); err != nil {
		return choreo.Frame{}, err
	}
	f.ID = choreo.Assigned(id)
	f.SoundID = intPtr(sound)
	return f, nil
}
