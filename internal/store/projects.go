package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/armseq/internal/choreo"
)

// InsertMode selects what happens when an inserted row's identity exists.
type InsertMode int

const (
	// InsertOrFail rejects an existing identity with CONSTRAINT_VIOLATION.
	InsertOrFail InsertMode = iota
	// InsertOrReplace replaces the existing row in place (last writer wins).
	InsertOrReplace
)

func (m InsertMode) String() string {
	switch m {
	case InsertOrFail:
		return "insert-or-fail"
	case InsertOrReplace:
		return "insert-or-replace"
	default:
		return fmt.Sprintf("InsertMode(%d)", int(m))
	}
}

const projectColumns = `id, name, remote_slot_id, created_at, modified_at`

// InsertProject inserts a project and returns its identity.
//
// An Unassigned identity is allocated by the store. An Assigned identity
// is used as-is; mode decides what happens if it already exists.
// CreatedAt and ModifiedAt default to the store clock when zero.
func (s *Store) InsertProject(ctx context.Context, p choreo.Project, mode InsertMode) (int64, error) {
	var id int64
	err := s.write(ctx, "insert project", func(ctx context.Context, t *txn) error {
		var err error
		id, err = t.insertProject(ctx, p, mode)
		return err
	})
	return id, err
}

// UpdateProject replaces every field of an existing project and stamps
// ModifiedAt. A zero CreatedAt keeps the stored value.
// Returns NOT_FOUND if no project has p's identity.
func (s *Store) UpdateProject(ctx context.Context, p choreo.Project) error {
	return s.write(ctx, "update project", func(ctx context.Context, t *txn) error {
		return t.updateProject(ctx, p)
	})
}

// DeleteProject deletes a project and, by cascade, all of its frames.
// Deleting an absent or Unassigned project is not an error.
func (s *Store) DeleteProject(ctx context.Context, p choreo.Project) error {
	id, ok := p.ID.Value()
	if !ok {
		return nil
	}
	return s.DeleteProjectByID(ctx, id)
}

// DeleteProjectByID deletes a project by identity and, by cascade, all of
// its frames. Deleting an absent project is not an error.
func (s *Store) DeleteProjectByID(ctx context.Context, id int64) error {
	return s.write(ctx, "delete project", func(ctx context.Context, t *txn) error {
		return t.deleteProject(ctx, id)
	})
}

// GetProject retrieves a single project. The bool is false if no project
// has the identity.
func (s *Store) GetProject(ctx context.Context, id int64) (choreo.Project, bool, error) {
	if err := s.checkOpen(ctx, "get project"); err != nil {
		return choreo.Project{}, false, err
	}
	return queryProject(ctx, s.db, id)
}

// ListProjects returns every project, most recently modified first.
// This is the one-shot form of WatchProjects.
func (s *Store) ListProjects(ctx context.Context) ([]choreo.Project, error) {
	if err := s.checkOpen(ctx, "list projects"); err != nil {
		return nil, err
	}
	return queryProjects(ctx, s.db)
}

func (t *txn) insertProject(ctx context.Context, p choreo.Project, mode InsertMode) (int64, error) {
	const op = "insert project"

	if p.CreatedAt == 0 {
		p.CreatedAt = t.now
	}
	if p.ModifiedAt == 0 {
		p.ModifiedAt = t.now
	}

	id, assigned := p.ID.Value()
	if !assigned {
		result, err := t.tx.ExecContext(ctx, `
			INSERT INTO projects (name, remote_slot_id, created_at, modified_at)
			VALUES (?, ?, ?, ?)
		`, p.Name, nullInt(p.RemoteSlot), p.CreatedAt, p.ModifiedAt)
		if err != nil {
			return 0, classify(op, TableProjects, err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return 0, classify(op, TableProjects, err)
		}
		t.touch(TableProjects)
		return id, nil
	}

	query := `
		INSERT INTO projects (id, name, remote_slot_id, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if mode == InsertOrReplace {
		query += `
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			remote_slot_id = excluded.remote_slot_id,
			created_at = excluded.created_at,
			modified_at = excluded.modified_at
		`
	}
	if _, err := t.tx.ExecContext(ctx, query,
		id, p.Name, nullInt(p.RemoteSlot), p.CreatedAt, p.ModifiedAt,
	); err != nil {
		return 0, classify(op, TableProjects, err)
	}
	t.touch(TableProjects)
	return id, nil
}

func (t *txn) updateProject(ctx context.Context, p choreo.Project) error {
	const op = "update project"

	id, ok := p.ID.Value()
	if !ok {
		return &Error{Code: ErrCodeNotFound, Op: op, Table: TableProjects, Err: errors.New("project identity is unassigned")}
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE projects
		SET name = ?,
		    remote_slot_id = ?,
		    created_at = COALESCE(NULLIF(?, 0), created_at),
		    modified_at = ?
		WHERE id = ?
	`, p.Name, nullInt(p.RemoteSlot), p.CreatedAt, t.now, id)
	if err != nil {
		return classify(op, TableProjects, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify(op, TableProjects, err)
	}
	if n == 0 {
		return notFound(op, TableProjects, id)
	}
	t.touch(TableProjects)
	return nil
}

func (t *txn) deleteProject(ctx context.Context, id int64) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return classify("delete project", TableProjects, err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		// The cascade removed the project's frames in the same statement.
		t.touch(TableProjects, TableFrames)
	}
	return nil
}

// queryProject retrieves a single project by identity.
func queryProject(ctx context.Context, q queryer, id int64) (choreo.Project, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return choreo.Project{}, false, nil
	}
	if err != nil {
		return choreo.Project{}, false, classify("get project", TableProjects, err)
	}
	return p, true, nil
}

// queryProjects returns all projects, most recently modified first.
// Returns an empty slice (not nil) if there are none.
func queryProjects(ctx context.Context, q queryer) ([]choreo.Project, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY modified_at DESC, id DESC
	`)
	if err != nil {
		return nil, classify("query projects", TableProjects, err)
	}
	defer rows.Close()

	projects := []choreo.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, classify("scan project", TableProjects, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate projects", TableProjects, err)
	}
	return projects, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(r rowScanner) (choreo.Project, error) {
	var (
		p    choreo.Project
		id   int64
		slot sql.NullInt64
	)
	if err := r.Scan(&id, &p.Name, &slot, &p.CreatedAt, &p.ModifiedAt); err != nil {
		return choreo.Project{}, err
	}
	p.ID = choreo.Assigned(id)
	p.RemoteSlot = intPtr(slot)
	return p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
