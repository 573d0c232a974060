package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/testutil"
)

var bg = context.Background()

// createTestStore creates a new store in a temp directory with a
// deterministic clock starting at 1000ms and stepping 1ms per write.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewStepClock(1000, 1)
	s, err := Open(path, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// project creates an unsaved project with the given name.
func project(name string) choreo.Project {
	return choreo.Project{Name: name}
}

// mustInsertProject inserts a project and returns its identity.
func mustInsertProject(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.InsertProject(bg, project(name), InsertOrFail)
	if err != nil {
		t.Fatalf("InsertProject(%q) failed: %v", name, err)
	}
	return id
}

// countFrames counts frame rows for a project directly in the database.
func countFrames(t *testing.T, s *Store, projectID int64) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM frames WHERE project_id = ?", projectID).Scan(&n); err != nil {
		t.Fatalf("count frames failed: %v", err)
	}
	return n
}
