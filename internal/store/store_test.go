package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{TableProjects, TableFrames} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for invalid path, got nil")
	}
	if !IsStorageUnavailable(err) {
		t.Errorf("expected STORAGE_UNAVAILABLE, got %v", err)
	}
}

func TestOpen_RejectsNewerSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	_, err = Open(path)
	if err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
	if !IsStorageUnavailable(err) {
		t.Errorf("expected STORAGE_UNAVAILABLE, got %v", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestClose_OperationsFailAfterClose(t *testing.T) {
	s := createTestStore(t)
	s.Close()

	_, err := s.ListProjects(bg)
	if !IsStorageUnavailable(err) {
		t.Errorf("expected STORAGE_UNAVAILABLE after Close, got %v", err)
	}
	_, err = s.InsertProject(bg, project("Wave"), InsertOrFail)
	if !IsStorageUnavailable(err) {
		t.Errorf("expected STORAGE_UNAVAILABLE after Close, got %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createTestStore(t)
	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Schema tests

func TestSchema_ProjectsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, TableProjects)
	expected := []string{"id", "name", "remote_slot_id", "created_at", "modified_at"}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("projects table missing column %q", col)
		}
	}
}

func TestSchema_FramesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, TableFrames)
	expected := []string{
		"id", "project_id", "sequence_id", "duration",
		"servo1", "servo2", "servo3", "servo4", "servo5", "servo6", "sound_id",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("frames table missing column %q", col)
		}
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	if !contains(getTableIndexes(t, s.db, TableProjects), "idx_projects_modified") {
		t.Error("projects table missing index idx_projects_modified")
	}
	if !contains(getTableIndexes(t, s.db, TableFrames), "idx_frames_project_sequence") {
		t.Error("frames table missing index idx_frames_project_sequence")
	}
}

func TestSchema_FramesForeignKeyCascades(t *testing.T) {
	s := createTestStore(t)

	var table, from, to, onUpdate, onDelete string
	err := s.db.QueryRow(`
		SELECT "table", "from", "to", on_update, on_delete
		FROM pragma_foreign_key_list('frames')
	`).Scan(&table, &from, &to, &onUpdate, &onDelete)
	if err != nil {
		t.Fatalf("failed to read foreign keys: %v", err)
	}
	if table != "projects" || from != "project_id" || to != "id" {
		t.Errorf("foreign key = %s(%s) -> %s, want frames(project_id) -> projects(id)", table, from, to)
	}
	if onDelete != "CASCADE" {
		t.Errorf("on_delete = %q, want CASCADE", onDelete)
	}
	if onUpdate != "NO ACTION" {
		t.Errorf("on_update = %q, want NO ACTION", onUpdate)
	}
}

func TestSchema_Version(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
