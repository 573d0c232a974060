package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/armseq/internal/notify"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - projects and frames tables
//
// There is exactly one supported version. A database stamped with a newer
// version is refused rather than migrated.
const currentSchemaVersion = 1

// Table names, as published to live-query subscribers.
const (
	TableProjects = "projects"
	TableFrames   = "frames"
)

// connParams are applied to every pooled connection.
const connParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// Store provides durable storage for projects and frames.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db       *sql.DB
	writeMu  sync.Mutex // single writer
	notifier *notify.Registry
	now      func() int64
	logger   *slog.Logger
	closed   atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the timestamp source, in epoch milliseconds.
func WithClock(now func() int64) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used by the store and its live queries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (required for cascading deletes)
//
// This function is idempotent - safe to call multiple times.
// Failures are reported as STORAGE_UNAVAILABLE.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		now:    func() int64 { return time.Now().UnixMilli() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Open database (creates file if doesn't exist)
	db, err := sql.Open("sqlite3", path+"?"+connParams)
	if err != nil {
		return nil, unavailable("open", fmt.Errorf("failed to open database: %w", err))
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("open", fmt.Errorf("failed to connect to database: %w", err))
	}

	// Readers are unlimited; writers serialize on writeMu.
	db.SetMaxIdleConns(2)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, unavailable("open", fmt.Errorf("failed to apply schema: %w", err))
	}

	s.db = db
	s.notifier = notify.NewRegistry(s.logger)
	s.logger.Debug("store opened", "path", path, "schema_version", currentSchemaVersion)
	return s, nil
}

// Close ends every live subscription and closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.closed.Swap(true) {
		return nil
	}
	if s.notifier != nil {
		s.notifier.Close()
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - writes made through it bypass live-query notification.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applySchema creates tables if they don't exist and stamps the schema
// version. This function is idempotent.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// checkOpen fails fast on a closed store or an already-cancelled context.
// Cancellation is honoured only before a transaction begins.
func (s *Store) checkOpen(ctx context.Context, op string) error {
	if s.closed.Load() {
		return unavailable(op, errors.New("store is closed"))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
