// Package store provides SQLite-backed durable storage for choreography
// projects and their frames.
//
// The store owns two tables:
//   - projects: one row per project, identity never reused (AUTOINCREMENT)
//   - frames: one row per frame, FOREIGN KEY project_id ON DELETE CASCADE
//
// # Critical Patterns
//
// Single writer, many readers
//   - Every mutation runs in one transaction guarded by a store-level mutex
//   - Composite operations (InsertProjectWithFrames, UpdateProjectWithFrames)
//     take that scope once for all their sub-steps and roll back as a unit
//   - Composite reads run in a single read transaction (WAL snapshot)
//
// Explicit insert modes
//   - InsertOrFail: an existing identity is a constraint violation
//   - InsertOrReplace: an existing row is replaced in place (no cascade)
//
// Deterministic ordering
//   - Projects: ORDER BY modified_at DESC, id DESC
//   - Frames: ORDER BY sequence_id ASC, id ASC
//
// Live queries
//   - After each commit the touched tables are published to a
//     notify.Registry; WatchProjects subscribers re-query outside the
//     write transaction
//
// # Database Configuration
//
// Applied per connection through the DSN, since the pool holds several:
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascades
package store
