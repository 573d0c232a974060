// Package choreo provides the domain types for robotic-arm choreography.
//
// A Project is a named motion sequence; a Frame is one step of it (six
// servo targets, a hold duration and an optional sound cue). The
// ProjectWithFrames aggregate is what callers read and write; it is never
// stored as such but assembled from rows on every read.
//
// This package performs no I/O. The store, document and cli packages
// import choreo; choreo imports nothing internal.
//
// Key design constraints:
//   - Identities are explicit: ID is Unassigned or Assigned(v), never a magic 0
//   - Timestamps are epoch milliseconds (int64)
//   - Frame order is ascending Sequence; uniqueness of Sequence within a
//     project is a caller convention, not a storage guarantee
package choreo
