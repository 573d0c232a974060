// Package document converts project files to and from the
// ProjectWithFrames aggregate.
//
// Supported formats, chosen by file extension:
//   - .yaml / .yml and .json: the portable project document
//   - .cue: the same document, unified with an embedded CUE schema
//   - .tox: vendor action files (read only, see package tox)
//
// Decoding never touches storage. Decoded aggregates carry Unassigned
// identities; the caller decides whether to insert or update them.
package document
