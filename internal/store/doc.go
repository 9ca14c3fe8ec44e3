// Package store keeps a history of rendered accessibility trees in SQLite.
//
// Each snapshot records the process it was captured from, the mode and
// format it was rendered with, its node count and a BLAKE2b-256 digest of
// the rendered body. The digest is checked again when a snapshot is read
// back. SQLite is provided by modernc.org/sqlite, so no cgo is needed.
package store
