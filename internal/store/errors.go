package store

import "errors"

var (
	// ErrSnapshotNotFound is returned when no snapshot matches an ID.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrAmbiguousID is returned when an ID prefix matches several snapshots.
	ErrAmbiguousID = errors.New("snapshot id prefix is ambiguous")

	// ErrDigestMismatch is returned when a stored body no longer matches its digest.
	ErrDigestMismatch = errors.New("snapshot digest mismatch")

	// ErrDatabaseNotFound is returned by Open when the database must already exist.
	ErrDatabaseNotFound = errors.New("database not found")
)
