package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // SQLite driver
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "axtree.db"

// timestampLayout is fixed-width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SnapshotDB stores rendered snapshots in a single SQLite file.
type SnapshotDB struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures SnapshotDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SnapshotDB in dbDir.
func Open(dbDir string, opts Options) (*SnapshotDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	dsn := dbPath + "?mode=rwc"
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapshotDB{
		db:     db,
		dbPath: dbPath,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return sdb, nil
}

// Path returns the database file path.
func (s *SnapshotDB) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *SnapshotDB) Close() error {
	return s.db.Close()
}

func (s *SnapshotDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		pid INTEGER NOT NULL,
		source TEXT NOT NULL,
		mode TEXT NOT NULL,
		format TEXT NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		digest TEXT NOT NULL,
		body BLOB NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_pid ON snapshots(pid);
	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Snapshot is one stored rendering.
type Snapshot struct {
	// ID is a time-ordered UUID assigned on save.
	ID string

	// PID is the captured process.
	PID int

	// Source names the boundary the tree came from, e.g. a fixture path.
	Source string

	// Mode is the normalization mode name.
	Mode string

	// Format is the output format name.
	Format string

	// NodeCount is the number of nodes in the rendered tree.
	NodeCount int

	// Digest is the hex BLAKE2b-256 of Body, computed on save.
	Digest string

	// Body is the rendered output.
	Body []byte

	// CreatedAt is the save time in UTC.
	CreatedAt time.Time
}

// Digest returns the hex BLAKE2b-256 digest of body.
func Digest(body []byte) string {
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// SaveSnapshot stores snap and fills in its ID, Digest and CreatedAt.
func (s *SnapshotDB) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate snapshot id: %w", err)
	}
	snap.ID = id.String()
	snap.Digest = Digest(snap.Body)
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now()
	}

	query := `
	INSERT INTO snapshots (id, pid, source, mode, format, node_count, digest, body, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		snap.ID, snap.PID, snap.Source, snap.Mode, snap.Format, snap.NodeCount,
		snap.Digest, snap.Body, snap.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot whose ID equals or starts with id.
// The stored body is verified against its digest.
func (s *SnapshotDB) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrSnapshotNotFound
	}

	query := `
	SELECT id, pid, source, mode, format, node_count, digest, body, created_at
	FROM snapshots
	WHERE id = ? OR id LIKE ? ESCAPE '\'
	ORDER BY id
	LIMIT 2
	`
	rows, err := s.db.QueryContext(ctx, query, id, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var found []*Snapshot
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.PID, &snap.Source, &snap.Mode, &snap.Format,
			&snap.NodeCount, &snap.Digest, &snap.Body, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.CreatedAt = parseTimestamp(created)
		found = append(found, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	case len(found) > 1 && found[0].ID != id:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}

	snap := found[0]
	if Digest(snap.Body) != snap.Digest {
		return nil, fmt.Errorf("%w: %s", ErrDigestMismatch, snap.ID)
	}
	return snap, nil
}

// SnapshotMetadata summarizes a snapshot without its body.
type SnapshotMetadata struct {
	ID        string
	PID       int
	Source    string
	Mode      string
	Format    string
	NodeCount int
	Digest    string
	Size      int
	CreatedAt time.Time
}

// ListSnapshots returns snapshot metadata, newest first. A pid of 0 lists
// every process; a non-positive limit returns all rows.
func (s *SnapshotDB) ListSnapshots(ctx context.Context, pid, limit int) ([]SnapshotMetadata, error) {
	query := `
	SELECT id, pid, source, mode, format, node_count, digest, length(body), created_at
	FROM snapshots
	WHERE (? = 0 OR pid = ?)
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, pid, pid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var results []SnapshotMetadata
	for rows.Next() {
		var meta SnapshotMetadata
		var created string
		if err := rows.Scan(&meta.ID, &meta.PID, &meta.Source, &meta.Mode, &meta.Format,
			&meta.NodeCount, &meta.Digest, &meta.Size, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		meta.CreatedAt = parseTimestamp(created)
		results = append(results, meta)
	}
	return results, rows.Err()
}

// DeleteSnapshot removes the snapshot with the exact id.
func (s *SnapshotDB) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// timestampFormats lists the formats SQLite may hand back.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp, returning zero time on failure.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
