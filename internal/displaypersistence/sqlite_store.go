// Package displaypersistence implements the displaydevice.Persistence blob
// store on top of a local sqlite database.
package displaypersistence

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchemaVersion = 1

// SQLiteStore persists a single opaque blob (the core's serialized
// SingleDisplayConfigState) in a sqlite database, alongside a revision
// counter and checksum used only for diagnostics.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open creates the database (and its parent directory) if absent and
// migrates it to the current schema.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload BLOB NOT NULL,
			checksum TEXT NOT NULL,
			revision INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		fmt.Sprintf(`PRAGMA user_version=%d;`, sqliteSchemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Load returns the persisted blob, or ok=false if no row exists yet.
func (s *SQLiteStore) Load() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM settings_state WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load: %w", err)
	}
	return payload, true, nil
}

// Store upserts the blob, bumping the revision counter and recording a
// checksum used only for out-of-band diagnostics.
func (s *SQLiteStore) Store(blob []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := sha256.Sum256(blob)
	_, err := s.db.Exec(`
		INSERT INTO settings_state (id, payload, checksum, revision, updated_at)
		VALUES (1, ?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			checksum = excluded.checksum,
			revision = settings_state.revision + 1,
			updated_at = excluded.updated_at
	`, blob, hex.EncodeToString(sum[:]), time.Now().UTC().Format(time.RFC3339Nano))
	return err == nil
}

// Clear removes the persisted row entirely.
func (s *SQLiteStore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM settings_state WHERE id = 1`)
	return err == nil
}
