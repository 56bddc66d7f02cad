// Package storage writes converted databases. Each conversion produces one
// standalone SQLite file built by replaying a single BEGIN..COMMIT script.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Ext is the file extension of converted databases.
const Ext = ".sqlite"

// Store creates converted database files under one directory. Concurrent
// callers must apply to distinct names; atomicity within one database comes
// from the script's own transaction.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns where the converted database for the given base name lives.
func (s *Store) Path(base string) string {
	return filepath.Join(s.dir, base+Ext)
}

// Apply creates (or recreates) the database for base and executes the whole
// script against it in one call. The script carries its own BEGIN/COMMIT, so
// SQLite's transaction makes the application all-or-nothing; on any failure
// the file is removed so a partial store is never observable.
func (s *Store) Apply(base, script string) (string, error) {
	path := s.Path(base)

	// Re-runs rebuild the entry from scratch
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove previous output %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("failed to open output database: %w", err)
	}

	// A single connection keeps the multi-statement script on one session
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY",
		"PRAGMA synchronous = OFF",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(script); err != nil {
		_ = db.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to apply conversion script: %w", err)
	}

	if err := db.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close output database: %w", err)
	}

	return path, nil
}
