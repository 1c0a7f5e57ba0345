// Package store provides the SQLite storage layer for featuremap.
//
// A single database file holds the cached issue corpus (deduplicated by
// external id) and the history of completed mining runs with their ranked
// clusters. Trained models are never persisted — every run retrains from
// the cached issues.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.featuremap/featuremap.db"

// Issue is a cached feature request row.
type Issue struct {
	ID          int64
	ExternalID  string
	Number      int
	Title       string
	Description string
	Votes       int
	URL         string
	UpdatedAt   time.Time
	FetchedAt   time.Time
}

// Run records one completed mining run.
type Run struct {
	ID         int64
	CreatedAt  time.Time
	K          int
	IssueCount int
	Params     string // JSON-encoded pipeline options, for provenance
}

// Config holds configuration for Open.
type Config struct {
	DBPath string
}

// Store is the SQLite-backed persistence layer.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the database. Pass ":memory:" for tests.
func Open(cfg Config) (*Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, dbPath: cfg.DBPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only.
func (s *Store) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
