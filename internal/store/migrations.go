package store

import "fmt"

const schemaVersion = "1"

// migrate creates all tables if they don't exist and seeds metadata.
func (s *Store) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT NOT NULL UNIQUE,
			number      INTEGER NOT NULL DEFAULT 0,
			title       TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			votes       INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
			url         TEXT NOT NULL DEFAULT '',
			updated_at  DATETIME,
			fetched_at  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_external_id ON issues(external_id)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at  DATETIME NOT NULL,
			k           INTEGER NOT NULL,
			issue_count INTEGER NOT NULL,
			params      TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS run_clusters (
			run_id         INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			cluster_index  INTEGER NOT NULL,
			top_terms      TEXT NOT NULL DEFAULT '[]',
			issue_count    INTEGER NOT NULL DEFAULT 0,
			vote_sum       INTEGER NOT NULL DEFAULT 0,
			issue_score    REAL NOT NULL DEFAULT 0,
			vote_score     REAL NOT NULL DEFAULT 0,
			combined_score REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, cluster_index)
		)`,
	}

	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if _, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, schemaVersion,
	); err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}
	return nil
}
