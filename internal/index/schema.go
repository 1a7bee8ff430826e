// Package index stores crossref runs and their ranked candidates in SQLite,
// with optional FTS5 full-text search over candidates.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	generated_at    DATETIME NOT NULL,
	total_indexed   INTEGER NOT NULL DEFAULT 0,
	existing_in_ccl INTEGER NOT NULL DEFAULT 0,
	candidates      INTEGER NOT NULL DEFAULT 0,
	source_errors   TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS candidates (
	run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rank             INTEGER NOT NULL,
	name             TEXT NOT NULL,
	display_name     TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	homepage         TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL DEFAULT '',
	score            INTEGER NOT NULL DEFAULT 0,
	primary_rank     INTEGER,
	primary_installs INTEGER,
	sources          TEXT NOT NULL DEFAULT '[]',
	presence         TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (run_id, name)
);

CREATE INDEX IF NOT EXISTS idx_candidates_rank ON candidates(run_id, rank);
CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at);
`

// DB wraps a sql.DB with crossref-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
