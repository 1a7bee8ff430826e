//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/climap/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the candidates table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ models.RankedCandidate) error { return nil }

func ftsDeleteRun(_ *sql.Tx, _ string) {}

// SearchCandidates performs a LIKE-based search over the latest run
// (fallback when FTS5 is not compiled in). Results are ordered by rank.
func (db *DB) SearchCandidates(query string, limit int) ([]models.RankedCandidate, error) {
	if limit <= 0 {
		limit = 20
	}
	latest, err := db.LatestRun()
	if err != nil {
		return nil, err
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`SELECT `+candidateColumns+`
		FROM candidates
		WHERE run_id = ? AND (name LIKE ? OR display_name LIKE ? OR description LIKE ? OR category LIKE ?)
		ORDER BY rank
		LIMIT ?
	`, latest.ID, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}
