//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/climap/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS candidates_fts USING fts5(
			run_id UNINDEXED,
			name,
			display_name,
			description,
			category,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, runID string, c models.RankedCandidate) error {
	_, err := tx.Exec(`INSERT INTO candidates_fts (run_id, name, display_name, description, category) VALUES (?, ?, ?, ?, ?)`,
		runID, c.Name, c.DisplayName, c.Description, c.Category)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDeleteRun(tx *sql.Tx, runID string) {
	_, _ = tx.Exec(`DELETE FROM candidates_fts WHERE run_id = ?`, runID)
}

// SearchCandidates runs an FTS5 query over the latest run's candidates,
// best matches first.
func (db *DB) SearchCandidates(query string, limit int) ([]models.RankedCandidate, error) {
	if limit <= 0 {
		limit = 20
	}
	latest, err := db.LatestRun()
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`
		SELECT c.rank, c.name, c.display_name, c.description, c.homepage, c.category,
		       c.score, c.primary_rank, c.primary_installs, c.sources, c.presence
		FROM candidates_fts f
		JOIN candidates c ON c.run_id = f.run_id AND c.name = f.name
		WHERE candidates_fts MATCH ? AND f.run_id = ?
		ORDER BY f.rank
		LIMIT ?
	`, query, latest.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}
