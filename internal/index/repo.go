package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/climap/internal/apperr"
	"github.com/starford/climap/internal/models"
)

// RunRow represents a row in the runs table.
type RunRow struct {
	ID            string            `json:"id"`
	GeneratedAt   time.Time         `json:"generated_at"`
	TotalIndexed  int               `json:"total_indexed"`
	ExistingInCCL int               `json:"existing_in_ccl"`
	Candidates    int               `json:"candidates"`
	SourceErrors  map[string]string `json:"source_errors,omitempty"`
}

const candidateColumns = `rank, name, display_name, description, homepage, category,
	score, primary_rank, primary_installs, sources, presence`

// SaveRun stores a crossref run and its candidates in one transaction.
// Saving a run id again replaces the earlier copy.
func (db *DB) SaveRun(out models.CrossrefOutput) error {
	if out.RunID == "" {
		return fmt.Errorf("index: save run: %w: empty run id", apperr.ErrInvalid)
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	errsJSON, _ := json.Marshal(out.SourceErrors)

	ftsDeleteRun(tx, out.RunID)
	if _, err := tx.Exec(`DELETE FROM candidates WHERE run_id = ?`, out.RunID); err != nil {
		return fmt.Errorf("index: clear run: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO runs (id, generated_at, total_indexed, existing_in_ccl, candidates, source_errors)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			generated_at    = excluded.generated_at,
			total_indexed   = excluded.total_indexed,
			existing_in_ccl = excluded.existing_in_ccl,
			candidates      = excluded.candidates,
			source_errors   = excluded.source_errors
	`, out.RunID, out.GeneratedAt.UTC(), out.TotalIndexed, out.ExistingInCCL, len(out.Packages), string(errsJSON))
	if err != nil {
		return fmt.Errorf("index: upsert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO candidates (run_id, ` + candidateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare candidate insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range out.Packages {
		sources, _ := json.Marshal(c.Sources)
		presence, _ := json.Marshal(c.Presence)
		if _, err := stmt.Exec(out.RunID, c.Rank, c.Name, c.DisplayName, c.Description, c.Homepage,
			c.Category, c.Score, c.PrimaryRank, c.PrimaryInstalls, string(sources), string(presence)); err != nil {
			return fmt.Errorf("index: insert candidate %s: %w", c.Name, err)
		}
		if err := ftsInsert(tx, out.RunID, c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// HasRun reports whether a run id is stored.
func (db *DB) HasRun(id string) (bool, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("index: has run: %w", err)
	}
	return n > 0, nil
}

// LatestRun returns the most recently generated run.
func (db *DB) LatestRun() (*RunRow, error) {
	runs, err := db.Runs(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("index: latest run: %w", apperr.ErrNotFound)
	}
	return &runs[0], nil
}

// Runs returns up to limit runs, newest first.
func (db *DB) Runs(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, generated_at, total_indexed, existing_in_ccl, candidates, source_errors
		FROM runs
		ORDER BY generated_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var errsJSON string
		if err := rows.Scan(&r.ID, &r.GeneratedAt, &r.TotalIndexed, &r.ExistingInCCL, &r.Candidates, &errsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(errsJSON), &r.SourceErrors)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Candidates returns the candidates of a run ordered by rank. An empty runID
// selects the latest run.
func (db *DB) Candidates(runID string, limit, offset int) ([]models.RankedCandidate, error) {
	if runID == "" {
		latest, err := db.LatestRun()
		if err != nil {
			return nil, err
		}
		runID = latest.ID
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`SELECT `+candidateColumns+`
		FROM candidates
		WHERE run_id = ?
		ORDER BY rank
		LIMIT ? OFFSET ?`, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("index: candidates: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(s scanner) (models.RankedCandidate, error) {
	var c models.RankedCandidate
	var rank, installs sql.NullInt64
	var sources, presence string
	if err := s.Scan(&c.Rank, &c.Name, &c.DisplayName, &c.Description, &c.Homepage, &c.Category,
		&c.Score, &rank, &installs, &sources, &presence); err != nil {
		return c, err
	}
	if rank.Valid {
		r := int(rank.Int64)
		c.PrimaryRank = &r
	}
	if installs.Valid {
		n := installs.Int64
		c.PrimaryInstalls = &n
	}
	_ = json.Unmarshal([]byte(sources), &c.Sources)
	_ = json.Unmarshal([]byte(presence), &c.Presence)
	return c, nil
}

func scanCandidates(rows *sql.Rows) ([]models.RankedCandidate, error) {
	out := []models.RankedCandidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Candidate returns one candidate of the latest run by name.
func (db *DB) Candidate(name string) (*models.RankedCandidate, error) {
	latest, err := db.LatestRun()
	if err != nil {
		return nil, err
	}
	row := db.conn.QueryRow(`SELECT `+candidateColumns+`
		FROM candidates WHERE run_id = ? AND name = ?`, latest.ID, strings.ToLower(name))
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: candidate %s: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: candidate %s: %w", name, err)
	}
	return &c, nil
}
