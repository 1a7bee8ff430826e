//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM candidates_fts`).Scan(&count); err != nil {
		t.Fatalf("candidates_fts table missing: %v", err)
	}
}

func TestFTS5_SearchScopedToLatestRun(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.SaveRun(sampleRun("old", now.Add(-time.Hour)))
	_ = db.SaveRun(sampleRun("new", now))

	results, err := db.SearchCandidates("wings", 10)
	if err != nil {
		t.Fatalf("SearchCandidates: %v", err)
	}
	if len(results) != 1 || results[0].Name != "bat" {
		t.Fatalf("results = %+v", results)
	}
}

func TestFTS5_ReplaceRemovesOldRows(t *testing.T) {
	db := testDB(t)
	run := sampleRun("r1", time.Now())
	_ = db.SaveRun(run)
	run.Packages = run.Packages[2:]
	_ = db.SaveRun(run)

	results, _ := db.SearchCandidates("wings", 10)
	if len(results) != 0 {
		t.Errorf("replaced candidates still searchable: %+v", results)
	}
}
