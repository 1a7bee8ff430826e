package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/climap/internal/merge"
	"github.com/starford/climap/internal/models"
	"github.com/starford/climap/internal/validate"
)

func TestIsTerminal_Buffer(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func TestCrossref_Plain(t *testing.T) {
	var buf bytes.Buffer
	r := 3
	New(&buf).Crossref(&models.CrossrefOutput{
		RunID:        "run-1",
		TotalIndexed: 10,
		SourceErrors: map[string]string{"scoop": "boom"},
		Packages: []models.RankedCandidate{{
			Rank: 1,
			CanonicalRecord: models.CanonicalRecord{
				Name: "ripgrep", Score: 798, PrimaryRank: &r,
				Sources: []string{"homebrew", "scoop"}, Description: "grep",
			},
		}},
	})
	out := buf.String()
	for _, want := range []string{"Run run-1", "source scoop failed: boom", "ripgrep\t798\t3\thomebrew,scoop\tgrep"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "╭") {
		t.Error("plain output should not draw borders")
	}
}

func TestMerge_Plain(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).Merge(merge.Stats{Added: 2, Skipped: 1, NewNames: []string{"jq", "yq"}})
	out := buf.String()
	if !strings.Contains(out, "2\t0\t0\t1\t0") || !strings.Contains(out, "New packages: jq, yq") {
		t.Errorf("output:\n%s", out)
	}
}

func TestValidation(t *testing.T) {
	var buf bytes.Buffer
	rep := validate.New([]string{"brew", "apt"}).Validate("jq =\n  = brew\n\ngit =\n  = brew\n  = snap\n")
	NewPlain(&buf).Validation(rep)
	out := buf.String()
	for _, want := range []string{
		"ERRORS:", "✗ ERROR: Invalid source 'snap'",
		"WARNINGS:", "⚠ WARNING: Package 'jq' only available from brew",
		"Total packages\t2", "brew\t2", "Status: FAILED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
