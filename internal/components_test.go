package internal

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/climap/internal/apperr"
	"github.com/starford/climap/internal/validate"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Data.Dir = filepath.Join(dir, "data")
	cfg.SQLite.Path = filepath.Join(dir, "climap.db")
	return cfg
}

func discard() *slog.Logger {
	return NewLogger(io.Discard, slog.LevelError)
}

func TestOpen_WithoutIndex(t *testing.T) {
	comps, err := Open(testConfig(t), discard(), false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer comps.Close()

	if comps.DB != nil {
		t.Error("index should not be opened")
	}
	if _, err := comps.Catalog.Candidates("", 5); !errors.Is(err, apperr.ErrConfig) {
		t.Errorf("candidates without index err = %v", err)
	}
	if _, err := comps.Catalog.Validate(false); !errors.Is(err, apperr.ErrConfig) {
		t.Errorf("validate without database err = %v", err)
	}
}

func TestOpen_WithIndex(t *testing.T) {
	cfg := testConfig(t)
	comps, err := Open(cfg, discard(), true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer comps.Close()

	if err := comps.Store.Write(cfg.Data.Database, []byte("jq =\n  = brew\n")); err != nil {
		t.Fatal(err)
	}
	e, err := comps.Catalog.Lookup("JQ")
	if err != nil || e.Name != "jq" {
		t.Errorf("lookup = %+v, %v", e, err)
	}
	cands, err := comps.Catalog.Candidates("", 5)
	if err != nil || len(cands) != 0 {
		t.Errorf("empty index = %v, %v", cands, err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(t.Context()); !errors.Is(err, errConfigRequired) {
		t.Errorf("Run err = %v", err)
	}
	if err := RunMCP(t.Context()); !errors.Is(err, errConfigRequired) {
		t.Errorf("RunMCP err = %v", err)
	}
}

func TestValidationSummary(t *testing.T) {
	v := validate.New(DefaultSources)
	rep := v.Validate("jq =\n  = brew\n\nbad =\n  = dockerhub\n")
	sum := validationSummary("known_packages.ccl", rep)
	if sum.Status != "FAILED" || sum.Packages != 2 || sum.Errors != 1 || sum.Path != "known_packages.ccl" {
		t.Errorf("summary = %+v", sum)
	}
}
