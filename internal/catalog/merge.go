package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/climap/internal/apperr"
	"github.com/starford/climap/internal/ccl"
	"github.com/starford/climap/internal/checksum"
	"github.com/starford/climap/internal/merge"
	"github.com/starford/climap/internal/models"
)

// Mode selects what a merge does with its result.
type Mode int

const (
	// ModePreview returns the merged document without touching the database.
	ModePreview Mode = iota
	// ModeDryRun is ModePreview with a summary of what would change.
	ModeDryRun
	// ModeWrite atomically replaces the database.
	ModeWrite
	// ModeAppend adds only newly created entries to the end of the database.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeDryRun:
		return "dry-run"
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	default:
		return "preview"
	}
}

// ParseMode maps a mode name to a Mode. The empty string is ModePreview.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "preview":
		return ModePreview, nil
	case "dry-run":
		return ModeDryRun, nil
	case "write":
		return ModeWrite, nil
	case "append":
		return ModeAppend, nil
	}
	return ModePreview, fmt.Errorf("catalog: unknown merge mode %q: %w", name, apperr.ErrInvalid)
}

// MergeOptions controls a merge.
type MergeOptions struct {
	MinSources int
	Mode       Mode
}

// MergeResult describes a completed merge. Text is the full merged document
// for preview modes, and the appended text for ModeAppend.
type MergeResult struct {
	Text    string
	Stats   merge.Stats
	Written bool
}

// LoadVerified reads a verification file. A missing file is a configuration
// error.
func (s *Service) LoadVerified(path string) ([]models.VerifiedPackage, error) {
	if path == "" {
		path = s.cfg.VerifiedInput
	}
	ok, err := s.store.Exists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("catalog: verified input %s: %w: file not found", path, apperr.ErrConfig)
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	var out models.VerifiedOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return out.Packages, nil
}

// Merge folds verified into the package database according to opts.Mode.
// Writing modes hold the database lock from read to write.
func (s *Service) Merge(ctx context.Context, verified []models.VerifiedPackage, opts MergeOptions) (*MergeResult, error) {
	if opts.Mode == ModeWrite || opts.Mode == ModeAppend {
		unlock, err := s.store.Lock(ctx, s.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("catalog: merge: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				s.logger.Warn("catalog: unlock failed", slog.String("error", err.Error()))
			}
		}()
	}

	current, err := s.readDatabase()
	if err != nil {
		return nil, err
	}
	merged, st := merge.Merge(s.parse(current).doc, verified, merge.Options{
		MinSources:   opts.MinSources,
		ValidSources: s.cfg.ValidSources,
		Logger:       s.logger,
	})
	res := &MergeResult{Stats: st}

	switch opts.Mode {
	case ModeWrite:
		res.Text = ccl.Serialize(merged)
		if checksum.Same(current, []byte(res.Text)) {
			s.logger.Info("merge: database unchanged, nothing written")
			break
		}
		if err := s.store.Write(s.cfg.Database, []byte(res.Text)); err != nil {
			return nil, fmt.Errorf("catalog: write database: %w", err)
		}
		res.Written = true

	case ModeAppend:
		if st.Updated > 0 {
			s.logger.Warn("merge: append mode leaves existing entries unchanged",
				slog.Int("updates_skipped", st.Updated))
		}
		if len(st.NewNames) == 0 {
			break
		}
		added := make([]*ccl.PackageEntry, 0, len(st.NewNames))
		for _, n := range st.NewNames {
			e, _ := merged.Get(n)
			added = append(added, e)
		}
		res.Text = ccl.SerializeEntries(added)
		chunk := res.Text
		if len(current) > 0 {
			chunk = separator(string(current)) + chunk
		}
		if err := s.store.Append(s.cfg.Database, []byte(chunk)); err != nil {
			return nil, fmt.Errorf("catalog: append database: %w", err)
		}
		res.Written = true

	default:
		res.Text = ccl.Serialize(merged)
	}

	s.logger.Info("merge: completed",
		slog.String("mode", opts.Mode.String()),
		slog.Int("added", st.Added),
		slog.Int("updated", st.Updated),
		slog.Int("unchanged", st.Unchanged),
		slog.Int("skipped", st.Skipped),
		slog.Int("rejected", st.Rejected),
		slog.Bool("written", res.Written),
	)
	return res, nil
}

// separator returns what must precede appended entries so that they start
// after exactly one blank line.
func separator(existing string) string {
	switch {
	case strings.HasSuffix(existing, "\n\n"):
		return ""
	case strings.HasSuffix(existing, "\n"):
		return "\n"
	default:
		return "\n\n"
	}
}
