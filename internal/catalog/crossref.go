package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/starford/climap/internal/apperr"
	"github.com/starford/climap/internal/collect"
	"github.com/starford/climap/internal/identity"
	"github.com/starford/climap/internal/models"
)

// CrossrefOptions controls a crossref run.
type CrossrefOptions struct {
	// Limit caps the number of candidates; 0 keeps all.
	Limit           int
	IncludeExisting bool
	// Concurrency caps parallel source reads; 0 means unlimited.
	Concurrency int
}

// Crossref loads every collection file, resolves observations into canonical
// records, scores them and returns the ranked candidates not yet in the
// package database. A source that fails to load is reported in SourceErrors
// and does not stop the run.
func (s *Service) Crossref(ctx context.Context, opts CrossrefOptions) (*models.CrossrefOutput, error) {
	names, err := s.sourceNames()
	if err != nil {
		return nil, err
	}
	batches := collect.Gather(ctx, collect.FileSources(s.store, s.cfg.RawDir, names), opts.Concurrency, s.logger)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("catalog: crossref: %w", err)
	}

	ix := s.resolver.Resolve(batches)
	existing, err := s.existingNames()
	if err != nil {
		return nil, err
	}
	ranked := s.scorer.Rank(ix, identity.RankOptions{
		Existing:        existing,
		IncludeExisting: opts.IncludeExisting,
		Limit:           opts.Limit,
	})

	out := &models.CrossrefOutput{
		GeneratedAt:   s.now().UTC(),
		RunID:         uuid.NewString(),
		TotalIndexed:  ix.Len(),
		ExistingInCCL: len(existing),
		Packages:      ranked,
	}
	if len(ix.Errors) > 0 {
		out.SourceErrors = make(map[string]string, len(ix.Errors))
		for src, e := range ix.Errors {
			out.SourceErrors[src] = e.Error()
		}
	}
	s.logger.Info("crossref: completed",
		slog.String("run_id", out.RunID),
		slog.Int("sources", len(ix.Processed)),
		slog.Int("failed_sources", len(ix.Errors)),
		slog.Int("indexed", out.TotalIndexed),
		slog.Int("candidates", len(ranked)),
	)
	return out, nil
}

// sourceNames returns the configured precedence followed by any other
// collection file found in the raw directory.
func (s *Service) sourceNames() ([]string, error) {
	names := s.cfg.Precedence.Order()
	found, err := collect.Discover(s.store, s.cfg.RawDir)
	if err != nil && !isNotExist(err) {
		return nil, err
	}
	for _, n := range found {
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names, nil
}

// existingNames returns the normalized names already in the package database.
// A missing database yields an empty set.
func (s *Service) existingNames() (map[string]struct{}, error) {
	out := make(map[string]struct{})
	ok, err := s.store.Exists(s.cfg.Database)
	if err != nil || !ok {
		return out, err
	}
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	for _, e := range doc.Entries() {
		out[identity.Normalize(e.Name)] = struct{}{}
	}
	return out, nil
}

// WriteCrossref replaces the crossref output file with out.
func (s *Service) WriteCrossref(out *models.CrossrefOutput) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode crossref: %w", err)
	}
	if err := s.store.Write(s.cfg.CrossrefOutput, append(data, '\n')); err != nil {
		return fmt.Errorf("catalog: write crossref: %w", err)
	}
	return nil
}

// RecordRun stores out in the crossref index.
func (s *Service) RecordRun(out *models.CrossrefOutput) error {
	if s.db == nil {
		return fmt.Errorf("catalog: record run: %w: no index configured", apperr.ErrConfig)
	}
	return s.db.SaveRun(*out)
}

// Candidates returns candidates of the latest run, or search hits when query
// is non-empty. An index without runs yields no candidates.
func (s *Service) Candidates(query string, limit int) ([]models.RankedCandidate, error) {
	if s.db == nil {
		return nil, fmt.Errorf("catalog: candidates: %w: no index configured", apperr.ErrConfig)
	}
	var (
		out []models.RankedCandidate
		err error
	)
	if query != "" {
		out, err = s.db.SearchCandidates(query, limit)
	} else {
		out, err = s.db.Candidates("", limit, 0)
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return []models.RankedCandidate{}, nil
	}
	return out, err
}
