// Package catalog implements the crossref, merge and validation workflows over
// the data directory, the crossref index and the package database.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/climap/internal/apperr"
	"github.com/starford/climap/internal/ccl"
	"github.com/starford/climap/internal/checksum"
	"github.com/starford/climap/internal/identity"
	"github.com/starford/climap/internal/index"
	"github.com/starford/climap/internal/storage"
	"github.com/starford/climap/internal/validate"
)

const defaultCacheSize = 8

// Config wires a Service. Paths are relative to the store root.
type Config struct {
	Database       string
	RawDir         string
	CrossrefOutput string
	VerifiedInput  string
	ValidSources   []string
	Precedence     identity.Precedence
	Weights        []identity.CuratedWeight
	CacheSize      int
}

// Service is the application layer shared by the CLI, HTTP API and MCP server.
type Service struct {
	cfg      Config
	store    storage.Provider
	db       index.CandidateStore
	resolver *identity.Resolver
	scorer   *identity.Scorer
	cache    *lru.Cache[string, *parsed]
	logger   *slog.Logger
	now      func() time.Time
}

type parsed struct {
	doc   *ccl.Document
	diags []ccl.Diagnostic
}

// New creates a Service. db may be nil when no command needs the index.
func New(cfg Config, store storage.Provider, db index.CandidateStore, logger *slog.Logger) (*Service, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *parsed](size)
	if err != nil {
		return nil, fmt.Errorf("catalog: cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		db:       db,
		resolver: identity.NewResolver(cfg.Precedence),
		scorer:   identity.NewScorer(cfg.Weights),
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// DatabasePath returns the store path of the package database.
func (s *Service) DatabasePath() string { return s.cfg.Database }

// ValidSources returns the configured source enumeration.
func (s *Service) ValidSources() []string { return slices.Clone(s.cfg.ValidSources) }

// readDatabase returns the raw database bytes. A missing file is a
// configuration error.
func (s *Service) readDatabase() ([]byte, error) {
	ok, err := s.store.Exists(s.cfg.Database)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("catalog: database %s: %w: file not found", s.cfg.Database, apperr.ErrConfig)
	}
	return s.store.Read(s.cfg.Database)
}

// parse returns the parsed form of data, reusing a cached parse of identical
// content. The returned document must not be modified.
func (s *Service) parse(data []byte) *parsed {
	key := checksum.Sum(data)
	if p, ok := s.cache.Get(key); ok {
		return p
	}
	doc, diags, _ := ccl.Parse(string(data), ccl.Options{})
	p := &parsed{doc: doc, diags: diags}
	s.cache.Add(key, p)
	return p
}

// Document returns the current package database. Callers must not modify it;
// use Clone for a private copy.
func (s *Service) Document() (*ccl.Document, error) {
	data, err := s.readDatabase()
	if err != nil {
		return nil, err
	}
	p := s.parse(data)
	if len(p.diags) > 0 {
		s.logger.Debug("catalog: database has unrecognized lines", slog.Int("count", len(p.diags)))
	}
	return p.doc, nil
}

// Lookup returns the entry for name, ignoring case.
func (s *Service) Lookup(name string) (*ccl.PackageEntry, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	e, ok := doc.Get(name)
	if !ok {
		return nil, fmt.Errorf("catalog: package %s: %w", name, apperr.ErrNotFound)
	}
	return e, nil
}

// ListPackages returns the entries sorted by name. A non-empty source keeps
// only entries that mention it.
func (s *Service) ListPackages(source string) ([]*ccl.PackageEntry, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	out := []*ccl.PackageEntry{}
	for _, name := range doc.Names() {
		e, _ := doc.Get(name)
		if source != "" && !slices.Contains(e.SourceIDs(), source) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Validate checks the package database.
func (s *Service) Validate(strict bool) (*validate.Report, error) {
	data, err := s.readDatabase()
	if err != nil {
		return nil, err
	}
	return s.Validator(strict).Validate(string(data)), nil
}

// Validator returns a validator for the configured sources.
func (s *Service) Validator(strict bool) *validate.Validator {
	return validate.New(s.cfg.ValidSources, validate.WithStrict(strict))
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
