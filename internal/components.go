package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/climap/internal/catalog"
	"github.com/starford/climap/internal/index"
	"github.com/starford/climap/internal/storage"
)

// NewLogger returns the structured JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Components holds the services built from a Config.
type Components struct {
	Store   *storage.FS
	DB      *index.DB // nil unless requested
	Catalog *catalog.Service
}

// Open creates the data directory if needed and builds the storage, the
// candidate index (when withIndex is set) and the catalog service.
func Open(cfg *Config, logger *slog.Logger, withIndex bool) (*Components, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	c := &Components{Store: store}
	var candidates index.CandidateStore
	if withIndex {
		c.DB, err = index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		candidates = c.DB
	}

	c.Catalog, err = catalog.New(cfg.Catalog(), store, candidates, logger)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	return c, nil
}

// Close releases the index.
func (c *Components) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
