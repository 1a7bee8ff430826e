// Package collect gathers per-source observation lists produced by source adapters.
package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/climap/internal/models"
	"github.com/starford/climap/internal/storage"
)

// Source produces the observations of one package source.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Observation, error)
}

// Batch is the outcome of fetching one source. Err is set when the fetch
// failed; Observations is then empty.
type Batch struct {
	Source       string
	Observations []models.Observation
	Err          error
}

// FetchError reports a source that could not be read or decoded.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("collect: source %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Gather fetches every source concurrently and returns one batch per source,
// keyed by source name. A failing source never cancels its siblings; its
// error is kept on its batch. limit > 0 caps the number of concurrent fetches.
func Gather(ctx context.Context, sources []Source, limit int, logger *slog.Logger) map[string]Batch {
	slots := make([]Batch, len(sources))

	g, gCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		g.Go(func() error {
			obs, err := src.Fetch(gCtx)
			if err != nil {
				var fe *FetchError
				if !errors.As(err, &fe) {
					fe = &FetchError{Source: src.Name(), Err: err}
				}
				logger.Warn("collect: fetch failed",
					slog.String("source", src.Name()),
					slog.String("error", fe.Err.Error()))
				slots[i] = Batch{Source: src.Name(), Err: fe}
				return nil
			}
			logger.Debug("collect: fetched", slog.String("source", src.Name()), slog.Int("packages", len(obs)))
			slots[i] = Batch{Source: src.Name(), Observations: obs}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Batch, len(slots))
	for _, b := range slots {
		out[b.Source] = b
	}
	return out
}

// FileSource reads <Dir>/<Source>.json from a store, as written by a collector.
type FileSource struct {
	Store  storage.Provider
	Dir    string
	Source string
}

// Name returns the source id.
func (f FileSource) Name() string { return f.Source }

// Path returns the store path the source is read from.
func (f FileSource) Path() string {
	return path.Join(f.Dir, f.Source+".json")
}

// Fetch decodes the collection file. Observations without a source field
// inherit the file's source id.
func (f FileSource) Fetch(ctx context.Context) ([]models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: f.Source, Err: err}
	}
	data, err := f.Store.Read(f.Path())
	if err != nil {
		return nil, &FetchError{Source: f.Source, Err: err}
	}
	var res models.CollectionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &FetchError{Source: f.Source, Err: fmt.Errorf("decode %s: %w", f.Path(), err)}
	}
	out := make([]models.Observation, 0, len(res.Packages))
	for _, o := range res.Packages {
		if o.Source == "" {
			o.Source = f.Source
		}
		out = append(out, o)
	}
	return out, nil
}

// FileSources returns a FileSource for each name, all under dir in store.
func FileSources(store storage.Provider, dir string, names []string) []Source {
	out := make([]Source, 0, len(names))
	for _, n := range names {
		out = append(out, FileSource{Store: store, Dir: dir, Source: n})
	}
	return out
}

// Discover returns the source ids of every collection file directly under
// dir, sorted.
func Discover(store storage.Provider, dir string) ([]string, error) {
	metas, err := store.List(dir, ".json")
	if err != nil {
		return nil, fmt.Errorf("collect: discover: %w", err)
	}
	var out []string
	for _, m := range metas {
		rel := strings.TrimPrefix(m.Path, strings.TrimSuffix(dir, "/")+"/")
		if dir == "" || dir == "." {
			rel = m.Path
		}
		if strings.Contains(rel, "/") {
			continue
		}
		out = append(out, strings.TrimSuffix(rel, ".json"))
	}
	return out, nil
}
