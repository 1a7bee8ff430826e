package identity

import (
	"errors"
	"slices"
	"sort"

	"github.com/starford/climap/internal/collect"
	"github.com/starford/climap/internal/models"
)

// Precedence fixes the order in which source batches are folded into the
// index. Primary carries popularity data; Curated lists hand-maintained
// sources from highest to lowest precedence; Extra are plain package sources.
type Precedence struct {
	Primary string
	Curated []string
	Extra   []string
}

// Order returns every listed source, primary first.
func (p Precedence) Order() []string {
	out := make([]string, 0, 1+len(p.Curated)+len(p.Extra))
	if p.Primary != "" {
		out = append(out, p.Primary)
	}
	out = append(out, p.Curated...)
	out = append(out, p.Extra...)
	return out
}

// Index is the canonical-package index built by a Resolver.
type Index struct {
	records map[string]*models.CanonicalRecord
	// Errors holds the fetch error of every source that was skipped.
	Errors map[string]error
	// Processed lists the sources folded in, in processing order.
	Processed []string
}

// Len returns the number of canonical records.
func (ix *Index) Len() int { return len(ix.records) }

// Get returns the record for a normalized key.
func (ix *Index) Get(key string) (*models.CanonicalRecord, bool) {
	r, ok := ix.records[key]
	return r, ok
}

// Records returns all records sorted by name.
func (ix *Index) Records() []*models.CanonicalRecord {
	out := make([]*models.CanonicalRecord, 0, len(ix.records))
	for _, r := range ix.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolver merges per-source observation lists into one Index.
type Resolver struct {
	prec Precedence
}

// NewResolver creates a resolver that processes sources in the given precedence.
func NewResolver(prec Precedence) *Resolver {
	return &Resolver{prec: prec}
}

// Resolve folds the batches into a new index. Batches are processed in
// precedence order whatever order they completed in; sources not named in the
// precedence follow in lexical order. A failed batch is recorded and skipped.
func (r *Resolver) Resolve(batches map[string]collect.Batch) *Index {
	ix := &Index{
		records: make(map[string]*models.CanonicalRecord),
		Errors:  make(map[string]error),
	}
	for _, source := range r.processingOrder(batches) {
		b, ok := batches[source]
		if !ok {
			continue
		}
		if b.Err != nil {
			ix.Errors[source] = b.Err
			continue
		}
		r.apply(ix, source, b.Observations)
		ix.Processed = append(ix.Processed, source)
	}
	return ix
}

// Add folds one source's observations into ix. Callers are responsible for
// calling Add in precedence order.
func (r *Resolver) Add(ix *Index, source string, obs []models.Observation) error {
	if ix == nil || ix.records == nil {
		return errors.New("identity: index not initialised")
	}
	r.apply(ix, source, obs)
	ix.Processed = append(ix.Processed, source)
	return nil
}

// NewIndex returns an empty index for incremental use with Add.
func NewIndex() *Index {
	return &Index{
		records: make(map[string]*models.CanonicalRecord),
		Errors:  make(map[string]error),
	}
}

func (r *Resolver) processingOrder(batches map[string]collect.Batch) []string {
	order := r.prec.Order()
	var rest []string
	for name := range batches {
		if !slices.Contains(order, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func (r *Resolver) apply(ix *Index, source string, obs []models.Observation) {
	primary := source == r.prec.Primary
	for _, o := range obs {
		key := Normalize(o.Name)
		if key == "" {
			continue
		}
		rec, ok := ix.records[key]
		if !ok {
			display := o.DisplayName
			if display == "" {
				display = o.Name
			}
			rec = &models.CanonicalRecord{
				Name:        key,
				DisplayName: display,
				Description: o.Description,
				Homepage:    o.Homepage,
				Category:    o.Category,
				Presence:    make(map[string]bool),
			}
			ix.records[key] = rec
		} else {
			fillIfEmpty(&rec.DisplayName, o.DisplayName)
			fillIfEmpty(&rec.Description, o.Description)
			fillIfEmpty(&rec.Homepage, o.Homepage)
			fillIfEmpty(&rec.Category, o.Category)
		}

		rec.Presence[source] = true
		if !slices.Contains(rec.Sources, source) {
			rec.Sources = append(rec.Sources, source)
		}
		if primary {
			rec.PrimaryRank = o.PopularityRank
			rec.PrimaryInstalls = o.Popularity
		}
	}
}

func fillIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
