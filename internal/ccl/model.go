// Package ccl reads and writes the package database format: an
// indentation-based text document mapping canonical package names to the
// sources that ship them, with optional per-source name overrides.
package ccl

import (
	"maps"
	"slices"
	"sort"
	"strings"
)

// Directive is one key/value line of a nested per-source block.
type Directive struct {
	Key   string
	Value string
}

// PackageEntry is one package block.
//
// A source id appears in at most one of Sources, Overrides and Complex.
// Sources is kept sorted and free of duplicates by AddSource.
type PackageEntry struct {
	Name      string
	Sources   []string
	Overrides map[string]string
	Complex   map[string][]Directive
}

// NewEntry returns an empty entry.
func NewEntry(name string) *PackageEntry {
	return &PackageEntry{
		Name:      name,
		Overrides: make(map[string]string),
		Complex:   make(map[string][]Directive),
	}
}

// AddSource records source as available under the package's own name.
// It reports whether the source was added.
func (e *PackageEntry) AddSource(source string) bool {
	i, found := slices.BinarySearch(e.Sources, source)
	if found {
		return false
	}
	e.Sources = slices.Insert(e.Sources, i, source)
	return true
}

// RemoveSource drops source from the plain source list.
func (e *PackageEntry) RemoveSource(source string) bool {
	i, found := slices.BinarySearch(e.Sources, source)
	if !found {
		return false
	}
	e.Sources = slices.Delete(e.Sources, i, i+1)
	return true
}

// HasSource reports whether source is in the plain source list.
func (e *PackageEntry) HasSource(source string) bool {
	_, found := slices.BinarySearch(e.Sources, source)
	return found
}

// SetOverride records that source ships the package as value.
func (e *PackageEntry) SetOverride(source, value string) {
	if e.Overrides == nil {
		e.Overrides = make(map[string]string)
	}
	e.Overrides[source] = value
}

// HasComplex reports whether source has a nested directive block.
func (e *PackageEntry) HasComplex(source string) bool {
	_, ok := e.Complex[source]
	return ok
}

// OpenComplex makes sure source has a (possibly empty) directive block.
func (e *PackageEntry) OpenComplex(source string) {
	if e.Complex == nil {
		e.Complex = make(map[string][]Directive)
	}
	if _, ok := e.Complex[source]; !ok {
		e.Complex[source] = []Directive{}
	}
}

// SetDirective sets key in the block of source. An existing key keeps its
// position; a new key is appended.
func (e *PackageEntry) SetDirective(source, key, value string) {
	e.OpenComplex(source)
	block := e.Complex[source]
	for i := range block {
		if block[i].Key == key {
			block[i].Value = value
			return
		}
	}
	e.Complex[source] = append(block, Directive{Key: key, Value: value})
}

// IsSimple reports whether the entry has neither overrides nor nested blocks.
func (e *PackageEntry) IsSimple() bool {
	return len(e.Overrides) == 0 && len(e.Complex) == 0
}

// SourceIDs returns every source id the entry mentions, sorted.
func (e *PackageEntry) SourceIDs() []string {
	seen := make(map[string]struct{}, len(e.Sources)+len(e.Overrides)+len(e.Complex))
	for _, s := range e.Sources {
		seen[s] = struct{}{}
	}
	for s := range e.Overrides {
		seen[s] = struct{}{}
	}
	for s := range e.Complex {
		seen[s] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Conflicts returns the source ids declared in more than one of Sources,
// Overrides and Complex, sorted.
func (e *PackageEntry) Conflicts() []string {
	var out []string
	for _, s := range e.SourceIDs() {
		n := 0
		if e.HasSource(s) {
			n++
		}
		if _, ok := e.Overrides[s]; ok {
			n++
		}
		if e.HasComplex(s) {
			n++
		}
		if n > 1 {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy.
func (e *PackageEntry) Clone() *PackageEntry {
	c := NewEntry(e.Name)
	c.Sources = slices.Clone(e.Sources)
	maps.Copy(c.Overrides, e.Overrides)
	for s, block := range e.Complex {
		c.Complex[s] = slices.Clone(block)
		if c.Complex[s] == nil {
			c.Complex[s] = []Directive{}
		}
	}
	return c
}

// Equal reports whether two entries hold the same data.
func (e *PackageEntry) Equal(o *PackageEntry) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.Name != o.Name || !slices.Equal(e.Sources, o.Sources) || !maps.Equal(e.Overrides, o.Overrides) {
		return false
	}
	if len(e.Complex) != len(o.Complex) {
		return false
	}
	for s, block := range e.Complex {
		other, ok := o.Complex[s]
		if !ok || !slices.Equal(block, other) {
			return false
		}
	}
	return true
}

// Key returns the lookup key for a package name.
func Key(name string) string {
	return strings.ToLower(name)
}

// Document is an ordered mapping from package name to entry. Lookups are
// case-insensitive; entries keep the name as written.
type Document struct {
	order   []string
	entries map[string]*PackageEntry
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{entries: make(map[string]*PackageEntry)}
}

// Len returns the number of entries.
func (d *Document) Len() int { return len(d.order) }

// Get looks an entry up by name, ignoring case.
func (d *Document) Get(name string) (*PackageEntry, bool) {
	e, ok := d.entries[Key(name)]
	return e, ok
}

// Set stores e. Replacing an existing name keeps its position.
func (d *Document) Set(e *PackageEntry) {
	k := Key(e.Name)
	if _, ok := d.entries[k]; !ok {
		d.order = append(d.order, k)
	}
	d.entries[k] = e
}

// Delete removes name and reports whether it was present.
func (d *Document) Delete(name string) bool {
	k := Key(name)
	if _, ok := d.entries[k]; !ok {
		return false
	}
	delete(d.entries, k)
	d.order = slices.DeleteFunc(d.order, func(s string) bool { return s == k })
	return true
}

// Entries returns the entries in insertion order.
func (d *Document) Entries() []*PackageEntry {
	out := make([]*PackageEntry, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.entries[k])
	}
	return out
}

// Names returns the lookup keys of all entries, sorted.
func (d *Document) Names() []string {
	out := slices.Clone(d.order)
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := NewDocument()
	for _, e := range d.Entries() {
		c.Set(e.Clone())
	}
	return c
}

// Equal compares two documents as mappings; entry order is ignored.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for k, e := range d.entries {
		other, ok := o.entries[k]
		if !ok || !e.Equal(other) {
			return false
		}
	}
	return true
}
