package ccl

import (
	"slices"
	"sort"
	"strings"
)

const (
	simpleSection  = "/= Packages with simple format (no source-specific overrides)"
	complexSection = "/= Packages with complex format (have source-specific overrides)"
)

// Serialize renders doc in canonical form: entries without overrides first,
// then entries with overrides, each group sorted by name ignoring case.
// Parsing the result yields a document Equal to doc, and serializing that
// again yields the same text.
func Serialize(doc *Document) string {
	var simple, overridden []*PackageEntry
	for _, e := range doc.Entries() {
		if e.IsSimple() {
			simple = append(simple, e)
		} else {
			overridden = append(overridden, e)
		}
	}
	sortEntries(simple)
	sortEntries(overridden)

	var b strings.Builder
	if len(simple) > 0 {
		b.WriteString(simpleSection + "\n")
		for _, e := range simple {
			writeEntry(&b, e)
			b.WriteString("\n")
		}
	}
	if len(overridden) > 0 {
		b.WriteString(complexSection + "\n\n")
		for _, e := range overridden {
			writeEntry(&b, e)
			b.WriteString("\n")
		}
	}
	return finish(b.String())
}

// SerializeEntries renders entries sorted by name without section comments.
func SerializeEntries(entries []*PackageEntry) string {
	sorted := slices.Clone(entries)
	sortEntries(sorted)
	var b strings.Builder
	for _, e := range sorted {
		writeEntry(&b, e)
		b.WriteString("\n")
	}
	return finish(b.String())
}

// SerializeEntry renders a single entry.
func SerializeEntry(e *PackageEntry) string {
	var b strings.Builder
	writeEntry(&b, e)
	return b.String()
}

func finish(s string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	return s + "\n"
}

func sortEntries(entries []*PackageEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := Key(entries[i].Name), Key(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].Name < entries[j].Name
	})
}

func writeEntry(b *strings.Builder, e *PackageEntry) {
	b.WriteString(e.Name + " =\n")

	for _, source := range sortedKeys(e.Complex) {
		b.WriteString("  " + source + " =\n")
		// Directive order is meaningful and kept as stored.
		for _, d := range e.Complex[source] {
			if d.Value == "" {
				b.WriteString("    " + d.Key + " =\n")
			} else {
				b.WriteString("    " + d.Key + " = " + d.Value + "\n")
			}
		}
	}

	for _, source := range sortedKeys(e.Overrides) {
		b.WriteString("  " + source + " = " + e.Overrides[source] + "\n")
	}

	sources := slices.Sorted(slices.Values(e.Sources))
	if e.IsSimple() {
		for _, s := range sources {
			b.WriteString("  = " + s + "\n")
		}
		return
	}
	if len(sources) > 0 {
		b.WriteString("  " + sourcesKey + " =\n")
		for _, s := range sources {
			b.WriteString("    = " + s + "\n")
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
