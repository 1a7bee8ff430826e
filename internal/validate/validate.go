// Package validate checks a package database for structural problems and
// produces a severity-graded report.
package validate

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/starford/climap/internal/ccl"
)

// Severity grades an issue.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Issue is one validation finding. Subject is the package name it concerns,
// empty for problems that belong to no package.
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Subject  string   `json:"subject,omitempty"`
	Line     int      `json:"line,omitempty"`
}

func (i Issue) String() string {
	return string(i.Severity) + ": " + i.Message
}

// Stats summarises the validated document.
type Stats struct {
	Total    int            `json:"total"`
	Simple   int            `json:"simple"`
	Complex  int            `json:"complex"`
	Sources  []string       `json:"sources"`
	BySource map[string]int `json:"by_source"`
}

// Report is the outcome of one validation pass.
type Report struct {
	Issues []Issue `json:"issues"`
	Stats  Stats   `json:"stats"`
}

// Failed reports whether at least one ERROR was found.
func (r *Report) Failed() bool {
	return r.Count(SeverityError) > 0
}

// Count returns the number of issues with severity s.
func (r *Report) Count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// Filter returns the issues with severity s in report order.
func (r *Report) Filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Status returns a one-word summary: FAILED, WARNINGS or PASSED.
func (r *Report) Status() string {
	switch {
	case r.Failed():
		return "FAILED"
	case r.Count(SeverityWarning) > 0:
		return "WARNINGS"
	default:
		return "PASSED"
	}
}

// Validator checks documents against a fixed set of valid source ids.
type Validator struct {
	valid  map[string]struct{}
	strict bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithStrict reports lines the parser could not recognize as errors instead
// of warnings.
func WithStrict(strict bool) Option {
	return func(v *Validator) { v.strict = strict }
}

// New returns a Validator accepting the given source ids.
func New(validSources []string, opts ...Option) *Validator {
	v := &Validator{valid: make(map[string]struct{}, len(validSources))}
	for _, s := range validSources {
		v.valid[s] = struct{}{}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate parses text and reports every issue found. It never stops at the
// first problem.
func (v *Validator) Validate(text string) *Report {
	blocks, diags, _ := ccl.ParseBlocks(text, ccl.Options{})
	r := &Report{Issues: []Issue{}}

	lineSeverity := SeverityWarning
	if v.strict {
		lineSeverity = SeverityError
	}
	for _, d := range diags {
		r.Issues = append(r.Issues, Issue{
			Severity: lineSeverity,
			Message:  fmt.Sprintf("Unrecognized line %d (%s): %q", d.Line, d.Reason, d.Text),
			Line:     d.Line,
		})
	}

	names := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		names[ccl.Key(b.Name)] = struct{}{}
	}

	doc := ccl.NewDocument()
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		key := ccl.Key(b.Name)
		if _, dup := seen[key]; dup {
			r.add(SeverityError, b, "Duplicate package '%s'", b.Name)
		}
		seen[key] = struct{}{}

		entry := ccl.Assemble(b)
		v.checkSources(r, b, entry)
		checkAlias(r, b, entry, names)
		doc.Set(entry)
	}

	r.Stats = collectStats(doc)
	return r
}

func (r *Report) add(s Severity, b ccl.Block, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: s,
		Message:  fmt.Sprintf(format, args...),
		Subject:  b.Name,
		Line:     b.Line,
	})
}

func (v *Validator) checkSources(r *Report, b ccl.Block, e *ccl.PackageEntry) {
	ids := e.SourceIDs()
	for _, id := range ids {
		if _, ok := v.valid[id]; !ok {
			r.add(SeverityError, b, "Invalid source '%s' for package '%s'", id, b.Name)
		}
	}
	for _, id := range e.Conflicts() {
		r.add(SeverityError, b, "Source '%s' declared in more than one form in package '%s'", id, b.Name)
	}
	for _, rep := range repeats(b) {
		r.add(SeverityWarning, b, "Source '%s' repeated %d times in package '%s'", rep.source, rep.count, b.Name)
	}

	switch len(ids) {
	case 0:
		r.add(SeverityWarning, b, "Package '%s' declares no sources", b.Name)
	case 1:
		r.add(SeverityWarning, b, "Package '%s' only available from %s", b.Name, ids[0])
	}
}

type repeat struct {
	source string
	count  int
}

// repeats lists source ids declared more than once within the same form:
// plain sources (inline or in _sources), overrides, or nested blocks.
func repeats(b ccl.Block) []repeat {
	plain := make(map[string]int)
	override := make(map[string]int)
	complexes := make(map[string]int)
	var order []string
	note := func(m map[string]int, s string) {
		if m[s] == 1 {
			order = append(order, s)
		}
		m[s]++
	}
	for _, it := range b.Items {
		switch v := it.(type) {
		case ccl.SimpleSourceLine:
			note(plain, v.Source)
		case ccl.SourcesBlock:
			for _, s := range v.Sources {
				note(plain, s)
			}
		case ccl.OverrideLine:
			note(override, v.Source)
		case ccl.ComplexOverrideBlock:
			note(complexes, v.Source)
		}
	}

	var out []repeat
	for _, s := range slices.Compact(slices.Sorted(slices.Values(order))) {
		for _, m := range []map[string]int{plain, override, complexes} {
			if m[s] > 1 {
				out = append(out, repeat{source: s, count: m[s]})
			}
		}
	}
	return out
}

// checkAlias flags entries whose overrides all rename to one target that is
// not itself a package. Entries with differing targets are not flagged.
func checkAlias(r *Report, b ccl.Block, e *ccl.PackageEntry, names map[string]struct{}) {
	if len(e.Overrides) == 0 {
		return
	}
	targets := slices.Compact(slices.Sorted(maps.Values(e.Overrides)))
	if len(targets) != 1 {
		return
	}
	target := targets[0]
	if isURL(target) {
		return
	}
	if _, ok := names[ccl.Key(target)]; ok {
		return
	}
	r.add(SeverityInfo, b, "'%s' is an alias for '%s' (target package)", b.Name, target)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func collectStats(doc *ccl.Document) Stats {
	st := Stats{Total: doc.Len(), BySource: make(map[string]int)}
	for _, e := range doc.Entries() {
		if e.IsSimple() {
			st.Simple++
		} else {
			st.Complex++
		}
		for _, id := range e.SourceIDs() {
			st.BySource[id]++
		}
	}
	st.Sources = slices.Sorted(maps.Keys(st.BySource))
	return st
}
