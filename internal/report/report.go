// Package report renders command results for humans: tables on a terminal,
// tab-separated text otherwise.
package report

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/starford/climap/internal/merge"
	"github.com/starford/climap/internal/models"
	"github.com/starford/climap/internal/validate"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Printer writes reports to one writer.
type Printer struct {
	w      io.Writer
	styled bool
}

// New returns a Printer that draws tables when w is a terminal.
func New(w io.Writer) *Printer {
	return &Printer{w: w, styled: IsTerminal(w)}
}

// NewPlain returns a Printer that never draws table borders.
func NewPlain(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) table(headers []string, rows [][]string, right ...int) {
	tw := table.NewWriter()
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	if !p.styled {
		fmt.Fprintln(p.w, tw.RenderTSV())
		return
	}
	tw.SetStyle(table.StyleRounded)
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if slices.Contains(right, i) {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	fmt.Fprintln(p.w, tw.Render())
}

// Candidates prints ranked crossref candidates.
func (p *Printer) Candidates(cands []models.RankedCandidate) {
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		rank := "-"
		if c.PrimaryRank != nil {
			rank = strconv.Itoa(*c.PrimaryRank)
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Rank),
			c.Name,
			strconv.Itoa(c.Score),
			rank,
			strings.Join(c.Sources, ","),
			truncate(c.Description, 60),
		})
	}
	p.table([]string{"#", "Name", "Score", "Primary rank", "Sources", "Description"}, rows, 0, 2, 3)
}

// Crossref prints a crossref run summary followed by its candidates.
func (p *Printer) Crossref(out *models.CrossrefOutput) {
	fmt.Fprintf(p.w, "Run %s: %d packages indexed, %d already in database, %d candidates\n",
		out.RunID, out.TotalIndexed, out.ExistingInCCL, len(out.Packages))
	for _, src := range sortedKeys(out.SourceErrors) {
		fmt.Fprintf(p.w, "  source %s failed: %s\n", src, out.SourceErrors[src])
	}
	if len(out.Packages) > 0 {
		p.Candidates(out.Packages)
	}
}

// Merge prints merge statistics.
func (p *Printer) Merge(st merge.Stats) {
	p.table([]string{"Added", "Updated", "Unchanged", "Skipped", "Rejected"}, [][]string{{
		strconv.Itoa(st.Added),
		strconv.Itoa(st.Updated),
		strconv.Itoa(st.Unchanged),
		strconv.Itoa(st.Skipped),
		strconv.Itoa(st.Rejected),
	}}, 0, 1, 2, 3, 4)
	if len(st.NewNames) > 0 {
		fmt.Fprintf(p.w, "New packages: %s\n", strings.Join(st.NewNames, ", "))
	}
}

var severityMarks = map[validate.Severity]string{
	validate.SeverityError:   "✗",
	validate.SeverityWarning: "⚠",
	validate.SeverityInfo:    "ℹ",
}

// Validation prints issues grouped by severity, summary statistics and the
// final status line.
func (p *Printer) Validation(r *validate.Report) {
	sections := []struct {
		title string
		sev   validate.Severity
	}{
		{"ERRORS", validate.SeverityError},
		{"WARNINGS", validate.SeverityWarning},
		{"INFO", validate.SeverityInfo},
	}
	for _, s := range sections {
		issues := r.Filter(s.sev)
		if len(issues) == 0 {
			continue
		}
		fmt.Fprintf(p.w, "%s:\n", s.title)
		for _, i := range issues {
			fmt.Fprintf(p.w, "  %s %s\n", severityMarks[s.sev], i)
		}
		fmt.Fprintln(p.w)
	}

	st := r.Stats
	fmt.Fprintln(p.w, "Summary Statistics:")
	p.table([]string{"Metric", "Value"}, [][]string{
		{"Total packages", strconv.Itoa(st.Total)},
		{"Simple format", strconv.Itoa(st.Simple)},
		{"Complex format (with overrides/aliases)", strconv.Itoa(st.Complex)},
		{"Unique sources", strconv.Itoa(len(st.Sources))},
	}, 1)

	if len(st.Sources) > 0 {
		rows := make([][]string, 0, len(st.Sources))
		for _, src := range st.Sources {
			rows = append(rows, []string{src, strconv.Itoa(st.BySource[src])})
		}
		fmt.Fprintln(p.w, "Package availability by source:")
		p.table([]string{"Source", "Packages"}, rows, 1)
	}

	switch r.Status() {
	case "FAILED":
		fmt.Fprintln(p.w, "Status: FAILED (fix errors above)")
	case "WARNINGS":
		fmt.Fprintln(p.w, "Status: PASSED WITH WARNINGS (review warnings above)")
	default:
		fmt.Fprintln(p.w, "Status: PASSED")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
