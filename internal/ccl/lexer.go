package ccl

import (
	"regexp"
	"strings"
)

// LineKind classifies one line of a document.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	// LineHeader is a column-0 "<name> =" line opening a package block.
	LineHeader
	// LineSourceItem is "= <source>".
	LineSourceItem
	// LineSourcesOpen is "_sources =".
	LineSourcesOpen
	// LineOverride is "<key> = <value>" with a non-empty value.
	LineOverride
	// LineComplexOpen is "<key> =" below column 0.
	LineComplexOpen
	LineUnknown
)

var kindNames = [...]string{
	LineBlank:       "blank",
	LineComment:     "comment",
	LineHeader:      "header",
	LineSourceItem:  "source",
	LineSourcesOpen: "sources-open",
	LineOverride:    "override",
	LineComplexOpen: "complex-open",
	LineUnknown:     "unknown",
}

func (k LineKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

const (
	commentPrefix = "/="
	sourcesKey    = "_sources"
	blockIndent   = 2
	nestedIndent  = 4
)

// A leading underscore is reserved for sub-block keywords such as _sources.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9@][A-Za-z0-9_.@/-]*$`)

// ValidName reports whether name may appear as a package header.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// Line is one tokenized input line.
type Line struct {
	Num    int // 1-based
	Indent int // leading spaces
	Text   string
	Kind   LineKind
	Key    string
	Value  string
}

// Tokenize splits text into lines and classifies each one.
func Tokenize(text string) []Line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	out := make([]Line, 0, len(raw))
	for i, r := range raw {
		out = append(out, classify(i+1, r))
	}
	return out
}

func classify(num int, raw string) Line {
	rest := strings.TrimLeft(raw, " ")
	l := Line{Num: num, Indent: len(raw) - len(rest), Text: strings.TrimSpace(raw)}

	switch {
	case l.Text == "":
		l.Kind = LineBlank
		return l
	case strings.HasPrefix(l.Text, commentPrefix):
		l.Kind = LineComment
		return l
	case strings.HasPrefix(rest, "\t"):
		l.Kind = LineUnknown
		return l
	}

	if strings.HasPrefix(l.Text, "=") {
		l.Value = strings.TrimSpace(l.Text[1:])
		if l.Value == "" {
			l.Kind = LineUnknown
		} else {
			l.Kind = LineSourceItem
		}
		return l
	}

	key, value, ok := strings.Cut(l.Text, "=")
	if !ok {
		l.Kind = LineUnknown
		return l
	}
	l.Key = strings.TrimSpace(key)
	l.Value = strings.TrimSpace(value)
	if l.Key == "" || strings.ContainsAny(l.Key, " \t") {
		l.Kind = LineUnknown
		return l
	}

	switch {
	case l.Key == sourcesKey && l.Value == "":
		l.Kind = LineSourcesOpen
	case l.Indent == 0 && l.Value == "" && ValidName(l.Key):
		l.Kind = LineHeader
	case l.Value == "":
		l.Kind = LineComplexOpen
	default:
		l.Kind = LineOverride
	}
	return l
}
