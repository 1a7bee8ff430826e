package ccl

import "fmt"

// Item is one recognized statement inside a package block. Concrete types are
// SimpleSourceLine, OverrideLine, ComplexOverrideBlock and SourcesBlock.
type Item interface {
	item()
}

// SimpleSourceLine is "  = <source>".
type SimpleSourceLine struct {
	Line   int
	Source string
}

// OverrideLine is "  <source> = <value>".
type OverrideLine struct {
	Line   int
	Source string
	Value  string
}

// ComplexOverrideBlock is "  <source> =" followed by nested directives.
type ComplexOverrideBlock struct {
	Line       int
	Source     string
	Directives []Directive
}

// SourcesBlock is "  _sources =" followed by nested "= <source>" lines.
type SourcesBlock struct {
	Line    int
	Sources []string
}

func (SimpleSourceLine) item()     {}
func (OverrideLine) item()         {}
func (ComplexOverrideBlock) item() {}
func (SourcesBlock) item()         {}

// Block is a parsed package block before assembly into an entry.
type Block struct {
	Name  string
	Line  int
	Items []Item
}

// Diagnostic describes a line the parser skipped.
type Diagnostic struct {
	Line   int
	Text   string
	Reason string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %q", d.Line, d.Reason, d.Text)
}

// ParseError is returned in strict mode for the first unrecognized line.
type ParseError struct {
	Diagnostic
}

func (e *ParseError) Error() string {
	return "ccl: " + e.Diagnostic.String()
}

// Options controls parsing.
type Options struct {
	// Strict turns the first unrecognized line into a *ParseError instead of
	// skipping it.
	Strict bool
}

type parser struct {
	lines []Line
	pos   int
	opts  Options
	diags []Diagnostic
}

// ParseBlocks parses text into blocks in document order. Repeated names are
// kept as separate blocks. Skipped lines are returned as diagnostics.
func ParseBlocks(text string, opts Options) ([]Block, []Diagnostic, error) {
	p := &parser{lines: Tokenize(text), opts: opts}
	blocks, err := p.document()
	if err != nil {
		return nil, p.diags, err
	}
	return blocks, p.diags, nil
}

// Parse parses text into a Document. When a name repeats, the later block
// replaces the earlier one.
func Parse(text string, opts Options) (*Document, []Diagnostic, error) {
	blocks, diags, err := ParseBlocks(text, opts)
	if err != nil {
		return nil, diags, err
	}
	doc := NewDocument()
	for _, b := range blocks {
		doc.Set(Assemble(b))
	}
	return doc, diags, nil
}

// Assemble builds the entry described by a block.
func Assemble(b Block) *PackageEntry {
	e := NewEntry(b.Name)
	for _, it := range b.Items {
		switch v := it.(type) {
		case SimpleSourceLine:
			e.AddSource(v.Source)
		case SourcesBlock:
			for _, s := range v.Sources {
				e.AddSource(s)
			}
		case OverrideLine:
			e.SetOverride(v.Source, v.Value)
		case ComplexOverrideBlock:
			e.OpenComplex(v.Source)
			for _, d := range v.Directives {
				e.SetDirective(v.Source, d.Key, d.Value)
			}
		}
	}
	return e
}

func (p *parser) eof() bool { return p.pos >= len(p.lines) }

func (p *parser) peek() Line { return p.lines[p.pos] }

func (p *parser) next() Line {
	l := p.lines[p.pos]
	p.pos++
	return l
}

// skip consumes the current line as unrecognized.
func (p *parser) skip(reason string) error {
	l := p.next()
	d := Diagnostic{Line: l.Num, Text: l.Text, Reason: reason}
	if p.opts.Strict {
		return &ParseError{Diagnostic: d}
	}
	p.diags = append(p.diags, d)
	return nil
}

func ignorable(l Line) bool {
	return l.Kind == LineBlank || l.Kind == LineComment
}

func (p *parser) document() ([]Block, error) {
	var blocks []Block
	for !p.eof() {
		l := p.peek()
		switch {
		case ignorable(l):
			p.pos++
		case l.Kind == LineHeader:
			b, err := p.block()
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, b)
		default:
			if err := p.skip("outside of a package block"); err != nil {
				return nil, err
			}
		}
	}
	return blocks, nil
}

func (p *parser) block() (Block, error) {
	hdr := p.next()
	b := Block{Name: hdr.Key, Line: hdr.Num}

	for !p.eof() && p.peek().Kind != LineHeader {
		l := p.peek()
		if ignorable(l) {
			p.pos++
			continue
		}
		if l.Indent != blockIndent {
			if err := p.skip(fmt.Sprintf("unexpected indentation %d", l.Indent)); err != nil {
				return b, err
			}
			continue
		}

		switch l.Kind {
		case LineSourceItem:
			p.pos++
			b.Items = append(b.Items, SimpleSourceLine{Line: l.Num, Source: l.Value})
		case LineOverride:
			p.pos++
			b.Items = append(b.Items, OverrideLine{Line: l.Num, Source: l.Key, Value: l.Value})
		case LineSourcesOpen:
			p.pos++
			sb, err := p.sourcesBlock(l)
			if err != nil {
				return b, err
			}
			b.Items = append(b.Items, sb)
		case LineComplexOpen:
			p.pos++
			cb, err := p.complexBlock(l)
			if err != nil {
				return b, err
			}
			b.Items = append(b.Items, cb)
		default:
			if err := p.skip("unrecognized statement"); err != nil {
				return b, err
			}
		}
	}
	return b, nil
}

// nested runs fn for every non-ignorable line indented at least four spaces.
func (p *parser) nested(fn func(l Line) error) error {
	for !p.eof() {
		l := p.peek()
		if ignorable(l) {
			p.pos++
			continue
		}
		if l.Indent < nestedIndent {
			return nil
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) sourcesBlock(open Line) (SourcesBlock, error) {
	sb := SourcesBlock{Line: open.Num}
	err := p.nested(func(l Line) error {
		if l.Indent == nestedIndent && l.Kind == LineSourceItem {
			p.pos++
			sb.Sources = append(sb.Sources, l.Value)
			return nil
		}
		return p.skip("expected \"= <source>\" in _sources block")
	})
	return sb, err
}

func (p *parser) complexBlock(open Line) (ComplexOverrideBlock, error) {
	cb := ComplexOverrideBlock{Line: open.Num, Source: open.Key, Directives: []Directive{}}
	err := p.nested(func(l Line) error {
		if l.Indent == nestedIndent && isDirective(l.Kind) {
			p.pos++
			cb.Directives = append(cb.Directives, Directive{Key: l.Key, Value: l.Value})
			return nil
		}
		return p.skip(fmt.Sprintf("expected \"<key> = <value>\" in %s block", open.Key))
	})
	return cb, err
}

// isDirective reports whether a nested line reads as "<key> = <value>".
// A directive keyed _sources with an empty value lexes as LineSourcesOpen.
func isDirective(k LineKind) bool {
	return k == LineOverride || k == LineComplexOpen || k == LineSourcesOpen
}
