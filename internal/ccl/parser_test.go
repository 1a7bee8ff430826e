package ccl

import (
	"errors"
	"slices"
	"testing"
)

const sample = `/= Packages with simple format (no source-specific overrides)
bat =
  = brew
  = scoop

/= Packages with complex format (have source-specific overrides)

fd =
  apt = fd-find
  _sources =
    = brew
    = nix

node =
  scoop =
    pre = scoop bucket add main
    install = nodejs-lts
  brew = node@22
`

func TestParse_Forms(t *testing.T) {
	doc, diags, err := Parse(sample, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if doc.Len() != 3 {
		t.Fatalf("len = %d, want 3", doc.Len())
	}

	bat, _ := doc.Get("bat")
	if !slices.Equal(bat.Sources, []string{"brew", "scoop"}) || !bat.IsSimple() {
		t.Errorf("bat = %+v", bat)
	}

	fd, _ := doc.Get("FD")
	if fd.Overrides["apt"] != "fd-find" {
		t.Errorf("fd overrides = %v", fd.Overrides)
	}
	if !slices.Equal(fd.Sources, []string{"brew", "nix"}) {
		t.Errorf("fd sources = %v", fd.Sources)
	}

	node, _ := doc.Get("node")
	want := []Directive{{"pre", "scoop bucket add main"}, {"install", "nodejs-lts"}}
	if !slices.Equal(node.Complex["scoop"], want) {
		t.Errorf("node scoop block = %v", node.Complex["scoop"])
	}
	if node.Overrides["brew"] != "node@22" {
		t.Errorf("node brew override = %q", node.Overrides["brew"])
	}
}

func TestParseBlocks_TaggedItems(t *testing.T) {
	blocks, _, err := ParseBlocks(sample, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d", len(blocks))
	}
	fd := blocks[1]
	if fd.Name != "fd" || fd.Line != 8 {
		t.Errorf("fd block header = %q line %d", fd.Name, fd.Line)
	}
	if _, ok := fd.Items[0].(OverrideLine); !ok {
		t.Errorf("item 0 = %T, want OverrideLine", fd.Items[0])
	}
	sb, ok := fd.Items[1].(SourcesBlock)
	if !ok || !slices.Equal(sb.Sources, []string{"brew", "nix"}) {
		t.Errorf("item 1 = %#v", fd.Items[1])
	}
	if _, ok := blocks[2].Items[0].(ComplexOverrideBlock); !ok {
		t.Errorf("node item 0 = %T", blocks[2].Items[0])
	}
	if _, ok := blocks[0].Items[0].(SimpleSourceLine); !ok {
		t.Errorf("bat item 0 = %T", blocks[0].Items[0])
	}
}

func TestParseBlocks_KeepsDuplicates(t *testing.T) {
	blocks, _, err := ParseBlocks("git =\n  = brew\ngit =\n  = apt\n", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	doc, _, _ := Parse("git =\n  = brew\ngit =\n  = apt\n", Options{})
	g, _ := doc.Get("git")
	if doc.Len() != 1 || !slices.Equal(g.Sources, []string{"apt"}) {
		t.Errorf("later block should win, got %v", g.Sources)
	}
}

func TestParse_SkipsUnrecognizedLines(t *testing.T) {
	input := "stray line\n" +
		"jq =\n" +
		"  = brew\n" +
		"   = misindented\n" +
		"  what is this\n" +
		"  _sources =\n" +
		"    = nix\n" +
		"    garbage\n" +
		"  = apt\n"
	doc, diags, err := Parse(input, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	jq, _ := doc.Get("jq")
	if !slices.Equal(jq.Sources, []string{"apt", "brew", "nix"}) {
		t.Errorf("sources = %v", jq.Sources)
	}
	lines := make([]int, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, d.Line)
	}
	if !slices.Equal(lines, []int{1, 4, 5, 8}) {
		t.Errorf("diagnostic lines = %v (%v)", lines, diags)
	}
}

func TestParse_StrictFailsOnUnrecognized(t *testing.T) {
	_, _, err := Parse("jq =\n  = brew\n  ???\n", Options{Strict: true})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Line != 3 {
		t.Errorf("line = %d, want 3", pe.Line)
	}
}

func TestParse_CommentsAndBlanksInsideSubBlocks(t *testing.T) {
	input := "rg =\n  brew =\n\n    /= note\n    a = 1\n\n    b = 2\n  = scoop\n"
	doc, diags, err := Parse(input, Options{})
	if err != nil || len(diags) != 0 {
		t.Fatalf("err = %v diags = %v", err, diags)
	}
	rg, _ := doc.Get("rg")
	if len(rg.Complex["brew"]) != 2 || !rg.HasSource("scoop") {
		t.Errorf("rg = %+v", rg)
	}
}

func TestParse_EmptyComplexBlock(t *testing.T) {
	doc, _, _ := Parse("x =\n  brew =\n  = nix\n", Options{})
	x, _ := doc.Get("x")
	if !x.HasComplex("brew") || len(x.Complex["brew"]) != 0 || x.IsSimple() {
		t.Errorf("x = %+v", x)
	}
}

func TestParse_SourcesKeyAsDirective(t *testing.T) {
	e := NewEntry("x")
	e.SetDirective("brew", "_sources", "")
	e.SetDirective("brew", "pre", "echo")
	e.AddSource("nix")
	doc := NewDocument()
	doc.Set(e)

	parsed, diags, err := Parse(Serialize(doc), Options{Strict: true})
	if err != nil || len(diags) != 0 {
		t.Fatalf("diags=%v err=%v", diags, err)
	}
	if !parsed.Equal(doc) {
		t.Errorf("round trip differs:\n%s", Serialize(parsed))
	}
}

func TestParse_Empty(t *testing.T) {
	doc, diags, err := Parse("", Options{})
	if err != nil || doc.Len() != 0 || len(diags) != 0 {
		t.Errorf("doc=%d diags=%v err=%v", doc.Len(), diags, err)
	}
}
