package ccl

import "testing"

func TestTokenize_Kinds(t *testing.T) {
	input := "/= comment\n" +
		"bat =\n" +
		"  = brew\n" +
		"  _sources =\n" +
		"    = scoop\n" +
		"  apt = bat-cat\n" +
		"  brew =\n" +
		"    pre = echo hi\n" +
		"\n" +
		"  nonsense\n"
	want := []LineKind{
		LineComment, LineHeader, LineSourceItem, LineSourcesOpen, LineSourceItem,
		LineOverride, LineComplexOpen, LineOverride, LineBlank, LineUnknown,
	}
	lines := Tokenize(input)
	if len(lines) != len(want) {
		t.Fatalf("len = %d, want %d", len(lines), len(want))
	}
	for i, l := range lines {
		if l.Kind != want[i] {
			t.Errorf("line %d (%q): kind = %s, want %s", l.Num, l.Text, l.Kind, want[i])
		}
	}
	if lines[5].Key != "apt" || lines[5].Value != "bat-cat" || lines[5].Indent != 2 {
		t.Errorf("override line = %+v", lines[5])
	}
	if lines[7].Indent != 4 || lines[7].Key != "pre" || lines[7].Value != "echo hi" {
		t.Errorf("directive line = %+v", lines[7])
	}
}

func TestTokenize_HeaderNeedsColumnZero(t *testing.T) {
	lines := Tokenize("  git =\ngit =\nGit.Extra@2/x =\nbad name =\n@scope/pkg =\n")
	if lines[0].Kind != LineComplexOpen {
		t.Errorf("indented name = %s, want complex-open", lines[0].Kind)
	}
	if lines[1].Kind != LineHeader || lines[2].Kind != LineHeader {
		t.Errorf("headers = %s, %s", lines[1].Kind, lines[2].Kind)
	}
	if lines[3].Kind != LineUnknown {
		t.Errorf("name with space = %s, want unknown", lines[3].Kind)
	}
	if lines[4].Kind != LineHeader || lines[4].Key != "@scope/pkg" {
		t.Errorf("scoped name = %+v", lines[4])
	}
}

func TestValidName(t *testing.T) {
	for name, want := range map[string]bool{
		"ripgrep":     true,
		"@scope/pkg":  true,
		"python3.12":  true,
		"lib_foo":     true,
		"_sources":    false,
		"_private":    false,
		"bad name":    false,
		"":            false,
		"tool=":       false,
	} {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTokenize_ValueMayContainEquals(t *testing.T) {
	l := Tokenize("    post = export A=1\n")[0]
	if l.Key != "post" || l.Value != "export A=1" {
		t.Errorf("line = %+v", l)
	}
}

func TestTokenize_CRLF(t *testing.T) {
	lines := Tokenize("jq =\r\n  = brew\r\n")
	if len(lines) != 2 || lines[1].Kind != LineSourceItem || lines[1].Value != "brew" {
		t.Errorf("lines = %+v", lines)
	}
}
