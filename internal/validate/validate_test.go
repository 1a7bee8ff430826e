package validate

import (
	"slices"
	"strings"
	"testing"
)

var validSources = []string{"brew", "scoop", "npm", "cargo", "nix", "apt", "pacman", "aur", "flathub", "pip"}

func TestValidate_Duplicate(t *testing.T) {
	r := New(validSources).Validate("git =\n  = brew\n  = apt\n\ngit =\n  = nix\n  = apt\n")
	errs := r.Filter(SeverityError)
	if len(errs) != 1 {
		t.Fatalf("errors = %v", errs)
	}
	if errs[0].Subject != "git" || !strings.Contains(errs[0].Message, "git") {
		t.Errorf("error = %+v", errs[0])
	}
	if errs[0].Line != 5 {
		t.Errorf("line = %d, want 5", errs[0].Line)
	}
	if !r.Failed() || r.Status() != "FAILED" {
		t.Error("report should fail")
	}
}

func TestValidate_DuplicateIgnoresCase(t *testing.T) {
	r := New(validSources).Validate("GIT =\n  = brew\n  = apt\ngit =\n  = brew\n  = apt\n")
	if r.Count(SeverityError) != 1 {
		t.Errorf("issues = %v", r.Issues)
	}
}

func TestValidate_InvalidSource(t *testing.T) {
	r := New(validSources).Validate("docker =\n  = brew\n  = dockerhub\n")
	errs := r.Filter(SeverityError)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "dockerhub") {
		t.Errorf("errors = %v", errs)
	}
}

func TestValidate_InvalidSourceInOverridesAndBlocks(t *testing.T) {
	text := "x =\n  snap = x-tool\n  winget =\n    id = X.X\n  _sources =\n    = brew\n    = macports\n"
	r := New(validSources).Validate(text)
	var got []string
	for _, i := range r.Filter(SeverityError) {
		got = append(got, i.Message)
	}
	if len(got) != 3 {
		t.Fatalf("errors = %v", got)
	}
	for _, s := range []string{"macports", "snap", "winget"} {
		if !slices.ContainsFunc(got, func(m string) bool { return strings.Contains(m, "'"+s+"'") }) {
			t.Errorf("no error for %s in %v", s, got)
		}
	}
}

func TestValidate_SingleSourceWarning(t *testing.T) {
	r := New(validSources).Validate("jq =\n  = brew\n")
	if r.Count(SeverityError) != 0 || r.Count(SeverityWarning) != 1 {
		t.Errorf("issues = %v", r.Issues)
	}
	if r.Failed() || r.Status() != "WARNINGS" {
		t.Errorf("status = %s", r.Status())
	}
}

func TestValidate_NoSourcesWarning(t *testing.T) {
	r := New(validSources).Validate("empty =\n")
	w := r.Filter(SeverityWarning)
	if len(w) != 1 || !strings.Contains(w[0].Message, "no sources") {
		t.Errorf("warnings = %v", w)
	}
}

func TestValidate_ConflictingDeclarations(t *testing.T) {
	r := New(validSources).Validate("fd =\n  apt = fd-find\n  _sources =\n    = apt\n    = brew\n")
	errs := r.Filter(SeverityError)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "'apt' declared in more than one form") {
		t.Errorf("errors = %v", errs)
	}
}

func TestValidate_RepeatedPlainSourceIsWarning(t *testing.T) {
	r := New(validSources).Validate("foo =\n  = brew\n  = brew\n  = nix\n")
	if r.Count(SeverityError) != 0 || r.Failed() {
		t.Fatalf("issues = %v", r.Issues)
	}
	warns := r.Filter(SeverityWarning)
	if len(warns) != 1 || !strings.Contains(warns[0].Message, "'brew' repeated 2 times") {
		t.Errorf("warnings = %v", warns)
	}
}

func TestValidate_RepeatedAcrossSourcesBlock(t *testing.T) {
	r := New(validSources).Validate("foo =\n  = brew\n  _sources =\n    = brew\n    = nix\n  apt = foo-cli\n  apt = foo-cli\n")
	if r.Failed() {
		t.Fatalf("issues = %v", r.Issues)
	}
	if n := r.Count(SeverityWarning); n != 2 {
		t.Errorf("warnings = %v", r.Filter(SeverityWarning))
	}
}

func TestValidate_Alias(t *testing.T) {
	text := "gh =\n  brew = github-cli\n  nix = github-cli\n\n" +
		"rg =\n  apt = ripgrep\n  _sources =\n    = brew\n\n" +
		"ripgrep =\n  = brew\n  = nix\n\n" +
		"mixed =\n  apt = a\n  nix = b\n\n" +
		"web =\n  brew = https://example.com/tool\n  = nix\n"
	r := New(validSources).Validate(text)
	infos := r.Filter(SeverityInfo)
	if len(infos) != 1 || infos[0].Subject != "gh" {
		t.Errorf("infos = %v", infos)
	}
}

func TestValidate_UnrecognizedLines(t *testing.T) {
	text := "jq =\n  = brew\n  = nix\n  ???\n"
	r := New(validSources).Validate(text)
	if r.Count(SeverityWarning) != 1 || r.Failed() {
		t.Errorf("issues = %v", r.Issues)
	}
	strict := New(validSources, WithStrict(true)).Validate(text)
	if strict.Count(SeverityError) != 1 || strict.Issues[0].Line != 4 {
		t.Errorf("strict issues = %v", strict.Issues)
	}
}

func TestValidate_Stats(t *testing.T) {
	text := "bat =\n  = brew\n  = scoop\n\nfd =\n  apt = fd-find\n  _sources =\n    = brew\n"
	r := New(validSources).Validate(text)
	st := r.Stats
	if st.Total != 2 || st.Simple != 1 || st.Complex != 1 {
		t.Errorf("stats = %+v", st)
	}
	if !slices.Equal(st.Sources, []string{"apt", "brew", "scoop"}) || st.BySource["brew"] != 2 {
		t.Errorf("sources = %v %v", st.Sources, st.BySource)
	}
	if r.Status() != "PASSED" {
		t.Errorf("status = %s, issues = %v", r.Status(), r.Issues)
	}
}

func TestValidate_CollectsEverything(t *testing.T) {
	text := "a =\n  = dockerhub\n  = brew\n\nb =\n  = snap\n  = brew\n\na =\n  = apt\n  = nix\n"
	r := New(validSources).Validate(text)
	if r.Count(SeverityError) != 3 {
		t.Errorf("issues = %v", r.Issues)
	}
}
