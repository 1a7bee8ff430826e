package ccl

import (
	"slices"
	"testing"
)

func TestEntry_AddSourceSortedUnique(t *testing.T) {
	e := NewEntry("x")
	for _, s := range []string{"nix", "brew", "nix", "apt"} {
		e.AddSource(s)
	}
	if !slices.Equal(e.Sources, []string{"apt", "brew", "nix"}) {
		t.Errorf("sources = %v", e.Sources)
	}
	if !e.RemoveSource("brew") || e.HasSource("brew") {
		t.Error("brew should be removed")
	}
}

func TestEntry_SetDirectiveKeepsOrder(t *testing.T) {
	e := NewEntry("x")
	e.SetDirective("scoop", "post", "2")
	e.SetDirective("scoop", "pre", "1")
	e.SetDirective("scoop", "post", "3")
	want := []Directive{{"post", "3"}, {"pre", "1"}}
	if !slices.Equal(e.Complex["scoop"], want) {
		t.Errorf("block = %v", e.Complex["scoop"])
	}
}

func TestEntry_ConflictsAndSourceIDs(t *testing.T) {
	e := NewEntry("x")
	e.AddSource("brew")
	e.SetOverride("brew", "x2")
	e.SetOverride("apt", "x3")
	e.OpenComplex("nix")
	if got := e.SourceIDs(); !slices.Equal(got, []string{"apt", "brew", "nix"}) {
		t.Errorf("source ids = %v", got)
	}
	if got := e.Conflicts(); !slices.Equal(got, []string{"brew"}) {
		t.Errorf("conflicts = %v", got)
	}
}

func TestDocument_CaseInsensitive(t *testing.T) {
	d := NewDocument()
	d.Set(NewEntry("GitHub-CLI"))
	if _, ok := d.Get("github-cli"); !ok {
		t.Error("lookup should ignore case")
	}
	d.Set(NewEntry("github-cli"))
	if d.Len() != 1 {
		t.Errorf("len = %d", d.Len())
	}
	if !d.Delete("GITHUB-CLI") || d.Len() != 0 {
		t.Error("delete should ignore case")
	}
}

func TestDocument_CloneIsDeep(t *testing.T) {
	d := NewDocument()
	e := NewEntry("x")
	e.SetDirective("brew", "pre", "a")
	d.Set(e)
	c := d.Clone()
	ce, _ := c.Get("x")
	ce.SetDirective("brew", "pre", "b")
	ce.AddSource("nix")
	if e.Complex["brew"][0].Value != "a" || e.HasSource("nix") {
		t.Error("clone shares state with original")
	}
	if d.Equal(c) {
		t.Error("documents should differ after mutating clone")
	}
}
