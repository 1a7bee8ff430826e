package merge

import (
	"slices"
	"testing"

	"github.com/starford/climap/internal/ccl"
	"github.com/starford/climap/internal/models"
)

var validSources = []string{"brew", "scoop", "npm", "cargo", "nix", "apt", "pacman", "aur", "flathub", "pip"}

func mustParse(t *testing.T, text string) *ccl.Document {
	t.Helper()
	doc, _, err := ccl.Parse(text, ccl.Options{Strict: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func verified(name string, sources map[string]string) models.VerifiedPackage {
	return models.VerifiedPackage{Name: name, VerifiedSources: sources}
}

func TestMerge_NewEntry(t *testing.T) {
	doc := mustParse(t, "bat =\n  = brew\n")
	out, st := Merge(doc, []models.VerifiedPackage{
		verified("ripgrep", map[string]string{"brew": "ripgrep", "apt": "ripgrep", "nix": "rg"}),
	}, Options{ValidSources: validSources})

	if st.Added != 1 || !slices.Equal(st.NewNames, []string{"ripgrep"}) {
		t.Errorf("stats = %+v", st)
	}
	rg, ok := out.Get("ripgrep")
	if !ok {
		t.Fatal("ripgrep missing")
	}
	if !slices.Equal(rg.Sources, []string{"apt", "brew"}) || rg.Overrides["nix"] != "rg" {
		t.Errorf("ripgrep = %+v", rg)
	}
	if doc.Len() != 1 {
		t.Error("input document was modified")
	}
}

func TestMerge_ExistingKeepsComplexOverride(t *testing.T) {
	doc := mustParse(t, "node =\n  scoop =\n    install = nodejs-lts\n  _sources =\n    = brew\n")
	out, st := Merge(doc, []models.VerifiedPackage{
		verified("node", map[string]string{"scoop": "nodejs", "brew": "node", "apt": "nodejs"}),
	}, Options{ValidSources: validSources})

	node, _ := out.Get("NODE")
	want := []ccl.Directive{{Key: "install", Value: "nodejs-lts"}}
	if !slices.Equal(node.Complex["scoop"], want) {
		t.Errorf("complex block changed: %v", node.Complex["scoop"])
	}
	if _, ok := node.Overrides["scoop"]; ok {
		t.Error("override written over a nested block")
	}
	if node.Overrides["apt"] != "nodejs" {
		t.Errorf("apt override = %q", node.Overrides["apt"])
	}
	if st.Updated != 1 || st.Added != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMerge_PlainSourceNotAddedOverRename(t *testing.T) {
	doc := mustParse(t, "fd =\n  apt = fd-find\n")
	out, st := Merge(doc, []models.VerifiedPackage{
		verified("fd", map[string]string{"apt": "fd"}),
	}, Options{})
	fd, _ := out.Get("fd")
	if fd.HasSource("apt") || fd.Overrides["apt"] != "fd-find" {
		t.Errorf("fd = %+v", fd)
	}
	if st.Unchanged != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMerge_RenameMovesPlainSource(t *testing.T) {
	doc := mustParse(t, "fd =\n  = apt\n  = brew\n")
	out, _ := Merge(doc, []models.VerifiedPackage{
		verified("fd", map[string]string{"apt": "fd-find"}),
	}, Options{})
	fd, _ := out.Get("fd")
	if fd.HasSource("apt") || fd.Overrides["apt"] != "fd-find" {
		t.Errorf("fd = %+v", fd)
	}
	if len(fd.Conflicts()) != 0 {
		t.Errorf("conflicts = %v", fd.Conflicts())
	}
}

func TestMerge_MinSources(t *testing.T) {
	out, st := Merge(ccl.NewDocument(), []models.VerifiedPackage{
		verified("jq", map[string]string{"brew": "jq"}),
		verified("yq", map[string]string{"brew": "yq", "nix": "yq-go"}),
	}, Options{MinSources: 2})
	if st.Skipped != 1 || st.Added != 1 {
		t.Errorf("stats = %+v", st)
	}
	if _, ok := out.Get("jq"); ok {
		t.Error("jq should be skipped")
	}
}

func TestMerge_RejectsInvalid(t *testing.T) {
	out, st := Merge(ccl.NewDocument(), []models.VerifiedPackage{
		verified("", map[string]string{"brew": "x"}),
		verified("bad name", map[string]string{"brew": "bad"}),
		verified("tool", map[string]string{"dockerhub": "tool"}),
		verified("empty", nil),
		verified("_sources", map[string]string{"brew": "_sources", "nix": "_sources"}),
		verified("ok", map[string]string{"brew": "ok"}),
	}, Options{ValidSources: validSources})
	if st.Rejected != 5 || st.Added != 1 || out.Len() != 1 {
		t.Errorf("stats = %+v, len = %d", st, out.Len())
	}
}

func TestMerge_WrittenEntriesReparse(t *testing.T) {
	doc := mustParse(t, "bat =\n  = brew\n")
	out, _ := Merge(doc, []models.VerifiedPackage{
		verified("_sources", map[string]string{"brew": "_sources", "nix": "_sources"}),
		verified("@scope/tool", map[string]string{"npm": "@scope/tool", "brew": "tool"}),
	}, Options{ValidSources: validSources})
	again := mustParse(t, ccl.Serialize(out))
	if !again.Equal(out) {
		t.Errorf("reparsed document differs:\n%s", ccl.Serialize(out))
	}
	if _, ok := again.Get("_sources"); ok {
		t.Error("_sources must not be written as a package")
	}
}

func TestMerge_Idempotent(t *testing.T) {
	doc := mustParse(t, "bat =\n  = brew\n\nnode =\n  scoop =\n    pre = a\n")
	input := []models.VerifiedPackage{
		verified("bat", map[string]string{"brew": "bat", "apt": "bat", "scoop": "bat"}),
		verified("node", map[string]string{"scoop": "nodejs", "nix": "nodejs_22"}),
		verified("Zoxide", map[string]string{"cargo": "zoxide", "brew": "Zoxide"}),
	}
	once, _ := Merge(doc, input, Options{ValidSources: validSources})
	twice, st := Merge(once, input, Options{ValidSources: validSources})

	if !once.Equal(twice) {
		t.Errorf("second merge changed the document:\n%s\nvs\n%s", ccl.Serialize(once), ccl.Serialize(twice))
	}
	if st.Changed() {
		t.Errorf("second merge stats = %+v", st)
	}
	if ccl.Serialize(once) != ccl.Serialize(twice) {
		t.Error("serialized output differs")
	}
}
