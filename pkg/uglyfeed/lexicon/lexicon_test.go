package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	lex := New()
	lex.AddLemmaGroup("go", []string{"goes", "went", "gone"})

	tests := []struct {
		in, want string
	}{
		{"went", "go"},
		{"Gone", "go"},
		{"go", "go"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := lex.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddLemmaGroupReplaces(t *testing.T) {
	lex := New()
	lex.AddLemmaGroup("go", []string{"went", "gone"})
	lex.AddLemmaGroup("go", []string{"goes"})

	if _, ok := lex.Lookup("went"); ok {
		t.Error("stale form 'went' should be removed after replacing group")
	}
	if got := lex.Normalize("goes"); got != "go" {
		t.Errorf("Normalize(goes) = %q, want go", got)
	}
}

func TestForms(t *testing.T) {
	lex := New()
	lex.AddLemmaGroup("child", []string{"children", "child"})

	forms := lex.Forms("children")
	if len(forms) != 2 || forms[0] != "child" {
		t.Errorf("Forms(children) = %v, want [child children]", forms)
	}
	if got := lex.Forms("tree"); len(got) != 1 || got[0] != "tree" {
		t.Errorf("Forms(tree) = %v, want [tree]", got)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemmas.yaml")
	content := `lemmas:
  - lemma: mouse
    forms: [mice]
  - lemma: Person
    forms: [People]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if got := lex.Normalize("people"); got != "person" {
		t.Errorf("Normalize(people) = %q, want person", got)
	}
	stats := lex.Stats()
	if stats.Lemmas != 2 || stats.Forms != 4 {
		t.Errorf("Stats = %+v, want 2 lemmas / 4 forms", stats)
	}
}

func TestBuiltin(t *testing.T) {
	lex, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if got := lex.Normalize("children"); got != "child" {
		t.Errorf("Normalize(children) = %q, want child", got)
	}
	if got := lex.Normalize("said"); got != "say" {
		t.Errorf("Normalize(said) = %q, want say", got)
	}
}
