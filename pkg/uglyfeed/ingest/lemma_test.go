package ingest

import (
	"testing"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/lexicon"
)

func TestSingular(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"companies", "company"},
		{"stocks", "stock"},
		{"glasses", "glass"},
		{"boss", "boss"},
		{"status", "status"},
		{"crisis", "crisis"},
		{"news", "news"},
		{"series", "series"},
		{"its", "its"},
		{"gas", "gas"},
		{"cat", "cat"},
	}
	for _, tt := range tests {
		if got := singular(tt.in); got != tt.want {
			t.Errorf("singular(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := singular(singular(tt.in)); again != singular(tt.in) {
			t.Errorf("singular not idempotent for %q", tt.in)
		}
	}
}

func TestLemmatizeLexiconFirst(t *testing.T) {
	lex := lexicon.New()
	lex.AddLemmaGroup("child", []string{"children"})
	lex.AddLemmaGroup("analysis", nil)
	l := NewLemmatizer(lex)

	if got := l.Lemmatize("children", "en"); got != "child" {
		t.Errorf("Lemmatize(children) = %q, want child", got)
	}
	if got := l.Lemmatize("analysis", "en"); got != "analysis" {
		t.Errorf("Lemmatize(analysis) = %q, want analysis", got)
	}
	// suffix rules are English only
	if got := l.Lemmatize("notizies", "it"); got != "notizies" {
		t.Errorf("Lemmatize(notizies, it) = %q, want unchanged", got)
	}
}

func TestStemmerUnsupportedLanguage(t *testing.T) {
	var s Stemmer
	if s.Supports("it") {
		t.Error("italian has no snowball stemmer here")
	}
	if got := s.Stem("notizie", "it"); got != "notizie" {
		t.Errorf("Stem = %q, want unchanged", got)
	}
}

func TestStemReachesFixedPoint(t *testing.T) {
	var s Stemmer
	for _, w := range []string{"agreed", "officials", "generously", "abilities", "running"} {
		once := s.Stem(w, "en")
		if again := s.Stem(once, "en"); again != once {
			t.Errorf("Stem(%q) = %q, but Stem(%q) = %q", w, once, once, again)
		}
	}
	if got := s.Stem("agreed", "en"); got != "agr" {
		t.Errorf("Stem(agreed) = %q, want agr", got)
	}
}
