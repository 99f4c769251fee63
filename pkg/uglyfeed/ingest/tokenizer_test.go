package ingest

import (
	"testing"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/stoplist"
)

func TestTokenizerBasic(t *testing.T) {
	stops := stoplist.NewManager([]string{"the", "a", "and", "of"})
	tokenizer := NewTokenizer("en", stops, nil)

	tokens := tokenizer.Tokenize("the quick brown fox jumps over the lazy dog")

	expected := []string{"quick", "brown", "fox", "jumps", "over", "lazy", "dog"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d (%v)", len(expected), len(tokens), tokens)
	}
	for i := range expected {
		if tokens[i] != expected[i] {
			t.Errorf("token %d = %q, want %q", i, tokens[i], expected[i])
		}
	}
}

func TestTokenizerLemmatizer(t *testing.T) {
	tokenizer := NewTokenizer("en", nil, nil)
	tokenizer.SetLemmatizer(NewLemmatizer(nil))

	tokens := tokenizer.Tokenize("stories jumps")
	if len(tokens) != 2 || tokens[0] != "story" || tokens[1] != "jump" {
		t.Errorf("Tokenize = %v, want [story jump]", tokens)
	}
}

func TestExtraStopwords(t *testing.T) {
	tokenizer := NewTokenizer("en", nil, []string{"The", "CAT"})

	tokens := tokenizer.Tokenize("the cat sat")
	if len(tokens) != 1 || tokens[0] != "sat" {
		t.Errorf("Tokenize = %v, want [sat]", tokens)
	}
}

func TestTokenizerMinLength(t *testing.T) {
	tokenizer := NewTokenizer("en", nil, nil)
	tokenizer.SetMinLength(3)

	tokens := tokenizer.Tokenize("ai is évolué")
	if len(tokens) != 1 || tokens[0] != "évolué" {
		t.Errorf("Tokenize = %v, want [évolué]", tokens)
	}
}
