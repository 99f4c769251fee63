package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/lexicon"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/stoplist"
)

func testRegistry() *stoplist.Registry {
	reg := stoplist.NewRegistry()
	reg.Set("en", stoplist.NewManager([]string{"the", "a", "and", "of", "be"}))
	reg.Set("it", stoplist.NewManager([]string{"il", "la", "di"}))
	return reg
}

func TestPreprocessBasic(t *testing.T) {
	pre := NewPreprocessor(DefaultOptions(testRegistry()))

	got := pre.Preprocess("<p>The Companies' <b>profits</b> rose!</p>", "en")
	want := "company profit rose"
	if got != want {
		t.Errorf("Preprocess = %q, want %q", got, want)
	}
}

func TestPreprocessEmpty(t *testing.T) {
	pre := NewPreprocessor(DefaultOptions(testRegistry()))

	for _, in := range []string{"", "   ", "\n\t"} {
		if got := pre.Preprocess(in, "en"); got != "" {
			t.Errorf("Preprocess(%q) = %q, want empty", in, got)
		}
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	lex := lexicon.New()
	lex.AddLemmaGroup("go", []string{"went", "goes"})
	opts := DefaultOptions(testRegistry())
	opts.Lexicon = lex
	opts.MinTokenLength = 2
	pre := NewPreprocessor(opts)

	inputs := []string{
		"<div>Markets went DOWN as the <em>stocks</em> of tech companies fell.</div>",
		"Glasses, buses & the news series: 3 crises",
		"Il governo di Roma annuncia nuove misure",
	}
	for _, in := range inputs {
		once := pre.Preprocess(in, "en")
		twice := pre.Preprocess(once, "en")
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPreprocessIdempotentWithStemming(t *testing.T) {
	opts := DefaultOptions(testRegistry())
	opts.Stem = true
	pre := NewPreprocessor(opts)

	inputs := []string{
		"Officials agreed on generously funded abilities",
		"<p>The companies' profits rose sharply in agreed markets</p>",
		"Glasses, buses & the news series: 3 crises",
	}
	for _, in := range inputs {
		once := pre.Preprocess(in, "en")
		twice := pre.Preprocess(once, "en")
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}

	if got := pre.Preprocess("agreed", "en"); got != "agr" {
		t.Errorf("Preprocess(agreed) = %q, want agr", got)
	}
}

func TestPreprocessNormalizedStopword(t *testing.T) {
	lex := lexicon.New()
	lex.AddLemmaGroup("be", []string{"was", "were"})
	opts := DefaultOptions(testRegistry())
	opts.Lexicon = lex
	pre := NewPreprocessor(opts)

	got := pre.Preprocess("it was sunny", "en")
	if strings.Contains(got, "was") || strings.Contains(got, "be") {
		t.Errorf("form of a stopword lemma should be dropped, got %q", got)
	}
}

func TestPreprocessExtraStopwordsAndMinLength(t *testing.T) {
	opts := DefaultOptions(testRegistry())
	opts.ExtraStopwords = []string{"Reuters"}
	opts.MinTokenLength = 3
	pre := NewPreprocessor(opts)

	got := pre.Preprocess("Reuters: AI is big", "en")
	if got != "big" {
		t.Errorf("Preprocess = %q, want %q", got, "big")
	}
}

func TestPreprocessOptionsDisabled(t *testing.T) {
	opts := DefaultOptions(testRegistry())
	opts.Lowercase = false
	opts.RemovePunctuation = false
	opts.Lemmatize = false
	pre := NewPreprocessor(opts)

	got := pre.Preprocess("Cats, Dogs!", "en")
	if got != "Cats, Dogs!" {
		t.Errorf("Preprocess = %q, want %q", got, "Cats, Dogs!")
	}
}

func TestPreprocessStemming(t *testing.T) {
	opts := DefaultOptions(testRegistry())
	opts.Stem = true
	pre := NewPreprocessor(opts)

	got := pre.Preprocess("running quickly", "en")
	if got != "run quick" {
		t.Errorf("Preprocess = %q, want %q", got, "run quick")
	}
}

func TestPreprocessUnknownLanguageFallsBack(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions(testRegistry())
	opts.Logger = zerolog.New(&buf)
	pre := NewPreprocessor(opts)

	first := pre.Preprocess("the cat and the dog", "xx")
	second := pre.Preprocess("the bird", "xx")

	if first != "cat dog" {
		t.Errorf("fallback preprocessing = %q, want %q", first, "cat dog")
	}
	if second != "bird" {
		t.Errorf("fallback preprocessing = %q, want %q", second, "bird")
	}

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if buf.Len() == 0 || lines != 1 {
		t.Errorf("expected exactly one fallback warning, got %q", buf.String())
	}
}

func TestPreprocessPerLanguageStopwords(t *testing.T) {
	pre := NewPreprocessor(DefaultOptions(testRegistry()))

	got := pre.Preprocess("il governo di roma", "it")
	if got != "governo roma" {
		t.Errorf("Preprocess = %q, want %q", got, "governo roma")
	}
}
