package ingest

import (
	"strings"

	"github.com/kljensen/snowball"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/lexicon"
)

// pluralExceptions end in "s" but are not plurals.
var pluralExceptions = map[string]struct{}{
	"news": {}, "series": {}, "species": {}, "means": {}, "physics": {},
	"politics": {}, "economics": {}, "always": {}, "perhaps": {},
	"whereas": {}, "towards": {}, "afterwards": {}, "sometimes": {},
	"gas": {}, "bus": {}, "yes": {}, "thus": {}, "lens": {}, "alias": {},
	"chaos": {}, "canvas": {}, "atlas": {}, "texas": {}, "paris": {},
}

// Lemmatizer reduces tokens to a dictionary form. Known forms come from
// the lexicon; English plurals fall back to suffix rules.
type Lemmatizer struct {
	lex *lexicon.Lexicon
}

// NewLemmatizer creates a lemmatizer. A nil lexicon uses suffix rules only.
func NewLemmatizer(lex *lexicon.Lexicon) *Lemmatizer {
	return &Lemmatizer{lex: lex}
}

// Lemmatize returns the lemma of token in the given language.
// Applying it to its own output returns the same string.
func (l *Lemmatizer) Lemmatize(token, lang string) string {
	if l.lex != nil {
		if lemma, ok := l.lex.Lookup(token); ok {
			return lemma
		}
	}
	if lang != "en" {
		return token
	}
	return singular(token)
}

func singular(word string) string {
	if _, ok := pluralExceptions[word]; ok {
		return word
	}
	n := len(word)
	switch {
	case n > 4 && strings.HasSuffix(word, "ies"):
		return word[:n-3] + "y"
	case n > 4 && strings.HasSuffix(word, "sses"):
		return word[:n-2]
	case n > 3 && strings.HasSuffix(word, "s") &&
		!strings.HasSuffix(word, "ss") &&
		!strings.HasSuffix(word, "us") &&
		!strings.HasSuffix(word, "is"):
		return word[:n-1]
	}
	return word
}

// snowballLanguages maps ISO 639-1 codes to snowball stemmer names.
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"nb": "norwegian",
}

// Stemmer wraps the snowball stemmers.
type Stemmer struct{}

// Supports reports whether a snowball stemmer exists for lang.
func (Stemmer) Supports(lang string) bool {
	_, ok := snowballLanguages[lang]
	return ok
}

// maxStemPasses bounds the fixed-point loop in Stem.
const maxStemPasses = 5

// Stem stems token in lang until the result no longer changes, so that
// stemming a stem returns it unchanged. Tokens in unsupported languages,
// and tokens the stemmer rejects, are returned unchanged.
func (Stemmer) Stem(token, lang string) string {
	name, ok := snowballLanguages[lang]
	if !ok {
		return token
	}
	word := token
	for i := 0; i < maxStemPasses; i++ {
		stemmed, err := snowball.Stem(word, name, false)
		if err != nil || stemmed == "" || stemmed == word {
			break
		}
		word = stemmed
	}
	return word
}
