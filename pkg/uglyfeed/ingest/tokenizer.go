package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/stoplist"
)

// Tokenizer normalizes whitespace-separated words of one language
type Tokenizer struct {
	lang       string
	stops      *stoplist.Manager
	extra      map[string]struct{}
	lemmatizer *Lemmatizer // Optional: nil disables lemmatization
	stemmer    *Stemmer    // Optional: nil disables stemming
	minLen     int
}

// NewTokenizer creates a tokenizer for lang with the given stoplist.
// A nil stoplist filters nothing but the extra stopwords.
func NewTokenizer(lang string, stops *stoplist.Manager, extra []string) *Tokenizer {
	if stops == nil {
		stops = stoplist.NewManager(nil)
	}
	ex := make(map[string]struct{}, len(extra))
	for _, w := range extra {
		ex[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{lang: lang, stops: stops, extra: ex}
}

// SetLemmatizer enables lemmatization.
// Example: "companies" → "company", "went" → "go"
func (t *Tokenizer) SetLemmatizer(l *Lemmatizer) {
	t.lemmatizer = l
}

// SetStemmer enables snowball stemming after lemmatization.
func (t *Tokenizer) SetStemmer(s *Stemmer) {
	t.stemmer = s
}

// SetMinLength drops tokens shorter than n runes.
func (t *Tokenizer) SetMinLength(n int) {
	t.minLen = n
}

// Tokenize splits text on whitespace and normalizes each word,
// removing stopwords.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if word := t.processToken(f); word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// processToken applies lemmatization, stemming and stopword filtering.
func (t *Tokenizer) processToken(raw string) string {
	// Step 1: stopword check on the surface form
	if t.isStopword(raw) {
		return ""
	}

	// Step 2: normalize until stable
	word := t.normalize(raw)

	// Step 3: stopword check on the normalized form
	if word != raw && t.isStopword(word) {
		return ""
	}

	if t.minLen > 0 && utf8.RuneCountInString(word) < t.minLen {
		return ""
	}
	return word
}

// normalize lemmatizes then stems word, repeating while the pair still
// changes it. The result maps to itself.
func (t *Tokenizer) normalize(word string) string {
	for i := 0; i < maxStemPasses; i++ {
		next := word
		if t.lemmatizer != nil {
			next = t.lemmatizer.Lemmatize(next, t.lang)
		}
		if t.stemmer != nil {
			next = t.stemmer.Stem(next, t.lang)
		}
		if next == word {
			break
		}
		word = next
	}
	return word
}

func (t *Tokenizer) isStopword(word string) bool {
	if t.stops.IsStop(word) {
		return true
	}
	_, ok := t.extra[word]
	return ok
}
