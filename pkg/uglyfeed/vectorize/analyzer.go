package vectorize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// words extracts lowercase runs of word characters that are at least
// two runes long.
func words(doc string) []string {
	doc = strings.ToLower(doc)
	isWord := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r)
	}
	fields := strings.FieldsFunc(doc, func(r rune) bool { return !isWord(r) })
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// ngrams returns every n-gram of tokens for n in [lo, hi], joined by
// single spaces.
func ngrams(tokens []string, lo, hi int) []string {
	if lo < 1 {
		lo = 1
	}
	var out []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// analyze turns a document into its n-gram terms.
func analyze(doc string, r NgramRange) []string {
	return ngrams(words(doc), r.Min, r.Max)
}
