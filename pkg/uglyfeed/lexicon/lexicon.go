package lexicon

import (
	"embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/lemmas.yaml
var builtin embed.FS

// Lexicon maps inflected forms to their dictionary form (lemma).
//
// It is bidirectional: a form normalizes to its lemma and a lemma
// expands to every known form. Entries are lowercase.
type Lexicon struct {
	// lemma -> all forms (including the lemma itself)
	// Example: "go" -> ["go", "goes", "went", "gone", "going"]
	lemmas map[string][]string

	// form -> lemma
	// Example: "went" -> "go"
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		lemmas:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// Builtin returns the lexicon of irregular English forms shipped with
// the binary.
func Builtin() (*Lexicon, error) {
	data, err := builtin.ReadFile("data/lemmas.yaml")
	if err != nil {
		return nil, err
	}
	lex := New()
	if err := lex.Merge(data); err != nil {
		return nil, err
	}
	return lex, nil
}

// LoadFromYAML loads lemma mappings from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: go
//	    forms: [goes, went, gone, going]
//	  - lemma: child
//	    forms: [children]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lex := New()
	if err := lex.Merge(data); err != nil {
		return nil, err
	}
	return lex, nil
}

// Merge decodes YAML lemma mappings and adds them to the lexicon.
// Later entries for the same lemma replace earlier ones.
func (l *Lexicon) Merge(data []byte) error {
	var file struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	for _, entry := range file.Lemmas {
		l.AddLemmaGroup(entry.Lemma, entry.Forms)
	}
	return nil
}

// AddLemmaGroup registers a lemma with its forms. The lemma is always the
// first entry of its group. If the lemma already exists, stale reverse
// index entries are removed first.
func (l *Lexicon) AddLemmaGroup(lemma string, forms []string) {
	lemma = strings.ToLower(strings.TrimSpace(lemma))
	if lemma == "" {
		return
	}

	if old, exists := l.lemmas[lemma]; exists {
		for _, f := range old {
			if l.reverseIndex[f] == lemma {
				delete(l.reverseIndex, f)
			}
		}
	}

	normalized := make([]string, 0, len(forms)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, lemma)
	seen[lemma] = true

	for _, f := range forms {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !seen[f] {
			normalized = append(normalized, f)
			seen[f] = true
		}
	}

	l.lemmas[lemma] = normalized
	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
}

// Normalize returns the lemma of a token, or the token itself when the
// lexicon does not know it.
//
// Examples:
//   - Normalize("went") -> "go"
//   - Normalize("unknown") -> "unknown"
func (l *Lexicon) Normalize(token string) string {
	token = strings.ToLower(token)
	if lemma, ok := l.reverseIndex[token]; ok {
		return lemma
	}
	return token
}

// Lookup is like Normalize but reports whether the token was known.
func (l *Lexicon) Lookup(token string) (string, bool) {
	lemma, ok := l.reverseIndex[strings.ToLower(token)]
	return lemma, ok
}

// Forms returns every known form of a token's lemma, including the lemma.
func (l *Lexicon) Forms(token string) []string {
	token = strings.ToLower(token)

	if forms, ok := l.lemmas[token]; ok {
		return forms
	}
	if lemma, ok := l.reverseIndex[token]; ok {
		if forms, ok := l.lemmas[lemma]; ok {
			return forms
		}
	}
	return []string{token}
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, forms := range l.lemmas {
		total += len(forms)
	}
	return Stats{Lemmas: len(l.lemmas), Forms: total}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Lemmas int // number of lemma groups
	Forms  int // total forms across all groups, lemmas included
}
