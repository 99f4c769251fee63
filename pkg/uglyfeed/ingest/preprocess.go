package ingest

import (
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/lexicon"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/stoplist"
)

// Options controls text preprocessing. They are fixed when the
// Preprocessor is built.
type Options struct {
	RemoveHTML        bool
	Lowercase         bool
	RemovePunctuation bool
	Lemmatize         bool
	Stem              bool
	MinTokenLength    int
	ExtraStopwords    []string
	FallbackLanguage  string

	Stopwords *stoplist.Registry // required
	Lexicon   *lexicon.Lexicon   // optional lemma dictionary
	Logger    zerolog.Logger
}

// DefaultOptions mirrors the documented configuration defaults.
func DefaultOptions(reg *stoplist.Registry) Options {
	return Options{
		RemoveHTML:        true,
		Lowercase:         true,
		RemovePunctuation: true,
		Lemmatize:         true,
		FallbackLanguage:  "en",
		Stopwords:         reg,
		Logger:            zerolog.Nop(),
	}
}

// Preprocessor turns raw article text into a normalized token string.
// It is safe for concurrent use.
type Preprocessor struct {
	opts       Options
	lemmatizer *Lemmatizer
	stemmer    *Stemmer

	mu         sync.Mutex
	tokenizers map[string]*Tokenizer
	warned     map[string]struct{}
}

// NewPreprocessor creates a preprocessor from opts.
func NewPreprocessor(opts Options) *Preprocessor {
	if opts.Stopwords == nil {
		opts.Stopwords = stoplist.NewRegistry()
	}
	if opts.FallbackLanguage == "" {
		opts.FallbackLanguage = "en"
	}
	p := &Preprocessor{
		opts:       opts,
		tokenizers: make(map[string]*Tokenizer),
		warned:     make(map[string]struct{}),
	}
	if opts.Lemmatize {
		p.lemmatizer = NewLemmatizer(opts.Lexicon)
	}
	if opts.Stem {
		p.stemmer = &Stemmer{}
	}
	return p
}

// Preprocess normalizes text written in language. Empty input yields an
// empty string. An unknown language falls back to the configured default.
func (p *Preprocessor) Preprocess(text, language string) string {
	return strings.Join(p.Tokens(text, language), " ")
}

// Tokens is Preprocess without the final join.
func (p *Preprocessor) Tokens(text, language string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if p.opts.RemoveHTML {
		text = StripHTML(text)
	}
	if p.opts.Lowercase {
		text = strings.ToLower(text)
	}
	if p.opts.RemovePunctuation {
		text = removePunctuation(text)
	}
	return p.tokenizer(language).Tokenize(text)
}

// tokenizer returns the cached tokenizer for language, building it on
// first use.
func (p *Preprocessor) tokenizer(language string) *Tokenizer {
	language = strings.ToLower(strings.TrimSpace(language))

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok, ok := p.tokenizers[language]; ok {
		return tok
	}

	lang := language
	stops, ok := p.opts.Stopwords.Get(lang)
	if !ok {
		p.warnOnce(language, "no stopword list for language, using fallback")
		lang = p.opts.FallbackLanguage
		stops, _ = p.opts.Stopwords.Get(lang)
	}

	tok := NewTokenizer(lang, stops, p.opts.ExtraStopwords)
	tok.SetMinLength(p.opts.MinTokenLength)
	if p.lemmatizer != nil {
		tok.SetLemmatizer(p.lemmatizer)
	}
	if p.stemmer != nil {
		if !p.stemmer.Supports(lang) {
			p.warnOnce("stem:"+lang, "no stemmer for language, stemming disabled")
		} else {
			tok.SetStemmer(p.stemmer)
		}
	}

	p.tokenizers[language] = tok
	return tok
}

// warnOnce logs msg the first time key is seen. Callers hold p.mu.
func (p *Preprocessor) warnOnce(key, msg string) {
	if _, ok := p.warned[key]; ok {
		return
	}
	p.warned[key] = struct{}{}
	p.opts.Logger.Warn().
		Str("language", key).
		Str("fallback", p.opts.FallbackLanguage).
		Msg(msg)
}

// removePunctuation drops every rune that is not a letter, digit,
// underscore or whitespace.
func removePunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' || unicode.Is(unicode.Mn, r) {
			return r
		}
		return -1
	}, s)
}
