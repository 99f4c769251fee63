package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/cluster"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/ingest"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/lexicon"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/stoplist"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/vectorize"
)

// Loader builds the long-lived components described by a Config.
type Loader struct {
	Config *Config
	Logger zerolog.Logger
}

// Components holds everything a run needs, built once per process.
type Components struct {
	Stopwords    *stoplist.Registry
	Lexicon      *lexicon.Lexicon
	Preprocessor *ingest.Preprocessor
	Pipeline     *ingest.Pipeline
	Vectorize    vectorize.Options
	Cluster      cluster.Options
	Clusterer    cluster.Clusterer
}

// Load reads linguistic resources and constructs components.
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	comp := &Components{}

	// Load stoplists
	reg, err := stoplist.LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("load builtin stoplists: %w", err)
	}
	if dir := cfg.Preprocessing.StopwordsDir; dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("load stoplists: %w", err)
		}
		if err := reg.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("load stoplists: %w", err)
		}
	}
	comp.Stopwords = reg

	// Load lemma dictionary
	lex, err := lexicon.Builtin()
	if err != nil {
		return nil, fmt.Errorf("load builtin lexicon: %w", err)
	}
	if path := cfg.Preprocessing.LemmaDictionary; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load lemma dictionary: %w", err)
		}
		if err := lex.Merge(data); err != nil {
			return nil, fmt.Errorf("load lemma dictionary %s: %w", path, err)
		}
	}
	comp.Lexicon = lex

	p := cfg.Preprocessing
	comp.Preprocessor = ingest.NewPreprocessor(ingest.Options{
		RemoveHTML:        p.RemoveHTML,
		Lowercase:         p.Lowercase,
		RemovePunctuation: p.RemovePunctuation,
		Lemmatize:         p.Lemmatization,
		Stem:              p.UseStemming,
		MinTokenLength:    p.MinTokenLength,
		ExtraStopwords:    p.AdditionalStopwords,
		FallbackLanguage:  p.FallbackLanguage,
		Stopwords:         reg,
		Lexicon:           lex,
		Logger:            l.Logger,
	})

	var detector ingest.Detector
	if lang := strings.TrimSpace(p.Language); lang != "" {
		detector = ingest.StaticDetector(strings.ToLower(lang))
	} else {
		detector = ingest.WhatlangDetector{Fallback: p.FallbackLanguage}
	}
	comp.Pipeline = ingest.NewPipeline(comp.Preprocessor, detector)

	if comp.Vectorize, err = cfg.VectorizeOptions(); err != nil {
		return nil, err
	}
	comp.Cluster = cfg.ClusterOptions()
	if comp.Clusterer, err = cluster.New(comp.Cluster); err != nil {
		return nil, err
	}

	l.Logger.Debug().
		Strs("stopword_languages", reg.Languages()).
		Int("lemmas", lex.Stats().Lemmas).
		Str("vectorization", string(comp.Vectorize.Method)).
		Str("clustering", string(comp.Cluster.Method)).
		Msg("components loaded")

	return comp, nil
}
