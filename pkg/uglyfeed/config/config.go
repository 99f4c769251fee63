package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/cluster"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/vectorize"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "UGLYFEED_"

// Config is the full configuration of a run.
//
// SimilarityThreshold is a cosine distance (1 - similarity): two groups
// are merged while their linkage distance stays below it.
type Config struct {
	SimilarityThreshold float64           `yaml:"similarity_threshold"`
	MinGroupSize        int               `yaml:"min_group_size"`
	Preprocessing       Preprocessing     `yaml:"preprocessing"`
	Vectorization       Vectorization     `yaml:"vectorization"`
	SimilarityOptions   SimilarityOptions `yaml:"similarity_options"`
	Folders             Folders           `yaml:"folders"`
	Fetch               Fetch             `yaml:"fetch"`
	Storage             Storage           `yaml:"storage"`
	Logging             Logging           `yaml:"logging"`
}

// Preprocessing configures text normalisation.
type Preprocessing struct {
	RemoveHTML          bool     `yaml:"remove_html"`
	Lowercase           bool     `yaml:"lowercase"`
	RemovePunctuation   bool     `yaml:"remove_punctuation"`
	Lemmatization       bool     `yaml:"lemmatization"`
	UseStemming         bool     `yaml:"use_stemming"`
	Language            string   `yaml:"language"` // empty: detect per article
	FallbackLanguage    string   `yaml:"fallback_language"`
	AdditionalStopwords []string `yaml:"additional_stopwords"`
	StopwordsDir        string   `yaml:"stopwords_dir"`
	LemmaDictionary     string   `yaml:"lemma_dictionary"`
	MinTokenLength      int      `yaml:"min_token_length"`
}

// Vectorization configures feature extraction.
type Vectorization struct {
	Method      string  `yaml:"method"`
	NgramRange  []int   `yaml:"ngram_range"`
	MaxDF       DocFreq `yaml:"max_df"`
	MinDF       DocFreq `yaml:"min_df"`
	MaxFeatures int     `yaml:"max_features"`
	NFeatures   int     `yaml:"n_features"`
}

// SimilarityOptions configures clustering. Optional parameters are
// pointers so that "unset" and zero differ.
type SimilarityOptions struct {
	Method            string   `yaml:"method"`
	Eps               *float64 `yaml:"eps,omitempty"`
	MinSamples        *int     `yaml:"min_samples,omitempty"`
	NClusters         *int     `yaml:"n_clusters,omitempty"`
	Linkage           string   `yaml:"linkage"`
	DistanceThreshold *float64 `yaml:"distance_threshold,omitempty"`
	RandomState       int64    `yaml:"random_state"`
}

// Folders holds output locations.
type Folders struct {
	OutputFolder string `yaml:"output_folder"`
}

// Fetch configures feed retrieval.
type Fetch struct {
	FeedsFile            string        `yaml:"feeds_file"`
	Concurrency          int           `yaml:"concurrency"`
	Timeout              time.Duration `yaml:"timeout"`
	Retries              int           `yaml:"retries"`
	UserAgent            string        `yaml:"user_agent"`
	RateLimit            float64       `yaml:"rate_limit"` // requests per second, 0 for none
	ScrapeMissingContent bool          `yaml:"scrape_missing_content"`
	ScrapeConcurrency    int           `yaml:"scrape_concurrency"`
}

// Storage configures the run ledger. An empty path keeps it in memory.
type Storage struct {
	LedgerPath string `yaml:"ledger_path"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// DocFreq is a document frequency bound as written in YAML: an integer is
// a document count, a float is a proportion of the batch.
type DocFreq vectorize.DocFreq

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DocFreq) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: document frequency must be a number", node.Line)
	}
	switch node.ShortTag() {
	case "!!int":
		n, err := strconv.Atoi(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*d = DocFreq(vectorize.Docs(n))
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*d = DocFreq(vectorize.Fraction(f))
	default:
		return fmt.Errorf("line %d: document frequency must be a number, got %q", node.Line, node.Value)
	}
	return nil
}

// MarshalYAML keeps the int/float distinction, so that 1.0 does not
// come back as a count of one document.
func (d DocFreq) MarshalYAML() (interface{}, error) {
	if d.Absolute {
		return int(d.Value), nil
	}
	s := strconv.FormatFloat(d.Value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	eps := 0.66
	minSamples := 2
	return &Config{
		SimilarityThreshold: 0.66,
		MinGroupSize:        2,
		Preprocessing: Preprocessing{
			RemoveHTML:        true,
			Lowercase:         true,
			RemovePunctuation: true,
			Lemmatization:     true,
			FallbackLanguage:  "en",
			MinTokenLength:    0,
		},
		Vectorization: Vectorization{
			Method:     string(vectorize.MethodTFIDF),
			NgramRange: []int{1, 2},
			MaxDF:      DocFreq(vectorize.Fraction(0.85)),
			MinDF:      DocFreq(vectorize.Fraction(0.01)),
		},
		SimilarityOptions: SimilarityOptions{
			Method:      string(cluster.MethodAgglomerative),
			Eps:         &eps,
			MinSamples:  &minSamples,
			Linkage:     string(cluster.LinkageAverage),
			RandomState: 42,
		},
		Folders: Folders{
			OutputFolder: "output",
		},
		Fetch: Fetch{
			FeedsFile:         "input/feeds.txt",
			Concurrency:       4,
			Timeout:           15 * time.Second,
			Retries:           2,
			UserAgent:         "uglyfeed/1.0",
			ScrapeConcurrency: 4,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate rejects configurations that would fail later in the run.
func (c *Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be within [0, 1], got %g",
			internalerr.ErrInvalidConfig, c.SimilarityThreshold)
	}
	if c.MinGroupSize < 2 {
		return fmt.Errorf("%w: min_group_size must be at least 2, got %d",
			internalerr.ErrInvalidConfig, c.MinGroupSize)
	}
	if c.Preprocessing.MinTokenLength < 0 {
		return fmt.Errorf("%w: min_token_length must not be negative", internalerr.ErrInvalidConfig)
	}
	if _, err := c.VectorizeOptions(); err != nil {
		return err
	}
	if _, err := cluster.New(c.ClusterOptions()); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", internalerr.ErrInvalidConfig, c.Logging.Format)
	}
	if c.Fetch.Concurrency < 0 || c.Fetch.Retries < 0 || c.Fetch.ScrapeConcurrency < 0 || c.Fetch.RateLimit < 0 {
		return fmt.Errorf("%w: fetch settings must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

// VectorizeOptions converts the vectorization section.
func (c *Config) VectorizeOptions() (vectorize.Options, error) {
	v := c.Vectorization
	opts := vectorize.Options{
		Method:      vectorize.Method(strings.ToLower(v.Method)),
		MaxDF:       vectorize.DocFreq(v.MaxDF),
		MinDF:       vectorize.DocFreq(v.MinDF),
		MaxFeatures: v.MaxFeatures,
		NFeatures:   v.NFeatures,
	}
	switch len(v.NgramRange) {
	case 0:
		opts.Ngram = vectorize.NgramRange{Min: 1, Max: 1}
	case 2:
		opts.Ngram = vectorize.NgramRange{Min: v.NgramRange[0], Max: v.NgramRange[1]}
	default:
		return vectorize.Options{}, fmt.Errorf("%w: ngram_range needs two values, got %v",
			internalerr.ErrInvalidConfig, v.NgramRange)
	}
	if err := opts.Validate(); err != nil {
		return vectorize.Options{}, err
	}
	return opts, nil
}

// ClusterOptions converts the similarity_options section. Agglomerative
// clustering without n_clusters or distance_threshold cuts at
// similarity_threshold.
func (c *Config) ClusterOptions() cluster.Options {
	s := c.SimilarityOptions
	opts := cluster.Options{
		Method:            cluster.Method(strings.ToLower(s.Method)),
		Eps:               s.Eps,
		MinSamples:        s.MinSamples,
		NClusters:         s.NClusters,
		Linkage:           cluster.Linkage(strings.ToLower(s.Linkage)),
		DistanceThreshold: s.DistanceThreshold,
		RandomState:       s.RandomState,
	}
	if opts.Method == cluster.MethodAgglomerative && opts.NClusters == nil && opts.DistanceThreshold == nil {
		t := c.SimilarityThreshold
		opts.DistanceThreshold = &t
	}
	return opts
}
