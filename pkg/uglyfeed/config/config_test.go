package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/cluster"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/vectorize"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	opts := cfg.ClusterOptions()
	if opts.Method != cluster.MethodAgglomerative {
		t.Errorf("method = %s, want agglomerative", opts.Method)
	}
	if opts.DistanceThreshold == nil || *opts.DistanceThreshold != 0.66 {
		t.Errorf("distance threshold should come from similarity_threshold, got %v", opts.DistanceThreshold)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
similarity_threshold: 0.5
min_group_size: 3
preprocessing:
  use_stemming: true
  additional_stopwords: [breaking, news]
vectorization:
  method: count
  ngram_range: [1, 1]
  max_df: 0.9
  min_df: 2
similarity_options:
  method: dbscan
  eps: 0.4
  min_samples: 3
fetch:
  timeout: 5s
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.SimilarityThreshold != 0.5 || cfg.MinGroupSize != 3 {
		t.Errorf("top level not applied: %+v", cfg)
	}
	if !cfg.Preprocessing.UseStemming || !cfg.Preprocessing.Lowercase {
		t.Errorf("preprocessing should merge with defaults: %+v", cfg.Preprocessing)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Fetch.Timeout)
	}

	vopts, err := cfg.VectorizeOptions()
	if err != nil {
		t.Fatalf("VectorizeOptions: %v", err)
	}
	if vopts.MaxDF != vectorize.Fraction(0.9) {
		t.Errorf("max_df = %+v, want fraction 0.9", vopts.MaxDF)
	}
	if vopts.MinDF != vectorize.Docs(2) {
		t.Errorf("min_df = %+v, want 2 documents", vopts.MinDF)
	}

	copts := cfg.ClusterOptions()
	if copts.Method != cluster.MethodDBSCAN || *copts.Eps != 0.4 || *copts.MinSamples != 3 {
		t.Errorf("cluster options = %+v", copts)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "similarity_treshold: 0.5\n"},
		{"unknown clustering method", "similarity_options:\n  method: spectral\n"},
		{"unknown vectorizer", "vectorization:\n  method: word2vec\n"},
		{"kmeans without n_clusters", "similarity_options:\n  method: kmeans\n"},
		{"threshold out of range", "similarity_threshold: 1.5\n"},
		{"group size", "min_group_size: 1\n"},
		{"ngram range", "vectorization:\n  ngram_range: [1, 2, 3]\n"},
		{"doc freq string", "vectorization:\n  max_df: lots\n"},
		{"unused folder key", "folders:\n  rewritten_folder: rewritten\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty config should load defaults: %v", err)
	}
	if cfg.SimilarityThreshold != 0.66 {
		t.Errorf("threshold = %g", cfg.SimilarityThreshold)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("folders:\n  output_folder: groups\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Folders.OutputFolder != "groups" {
		t.Errorf("folders = %+v", cfg.Folders)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Vectorization.MaxDF = DocFreq(vectorize.Fraction(1.0))
	cfg.Vectorization.MinDF = DocFreq(vectorize.Docs(3))

	out, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), "max_df: 1.0") {
		t.Errorf("fractional bound lost its float form:\n%s", out)
	}

	back, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Marshal()): %v", err)
	}
	if back.Vectorization.MaxDF != cfg.Vectorization.MaxDF || back.Vectorization.MinDF != cfg.Vectorization.MinDF {
		t.Errorf("doc freq round trip: got %+v / %+v", back.Vectorization.MaxDF, back.Vectorization.MinDF)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"UGLYFEED_SIMILARITY_THRESHOLD": "0.4",
		"UGLYFEED_CLUSTER_METHOD":       "dbscan",
		"UGLYFEED_EPS":                  "0.3",
		"UGLYFEED_OUTPUT_FOLDER":        "/tmp/out",
		"UGLYFEED_FETCH_TIMEOUT":        "30s",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.SimilarityThreshold != 0.4 || cfg.SimilarityOptions.Method != "dbscan" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if *cfg.SimilarityOptions.Eps != 0.3 || cfg.Folders.OutputFolder != "/tmp/out" {
		t.Errorf("env not applied: eps=%v folder=%s", *cfg.SimilarityOptions.Eps, cfg.Folders.OutputFolder)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Fetch.Timeout)
	}

	env = map[string]string{"UGLYFEED_MIN_SAMPLES": "many"}
	if err := Default().ApplyEnv(lookup); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for bad value, got %v", err)
	}
}

func TestEnvKeysPrefixed(t *testing.T) {
	for _, k := range EnvKeys() {
		if !strings.HasPrefix(k, EnvPrefix) {
			t.Errorf("key %s lacks prefix", k)
		}
	}
}
