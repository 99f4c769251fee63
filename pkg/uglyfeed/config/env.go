package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(c *Config, v string) error
}

var envBindings = []envBinding{
	{"SIMILARITY_THRESHOLD", func(c *Config, v string) error { return setFloat(&c.SimilarityThreshold, v) }},
	{"MIN_GROUP_SIZE", func(c *Config, v string) error { return setInt(&c.MinGroupSize, v) }},
	{"LANGUAGE", func(c *Config, v string) error { c.Preprocessing.Language = v; return nil }},
	{"FALLBACK_LANGUAGE", func(c *Config, v string) error { c.Preprocessing.FallbackLanguage = v; return nil }},
	{"USE_STEMMING", func(c *Config, v string) error { return setBool(&c.Preprocessing.UseStemming, v) }},
	{"VECTORIZATION_METHOD", func(c *Config, v string) error { c.Vectorization.Method = v; return nil }},
	{"CLUSTER_METHOD", func(c *Config, v string) error { c.SimilarityOptions.Method = v; return nil }},
	{"EPS", func(c *Config, v string) error { return setFloatPtr(&c.SimilarityOptions.Eps, v) }},
	{"MIN_SAMPLES", func(c *Config, v string) error { return setIntPtr(&c.SimilarityOptions.MinSamples, v) }},
	{"N_CLUSTERS", func(c *Config, v string) error { return setIntPtr(&c.SimilarityOptions.NClusters, v) }},
	{"LINKAGE", func(c *Config, v string) error { c.SimilarityOptions.Linkage = v; return nil }},
	{"OUTPUT_FOLDER", func(c *Config, v string) error { c.Folders.OutputFolder = v; return nil }},
	{"FEEDS_FILE", func(c *Config, v string) error { c.Fetch.FeedsFile = v; return nil }},
	{"FETCH_CONCURRENCY", func(c *Config, v string) error { return setInt(&c.Fetch.Concurrency, v) }},
	{"FETCH_TIMEOUT", func(c *Config, v string) error { return setDuration(&c.Fetch.Timeout, v) }},
	{"LEDGER_PATH", func(c *Config, v string) error { c.Storage.LedgerPath = v; return nil }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
}

// ApplyEnv overrides fields from UGLYFEED_* variables and re-validates.
// Environment values win over the file; command-line flags are applied
// after this by the caller.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if err := b.apply(c, v); err != nil {
			return fmt.Errorf("%w: %s%s: %v", internalerr.ErrInvalidConfig, EnvPrefix, b.key, err)
		}
	}
	return c.Validate()
}

// EnvKeys lists the supported variable names.
func EnvKeys() []string {
	keys := make([]string, len(envBindings))
	for i, b := range envBindings {
		keys[i] = EnvPrefix + b.key
	}
	return keys
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setFloatPtr(dst **float64, v string) error {
	if v == "" {
		*dst = nil
		return nil
	}
	var f float64
	if err := setFloat(&f, v); err != nil {
		return err
	}
	*dst = &f
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setIntPtr(dst **int, v string) error {
	if v == "" {
		*dst = nil
		return nil
	}
	var n int
	if err := setInt(&n, v); err != nil {
		return err
	}
	*dst = &n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
