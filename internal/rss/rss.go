package rss

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/article"
)

// LoadFromJSONL loads articles from a JSONL file. Malformed lines are
// logged and skipped.
func LoadFromJSONL(path string, log zerolog.Logger) ([]article.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var items []article.Article
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item article.Article
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			log.Warn().Err(err).Str("path", path).Int("line", i+1).Msg("skipping malformed JSON")
			continue
		}
		if err := item.Validate(); err != nil {
			log.Warn().Err(err).Str("path", path).Int("line", i+1).Msg("skipping invalid article")
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid articles found in %s", path)
	}

	return items, nil
}

// LoadFeedURLs reads one feed URL per line. Blank lines and lines
// starting with # are skipped.
func LoadFeedURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds %s: %w", path, err)
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
