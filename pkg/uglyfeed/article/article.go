// Package article defines the news item that flows through the
// grouping pipeline.
package article

import (
	"errors"
	"strings"
	"time"
)

// Article is one feed entry. Content may be empty.
type Article struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Validate checks that the article carries some text
func (a *Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Content) == "" {
		return errors.New("article title or content is required")
	}
	return nil
}

// DedupeExact drops articles whose (content, link) pair was already
// seen, keeping the first occurrence and the input order.
func DedupeExact(articles []Article) []Article {
	type key struct{ content, link string }
	seen := make(map[key]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		k := key{a.Content, a.Link}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}
