package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/article"
)

// DefaultMinContent is the content length below which an article is
// considered to have no usable text.
const DefaultMinContent = 40

const maxPageBytes = 4 << 20

var contentSelectors = []string{
	"article p",
	".article p",
	".article-body p",
	".content p",
	".post-content p",
	".entry-content p",
	"main p",
	"#content p",
	"p",
}

// Scraper fetches article pages to fill in missing content.
type Scraper struct {
	Client      *http.Client
	UserAgent   string
	Timeout     time.Duration
	Concurrency int
	MinContent  int
	// Limiter, when set, paces page requests.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// Extract downloads pageURL and returns its main text. Readability
// extraction is tried first; paragraph selectors are the fallback.
func (s *Scraper) Extract(ctx context.Context, pageURL string) (string, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("load page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	if content := readable(body, pageURL); len(content) >= s.minContent() {
		return content, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	doc.Find("script, style, nav, footer, aside").Remove()

	content := extractParagraphs(doc)
	if content == "" {
		return "", fmt.Errorf("no content found at %s", pageURL)
	}
	return content, nil
}

// readable returns the readability text of a page, or "" when the page
// has no recognisable article body.
func readable(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	art, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(art.TextContent), " ")
}

func (s *Scraper) minContent() int {
	if s.MinContent > 0 {
		return s.MinContent
	}
	return DefaultMinContent
}

// extractParagraphs returns the paragraphs of the first selector that
// yields at least three of them, or else of the most productive one.
func extractParagraphs(doc *goquery.Document) string {
	var best []string
	for _, selector := range contentSelectors {
		var paragraphs []string
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			text := strings.Join(strings.Fields(sel.Text()), " ")
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > len(best) {
			best = paragraphs
		}
		if len(best) >= 3 {
			break
		}
	}
	return strings.Join(best, "\n\n")
}

// FillMissing scrapes the link of every article whose content is shorter
// than MinContent and replaces the content on success. It returns the
// number of articles filled. Failures keep the original content.
func (s *Scraper) FillMissing(ctx context.Context, articles []article.Article) int {
	minLen := s.minContent()

	var targets []int
	for i, a := range articles {
		if len(strings.TrimSpace(a.Content)) < minLen && a.Link != "" {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return 0
	}

	workers := s.Concurrency
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		filled int
	)

	for _, idx := range targets {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			content, err := s.Extract(ctx, articles[idx].Link)
			if err != nil {
				s.Logger.Debug().Err(err).Str("link", articles[idx].Link).Msg("scrape failed")
				return
			}
			// each goroutine owns its index
			articles[idx].Content = content
			mu.Lock()
			filled++
			mu.Unlock()
		}(idx)
	}
	wg.Wait()

	s.Logger.Info().Int("candidates", len(targets)).Int("filled", filled).Msg("scraped missing content")
	return filled
}
