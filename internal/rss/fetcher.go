package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/uglyfeed/uglyfeed/internal/retry"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/article"
)

// Fetcher downloads feeds with a bounded number of workers.
type Fetcher struct {
	Concurrency int
	Timeout     time.Duration
	Retries     int
	RetryDelay  time.Duration
	UserAgent   string
	Client      *http.Client
	// Limiter, when set, paces requests across all workers.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// FetchAll fetches every feed and returns their articles in feed order.
// A failing feed is logged and contributes nothing.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []article.Article {
	workers := f.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	results := make([][]article.Article, len(urls))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				items, err := f.FetchFeed(ctx, urls[i])
				if err != nil {
					f.Logger.Error().Err(err).Str("feed", urls[i]).Msg("failed to fetch feed")
					continue
				}
				f.Logger.Info().Str("feed", urls[i]).Int("articles", len(items)).Msg("feed fetched")
				results[i] = items
			}
		}()
	}

feed:
	for i := range urls {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	var all []article.Article
	ok := 0
	for _, items := range results {
		if items != nil {
			ok++
		}
		all = append(all, items...)
	}
	f.Logger.Info().Int("feeds", len(urls)).Int("feeds_ok", ok).Int("articles", len(all)).Msg("feeds processed")
	return all
}

// FetchFeed downloads and converts a single feed.
func (f *Fetcher) FetchFeed(ctx context.Context, url string) ([]article.Article, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client()
	if f.UserAgent != "" {
		parser.UserAgent = f.UserAgent
	}

	var feed *gofeed.Feed
	err := retry.WithRetry(ctx, retry.Config{
		MaxAttempts: f.Retries + 1,
		Delay:       f.retryDelay(),
		Backoff:     true,
	}, func() error {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		reqCtx := ctx
		if f.Timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, f.Timeout)
			defer cancel()
		}
		var err error
		feed, err = parser.ParseURLWithContext(url, reqCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	if len(feed.Items) == 0 {
		f.Logger.Warn().Str("feed", url).Msg("no entries found in feed")
	}
	return FromItems(url, feed.Items, f.Logger), nil
}

// FromItems converts feed entries. Entries without title and text are
// skipped; a missing link falls back to the feed URL.
func FromItems(feedURL string, items []*gofeed.Item, log zerolog.Logger) []article.Article {
	out := make([]article.Article, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		title := strings.TrimSpace(it.Title)
		content := strings.TrimSpace(it.Description)
		if content == "" {
			content = strings.TrimSpace(it.Content)
		}
		if title == "" && content == "" {
			log.Warn().Str("feed", feedURL).Msg("skipping entry with no title or description")
			continue
		}
		link := strings.TrimSpace(it.Link)
		if link == "" {
			link = feedURL
		}
		a := article.Article{Title: title, Content: content, Link: link}
		if it.PublishedParsed != nil {
			t := *it.PublishedParsed
			a.PublishedAt = &t
		}
		out = append(out, a)
	}
	return out
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) retryDelay() time.Duration {
	if f.RetryDelay > 0 {
		return f.RetryDelay
	}
	return time.Second
}
