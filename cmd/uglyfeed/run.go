package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/uglyfeed/uglyfeed/internal/rss"
	"github.com/uglyfeed/uglyfeed/internal/scraper"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/article"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/config"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch feeds, group similar articles and write the groups",
		RunE:  runPipeline,
	}
	f := cmd.Flags()
	f.Float64("similarity_threshold", 0, "Cosine distance below which articles are grouped")
	f.Int("min_samples", 0, "Minimum number of samples for DBSCAN clustering")
	f.Float64("eps", 0, "Neighbourhood distance for DBSCAN clustering")
	f.Int("min_group_size", 0, "Smallest group written to disk")
	f.String("output_dir", "", "Output directory for grouped articles")
	f.String("input_feeds_path", "", "File with one RSS feed URL per line")
	f.String("articles", "", "Read articles from a JSONL file instead of fetching feeds")
	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	comp, err := (&config.Loader{Config: cfg, Logger: log}).Load()
	if err != nil {
		return fmt.Errorf("load components: %w", err)
	}

	ledger, err := openLedger(cmd, cfg)
	if err != nil {
		return err
	}
	engine, err := uglyfeed.FromConfig(cfg, comp, ledger, log)
	if err != nil {
		ledger.Close()
		return err
	}
	defer engine.Close()

	articles, err := loadArticles(cmd, cfg, log)
	if err != nil {
		return err
	}

	if cfg.Fetch.ScrapeMissingContent {
		s := &scraper.Scraper{
			UserAgent:   cfg.Fetch.UserAgent,
			Timeout:     cfg.Fetch.Timeout,
			Concurrency: cfg.Fetch.ScrapeConcurrency,
			Limiter:     newLimiter(cfg.Fetch.RateLimit),
			Logger:      log,
		}
		s.FillMissing(ctx, articles)
	}

	rep, err := engine.Run(ctx, articles)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d articles (%d unique), %d groups, %d files written to %s in %s\n",
		rep.RunID, rep.ArticlesIn, rep.ArticlesUnique, rep.GroupsFound, rep.FilesWritten,
		cfg.Folders.OutputFolder, rep.Elapsed.Round(time.Millisecond))
	for _, r := range rep.Records {
		fmt.Fprintf(out, "  %s (%d articles, similarity %.2f)\n", r.Path, r.Size(), r.Similarity)
	}
	if rep.Reason != nil {
		fmt.Fprintf(out, "  no groups: %v\n", rep.Reason)
	}
	return nil
}

func loadArticles(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) ([]article.Article, error) {
	if path, _ := cmd.Flags().GetString("articles"); path != "" {
		return rss.LoadFromJSONL(path, log)
	}

	urls, err := rss.LoadFeedURLs(cfg.Fetch.FeedsFile)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, errors.New("no feed URLs in " + cfg.Fetch.FeedsFile)
	}

	f := &rss.Fetcher{
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.Fetch.Timeout,
		Retries:     cfg.Fetch.Retries,
		UserAgent:   cfg.Fetch.UserAgent,
		Limiter:     newLimiter(cfg.Fetch.RateLimit),
		Logger:      log,
	}
	return f.FetchAll(cmd.Context(), urls), nil
}

// newLimiter returns nil, meaning unlimited, for a zero rate.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
