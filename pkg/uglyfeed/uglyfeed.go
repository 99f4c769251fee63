// Package uglyfeed groups news articles that describe the same event and
// writes each group as a JSON file.
package uglyfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/article"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/cluster"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/config"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/group"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/ingest"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/persist"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/similarity"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store/memstore"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/vectorize"
)

// Article is one input record.
type Article = article.Article

// Engine runs the grouping pipeline
type Engine struct {
	pipeline  *ingest.Pipeline
	vectorize vectorize.Options
	clusterer cluster.Clusterer
	method    cluster.Method
	threshold float64
	minSize   int
	outputDir string
	store     store.Store
	log       zerolog.Logger
	now       func() time.Time
}

// Options configures an Engine
type Options struct {
	Pipeline     *ingest.Pipeline
	Vectorize    vectorize.Options
	Clusterer    cluster.Clusterer
	Method       cluster.Method // recorded in the run ledger
	Threshold    float64        // recorded in the run ledger
	MinGroupSize int
	OutputDir    string
	Store        store.Store // nil keeps the ledger in memory
	Logger       zerolog.Logger
	Now          func() time.Time
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("%w: preprocessing pipeline is required", internalerr.ErrInvalidConfig)
	}
	if opts.Clusterer == nil {
		return nil, fmt.Errorf("%w: clusterer is required", internalerr.ErrInvalidConfig)
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("%w: output folder is required", internalerr.ErrInvalidConfig)
	}
	if err := opts.Vectorize.Validate(); err != nil {
		return nil, err
	}
	if opts.MinGroupSize < 1 {
		opts.MinGroupSize = group.DefaultMinSize
	}
	if opts.Store == nil {
		opts.Store = memstore.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		pipeline:  opts.Pipeline,
		vectorize: opts.Vectorize,
		clusterer: opts.Clusterer,
		method:    opts.Method,
		threshold: opts.Threshold,
		minSize:   opts.MinGroupSize,
		outputDir: opts.OutputDir,
		store:     opts.Store,
		log:       opts.Logger,
		now:       opts.Now,
	}, nil
}

// FromConfig wires an Engine from loaded components.
func FromConfig(cfg *config.Config, comp *config.Components, st store.Store, log zerolog.Logger) (*Engine, error) {
	return New(Options{
		Pipeline:     comp.Pipeline,
		Vectorize:    comp.Vectorize,
		Clusterer:    comp.Clusterer,
		Method:       comp.Cluster.Method,
		Threshold:    cfg.SimilarityThreshold,
		MinGroupSize: cfg.MinGroupSize,
		OutputDir:    cfg.Folders.OutputFolder,
		Store:        st,
		Logger:       log,
	})
}

// Close releases the run ledger
func (e *Engine) Close() error {
	return e.store.Close()
}

// Report summarises one run
type Report struct {
	RunID          string
	ArticlesIn     int
	ArticlesUnique int
	GroupsFound    int
	FilesWritten   int
	Sizes          []int
	Records        []persist.Record
	Elapsed        time.Duration
	// Reason is set when the batch could not be grouped.
	Reason error
}

// Run groups one batch of articles and writes the groups. Batches that
// cannot be grouped (fewer than two articles, no shared vocabulary) end
// with an empty report, not an error. Errors are configuration or
// output directory failures.
func (e *Engine) Run(ctx context.Context, articles []Article) (Report, error) {
	start := e.now()
	rep := Report{
		RunID:      ulid.MustNew(ulid.Timestamp(start), ulid.DefaultEntropy()).String(),
		ArticlesIn: len(articles),
	}
	log := e.log.With().Str("run_id", rep.RunID).Logger()

	err := e.run(ctx, articles, &rep, log)
	rep.Elapsed = e.now().Sub(start)

	status := store.StatusOK
	switch {
	case err != nil:
		status = store.StatusFailed
	case rep.Reason != nil:
		status = store.StatusEmpty
	}
	e.record(ctx, start, rep, status, err, log)

	log.Info().
		Int("articles_in", rep.ArticlesIn).
		Int("articles_unique", rep.ArticlesUnique).
		Int("groups_out", rep.GroupsFound).
		Int("files_written", rep.FilesWritten).
		Dur("elapsed", rep.Elapsed).
		Msg("run complete")
	return rep, err
}

func (e *Engine) run(ctx context.Context, articles []Article, rep *Report, log zerolog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unique := article.DedupeExact(articles)
	rep.ArticlesUnique = len(unique)
	log.Info().Int("articles_in", len(articles)).Int("articles_unique", len(unique)).Msg("exact duplicates removed")

	if len(unique) < 2 {
		rep.Reason = fmt.Errorf("%w: %d articles", internalerr.ErrInsufficientData, len(unique))
		log.Info().Int("articles", len(unique)).Msg("not enough articles to group")
		return nil
	}

	inputs := make([]ingest.Input, len(unique))
	for i, a := range unique {
		inputs[i] = ingest.Input{Title: a.Title, Content: a.Content}
	}
	docs := e.pipeline.Process(inputs)
	log.Debug().Int("documents", len(docs)).Msg("texts preprocessed")

	m, err := vectorize.Vectorize(ingest.Texts(docs), e.vectorize)
	if err != nil {
		return err
	}
	if m.Empty() {
		rep.Reason = fmt.Errorf("%w: no terms survived vectorization", internalerr.ErrEmptyVocabulary)
		log.Warn().Err(rep.Reason).Msg("nothing to group")
		return nil
	}
	log.Debug().Int("rows", m.N()).Int("features", m.Cols).Msg("texts vectorized")

	sim := similarity.Cosine(m)

	labels, err := e.clusterer.Cluster(cluster.Input{Similarity: sim, Features: m})
	if err != nil {
		if internalerr.IsDataError(err) {
			rep.Reason = err
			log.Warn().Err(err).Msg("clustering produced no groups")
			return nil
		}
		return fmt.Errorf("cluster: %w", err)
	}

	groups, err := group.New(e.minSize).Aggregate(unique, labels, sim)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	rep.GroupsFound = len(groups)
	log.Info().Int("groups", len(groups)).Msg("articles grouped")

	writer := persist.NewWriter(persist.Options{
		Dir:     e.outputDir,
		MinSize: e.minSize,
		Now:     e.now,
		Logger:  log,
	})
	records, err := writer.Persist(groups, sim)
	if err != nil {
		return err
	}
	rep.Records = records
	rep.FilesWritten = len(records)
	rep.Sizes = persist.Sizes(records)
	return nil
}

// record appends the run to the ledger. Ledger failures are logged.
func (e *Engine) record(ctx context.Context, start time.Time, rep Report, status string, runErr error, log zerolog.Logger) {
	ctx = context.WithoutCancel(ctx)
	run := store.Run{
		ID:             rep.RunID,
		StartedAt:      start,
		FinishedAt:     start.Add(rep.Elapsed),
		ArticlesIn:     rep.ArticlesIn,
		ArticlesUnique: rep.ArticlesUnique,
		GroupsFound:    rep.GroupsFound,
		FilesWritten:   rep.FilesWritten,
		Method:         string(e.method),
		Threshold:      e.threshold,
		Status:         status,
	}
	switch {
	case runErr != nil:
		run.Message = runErr.Error()
	case rep.Reason != nil:
		run.Message = rep.Reason.Error()
	}
	if err := e.store.RecordRun(ctx, run); err != nil {
		log.Error().Err(err).Msg("failed to record run")
		return
	}

	for _, r := range rep.Records {
		links := make([]string, len(r.Items))
		for i, it := range r.Items {
			links[i] = it.Link
		}
		err := e.store.RecordGroup(ctx, store.GroupRecord{
			RunID:      rep.RunID,
			GroupID:    r.GroupID,
			Path:       r.Path,
			Label:      r.Label,
			Size:       r.Size(),
			Similarity: r.Similarity,
			Links:      links,
			CreatedAt:  r.WrittenAt,
		})
		if err != nil {
			log.Error().Err(err).Str("group_id", r.GroupID).Msg("failed to record group")
		}
	}
}

// History returns the most recent runs from the ledger.
func (e *Engine) History(ctx context.Context, limit int) ([]store.Run, error) {
	return e.store.ListRuns(ctx, limit)
}

// Groups returns the groups written by a run.
func (e *Engine) Groups(ctx context.Context, runID string) ([]store.GroupRecord, error) {
	if _, err := e.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return e.store.GroupsForRun(ctx, runID)
}
