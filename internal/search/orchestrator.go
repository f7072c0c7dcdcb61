package search

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civitas-legal/lawsearch/internal/domain"
	"github.com/civitas-legal/lawsearch/internal/metrics"
	"github.com/civitas-legal/lawsearch/internal/telemetry"
)

// LanguageModel covers the orchestrator's direct LLM needs. SQL generation is
// consumed through the Translator, not here.
type LanguageModel interface {
	ClassifyIntent(ctx context.Context, query string) (domain.Intent, error)
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// RunStore hands out the single database connection a search run owns from
// cache check through page fetch.
type RunStore interface {
	Begin(ctx context.Context) (SearchRun, error)
}

// SearchRun wraps one exclusively-owned connection. Release is idempotent and
// must be called before cache/history persistence begins; the store only
// allows concurrent access on read-only connections.
type SearchRun interface {
	LookupCache(ctx context.Context, fingerprint string) (*domain.CacheEntry, error)
	Count(ctx context.Context, countSQL string) (int, error)
	FetchPage(ctx context.Context, pageSQL string) ([]domain.CandidateRow, error)
	Release()
}

// DocumentReader serves read-only lookups off the connection pool. These may
// run concurrently with each other and with a held SearchRun connection.
type DocumentReader interface {
	FetchByCIDs(ctx context.Context, cids []string) ([]domain.CandidateRow, error)
	EmbeddingRefs(ctx context.Context, cids []string) ([]domain.EmbeddingRef, error)
	EmbeddingSource
	ContentSource
}

// CacheWriter persists one completed run's outcome in its own transaction.
type CacheWriter interface {
	Save(ctx context.Context, entry domain.CacheEntry) error
}

// HistoryWriter appends one search history row in its own transaction.
type HistoryWriter interface {
	Append(ctx context.Context, entry domain.SearchHistoryEntry) error
}

// Stream is the caller's view of one in-flight search run. Each value on
// Updates is a cumulative snapshot; the channel closing means the run ended
// and the last received snapshot was the final result set. Err reports the
// run's outcome and is valid only after Updates is closed.
type Stream struct {
	updates chan domain.SearchResponse
	err     error
}

// NewStream creates an open stream. The producer delivers snapshots with
// Push and must end the stream with exactly one Close.
func NewStream() *Stream {
	return &Stream{updates: make(chan domain.SearchResponse)}
}

// Updates returns the emission channel.
func (s *Stream) Updates() <-chan domain.SearchResponse {
	return s.updates
}

// Err returns the terminal error of the run, nil on success. Only valid once
// Updates has been closed.
func (s *Stream) Err() error {
	return s.err
}

// Push delivers one snapshot, honoring cancellation. Returns false when the
// consumer's context ended before the snapshot was accepted.
func (s *Stream) Push(ctx context.Context, resp domain.SearchResponse) bool {
	select {
	case s.updates <- resp:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close ends the stream with the run's terminal error (nil on success).
func (s *Stream) Close(err error) {
	s.err = err
	close(s.updates)
}

// Options tunes the search pipeline.
type Options struct {
	// SimilarityThreshold drops candidates scoring below it.
	SimilarityThreshold float64
	// BatchSize bounds how many embedding lookups one scoring batch performs.
	BatchSize int
	// TopK is how many scored ids a cache entry keeps.
	TopK int
}

const (
	DefaultSimilarityThreshold = 0.4
	DefaultBatchSize           = 1000
	DefaultTopK                = 100
)

// Orchestrator drives a search run through its stages: cache check, intent
// check, SQL translation, count, page fetch, batched score-and-hydrate,
// then cache and history persistence. It is safe for concurrent use; all
// per-run state lives on the stack of one Search call.
type Orchestrator struct {
	llm        LanguageModel
	translator *Translator
	runs       RunStore
	docs       DocumentReader
	cache      CacheWriter
	history    HistoryWriter
	scorer     *Scorer
	logger     *zap.Logger
	opts       Options
}

func NewOrchestrator(
	llm LanguageModel,
	translator *Translator,
	runs RunStore,
	docs DocumentReader,
	cache CacheWriter,
	history HistoryWriter,
	scorer *Scorer,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		llm:        llm,
		translator: translator,
		runs:       runs,
		docs:       docs,
		cache:      cache,
		history:    history,
		scorer:     scorer,
		logger:     logger,
		opts:       opts,
	}
}

// Search validates the request and starts the run. Validation failures are
// returned synchronously; everything after that is reported through the
// stream. Cancelling ctx stops batch iteration and releases the held
// connection.
func (o *Orchestrator) Search(ctx context.Context, req domain.SearchRequest) (*Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s := NewStream()
	go o.run(ctx, req, s)
	return s, nil
}

func (o *Orchestrator) run(ctx context.Context, req domain.SearchRequest, s *Stream) {
	start := time.Now()
	outcome := "done"
	cached := "miss"
	defer func() {
		metrics.SearchRunsTotal.WithLabelValues(outcome).Inc()
		metrics.SearchRunDuration.WithLabelValues(cached).Observe(time.Since(start).Seconds())
	}()

	logger := o.logger.With(zap.String("query", req.NormalizedQuery()))
	fingerprint := Fingerprint(req.NormalizedQuery())

	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.Search", telemetry.SpanAttributes{
		ClientID:    req.ClientID,
		Fingerprint: fingerprint,
		Stage:       "run",
	})
	defer span.End()

	finish := func(err error) {
		s.Close(err)
		switch {
		case err == nil:
		case err == domain.ErrQueryFlagged || err == domain.ErrNotASearch:
			outcome = "rejected"
		case ctx.Err() != nil:
			outcome = "cancelled"
		default:
			outcome = "failed"
			span.SetError(err)
		}
	}

	run, err := o.runs.Begin(ctx)
	if err != nil {
		finish(domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to acquire database connection", err))
		return
	}
	defer run.Release()

	// CACHE_CHECK. A failed lookup degrades to a miss; the cache is an
	// optimization, never a dependency.
	entry, err := run.LookupCache(ctx, fingerprint)
	if err != nil {
		logger.Warn("cache lookup failed", zap.Error(err))
		entry = nil
	}
	if entry != nil {
		cached = "hit"
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		telemetry.AddBreadcrumb(ctx, "search", "cache hit")
		run.Release()
		o.serveCached(ctx, req, entry, s, finish, logger)
		return
	}
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()

	// INTENT_CHECK. A failing classification call is logged and the run
	// proceeds; a successful FLAGGED or non-search verdict ends the run.
	intent, err := o.llm.ClassifyIntent(ctx, req.NormalizedQuery())
	if err != nil {
		logger.Warn("intent check failed, proceeding", zap.Error(err))
		intent = domain.IntentSearch
	}
	switch intent {
	case domain.IntentFlagged:
		finish(domain.ErrQueryFlagged)
		return
	case domain.IntentOther:
		finish(domain.ErrNotASearch)
		return
	}

	// TRANSLATE runs concurrently with embedding the query; both are slow
	// LLM round-trips and both are required past this point.
	var (
		baseSQL        string
		queryEmbedding []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gerr error
		baseSQL, gerr = o.translator.Translate(gctx, req.NormalizedQuery())
		return gerr
	})
	g.Go(func() error {
		var gerr error
		queryEmbedding, gerr = o.llm.CreateEmbedding(gctx, req.NormalizedQuery())
		return gerr
	})
	if err := g.Wait(); err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			finish(de)
			return
		}
		finish(domain.NewDomainErrorWithCause(domain.ErrCodeTranslation, "query preparation failed", err))
		return
	}

	// COUNT
	total, err := run.Count(ctx, CountQuery(baseSQL))
	if err != nil {
		finish(domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "count query failed", err))
		return
	}
	if total == 0 {
		run.Release()
		if !s.Push(ctx, BuildResponse(nil, 0, req)) {
			finish(ctx.Err())
			return
		}
		finish(nil)
		return
	}

	// FETCH_PAGE, deduplicating by document id as rows arrive. First
	// occurrence wins.
	rows, err := run.FetchPage(ctx, Paginate(baseSQL, req.Page, req.PerPage))
	if err != nil {
		finish(domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "page fetch failed", err))
		return
	}
	run.Release()

	cidSeen := make(map[string]struct{}, len(rows))
	candidates := make([]domain.CandidateRow, 0, len(rows))
	rowsByCID := make(map[string]domain.CandidateRow, len(rows))
	for _, row := range rows {
		if row.CID == "" {
			continue
		}
		if _, seen := cidSeen[row.CID]; seen {
			continue
		}
		cidSeen[row.CID] = struct{}{}
		candidates = append(candidates, row)
		rowsByCID[row.CID] = row
	}

	// SCORE_AND_HYDRATE, one bounded batch at a time, emitting the
	// accumulated results after every batch.
	hydrator := NewHydrator(o.docs, logger)
	var (
		cumulative []domain.HydratedResult
		allScored  []domain.ScoredCandidate
	)
	for batchStart := 0; batchStart < len(candidates); batchStart += o.opts.BatchSize {
		if ctx.Err() != nil {
			finish(ctx.Err())
			return
		}

		end := batchStart + o.opts.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[batchStart:end]

		cids := make([]string, len(batch))
		for i, row := range batch {
			cids[i] = row.CID
		}

		refs, err := o.docs.EmbeddingRefs(ctx, cids)
		if err != nil {
			logger.Warn("embedding ref lookup failed, skipping batch",
				zap.Int("batch_start", batchStart),
				zap.Error(err))
			continue
		}

		scored := o.scorer.ScoreBatch(ctx, queryEmbedding, refs, o.docs)
		allScored = append(allScored, scored...)

		ranked := FilterAndRank(scored, o.opts.SimilarityThreshold)
		cumulative = append(cumulative, hydrator.Hydrate(ctx, ranked, rowsByCID)...)

		metrics.SearchBatchesTotal.Inc()
		if !s.Push(ctx, BuildResponse(cumulative, total, req)) {
			finish(ctx.Err())
			return
		}
	}

	// PERSIST_CACHE and PERSIST_HISTORY run on their own connections after
	// the run's connection is released; failures are logged, never surfaced,
	// since results were already streamed.
	if len(allScored) > 0 {
		o.persistCache(ctx, req, fingerprint, queryEmbedding, total, allScored, logger)
	}
	if req.ClientID != "" && len(cumulative) > 0 {
		o.persistHistory(ctx, req, fingerprint, total, logger)
	}

	finish(nil)
}

// serveCached re-hydrates the cached top ids and emits them as a single,
// final snapshot. No LLM calls happen on this path.
func (o *Orchestrator) serveCached(ctx context.Context, req domain.SearchRequest, entry *domain.CacheEntry, s *Stream, finish func(error), logger *zap.Logger) {
	rows, err := o.docs.FetchByCIDs(ctx, entry.TopCIDs)
	if err != nil {
		finish(domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "cached result hydration failed", err))
		return
	}

	rowsByCID := make(map[string]domain.CandidateRow, len(rows))
	for _, row := range rows {
		rowsByCID[row.CID] = row
	}

	// Preserve the cached score order; dedup by id then by content.
	cidSeen := make(map[string]struct{}, len(entry.TopCIDs))
	ranked := make([]domain.ScoredCandidate, 0, len(entry.TopCIDs))
	for _, cid := range entry.TopCIDs {
		if _, seen := cidSeen[cid]; seen {
			continue
		}
		cidSeen[cid] = struct{}{}
		ranked = append(ranked, domain.ScoredCandidate{CID: cid})
	}

	hydrator := NewHydrator(o.docs, logger)
	results := hydrator.Hydrate(ctx, ranked, rowsByCID)

	if !s.Push(ctx, BuildResponse(results, entry.TotalResults, req)) {
		finish(ctx.Err())
		return
	}

	if req.ClientID != "" {
		o.persistHistory(ctx, req, entry.Fingerprint, entry.TotalResults, logger)
	}

	finish(nil)
}

func (o *Orchestrator) persistCache(ctx context.Context, req domain.SearchRequest, fingerprint string, embedding []float32, total int, scored []domain.ScoredCandidate, logger *zap.Logger) {
	ranked := FilterAndRank(scored, -1)
	if len(ranked) > o.opts.TopK {
		ranked = ranked[:o.opts.TopK]
	}
	topCIDs := make([]string, len(ranked))
	for i, c := range ranked {
		topCIDs[i] = c.CID
	}

	err := o.cache.Save(ctx, domain.CacheEntry{
		Fingerprint:  fingerprint,
		Query:        req.NormalizedQuery(),
		Embedding:    embedding,
		TotalResults: total,
		TopCIDs:      topCIDs,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("cache write failed", zap.Error(err))
	}
}

func (o *Orchestrator) persistHistory(ctx context.Context, req domain.SearchRequest, fingerprint string, resultCount int, logger *zap.Logger) {
	err := o.history.Append(ctx, domain.SearchHistoryEntry{
		ID:          uuid.NewString(),
		Fingerprint: fingerprint,
		Query:       req.NormalizedQuery(),
		ClientID:    req.ClientID,
		Timestamp:   time.Now().UTC(),
		ResultCount: resultCount,
	})
	if err != nil {
		logger.Warn("history write failed", zap.Error(err))
	}
}
