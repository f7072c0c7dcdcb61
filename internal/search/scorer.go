package search

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

// EmbeddingSource resolves a stored embedding vector by its id. A missing
// embedding is reported as (nil, nil), not as an error.
type EmbeddingSource interface {
	Embedding(ctx context.Context, embeddingCID string) ([]float32, error)
}

// Cosine computes cosine similarity in [-1, 1]. Mismatched lengths or a
// zero-magnitude vector score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Scorer computes query/document similarity across a batch using a bounded
// worker pool. One scorer is shared by all search runs; it holds no per-run
// state.
type Scorer struct {
	pool   *ants.Pool
	logger *zap.Logger
}

// NewScorer creates a scorer with a worker pool sized to the available CPUs
// minus one, with a minimum of one worker.
func NewScorer(logger *zap.Logger) (*Scorer, error) {
	size := runtime.NumCPU() - 1
	if size < 1 {
		size = 1
	}
	return NewScorerWithPoolSize(size, logger)
}

func NewScorerWithPoolSize(size int, logger *zap.Logger) (*Scorer, error) {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &Scorer{pool: pool, logger: logger}, nil
}

// Release shuts down the worker pool.
func (s *Scorer) Release() {
	s.pool.Release()
}

// ScoreBatch scores every embedding reference in the batch against the query
// embedding, in parallel. Candidates whose embedding is missing are silently
// dropped; a failed embedding read drops the candidate and logs, never aborts
// the batch. Output order is unspecified; callers rank with FilterAndRank.
func (s *Scorer) ScoreBatch(ctx context.Context, queryEmbedding []float32, refs []domain.EmbeddingRef, src EmbeddingSource) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, len(refs))
	present := make([]bool, len(refs))

	var wg sync.WaitGroup
	for i, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		i, ref := i, ref
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()

			embedding, err := src.Embedding(ctx, ref.EmbeddingCID)
			if err != nil {
				s.logger.Warn("embedding lookup failed",
					zap.String("cid", ref.CID),
					zap.Error(err))
				return
			}
			if embedding == nil {
				return
			}

			scored[i] = domain.ScoredCandidate{
				CID:   ref.CID,
				Score: Cosine(queryEmbedding, embedding),
			}
			present[i] = true
		})
		if err != nil {
			wg.Done()
			s.logger.Warn("failed to submit scoring task", zap.Error(err))
		}
	}
	wg.Wait()

	out := make([]domain.ScoredCandidate, 0, len(refs))
	for i := range scored {
		if present[i] {
			out = append(out, scored[i])
		}
	}
	return out
}

// FilterAndRank drops candidates scoring below the threshold and sorts the
// rest by descending score. The sort is stable so equal scores keep their
// incoming order.
func FilterAndRank(scored []domain.ScoredCandidate, threshold float64) []domain.ScoredCandidate {
	ranked := make([]domain.ScoredCandidate, 0, len(scored))
	for _, c := range scored {
		if c.Score >= threshold {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}
