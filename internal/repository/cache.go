package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

// SearchCacheRepository persists completed search runs. Writes run in their
// own transaction on a separately-acquired connection so a failure never
// touches results that were already streamed.
type SearchCacheRepository struct {
	pool *pgxpool.Pool
}

func NewSearchCacheRepository(pool *pgxpool.Pool) *SearchCacheRepository {
	return &SearchCacheRepository{pool: pool}
}

func (r *SearchCacheRepository) Save(ctx context.Context, entry domain.CacheEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`INSERT INTO search_query (fingerprint, search_query, embedding, total_results, top_cids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (fingerprint) DO UPDATE SET
		   search_query = EXCLUDED.search_query,
		   embedding = EXCLUDED.embedding,
		   total_results = EXCLUDED.total_results,
		   top_cids = EXCLUDED.top_cids,
		   created_at = EXCLUDED.created_at`,
		entry.Fingerprint, entry.Query, pgvector.NewVector(entry.Embedding),
		entry.TotalResults, joinCIDs(entry.TopCIDs), entry.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Lookup reads a cache entry off the pool. The in-run lookup goes through
// the held connection instead; this is for tooling and tests.
func (r *SearchCacheRepository) Lookup(ctx context.Context, fingerprint string) (*domain.CacheEntry, error) {
	var (
		entry   domain.CacheEntry
		vec     pgvector.Vector
		topCIDs string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT fingerprint, search_query, embedding, total_results, top_cids, created_at
		 FROM search_query WHERE fingerprint = $1`,
		fingerprint,
	).Scan(&entry.Fingerprint, &entry.Query, &vec, &entry.TotalResults, &topCIDs, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	entry.Embedding = vec.Slice()
	entry.TopCIDs = splitCIDs(topCIDs)
	return &entry, nil
}
