//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitas-legal/lawsearch/internal/domain"
	"github.com/civitas-legal/lawsearch/internal/testutil"
)

func TestSearchCacheRepository_SaveAndLookup(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSearchCacheRepository(pool)

	entry := domain.CacheEntry{
		Fingerprint:  "fp-1",
		Query:        "zoning laws in california",
		Embedding:    testEmbedding(0.5),
		TotalResults: 42,
		TopCIDs:      []string{"doc-3", "doc-1", "doc-2"},
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	require.NoError(t, repo.Save(ctx, entry))

	got, err := repo.Lookup(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
	assert.Equal(t, entry.Query, got.Query)
	assert.Equal(t, entry.TotalResults, got.TotalResults)
	assert.Equal(t, entry.TopCIDs, got.TopCIDs)
	assert.InDelta(t, 0.5, got.Embedding[0], 1e-6)
	assert.Len(t, got.Embedding, 1536)
}

func TestSearchCacheRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSearchCacheRepository(pool)

	first := domain.CacheEntry{
		Fingerprint:  "fp-1",
		Query:        "zoning",
		Embedding:    testEmbedding(0.1),
		TotalResults: 10,
		TopCIDs:      []string{"doc-1"},
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, first))

	second := first
	second.TotalResults = 99
	second.TopCIDs = []string{"doc-2", "doc-1"}
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Lookup(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 99, got.TotalResults)
	assert.Equal(t, []string{"doc-2", "doc-1"}, got.TopCIDs)
}

func TestSearchCacheRepository_LookupMissIsNil(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSearchCacheRepository(pool)

	got, err := repo.Lookup(ctx, "no-such-fingerprint")
	require.NoError(t, err)
	assert.Nil(t, got)
}
