//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"
)

func testEmbedding(seed float32) []float32 {
	emb := make([]float32, 1536)
	emb[0] = seed
	emb[1] = 1 - seed
	return emb
}

func seedCitation(ctx context.Context, t *testing.T, pool *pgxpool.Pool, bluebookCID, cid, title, placeName string) {
	t.Helper()
	_, err := pool.Exec(ctx,
		`INSERT INTO citations (bluebook_cid, cid, title, chapter, place_name, state_name, state_code, bluebook_state_code, bluebook_citation)
		 VALUES ($1, $2, $3, $4, $5, 'California', 'CA', 'Cal.', $6)`,
		bluebookCID, cid, title, "Ch. 1", placeName, placeName+", Cal., Code ch. 1",
	)
	require.NoError(t, err)
}

func seedHTML(ctx context.Context, t *testing.T, pool *pgxpool.Pool, cid, html string) {
	t.Helper()
	_, err := pool.Exec(ctx,
		`INSERT INTO html (cid, doc_id, html) VALUES ($1, $2, $3)`,
		cid, "doc-"+cid, html,
	)
	require.NoError(t, err)
}

func seedEmbedding(ctx context.Context, t *testing.T, pool *pgxpool.Pool, embeddingCID, cid string, embedding []float32) {
	t.Helper()
	_, err := pool.Exec(ctx,
		`INSERT INTO embeddings (embedding_cid, cid, embedding) VALUES ($1, $2, $3)`,
		embeddingCID, cid, pgvector.NewVector(embedding),
	)
	require.NoError(t, err)
}
