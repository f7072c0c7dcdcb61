package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

// DocumentStore serves read-only citation, embedding, and content lookups.
// Pool-backed reads may run concurrently with a held search run connection.
type DocumentStore struct {
	db dbtx
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{db: pool}
}

func (s *DocumentStore) FetchByCIDs(ctx context.Context, cids []string) ([]domain.CandidateRow, error) {
	if len(cids) == 0 {
		return []domain.CandidateRow{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT cid, bluebook_cid, title, chapter, place_name, state_name, bluebook_citation
		 FROM citations WHERE cid = ANY($1)`,
		cids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CandidateRow
	for rows.Next() {
		var row domain.CandidateRow
		var chapter *string
		if err := rows.Scan(&row.CID, &row.BluebookCID, &row.Title, &chapter,
			&row.PlaceName, &row.StateName, &row.BluebookCitation); err != nil {
			return nil, err
		}
		if chapter != nil {
			row.Chapter = *chapter
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *DocumentStore) EmbeddingRefs(ctx context.Context, cids []string) ([]domain.EmbeddingRef, error) {
	if len(cids) == 0 {
		return []domain.EmbeddingRef{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT embedding_cid, cid FROM embeddings WHERE cid = ANY($1)`,
		cids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.EmbeddingRef
	for rows.Next() {
		var ref domain.EmbeddingRef
		if err := rows.Scan(&ref.EmbeddingCID, &ref.CID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Embedding returns (nil, nil) when no vector is stored for the id; a
// missing embedding is an expected condition, not a failure.
func (s *DocumentStore) Embedding(ctx context.Context, embeddingCID string) ([]float32, error) {
	var vec pgvector.Vector
	err := s.db.QueryRow(ctx,
		`SELECT embedding FROM embeddings WHERE embedding_cid = $1`,
		embeddingCID,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return vec.Slice(), nil
}

// HTML returns ("", nil) when no content row exists for the citation.
func (s *DocumentStore) HTML(ctx context.Context, cid string) (string, error) {
	var html string
	err := s.db.QueryRow(ctx,
		`SELECT html FROM html WHERE cid = $1`,
		cid,
	).Scan(&html)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return html, nil
}
