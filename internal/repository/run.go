package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/civitas-legal/lawsearch/internal/domain"
	"github.com/civitas-legal/lawsearch/internal/search"
)

// SearchRunStore hands out exclusively-owned connections for search runs.
type SearchRunStore struct {
	pool *pgxpool.Pool
}

func NewSearchRunStore(pool *pgxpool.Pool) *SearchRunStore {
	return &SearchRunStore{pool: pool}
}

func (s *SearchRunStore) Begin(ctx context.Context) (search.SearchRun, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &searchRun{conn: conn}, nil
}

// searchRun owns one pooled connection from cache check through page fetch.
type searchRun struct {
	conn    *pgxpool.Conn
	release sync.Once
}

func (r *searchRun) Release() {
	r.release.Do(r.conn.Release)
}

func (r *searchRun) LookupCache(ctx context.Context, fingerprint string) (*domain.CacheEntry, error) {
	var (
		entry   domain.CacheEntry
		vec     pgvector.Vector
		topCIDs string
	)
	err := r.conn.QueryRow(ctx,
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

func (r *searchRun) Count(ctx context.Context, countSQL string) (int, error) {
	var total int
	if err := r.conn.QueryRow(ctx, countSQL).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// FetchPage executes generated SQL, so columns are matched by name rather
// than position; rows without a cid column are dropped.
func (r *searchRun) FetchPage(ctx context.Context, pageSQL string) ([]domain.CandidateRow, error) {
	rows, err := r.conn.Query(ctx, pageSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CandidateRow, 0, len(maps))
	for _, m := range maps {
		cid := stringField(m, "cid")
		if cid == "" {
			continue
		}
		out = append(out, domain.CandidateRow{
			CID:              cid,
			BluebookCID:      stringField(m, "bluebook_cid"),
			Title:            stringField(m, "title"),
			Chapter:          stringField(m, "chapter"),
			PlaceName:        stringField(m, "place_name"),
			StateName:        stringField(m, "state_name"),
			BluebookCitation: stringField(m, "bluebook_citation"),
		})
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func splitCIDs(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinCIDs(cids []string) string {
	return strings.Join(cids, ",")
}
