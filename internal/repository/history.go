package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

// SearchHistoryRepository is the append-only record of client searches.
type SearchHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewSearchHistoryRepository(pool *pgxpool.Pool) *SearchHistoryRepository {
	return &SearchHistoryRepository{pool: pool}
}

func (r *SearchHistoryRepository) Append(ctx context.Context, entry domain.SearchHistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`INSERT INTO search_history (id, fingerprint, search_query, client_id, searched_at, result_count)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Fingerprint, entry.Query, entry.ClientID, entry.Timestamp, entry.ResultCount,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *SearchHistoryRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.SearchHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, fingerprint, search_query, client_id, searched_at, result_count
		 FROM search_history WHERE client_id = $1
		 ORDER BY searched_at DESC LIMIT $2`,
		clientID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.SearchHistoryEntry
	for rows.Next() {
		var e domain.SearchHistoryEntry
		if err := rows.Scan(&e.ID, &e.Fingerprint, &e.Query, &e.ClientID, &e.Timestamp, &e.ResultCount); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *SearchHistoryRepository) Delete(ctx context.Context, clientID, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM search_history WHERE id = $1 AND client_id = $2`,
		id, clientID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrHistoryEntryNotFound
	}
	return nil
}

// Clear removes a client's entire history and reports how many rows went.
func (r *SearchHistoryRepository) Clear(ctx context.Context, clientID string) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM search_history WHERE client_id = $1`,
		clientID,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
