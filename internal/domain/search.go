package domain

import (
	"strings"
	"time"
)

// Intent is the LLM's classification of a user query.
type Intent string

const (
	IntentSearch  Intent = "SEARCH"
	IntentFlagged Intent = "FLAGGED"
	IntentOther   Intent = "OTHER"
)

// SearchRequest is one search invocation. Immutable once created.
type SearchRequest struct {
	Query    string
	Page     int
	PerPage  int
	ClientID string
}

// Validate rejects user input errors before the pipeline starts.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if r.Page < 1 {
		return ErrInvalidPage
	}
	if r.PerPage < 1 {
		return ErrInvalidPerPage
	}
	return nil
}

// NormalizedQuery lower-cases and trims the raw query text. The cache
// fingerprint is computed over this form.
func (r SearchRequest) NormalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(r.Query))
}

// CandidateRow is a denormalized citation record returned by the SQL stage.
// Produced once per SQL execution, consumed by the similarity stage, never
// mutated.
type CandidateRow struct {
	CID              string
	BluebookCID      string
	Title            string
	Chapter          string
	PlaceName        string
	StateName        string
	BluebookCitation string
}

// EmbeddingRef maps a document CID to the id of its stored embedding vector.
type EmbeddingRef struct {
	EmbeddingCID string
	CID          string
}

// ScoredCandidate pairs a document CID with its similarity score.
type ScoredCandidate struct {
	CID   string
	Score float64
}

// HydratedResult is a CandidateRow plus its HTML content.
type HydratedResult struct {
	CandidateRow
	HTML string
}

// CacheEntry is the persisted outcome of one uncached search run: the query,
// its embedding, and the top-scoring document CIDs in descending score order.
type CacheEntry struct {
	Fingerprint  string
	Query        string
	Embedding    []float32
	TotalResults int
	TopCIDs      []string
	CreatedAt    time.Time
}

// SearchHistoryEntry is one append-only row of a client's search history.
type SearchHistoryEntry struct {
	ID          string
	Fingerprint string
	Query       string
	ClientID    string
	Timestamp   time.Time
	ResultCount int
}

// ResultItem is the wire representation of one hydrated search result.
type ResultItem struct {
	CID              string `json:"cid"`
	BluebookCID      string `json:"bluebook_cid"`
	Title            string `json:"title"`
	Chapter          string `json:"chapter,omitempty"`
	PlaceName        string `json:"place_name"`
	StateName        string `json:"state_name"`
	BluebookCitation string `json:"bluebook_citation"`
	HTML             string `json:"html"`
}

// SearchResponse is the wire response shape. Each streamed emission carries
// the cumulative result list so far; the final emission is the complete set.
type SearchResponse struct {
	Results    []ResultItem `json:"results"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
}
