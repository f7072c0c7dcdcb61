//go:build e2e

package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/civitas-legal/lawsearch/internal/api/handlers"
	"github.com/civitas-legal/lawsearch/internal/domain"
	"github.com/civitas-legal/lawsearch/internal/repository"
	"github.com/civitas-legal/lawsearch/internal/search"
	"github.com/civitas-legal/lawsearch/internal/server"
	"github.com/civitas-legal/lawsearch/internal/testutil"
)

// fakeLLM replaces the OpenAI client so the whole stack runs offline. Each
// field programs one capability; zero values give benign defaults.
type fakeLLM struct {
	SQL       string
	Embedding []float32
	Intent    domain.Intent
}

func (f *fakeLLM) TranslateToSQL(ctx context.Context, query string) (string, error) {
	return f.SQL, nil
}

func (f *fakeLLM) ClassifyIntent(ctx context.Context, query string) (domain.Intent, error) {
	if f.Intent == "" {
		return domain.IntentSearch, nil
	}
	return f.Intent, nil
}

func (f *fakeLLM) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f.Embedding, nil
}

// E2ETestEnv holds all resources needed for end-to-end tests.
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	HTTPClient *http.Client
	LLM        *fakeLLM
}

// SetupE2EEnv starts a Postgres container, runs migrations, and serves the
// full router in-process with a fake LLM.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	llm := &fakeLLM{}
	logger := zap.NewNop()

	scorer, err := search.NewScorerWithPoolSize(2, logger)
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}
	t.Cleanup(scorer.Release)

	historyRepo := repository.NewSearchHistoryRepository(pool)
	orchestrator := search.NewOrchestrator(
		llm,
		search.NewTranslator(llm, logger),
		repository.NewSearchRunStore(pool),
		repository.NewDocumentStore(pool),
		repository.NewSearchCacheRepository(pool),
		historyRepo,
		scorer,
		logger,
		search.Options{},
	)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler:  handlers.NewSearchHandler(orchestrator, logger),
		HistoryHandler: handlers.NewHistoryHandler(historyRepo),
	})

	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Server:     srv,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		LLM:        llm,
	}
}

// Cleanup releases all resources.
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// SeedDocument inserts a citation with its HTML and embedding.
func (e *E2ETestEnv) SeedDocument(cid, title, placeName, html string, embedding []float32) {
	e.T.Helper()

	_, err := e.Pool.Exec(e.Ctx,
		`INSERT INTO citations (bluebook_cid, cid, title, chapter, place_name, state_name, state_code, bluebook_state_code, bluebook_citation)
		 VALUES ($1, $2, $3, 'Ch. 1', $4, 'California', 'CA', 'Cal.', $5)`,
		"bb-"+cid, cid, title, placeName, placeName+", Cal., Code ch. 1",
	)
	if err != nil {
		e.T.Fatalf("failed to seed citation: %v", err)
	}

	_, err = e.Pool.Exec(e.Ctx,
		`INSERT INTO html (cid, doc_id, html) VALUES ($1, $2, $3)`,
		cid, "doc-"+cid, html,
	)
	if err != nil {
		e.T.Fatalf("failed to seed html: %v", err)
	}

	_, err = e.Pool.Exec(e.Ctx,
		`INSERT INTO embeddings (embedding_cid, cid, embedding) VALUES ($1, $2, $3)`,
		"emb-"+cid, cid, pgvector.NewVector(embedding),
	)
	if err != nil {
		e.T.Fatalf("failed to seed embedding: %v", err)
	}
}

// Embedding builds a deterministic 1536-dim vector dominated by one axis.
func Embedding(seed float32) []float32 {
	emb := make([]float32, 1536)
	emb[0] = seed
	emb[1] = 1 - seed
	return emb
}

// SearchStream issues a search and returns every NDJSON snapshot received.
func (e *E2ETestEnv) SearchStream(query, clientID string) ([]domain.SearchResponse, *http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, e.Server.URL+"/api/search?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, nil, err
	}
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, resp, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var snapshots []domain.SearchResponse
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var snap domain.SearchResponse
		if err := json.Unmarshal(scanner.Bytes(), &snap); err != nil {
			return snapshots, resp, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, resp, scanner.Err()
}

// GetJSON fetches a success-envelope endpoint and decodes data into v.
func (e *E2ETestEnv) GetJSON(path, clientID string, v interface{}) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, e.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return resp, err
	}
	if v != nil {
		return resp, json.Unmarshal(envelope.Data, v)
	}
	return resp, nil
}

// Delete issues a DELETE with the client header.
func (e *E2ETestEnv) Delete(path, clientID string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp, nil
}
