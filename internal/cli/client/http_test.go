package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &APIClient{
		baseURL:    srv.URL,
		clientID:   "client-test",
		httpClient: srv.Client(),
	}
}

func TestAPIClient_SetsClientIDHeader(t *testing.T) {
	var gotHeader string
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client-ID")
		w.Write([]byte(`{"data":null}`))
	})

	err := api.GetJSON("/api/search/history", nil)
	require.NoError(t, err)
	assert.Equal(t, "client-test", gotHeader)
}

func TestAPIClient_GetJSON_DecodesEnvelope(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"h-1","query":"zoning","searched_at":"2025-03-01T10:00:00Z","result_count":3}]}`))
	})

	var entries []HistoryEntry
	err := api.GetJSON("/api/search/history", &entries)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "h-1", entries[0].ID)
	assert.Equal(t, 3, entries[0].ResultCount)
}

func TestAPIClient_GetJSON_ServerError(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"client_id is required"}`))
	})

	err := api.GetJSON("/api/search/history", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id is required")
	assert.Contains(t, err.Error(), "400")
}

func TestAPIClient_Delete_NoContent(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	err := api.Delete("/api/search/history/h-1", nil)
	assert.NoError(t, err)
}

func TestAPIClient_Delete_DecodesBody(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"deleted":4}}`))
	})

	var result struct {
		Deleted int64 `json:"deleted"`
	}
	err := api.Delete("/api/search/history", &result)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Deleted)
}

func TestAPIClient_Delete_NotFound(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"search history entry not found"}`))
	})

	err := api.Delete("/api/search/history/missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2025-03-01 10:00", FormatTimestamp("2025-03-01T10:00:00Z"))
	// Unparsable input passes through untouched.
	assert.Equal(t, "yesterday", FormatTimestamp("yesterday"))
}
