//go:build e2e

package e2e

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

func TestSearchAndHistoryFlow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.SeedDocument("doc-1", "Zoning district boundaries", "Sacramento", "<p>boundaries</p>", Embedding(1))
	env.SeedDocument("doc-2", "Zoning appeals", "Fresno", "<p>appeals</p>", Embedding(0.9))
	env.SeedDocument("doc-3", "Dog licensing", "Fresno", "<p>dogs</p>", Embedding(0))

	env.LLM.SQL = "SELECT * FROM citations WHERE title ILIKE '%zoning%'"
	env.LLM.Embedding = Embedding(1)

	// First search runs the full pipeline and records history.
	snapshots, resp, err := env.SearchStream("zoning rules", "client-1")
	require.NoError(t, err)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, snapshots)

	final := snapshots[len(snapshots)-1]
	assert.Equal(t, 2, final.Total)
	require.Len(t, final.Results, 2)
	assert.Equal(t, "doc-1", final.Results[0].CID)
	assert.Equal(t, "<p>boundaries</p>", final.Results[0].HTML)

	// Repeating the search hits the cache: a single final snapshot.
	cachedSnapshots, _, err := env.SearchStream("Zoning Rules", "client-1")
	require.NoError(t, err)
	require.Len(t, cachedSnapshots, 1)
	assert.Equal(t, "doc-1", cachedSnapshots[0].Results[0].CID)

	// Both searches appear in history, newest first.
	var entries []struct {
		ID          string `json:"id"`
		Query       string `json:"query"`
		ResultCount int    `json:"result_count"`
	}
	histResp, err := env.GetJSON("/api/search/history", "client-1", &entries)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	require.Len(t, entries, 2)
	assert.Equal(t, "zoning rules", entries[0].Query)

	// Delete one entry, then clear the rest.
	delResp, err := env.Delete("/api/search/history/"+entries[0].ID, "client-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	clearResp, err := env.Delete("/api/search/history", "client-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, clearResp.StatusCode)

	histResp, err = env.GetJSON("/api/search/history", "client-1", &entries)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearchRejectsFlaggedQuery(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.LLM.Intent = domain.IntentFlagged
	env.LLM.Embedding = Embedding(1)
	env.LLM.SQL = "SELECT * FROM citations"

	_, resp, err := env.SearchStream("anything", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, err.Error(), "flagged")
}

func TestSearchValidation(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	_, resp, err := env.SearchStream("", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryRequiresClientID(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.GetJSON("/api/search/history", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.HTTPClient.Get(env.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
