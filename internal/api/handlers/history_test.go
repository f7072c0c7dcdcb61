package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civitas-legal/lawsearch/internal/api"
	"github.com/civitas-legal/lawsearch/internal/api/middleware"
	"github.com/civitas-legal/lawsearch/internal/domain"
)

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.SearchHistoryEntry, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SearchHistoryEntry), args.Error(1)
}

func (m *MockHistoryService) Delete(ctx context.Context, clientID, id string) error {
	args := m.Called(ctx, clientID, id)
	return args.Error(0)
}

func (m *MockHistoryService) Clear(ctx context.Context, clientID string) (int64, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(int64), args.Error(1)
}

func withClientID(req *http.Request, clientID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ClientIDKey, clientID)
	return req.WithContext(ctx)
}

func TestHistoryList_Success(t *testing.T) {
	svc := new(MockHistoryService)
	entries := []*domain.SearchHistoryEntry{
		{ID: "h-2", Query: "parking rules", ClientID: "client-1", Timestamp: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), ResultCount: 7},
		{ID: "h-1", Query: "zoning", ClientID: "client-1", Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), ResultCount: 3},
	}
	svc.On("ListByClient", mock.Anything, "client-1", 0).Return(entries, nil)

	handler := NewHistoryHandler(svc)
	req := withClientID(httptest.NewRequest(http.MethodGet, "/api/search/history", nil), "client-1")
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result api.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	data, ok := result.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 2)

	first, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "h-2", first["id"])
	assert.Equal(t, "parking rules", first["query"])
	assert.Equal(t, float64(7), first["result_count"])
	svc.AssertExpectations(t)
}

func TestHistoryList_MissingClientID(t *testing.T) {
	svc := new(MockHistoryService)
	handler := NewHistoryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/search/history", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "client_id")
	svc.AssertNotCalled(t, "ListByClient", mock.Anything, mock.Anything, mock.Anything)
}

func TestHistoryList_RespectsLimit(t *testing.T) {
	svc := new(MockHistoryService)
	svc.On("ListByClient", mock.Anything, "client-1", 5).Return([]*domain.SearchHistoryEntry{}, nil)

	handler := NewHistoryHandler(svc)
	req := withClientID(httptest.NewRequest(http.MethodGet, "/api/search/history?limit=5", nil), "client-1")
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHistoryDelete_Success(t *testing.T) {
	svc := new(MockHistoryService)
	svc.On("Delete", mock.Anything, "client-1", "h-1").Return(nil)

	handler := NewHistoryHandler(svc)

	router := chi.NewRouter()
	router.Delete("/api/search/history/{id}", handler.Delete)

	req := withClientID(httptest.NewRequest(http.MethodDelete, "/api/search/history/h-1", nil), "client-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestHistoryDelete_NotFound(t *testing.T) {
	svc := new(MockHistoryService)
	svc.On("Delete", mock.Anything, "client-1", "missing").Return(domain.ErrHistoryEntryNotFound)

	handler := NewHistoryHandler(svc)

	router := chi.NewRouter()
	router.Delete("/api/search/history/{id}", handler.Delete)

	req := withClientID(httptest.NewRequest(http.MethodDelete, "/api/search/history/missing", nil), "client-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryClear_Success(t *testing.T) {
	svc := new(MockHistoryService)
	svc.On("Clear", mock.Anything, "client-1").Return(int64(4), nil)

	handler := NewHistoryHandler(svc)
	req := withClientID(httptest.NewRequest(http.MethodDelete, "/api/search/history", nil), "client-1")
	w := httptest.NewRecorder()

	handler.Clear(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result api.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), data["deleted"])
}

func TestHistoryClear_MissingClientID(t *testing.T) {
	svc := new(MockHistoryService)
	handler := NewHistoryHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/search/history", nil)
	w := httptest.NewRecorder()

	handler.Clear(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
