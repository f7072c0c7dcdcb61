package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/civitas-legal/lawsearch/internal/api"
	"github.com/civitas-legal/lawsearch/internal/api/middleware"
	"github.com/civitas-legal/lawsearch/internal/domain"
)

type HistoryService interface {
	ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.SearchHistoryEntry, error)
	Delete(ctx context.Context, clientID, id string) error
	Clear(ctx context.Context, clientID string) (int64, error)
}

type HistoryHandler struct {
	svc HistoryService
}

func NewHistoryHandler(svc HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

type HistoryEntryResponse struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	Timestamp   string `json:"searched_at"`
	ResultCount int    `json:"result_count"`
}

type ClearHistoryResponse struct {
	Deleted int64 `json:"deleted"`
}

func historyEntryToResponse(e *domain.SearchHistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:          e.ID,
		Query:       e.Query,
		Timestamp:   e.Timestamp.Format("2006-01-02T15:04:05Z"),
		ResultCount: e.ResultCount,
	}
}

// List returns the client's most recent searches, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		api.HandleError(w, domain.ErrMissingClientID)
		return
	}

	limit := queryInt(r, "limit", 0)
	entries, err := h.svc.ListByClient(r.Context(), clientID, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, historyEntryToResponse(e))
	}
	api.Success(w, http.StatusOK, resp)
}

// Delete removes one history entry owned by the client.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		api.HandleError(w, domain.ErrMissingClientID)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), clientID, id); err != nil {
		api.HandleError(w, err)
		return
	}
	api.JSON(w, http.StatusNoContent, nil)
}

// Clear removes the client's entire history.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		api.HandleError(w, domain.ErrMissingClientID)
		return
	}

	deleted, err := h.svc.Clear(r.Context(), clientID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, ClearHistoryResponse{Deleted: deleted})
}
