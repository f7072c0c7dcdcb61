package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/civitas-legal/lawsearch/internal/api"
	"github.com/civitas-legal/lawsearch/internal/api/middleware"
	"github.com/civitas-legal/lawsearch/internal/domain"
	"github.com/civitas-legal/lawsearch/internal/search"
	"github.com/civitas-legal/lawsearch/internal/telemetry"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

type SearchService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*search.Stream, error)
}

type SearchHandler struct {
	svc    SearchService
	logger *zap.Logger
}

func NewSearchHandler(svc SearchService, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{svc: svc, logger: logger}
}

// Search runs a search and streams cumulative result snapshots as NDJSON.
// Each line is a complete SearchResponse; the last line is the final result
// set. Errors before the first snapshot map to a regular JSON error status;
// errors after it are appended as a terminal {"error": ...} line because the
// 200 header is already on the wire.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req := domain.SearchRequest{
		Query:    r.URL.Query().Get("q"),
		Page:     queryInt(r, "page", DefaultPage),
		PerPage:  queryInt(r, "per_page", DefaultPerPage),
		ClientID: middleware.GetClientID(r.Context()),
	}

	stream, err := h.svc.Search(r.Context(), req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	wroteHeader := false
	for resp := range stream.Updates() {
		if !wroteHeader {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			wroteHeader = true
		}
		if err := enc.Encode(resp); err != nil {
			h.logger.Warn("search response write failed", zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := stream.Err(); err != nil {
		if !wroteHeader {
			api.HandleError(w, err)
			return
		}
		telemetry.CaptureError(r.Context(), err)
		// Best effort: the consumer sees the run died rather than a silent
		// truncation.
		enc.Encode(map[string]string{"error": err.Error()}) //nolint:errcheck
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// queryInt parses an optional integer query parameter. Unparsable values
// come back as 0 so request validation rejects them.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
