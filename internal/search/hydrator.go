package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

// MissingContentPlaceholder is returned in place of HTML when no content row
// exists for a citation. A missing document never aborts a batch.
const MissingContentPlaceholder = "Content not available"

// ContentSource fetches the HTML content for a document. A missing document
// is reported as ("", nil), not as an error.
type ContentSource interface {
	HTML(ctx context.Context, cid string) (string, error)
}

// Hydrator attaches HTML content to ranked candidates and deduplicates by
// content. One hydrator serves exactly one search run: its content-seen set
// must never be shared across runs.
type Hydrator struct {
	content  ContentSource
	logger   *zap.Logger
	htmlSeen map[string]struct{}
}

func NewHydrator(content ContentSource, logger *zap.Logger) *Hydrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hydrator{
		content:  content,
		logger:   logger,
		htmlSeen: make(map[string]struct{}),
	}
}

// Hydrate fetches HTML for each ranked candidate, in rank order. Candidates
// whose HTML is byte-identical to HTML already emitted in this run are
// skipped; duplicate source documents are a normal merge, not an error. A
// failed content read degrades to the missing-content placeholder.
func (h *Hydrator) Hydrate(ctx context.Context, ranked []domain.ScoredCandidate, rows map[string]domain.CandidateRow) []domain.HydratedResult {
	out := make([]domain.HydratedResult, 0, len(ranked))
	for _, candidate := range ranked {
		if ctx.Err() != nil {
			break
		}

		row, ok := rows[candidate.CID]
		if !ok {
			continue
		}

		html, err := h.content.HTML(ctx, candidate.CID)
		if err != nil {
			h.logger.Warn("html lookup failed",
				zap.String("cid", candidate.CID),
				zap.Error(err))
			html = ""
		}
		if html == "" {
			html = MissingContentPlaceholder
		}

		if _, seen := h.htmlSeen[html]; seen {
			continue
		}
		h.htmlSeen[html] = struct{}{}

		out = append(out, domain.HydratedResult{CandidateRow: row, HTML: html})
	}
	return out
}
