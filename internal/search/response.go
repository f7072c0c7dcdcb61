package search

import (
	"github.com/civitas-legal/lawsearch/internal/domain"
)

// TotalPages computes pagination metadata: ceil(total / perPage), with zero
// results yielding zero pages.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// BuildResponse assembles the wire response for one emission. The results
// slice is copied so later batches never mutate an already-emitted snapshot.
func BuildResponse(results []domain.HydratedResult, total int, req domain.SearchRequest) domain.SearchResponse {
	items := make([]domain.ResultItem, len(results))
	for i, r := range results {
		items[i] = domain.ResultItem{
			CID:              r.CID,
			BluebookCID:      r.BluebookCID,
			Title:            r.Title,
			Chapter:          r.Chapter,
			PlaceName:        r.PlaceName,
			StateName:        r.StateName,
			BluebookCitation: r.BluebookCitation,
			HTML:             r.HTML,
		}
	}

	return domain.SearchResponse{
		Results:    items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: TotalPages(total, req.PerPage),
	}
}
