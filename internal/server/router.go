package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/civitas-legal/lawsearch/internal/api"
	"github.com/civitas-legal/lawsearch/internal/api/handlers"
	"github.com/civitas-legal/lawsearch/internal/api/middleware"
	"github.com/civitas-legal/lawsearch/internal/metrics"
)

type RouterConfig struct {
	SearchHandler  *handlers.SearchHandler
	HistoryHandler *handlers.HistoryHandler
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	r.Use(metrics.Middleware())
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", cfg.SearchHandler.Search)

		r.Route("/search/history", func(r chi.Router) {
			r.Get("/", cfg.HistoryHandler.List)
			r.Delete("/", cfg.HistoryHandler.Clear)
			r.Delete("/{id}", cfg.HistoryHandler.Delete)
		})
	})

	return r
}
