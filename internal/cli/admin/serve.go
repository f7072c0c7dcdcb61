// Package admin contains the lawsearchd server-side commands.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civitas-legal/lawsearch/internal/api/handlers"
	"github.com/civitas-legal/lawsearch/internal/config"
	"github.com/civitas-legal/lawsearch/internal/database"
	"github.com/civitas-legal/lawsearch/internal/embcache"
	"github.com/civitas-legal/lawsearch/internal/llm"
	"github.com/civitas-legal/lawsearch/internal/metrics"
	"github.com/civitas-legal/lawsearch/internal/repository"
	"github.com/civitas-legal/lawsearch/internal/search"
	"github.com/civitas-legal/lawsearch/internal/server"
	"github.com/civitas-legal/lawsearch/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the search API server",
		Long:  "Start the lawsearch API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	metrics.RegisterSearchMetrics()

	if !cfg.HasOpenAI() {
		return fmt.Errorf("LAWSEARCH_OPENAI_API_KEY is required")
	}
	llmClient := llm.NewClientWithConfig(llm.Config{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.OpenAIModel,
		EmbeddingModel: cfg.OpenAIEmbeddingModel,
	})

	var model search.LanguageModel = llmClient
	if cfg.HasRedis() {
		store, err := embcache.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer store.Close()
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		model = &cachedLanguageModel{
			Client:   llmClient,
			embedder: embcache.New(llmClient, store, metrics.EmbeddingCacheTotal, logger),
		}
		logger.Info("embedding cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	scorer, err := search.NewScorer(logger)
	if err != nil {
		return fmt.Errorf("failed to create scorer: %w", err)
	}
	defer scorer.Release()

	translator := search.NewTranslator(llmClient, logger)

	runStore := repository.NewSearchRunStore(pool)
	docStore := repository.NewDocumentStore(pool)
	cacheRepo := repository.NewSearchCacheRepository(pool)
	historyRepo := repository.NewSearchHistoryRepository(pool)

	orchestrator := search.NewOrchestrator(
		model,
		translator,
		runStore,
		docStore,
		cacheRepo,
		historyRepo,
		scorer,
		logger,
		search.Options{
			SimilarityThreshold: cfg.SimilarityThreshold,
			BatchSize:           cfg.ScoreBatchSize,
			TopK:                cfg.TopK,
		},
	)

	routerCfg := server.RouterConfig{
		SearchHandler:  handlers.NewSearchHandler(orchestrator, logger),
		HistoryHandler: handlers.NewHistoryHandler(historyRepo),
		Logger:         logger,
	}
	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// cachedLanguageModel routes embedding calls through the Redis-backed cache
// while intent classification stays on the live client.
type cachedLanguageModel struct {
	*llm.Client
	embedder *embcache.CachedEmbedder
}

func (m *cachedLanguageModel) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return m.embedder.CreateEmbedding(ctx, text)
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
