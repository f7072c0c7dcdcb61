package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel          string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// Optional Redis-backed cache for query embeddings.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	// Search pipeline tuning.
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.4"`
	ScoreBatchSize      int     `envconfig:"SCORE_BATCH_SIZE" default:"1000"`
	TopK                int     `envconfig:"TOP_K" default:"100"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LAWSEARCH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}
