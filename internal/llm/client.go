package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

const (
	// DefaultModel is the OpenAI model used for SQL generation and intent checks
	DefaultModel = openai.GPT4o
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from text-embedding-3-small
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
)

// CompletionAPI defines the interface for chat completion calls
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, system, user string) (string, error)
}

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Client wraps the OpenAI API behind the three capabilities the search
// pipeline needs: text-to-SQL, intent classification, and embeddings.
type Client struct {
	completions CompletionAPI
	embeddings  EmbeddingAPI
	dimensions  int
}

type OpenAIAdapter struct {
	client         *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey, model string, embeddingModel openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client:         openai.NewClient(apiKey),
		model:          model,
		embeddingModel: embeddingModel,
	}
}

// CreateCompletion calls the OpenAI chat completion API
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

type Config struct {
	APIKey              string
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// NewClient creates a new LLM client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new LLM client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.Model, openai.EmbeddingModel(cfg.EmbeddingModel))
	return &Client{
		completions: adapter,
		embeddings:  adapter,
		dimensions:  dimensions,
	}
}

// TranslateToSQL asks the model to turn a natural-language query into SQL.
// The raw model output is returned untouched; repair and validation belong
// to the query translator, which never trusts this text.
func (c *Client) TranslateToSQL(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", ErrEmptyText
	}

	out, err := c.completions.CreateCompletion(ctx, schemaHint, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}

	return out, nil
}

// ClassifyIntent asks the model whether the query is a legitimate search
// request, flagged content, or something else entirely.
func (c *Client) ClassifyIntent(ctx context.Context, query string) (domain.Intent, error) {
	if query == "" {
		return "", ErrEmptyText
	}

	out, err := c.completions.CreateCompletion(ctx, intentPrompt, query)
	if err != nil {
		return "", fmt.Errorf("failed to classify intent: %w", err)
	}

	return ParseIntent(out), nil
}

// ParseIntent maps free-form model output onto an Intent. FLAGGED wins over
// SEARCH when the model emits both.
func ParseIntent(out string) domain.Intent {
	upper := strings.ToUpper(out)
	switch {
	case strings.Contains(upper, string(domain.IntentFlagged)):
		return domain.IntentFlagged
	case strings.Contains(upper, string(domain.IntentSearch)):
		return domain.IntentSearch
	default:
		return domain.IntentOther
	}
}

// CreateEmbedding generates an embedding for the given text
func (c *Client) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.embeddings.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}
	if len(embedding) != expected {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}
