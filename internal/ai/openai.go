package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	openAIMaxRetries  = 3
	openAIBaseBackoff = 2 * time.Second
	openAIMaxBackoff  = 32 * time.Second
)

// OpenAIConfig configures the hosted provider.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	EmbeddingModel     string
	EmbeddingDimension int
}

// OpenAIProvider talks to the hosted OpenAI API (or any endpoint that
// speaks its protocol).
type OpenAIProvider struct {
	client openai.Client
	cfg    OpenAIConfig
}

// NewOpenAIProvider builds the hosted provider. The API key is required.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(reqOpts...), cfg: cfg}, nil
}

// Complete generates text for the prompt, retrying rate-limit errors
// with exponential backoff.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.cfg.ChatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	var lastErr error
	for attempt := 0; attempt <= openAIMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * openAIBaseBackoff
			if backoff > openAIMaxBackoff {
				backoff = openAIMaxBackoff
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		completion, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err
			if isRateLimited(err) {
				continue
			}
			return "", fmt.Errorf("ai: completion request: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("ai: no completion choices returned")
		}
		return completion.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("ai: completion retries exhausted: %w", lastErr)
}

// Embed generates a vector for text. Blank text yields (nil, nil).
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.cfg.EmbeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if p.cfg.EmbeddingDimension > 0 {
		params.Dimensions = openai.Int(int64(p.cfg.EmbeddingDimension))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("ai: embedding request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("ai: no embedding returned")
	}
	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
