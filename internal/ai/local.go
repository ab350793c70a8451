package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const localMaxRetries = 5

// LocalConfig configures the local provider. BaseURL points at an
// OpenAI-compatible server such as Ollama or llama.cpp.
type LocalConfig struct {
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// LocalProvider speaks the OpenAI-compatible HTTP protocol against a
// locally running model server. No credential is required.
type LocalProvider struct {
	cfg    LocalConfig
	client *http.Client
}

// NewLocalProvider builds the local provider.
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &LocalProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete generates text via the server's chat completions endpoint.
func (p *LocalProvider) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	body := map[string]any{
		"model": p.cfg.ChatModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		body["max_tokens"] = opts.MaxTokens
	}

	payload, err := p.post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("ai: decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("ai: no completion choices returned")
	}
	return out.Choices[0].Message.Content, nil
}

// Embed generates a vector via the server's embeddings endpoint. Both
// the OpenAI response shape and the Ollama-native shape are accepted.
// Blank text yields (nil, nil).
func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	// Some servers read "input", Ollama-native reads "prompt". Send both.
	body := map[string]any{
		"model":  p.cfg.EmbeddingModel,
		"input":  text,
		"prompt": text,
	}

	payload, err := p.post(ctx, "/embeddings", body)
	if err != nil {
		return nil, err
	}

	var openaiOut struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil && len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
		return openaiOut.Data[0].Embedding, nil
	}

	var ollamaOut struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, nil
	}
	return nil, fmt.Errorf("ai: no embedding returned")
}

func (p *LocalProvider) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ai: marshal request: %w", err)
	}
	url := strings.TrimRight(p.cfg.BaseURL, "/") + path

	var lastErr error
	for attempt := 0; attempt <= localMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("ai: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					resp.Body.Close()
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(time.Duration(secs) * time.Second):
					}
					lastErr = fmt.Errorf("ai: %s: %s", path, resp.Status)
					continue
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("ai: %s: %s", path, resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("ai: %s: %s", path, resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return payload, nil
	}
	return nil, fmt.Errorf("ai: retries exhausted: %w", lastErr)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
