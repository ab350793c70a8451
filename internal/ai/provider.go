// Package ai provides text-completion and embedding providers plus a
// lazily initialized service wrapper around the configured provider.
package ai

import (
	"context"
	"errors"
)

// ErrAPIKeyNotSet indicates the configured credential environment
// variable is empty.
var ErrAPIKeyNotSet = errors.New("ai: API key not set")

// CompletionOptions shape a single completion request.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// Provider is a completion plus embedding backend. Embed returns a nil
// vector with a nil error for empty or unembeddable text; that is a
// defined outcome, not a failure.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}
