package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State describes the service's initialization lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ServiceConfig selects and configures the provider.
type ServiceConfig struct {
	Provider           string // "local" or "openai"
	APIKeyEnv          string
	BaseURL            string
	ChatModel          string
	EmbeddingModel     string
	EmbeddingDimension int
	Timeout            time.Duration
}

// Service wraps the configured provider behind lazy once-only
// initialization. Concurrent first calls collapse onto a single
// in-flight construction; a failed construction is retried on the next
// call rather than cached forever.
type Service struct {
	cfg ServiceConfig
	log *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	state    State
	provider Provider
	lastErr  error
}

// NewService returns an uninitialized service. The provider is built on
// first use.
func NewService(cfg ServiceConfig, log *slog.Logger) *Service {
	return &Service{cfg: cfg, log: log}
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init builds the provider if it is not ready yet. Safe for concurrent
// use; all callers share one construction attempt.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateReady {
		s.mu.Unlock()
		return nil
	}
	s.state = StateInitializing
	s.mu.Unlock()

	_, err, _ := s.group.Do("init", func() (any, error) {
		provider, err := s.buildProvider()

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.state = StateFailed
			s.lastErr = err
			return nil, err
		}
		s.state = StateReady
		s.provider = provider
		s.lastErr = nil
		s.log.Info("ai provider ready",
			slog.String("provider", s.cfg.Provider),
			slog.String("chat_model", s.cfg.ChatModel))
		return nil, nil
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Service) buildProvider() (Provider, error) {
	switch s.cfg.Provider {
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:             os.Getenv(s.cfg.APIKeyEnv),
			BaseURL:            s.cfg.BaseURL,
			ChatModel:          s.cfg.ChatModel,
			EmbeddingModel:     s.cfg.EmbeddingModel,
			EmbeddingDimension: s.cfg.EmbeddingDimension,
		})
	case "local", "":
		return NewLocalProvider(LocalConfig{
			BaseURL:        s.cfg.BaseURL,
			ChatModel:      s.cfg.ChatModel,
			EmbeddingModel: s.cfg.EmbeddingModel,
			Timeout:        s.cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", s.cfg.Provider)
	}
}

func (s *Service) ready(ctx context.Context) (Provider, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider, nil
}

// Complete proxies to the provider, initializing it first if needed.
func (s *Service) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	p, err := s.ready(ctx)
	if err != nil {
		return "", err
	}
	return p.Complete(ctx, prompt, opts)
}

// Embed proxies to the provider, initializing it first if needed.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	p, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	return p.Embed(ctx, text)
}
