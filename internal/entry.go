// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/veleda/ansuz/internal/ai"
	"github.com/veleda/ansuz/internal/api"
	"github.com/veleda/ansuz/internal/chat"
	"github.com/veleda/ansuz/internal/importer"
	"github.com/veleda/ansuz/internal/noteservice"
	"github.com/veleda/ansuz/internal/retrieval"
	"github.com/veleda/ansuz/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("ai_provider", cfg.AI.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize SQLite store.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// AI backend and retriever. The semantic retriever falls back to
	// keyword search until the provider is reachable; keyword search is
	// the default because it never needs a model.
	aiSvc := ai.NewService(ai.ServiceConfig{
		Provider:           cfg.AI.Provider,
		APIKeyEnv:          cfg.AI.APIKeyEnv,
		BaseURL:            cfg.AI.BaseURL,
		ChatModel:          cfg.AI.ChatModel,
		EmbeddingModel:     cfg.AI.EmbeddingModel,
		EmbeddingDimension: cfg.AI.EmbeddingDimension,
	}, logger)

	var retriever retrieval.Retriever = retrieval.NewKeywordRetriever(db)
	if cfg.AI.Semantic {
		retriever = retrieval.NewSemanticRetriever(db, aiSvc)
	}

	engine := chat.NewEngine(db, retriever, aiSvc, chat.Config{
		MaxContextNotes: cfg.AI.MaxContextNotes,
		MaxTokens:       cfg.AI.MaxTokens,
		Temperature:     cfg.AI.Temperature,
	}, logger)

	// Build API service and router.
	svc := noteservice.NewService(db)
	apiRouter := api.NewRouter(svc, engine, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Markdown importer, when configured.
	if cfg.Import.Enabled() {
		im := importer.New(db, cfg.Import.Path, logger)
		if err := im.Sync(); err != nil {
			logger.Warn("initial import failed", slog.String("error", err.Error()))
		}
		if cfg.Import.Watch {
			g.Go(func() error {
				return im.Watch(gCtx, cfg.Import.Debounce)
			})
		}
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
