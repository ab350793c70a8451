package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/veleda/ansuz/internal"
	"github.com/veleda/ansuz/internal/ai"
	"github.com/veleda/ansuz/internal/chat"
	"github.com/veleda/ansuz/internal/mcpserver"
	"github.com/veleda/ansuz/internal/noteservice"
	"github.com/veleda/ansuz/internal/retrieval"
	"github.com/veleda/ansuz/internal/store"
	pkgconfig "github.com/veleda/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("mcp") {
		return runMCP(cfg)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// runMCP serves the note tools over stdio for MCP clients. Logs go to
// stderr so they never corrupt the protocol stream on stdout.
func runMCP(cfg *internal.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

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

	return mcpserver.New(noteservice.NewService(db), engine).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "Local-first note base with keyword and semantic retrieval over your own notes",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "mcp",
				Usage: "Serve MCP tools over stdio instead of starting the HTTP server",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
