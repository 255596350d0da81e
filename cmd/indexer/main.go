// Command indexer runs C3: on a poll interval, embed and bulk-upsert
// articles updated since the persisted watermark into the search engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"

	"newsfeed/internal/infra/adapter/persistence/postgres"
	"newsfeed/internal/infra/adapter/search/typesense"
	"newsfeed/internal/infra/db"
	"newsfeed/internal/infra/embedder"
	"newsfeed/internal/infra/healthserver"
	"newsfeed/internal/infra/watermark"
	"newsfeed/internal/observability/logging"
	"newsfeed/internal/usecase/index"
	"newsfeed/pkg/config"
)

func main() {
	logger := initLogger()

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	articles := postgres.NewArticleRepo(database)
	embeddings := postgres.NewArticleEmbeddingRepo(database)

	engine := typesense.New(typesenseConfigFromEnv())
	emb, provider, model := createEmbedder(logger)
	wmPath := config.GetEnvString("WATERMARK_FILE", "indexer-watermark")
	wm := watermark.NewStore(wmPath)

	svc := index.NewService(articles, engine, emb, wm, index.Config{
		PollInterval:      config.GetEnvDuration("INDEXER_INTERVAL", 60*time.Second),
		EmbeddingProvider: provider,
		EmbeddingModel:    model,
	})
	svc.Embeddings = embeddings

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthAddr := fmt.Sprintf(":%d", config.GetEnvInt("HEALTH_PORT", 9093))
	health := healthserver.New(healthAddr, logger)
	go func() {
		if err := health.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server stopped", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	runErr := make(chan error, 1)
	go func() {
		health.SetReady(true)
		logger.Info("indexer started", slog.Duration("poll_interval", svc.Config.PollInterval))
		runErr <- svc.Run(ctx)
	}()

	select {
	case <-quit:
		logger.Info("shutting down indexer")
		cancel()
	case err := <-runErr:
		if err != nil && err != context.Canceled {
			logger.Error("indexer stopped", slog.Any("error", err))
		}
	}
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

func typesenseConfigFromEnv() typesense.Config {
	return typesense.Config{
		Host:           config.GetEnvString("TYPESENSE_HOST", "localhost"),
		Port:           config.GetEnvInt("TYPESENSE_PORT", 8108),
		Protocol:       config.GetEnvString("TYPESENSE_PROTOCOL", "http"),
		APIKey:         config.GetEnvString("TYPESENSE_API_KEY", ""),
		ConnectTimeout: config.GetEnvDuration("TYPESENSE_CONNECT_TIMEOUT", 2*time.Second),
	}
}

// createEmbedder builds an Embedder based on the EMBEDDER_TYPE environment
// variable, matching cmd/worker's createSummarizer fatal-on-missing-key
// pattern for the "openai" case. The returned provider/model strings tag
// every row the indexer mirrors into the article_embeddings side-table.
func createEmbedder(logger *slog.Logger) (emb index.Embedder, provider string, model string) {
	embedderType := os.Getenv("EMBEDDER_TYPE")
	if embedderType == "" {
		embedderType = "hash"
	}

	switch embedderType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Error("OPENAI_API_KEY is required when EMBEDDER_TYPE=openai")
			os.Exit(1)
		}
		modelName := openai.EmbeddingModel(config.GetEnvString("OPENAI_EMBEDDING_MODEL", string(openai.SmallEmbedding3)))
		logger.Info("using OpenAI for embeddings", slog.String("model", string(modelName)))
		return embedder.NewOpenAIEmbedder(apiKey, modelName), "openai", string(modelName)
	case "hash":
		logger.Info("using hash embedder", slog.String("type", "hash"))
		return embedder.NewHashEmbedder(), "hash", "hash-v1"
	default:
		logger.Error("unknown EMBEDDER_TYPE", slog.String("type", embedderType))
		os.Exit(1)
		return nil, "", ""
	}
}
