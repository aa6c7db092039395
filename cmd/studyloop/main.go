package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/studyloop/studyloop-cli/internal/adapters/driven/ai"
	"github.com/studyloop/studyloop-cli/internal/adapters/driven/config/file"
	contentsqlite "github.com/studyloop/studyloop-cli/internal/adapters/driven/content/sqlite"
	vectorsqlite "github.com/studyloop/studyloop-cli/internal/adapters/driven/vector/sqlite"
	"github.com/studyloop/studyloop-cli/internal/adapters/driving/cli"
	"github.com/studyloop/studyloop-cli/internal/chunker"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/services"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// version is injected at build time via -ldflags.
var version = "dev"

// contentDBKey is the config key holding the platform database path.
// The STUDYLOOP_DB environment variable takes precedence.
const contentDBKey = "content.db_path"

func main() {
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dataDir := filepath.Join(home, ".studyloop")

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open config store: %w", err)
	}

	promptStore, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		return fmt.Errorf("failed to open prompt store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	vectorStore, err := vectorsqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer vectorStore.Close()

	// Providers are created without a connectivity check so that commands
	// which never touch them (version, settings) stay fast. Unconfigured
	// providers come back nil; the services report that when used.
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("embedding provider unavailable: %v", err)
	}
	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("LLM provider unavailable: %v", err)
	}

	splitter, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
		chunker.WithBoundaryTolerance(settings.Chunking.BoundaryTolerance),
	)
	if err != nil {
		return fmt.Errorf("failed to configure chunker: %w", err)
	}

	dbPath := os.Getenv("STUDYLOOP_DB")
	if dbPath == "" {
		dbPath = configStore.GetString(contentDBKey)
	}

	var contentStore driven.ContentStore
	var progressStore driven.ProgressStore
	if dbPath != "" {
		store, err := contentsqlite.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open platform database: %w", err)
		}
		defer store.Close()
		contentStore = store
		progressStore = store
	}

	retriever := services.NewRetrieverService(embedder, vectorStore.ChunkIndex(), settings.Retrieval)
	assistant := services.NewAssistantService(retriever, llm, promptStore, settings.Assistant, settings.Retrieval)

	svcs := cli.Services{
		Retriever:     retriever,
		Assistant:     assistant,
		Settings:      settingsService,
		ContentDBPath: dbPath,
	}
	if contentStore != nil {
		svcs.Ingestor = services.NewIngestService(
			contentStore, embedder, vectorStore.ChunkIndex(), vectorStore.UnitIndex(), splitter)
		recommender := services.NewRecommendService(
			contentStore, progressStore, vectorStore.UnitIndex(), settings.Recommend)
		svcs.Recommend = recommender
		svcs.Scheduler = services.NewSchedulerService(recommender, progressStore, settings.Recommend)
		svcs.Quiz = services.NewQuizService(contentStore, retriever, llm, promptStore)
	}

	cli.SetServices(svcs)
	cli.SetConfigStore(configStore)

	return cli.Execute()
}
