package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-orchestrator-be/internal/config"
	"rag-orchestrator-be/internal/controller"
	"rag-orchestrator-be/internal/pkg/logger"
	"rag-orchestrator-be/internal/service"
	"rag-orchestrator-be/pkg/embedding"
	"rag-orchestrator-be/pkg/llm"
	"rag-orchestrator-be/pkg/llm/guarded"
	"rag-orchestrator-be/pkg/llm/kserve"
	"rag-orchestrator-be/pkg/rag/retriever"
	"rag-orchestrator-be/pkg/session"
	"rag-orchestrator-be/pkg/vectorindex/qdrant"
)

// Container holds every process-wide singleton. Clients are constructed once
// here and injected; request handlers never build their own.
type Container struct {
	ChatController controller.IChatController
	Logger         logger.ILogger
	Sessions       session.Store
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Embedding provider
	var embeddingProvider embedding.Provider
	if cfg.Embedding.Provider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(
			cfg.Embedding.OpenAIBaseURL,
			cfg.Embedding.OpenAIAPIKey,
			cfg.Embedding.Model,
		)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Embedding.Model)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Embedding.OllamaBaseURL,
			cfg.Embedding.Model,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Embedding.Model)
	}

	// 3. Retriever (absent without a vector index URL; the orchestrator then
	// answers without context)
	var ret service.Retriever
	if cfg.Retrieval.QdrantURL != "" {
		indexClient := qdrant.NewClient(qdrant.Config{
			URL:        cfg.Retrieval.QdrantURL,
			Collection: cfg.Retrieval.Collection,
		})
		ret = retriever.New(embeddingProvider, indexClient, retriever.Config{
			TopK:             cfg.Retrieval.TopK,
			ScoreThreshold:   cfg.Retrieval.ScoreThreshold,
			MaxContextTokens: cfg.Retrieval.MaxContextTokens,
			Deduplicate:      cfg.Retrieval.Deduplicate,
		})
		log.Printf("[INFO] Vector index: %s (collection %s)", cfg.Retrieval.QdrantURL, cfg.Retrieval.Collection)
	} else {
		log.Printf("[WARN] QDRANT_URL not set, retrieval disabled")
	}

	// 4. Generation client; nil means the orchestrator uses its fallback path
	var generator llm.Generator
	if cfg.Generation.Enabled && cfg.Generation.BaseURL != "" {
		generator = kserve.NewClient(kserve.Config{
			BaseURL:         cfg.Generation.BaseURL,
			CompletionsPath: cfg.Generation.CompletionsPath,
			ModelID:         cfg.Generation.ModelID,
			APIKey:          cfg.Generation.APIKey,
			Timeout:         time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
			Retries:         cfg.Generation.Retries,
			Backoff:         time.Duration(cfg.Generation.RetryBackoffSecs) * time.Second,
		})
		if cfg.Generation.GuardrailsEnabled {
			generator = guarded.New(generator, sysLogger)
			log.Printf("[INFO] Generation: %s via guardrails (%s)", cfg.Generation.ModelID, cfg.Generation.BaseURL)
		} else {
			log.Printf("[INFO] Generation: %s (%s)", cfg.Generation.ModelID, cfg.Generation.BaseURL)
		}
	} else {
		log.Printf("[WARN] Generation backend not configured, fallback answers only")
	}

	// 5. Session store: Redis when configured and reachable, otherwise the
	// volatile in-memory store. Decided once at startup so requests never
	// fail on session persistence.
	sessions := newSessionStore(cfg, sysLogger)

	// 6. Orchestrator + controller
	orchestrator := service.NewOrchestratorService(ret, generator, sessions, service.GenerationParams{
		ModelID:     cfg.Generation.ModelID,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Collection:  cfg.Retrieval.Collection,
		TopK:        cfg.Retrieval.TopK,
	}, sysLogger)

	return &Container{
		ChatController: controller.NewChatController(orchestrator),
		Logger:         sysLogger,
		Sessions:       sessions,
	}
}

func newSessionStore(cfg *config.Config, sysLogger logger.ILogger) session.Store {
	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second

	if cfg.Session.RedisHost == "" {
		log.Printf("[WARN] REDIS_HOST not set, session history is in-memory only")
		return session.NewMemoryStore(ttl)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", cfg.Session.RedisHost, cfg.Session.RedisPort),
		DB:   cfg.Session.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v, session history is in-memory only", err)
		return session.NewMemoryStore(ttl)
	}

	log.Printf("[INFO] Session store: redis %s:%d (ttl %s)", cfg.Session.RedisHost, cfg.Session.RedisPort, ttl)
	return session.NewRedisStore(rdb, ttl, sysLogger)
}
