package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Embedding  EmbeddingConfig
	Retrieval  RetrievalConfig
	Generation GenerationConfig
	Session    SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type EmbeddingConfig struct {
	Provider      string // "ollama" or "openai"
	OllamaBaseURL string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	Model         string
}

type RetrievalConfig struct {
	QdrantURL        string
	Collection       string
	TopK             int
	ScoreThreshold   float64
	MaxContextTokens int
	Deduplicate      bool
}

type GenerationConfig struct {
	Enabled           bool
	BaseURL           string
	CompletionsPath   string
	ModelID           string
	APIKey            string
	TimeoutSeconds    int
	Retries           int
	RetryBackoffSecs  int
	MaxTokens         int
	Temperature       float64
	GuardrailsEnabled bool
}

type SessionConfig struct {
	RedisHost  string
	RedisPort  int
	RedisDB    int
	TTLSeconds int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/rag-orchestrator.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Embedding: EmbeddingConfig{
			Provider:      getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:         getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Retrieval: RetrievalConfig{
			QdrantURL:        getEnv("QDRANT_URL", ""),
			Collection:       getEnv("QDRANT_COLLECTION", "medical_docs"),
			TopK:             getEnvAsInt("RAG_TOP_K", 4),
			ScoreThreshold:   getEnvAsFloat("RAG_MIN_SCORE", 0.25),
			MaxContextTokens: getEnvAsInt("RAG_MAX_CONTEXT_TOKENS", 2048),
			Deduplicate:      getEnvAsBool("RAG_DEDUPLICATE", true),
		},
		Generation: GenerationConfig{
			Enabled:           getEnvAsBool("KSERVE_ENABLED", false),
			BaseURL:           strings.TrimRight(getEnv("KSERVE_BASE_URL", ""), "/"),
			CompletionsPath:   getEnv("KSERVE_COMPLETIONS_PATH", "/v1/completions"),
			ModelID:           getEnv("LLM_MODEL_ID", ""),
			APIKey:            getEnv("LLM_API_KEY", ""),
			TimeoutSeconds:    getEnvAsInt("LLM_TIMEOUT_S", 300),
			Retries:           getEnvAsInt("LLM_RETRIES", 3),
			RetryBackoffSecs:  getEnvAsInt("LLM_RETRY_BACKOFF_S", 3),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 512),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			GuardrailsEnabled: getEnvAsBool("GUARDRAILS_ENABLED", false),
		},
		Session: SessionConfig{
			RedisHost:  getEnv("REDIS_HOST", ""),
			RedisPort:  getEnvAsInt("REDIS_PORT", 6379),
			RedisDB:    getEnvAsInt("REDIS_DB", 0),
			TTLSeconds: getEnvAsInt("REDIS_TTL_SECONDS", 86400),
		},
	}
}

// Validate catches deployment misconfiguration that must stop the service at
// startup instead of being swallowed per-request.
func (c *Config) Validate() error {
	if c.Generation.Enabled && c.Generation.BaseURL != "" && c.Generation.ModelID == "" {
		return fmt.Errorf("LLM_MODEL_ID is required when KSERVE_ENABLED=true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	switch strValue {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return fallback
}
