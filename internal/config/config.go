package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RAGConfig
	Memory   MemoryConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	EmbeddingProvider string // "openai" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	// GenerationTimeoutSeconds bounds one synthesis call end to end.
	GenerationTimeoutSeconds int
}

type RAGConfig struct {
	TopK          int
	UseMMR        bool
	Lambda        float64
	CandidatePool int
	ChunkSize     int
}

type MemoryConfig struct {
	MaxTokensContext int
	HistoryMinTurns  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:              getEnv("LLM_PROVIDER", "openai"),
			LLMModel:                 getEnv("LLM_MODEL", "gpt-4o-mini"),
			OpenAIAPIKey:             getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:            getEnv("OPENAI_BASE_URL", ""),
			EmbeddingProvider:        getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:           getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			OllamaBaseURL:            getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:              getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GenerationTimeoutSeconds: getEnvAsInt("AI_GENERATION_TIMEOUT_SECONDS", 60),
		},
		Rag: RAGConfig{
			TopK:          getEnvAsInt("RAG_TOP_K", 3),
			UseMMR:        getEnvAsBool("RAG_USE_MMR", true),
			Lambda:        getEnvAsFloat("RAG_MMR_LAMBDA", 0.5),
			CandidatePool: getEnvAsInt("RAG_CANDIDATE_POOL", 200),
			ChunkSize:     getEnvAsInt("RAG_CHUNK_SIZE", 500),
		},
		Memory: MemoryConfig{
			MaxTokensContext: getEnvAsInt("MEMORY_MAX_TOKENS_CONTEXT", 3000),
			HistoryMinTurns:  getEnvAsInt("MEMORY_HISTORY_MIN_TURNS", 6),
		},
	}
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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
