package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Assistant AssistantConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port                 string
	Environment          string
	LogFilePath          string
	SessionLogFilePath   string
	CorsAllowedOrigins   string
	NatsURL              string
	RedisURL             string
	JwtSecret            string
	ProfileSnapshotTopic string
}

type DatabaseConfig struct {
	// Empty means in-memory repositories seeded with the built-in library.
	Connection string
}

type AIConfig struct {
	LLMProvider   string // "ollama" or "openai"
	LLMModel      string
	OllamaBaseURL string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

type AssistantConfig struct {
	WakeWord       string
	CallTimeout    time.Duration
	ContextWindow  int
	MatchTopK      int
	FallbackMode   string // "best" or "similar"
	SessionTimeout time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:                 getEnv("APP_PORT", "3000"),
			Environment:          getEnv("GO_ENV", "development"),
			LogFilePath:          getEnv("LOG_FILE_PATH", "logs/app.log"),
			SessionLogFilePath:   getEnv("SESSION_LOG_FILE_PATH", "logs/session.log"),
			CorsAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:              getEnv("NATS_URL", ""),
			RedisURL:             getEnv("REDIS_URL", ""),
			JwtSecret:            getEnv("JWT_SECRET", ""),
			ProfileSnapshotTopic: getEnv("PROFILE_SNAPSHOT_TOPIC", "PROFILE_SNAPSHOT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "qwen2.5"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
		Assistant: AssistantConfig{
			WakeWord:       getEnv("ASSISTANT_WAKE_WORD", "小美"),
			CallTimeout:    getEnvAsDuration("ASSISTANT_CALL_TIMEOUT", 60*time.Second),
			ContextWindow:  getEnvAsInt("CONTEXT_WINDOW", 5),
			MatchTopK:      getEnvAsInt("MATCH_TOP_K", 3),
			FallbackMode:   getEnv("MATCH_FALLBACK_MODE", "similar"),
			SessionTimeout: getEnvAsDuration("SESSION_TIMEOUT", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "care-advisor-backend"),
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

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
