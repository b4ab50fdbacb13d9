package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Pipeline   PipelineConfig
	Encryption EncryptionConfig
	SMTP       SMTPConfig
	Alert      AlertConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	NatsAuditSubject   string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string
	GeminiAPIKey      string
	HuggingFaceAPIKey string
}

// PipelineConfig holds the tunables of the query pipeline. All of them are
// validated at startup; a bad value stops the process instead of silently
// degrading retrieval quality.
type PipelineConfig struct {
	SimilarityThreshold float64       // records below this score are discarded
	ContextBudgetChars  int           // assembled context size cap
	DefaultRetrieveK    int           // used when the request omits retrieve_k
	EmbedTimeout        time.Duration // per-call timeout for the embedding client
	SearchTimeout       time.Duration // per-call timeout for the vector search
	LLMTimeout          time.Duration // per-call timeout for the LLM provider
	RetryMaxAttempts    int           // bounded retry for retrieval / LLM rate limits
	RetryBaseDelay      time.Duration
}

type EncryptionConfig struct {
	Provider string // "aesgcm" or "xchacha"
	KeyHex   string // 32-byte key, hex encoded
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	AlertTo    string
}

type AlertConfig struct {
	DedupWindow time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			NatsAuditSubject:   getEnv("NATS_AUDIT_SUBJECT", "audit.query"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Pipeline: PipelineConfig{
			SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.35),
			ContextBudgetChars:  getEnvAsInt("CONTEXT_BUDGET_CHARS", 6000),
			DefaultRetrieveK:    getEnvAsInt("DEFAULT_RETRIEVE_K", 5),
			EmbedTimeout:        getEnvAsDuration("EMBED_TIMEOUT", 10*time.Second),
			SearchTimeout:       getEnvAsDuration("SEARCH_TIMEOUT", 5*time.Second),
			LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			RetryMaxAttempts:    getEnvAsInt("RETRY_MAX_ATTEMPTS", 2),
			RetryBaseDelay:      getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
		},
		Encryption: EncryptionConfig{
			Provider: getEnv("ENCRYPTION_PROVIDER", "aesgcm"),
			KeyHex:   getEnv("ENCRYPTION_KEY_HEX", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "ClinicalAssist"),
			AlertTo:    getEnv("ALERT_EMAIL_TO", ""),
		},
		Alert: AlertConfig{
			DedupWindow: getEnvAsDuration("ALERT_DEDUP_WINDOW", 5*time.Minute),
		},
	}
}

// Validate rejects tunables that would make the pipeline unsafe or useless.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1], got %f", p.SimilarityThreshold)
	}
	if p.ContextBudgetChars <= 0 {
		return fmt.Errorf("CONTEXT_BUDGET_CHARS must be > 0, got %d", p.ContextBudgetChars)
	}
	if p.DefaultRetrieveK < 1 || p.DefaultRetrieveK > 20 {
		return fmt.Errorf("DEFAULT_RETRIEVE_K must be in [1,20], got %d", p.DefaultRetrieveK)
	}
	if p.EmbedTimeout <= 0 || p.SearchTimeout <= 0 || p.LLMTimeout <= 0 {
		return fmt.Errorf("pipeline timeouts must be positive")
	}
	if p.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1, got %d", p.RetryMaxAttempts)
	}
	if c.Encryption.Provider != "aesgcm" && c.Encryption.Provider != "xchacha" {
		return fmt.Errorf("ENCRYPTION_PROVIDER must be aesgcm or xchacha, got %q", c.Encryption.Provider)
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
