// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cyberlaw-backend/classifier"
	"cyberlaw-backend/llm"
	"cyberlaw-backend/report"
	"cyberlaw-backend/storage"

	"github.com/joho/godotenv"
)

// DataSource selects where the law reference table is read from
type DataSource string

const (
	DataSourceCSV      DataSource = "csv"
	DataSourcePostgres DataSource = "postgres"
)

const (
	DefaultPort     = "8080"
	DefaultDataFile = "data/Full_Indian_Cyber_Laws.csv"
)

// Config holds all runtime settings
type Config struct {
	Port    string
	GinMode string

	DataSource  DataSource
	DataFile    string
	DatabaseURL string

	Storage   storage.StorageConfig
	ModelKey  string
	ReportKey string

	ModelMaxIterations int

	LLM               llm.Config
	EnrichmentTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads .env from the working directory, falling back to the
// repository root when run from cmd/<name>. A missing file is not an error
// for the caller to act on; it only means the process environment is used.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			return fmt.Errorf("no .env file found: %w", err)
		}
	}
	return nil
}

// Load reads .env (if present) and then the environment
func Load() (*Config, error) {
	_ = LoadDotEnv()
	return FromEnv()
}

// FromEnv builds a Config from the current process environment
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", DefaultPort),
		GinMode:     os.Getenv("GIN_MODE"),
		DataFile:    getEnv("DATA_FILE", DefaultDataFile),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ModelKey:    getEnv("MODEL_KEY", classifier.DefaultModelKey),
		ReportKey:   getEnv("REPORT_KEY", report.DefaultReportKey),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}

	switch ds := DataSource(strings.ToLower(getEnv("DATA_SOURCE", string(DataSourceCSV)))); ds {
	case DataSourceCSV, DataSourcePostgres:
		cfg.DataSource = ds
	default:
		return nil, fmt.Errorf("unknown data source: %s", ds)
	}
	if cfg.DataSource == DataSourcePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
	}

	storageType := storage.StorageType(strings.ToLower(getEnv("STORAGE_TYPE", string(storage.StorageTypeLocal))))
	if storageType != storage.StorageTypeLocal && storageType != storage.StorageTypeS3 {
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
	cfg.Storage = storage.StorageConfig{
		Type:         storageType,
		LocalPath:    getEnv("STORAGE_LOCAL_PATH", "."),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
		S3Region:     getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

	maxIter, err := getInt("MODEL_MAX_ITER", classifier.DefaultMaxIterations)
	if err != nil {
		return nil, err
	}
	if maxIter <= 0 {
		return nil, fmt.Errorf("MODEL_MAX_ITER must be positive, got %d", maxIter)
	}
	cfg.ModelMaxIterations = maxIter

	provider, err := llm.ParseProvider(os.Getenv("ENRICHMENT_PROVIDER"))
	if err != nil {
		return nil, err
	}
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GENAI_API_KEY")
	}
	cfg.LLM = llm.Config{
		Provider:        provider,
		GeminiAPIKey:    geminiKey,
		GeminiModel:     getEnv("GEMINI_MODEL", llm.DefaultGeminiModel),
		OllamaHost:      os.Getenv("OLLAMA_HOST"),
		OllamaModel:     getEnv("OLLAMA_MODEL", llm.DefaultOllamaModel),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", llm.DefaultAnthropicModel),
	}

	if raw := os.Getenv("ENRICHMENT_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ENRICHMENT_TIMEOUT %q: %w", raw, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("ENRICHMENT_TIMEOUT must not be negative, got %s", d)
		}
		cfg.EnrichmentTimeout = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
