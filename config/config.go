// Package config provides configuration for the tutor server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Storage
	StoreBackend string
	DatabaseURL  string

	// Upstream completion provider
	OpenAIBaseURL string
	OpenAIAPIKey  string
	Model         string
	Temperature   float64
	MaxTokens     int
	LLMTimeout    time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:      getEnvInt("HTTP_PORT", 8080),
		StoreBackend:  getEnv("STORE_BACKEND", BackendMemory),
		DatabaseURL:   getEnv("DATABASE_URL", "file:tutor.db?cache=shared&mode=rwc"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		Model:         getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
		Temperature:   getEnvFloat("OPENAI_TEMPERATURE", 0.7),
		MaxTokens:     getEnvInt("OPENAI_MAX_TOKENS", 500),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
