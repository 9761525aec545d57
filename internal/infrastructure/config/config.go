package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	DBPath          string

	// LLM question generation
	AnthropicURL   string // Messages API endpoint, e.g. "https://api.anthropic.com"
	AnthropicKey   string // optional; can also be set at runtime via the API
	AnthropicModel string

	// ExamDate drives the dashboard countdown. Zero when unset.
	ExamDate time.Time
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		ServerAddress:   mustGetenv("SERVER_ADDRESS"),
		ShutdownTimeout: mustGetDuration("SHUTDOWN_TIMEOUT"),
		DBPath:          getenvDefault("DB_PATH", "psat.db"),
		AnthropicURL:    getenvDefault("ANTHROPIC_API_URL", "https://api.anthropic.com"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getenvDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		ExamDate:        getenvDate("EXAM_DATE"),
	}
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func mustGetDuration(k string) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvDate(k string) time.Time {
	v := os.Getenv(k)
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid date (want YYYY-MM-DD): %v", k, v, err)
	}
	return t
}
