package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const minAPIKeyLen = 10

type Config struct {
	DatabaseURL   string
	ResultsDBPath string
	LogLevel      string

	// Gemini text analysis
	GoogleAPIKey string
	GeminiModel  string

	// Batch settings
	MaxWorkers int
	BatchSize  int
	OutputPath string

	SentryDSN string
}

func LoadConfigFromEnv() Config {
	return Config{
		DatabaseURL:   getenv("DATABASE_URL", ""),
		ResultsDBPath: getenv("RESULTS_DB_PATH", "analysis_results.db"),
		LogLevel:      getenv("LOG_LEVEL", "info"),

		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"), // Required - no fallback
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-1.5-pro"),

		// MAX_WORKERS defaults low to respect the Gemini rate limit,
		// not the CPU count.
		MaxWorkers: getenvInt("MAX_WORKERS", 3),
		BatchSize:  getenvInt("BATCH_SIZE", 10),
		OutputPath: getenv("OUTPUT_PATH", "analysis_results.json"),

		SentryDSN: getenv("SENTRY_DSN", ""),
	}
}

// Validate checks the run preconditions. Any failure here is fatal to the
// whole run; no batch is attempted with invalid credentials or connection
// info.
func (c Config) Validate() error {
	if c.GoogleAPIKey == "" {
		return errors.New("GOOGLE_API_KEY is required")
	}
	if len(c.GoogleAPIKey) < minAPIKeyLen {
		return errors.New("GOOGLE_API_KEY is too short")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.ResultsDBPath == "" {
		return errors.New("RESULTS_DB_PATH is required")
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
