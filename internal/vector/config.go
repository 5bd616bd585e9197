// File path: internal/vector/config.go
package vector

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the ChromaDB connection settings. Everything comes from the
// CHROMADB_* environment (the rest of the process is configured the same
// way); unset fields fall back to a local default instance.
type Config struct {
	Host       string
	Port       string
	Scheme     string
	Collection string
	APIKey     string
	Timeout    time.Duration
}

// BaseURL renders the API root for the configured instance.
func (c Config) BaseURL() string {
	return fmt.Sprintf("%s://%s:%s/api/v1", c.Scheme, c.Host, c.Port)
}

// LoadConfig reads the CHROMADB_* environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{
		Host:       envOr("CHROMADB_HOST", "localhost"),
		Port:       envOr("CHROMADB_PORT", "8000"),
		Scheme:     envOr("CHROMADB_SCHEME", "http"),
		Collection: envOr("CHROMADB_COLLECTION", "waterlens_docs"),
		APIKey:     strings.TrimSpace(os.Getenv("CHROMADB_API_KEY")),
		Timeout:    10 * time.Second,
	}
	if raw := strings.TrimSpace(os.Getenv("CHROMADB_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse CHROMADB_TIMEOUT: %w", err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("CHROMADB_TIMEOUT must be positive, got %s", raw)
		}
		cfg.Timeout = parsed
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
