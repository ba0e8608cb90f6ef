package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all portal configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string
	// APIBaseURL is the root of the external REST backend, e.g. http://localhost:5000/api.
	APIBaseURL    string
	HTTPTimeout   time.Duration
	SessionDBPath string
	// CLISessionDBPath is portalctl's own token store, so the CLI and a
	// running portal never contend for the same file lock.
	CLISessionDBPath string
	// RedisURL selects the audit-log queue. Empty keeps the queue in process.
	RedisURL string
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	ExamDuration         time.Duration
	PageSize             int
	ViolationsPerWarning int
	MaxWarnings          int
	AuditQueueSize       int
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:           getEnv("SERVER_PORT", "8090"),
		GinMode:              getEnv("GIN_MODE", "debug"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "pretty"),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
		HTTPTimeout:          time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		SessionDBPath:        getEnv("SESSION_DB_PATH", "./portal-session.db"),
		CLISessionDBPath:     getEnv("PORTALCTL_SESSION_DB", "./portalctl-session.db"),
		RedisURL:             getEnv("REDIS_URL", ""),
		AllowedOrigins:       parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		ExamDuration:         time.Duration(getEnvInt("EXAM_DURATION_SECONDS", 3600)) * time.Second,
		PageSize:             getEnvInt("CANDIDATES_PAGE_SIZE", 10),
		ViolationsPerWarning: getEnvInt("VIOLATIONS_PER_WARNING", 10),
		MaxWarnings:          getEnvInt("MAX_WARNINGS", 4),
		AuditQueueSize:       getEnvInt("AUDIT_QUEUE_SIZE", 256),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
