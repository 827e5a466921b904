// Package config loads promptpad configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects the key/value store holding application state.
type StoreBackend string

const (
	StoreSQLite    StoreBackend = "sqlite"
	StoreRedis     StoreBackend = "redis"
	StoreSurrealDB StoreBackend = "surrealdb"
	StoreMemory    StoreBackend = "memory"
)

// Provider selects how completion requests are sent.
type Provider string

const (
	// ProviderHTTP posts OpenAI-compatible chat requests directly to Endpoint.
	ProviderHTTP Provider = "http"

	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// DefaultEndpoint is the chat completions endpoint used by the http provider.
const DefaultEndpoint = "https://ark-cn-beijing.bytedance.net/api/v3/chat/completions"

// Config holds all configuration values.
type Config struct {
	// State store
	Store      StoreBackend
	SQLitePath string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Completion service
	Provider       Provider
	Endpoint       string
	OllamaHost     string
	RequestTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Store:      StoreBackend(strings.ToLower(getEnv("PROMPTPAD_STORE", string(StoreSQLite)))),
		SQLitePath: getEnv("PROMPTPAD_SQLITE_PATH", defaultStatePath()),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("PROMPTPAD_REDIS_PREFIX", "promptpad:"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "promptpad"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "state"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		Provider:       Provider(strings.ToLower(getEnv("PROMPTPAD_PROVIDER", string(ProviderHTTP)))),
		Endpoint:       getEnv("PROMPTPAD_ENDPOINT", DefaultEndpoint),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		RequestTimeout: getEnvDuration("PROMPTPAD_REQUEST_TIMEOUT", 2*time.Minute),

		LogFile:  getEnv("PROMPTPAD_LOG_FILE", filepath.Join(os.TempDir(), "promptpad.log")),
		LogLevel: parseLogLevel(getEnv("PROMPTPAD_LOG_LEVEL", "INFO")),
	}
}

// defaultStatePath returns ~/.promptpad/state.db, or a relative path when
// the home directory cannot be resolved.
func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "promptpad.db"
	}
	return filepath.Join(home, ".promptpad", "state.db")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
