package config

import (
	"os"
	"strconv"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/domain"
)

// Config holds all ledgerd configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Ops listener
	Port     int
	LogLevel string

	// Key-value store backend: memory, file or remote.
	StoreBackend string

	// File store
	FileStoreDir string
	// FileStoreKey is a hex-encoded 32-byte key; when set, file store
	// payloads are sealed with chacha20poly1305.
	FileStoreKey string

	// Remote store
	RemoteStoreURL    string
	RemoteStoreAPIKey string

	// HTTP client (remote store)
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Identity cache
	CacheTTL time.Duration

	// Ledger limits
	MaxAmount float64

	// Observability
	OTLPEndpoint string

	// Storage key layout
	Keys domain.StorageKeys
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	keys := domain.DefaultStorageKeys()
	keys.Ledger = getEnv("LEDGER_STORAGE_KEY", keys.Ledger)
	keys.FilterSnapshot = getEnv("FILTER_SNAPSHOT_KEY", keys.FilterSnapshot)

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: getEnv("STORE_BACKEND", "file"),

		FileStoreDir: getEnv("FILE_STORE_DIR", "./data"),
		FileStoreKey: getEnv("FILE_STORE_KEY", ""),

		RemoteStoreURL:    getEnv("REMOTE_STORE_URL", ""),
		RemoteStoreAPIKey: getEnv("REMOTE_STORE_API_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		MaxAmount: getEnvFloat("MAX_AMOUNT", domain.DefaultMaxAmount),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		Keys: keys,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
