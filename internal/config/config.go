package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"bet-books/internal/db"
	"bet-books/internal/logger"
)

// Storage backends understood by StorageBackend.
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	// Durable medium
	StorageBackend string
	StoragePath    string
	StorageTable   string
	DatabaseURL    string

	// Postgres pool
	DBMaxConns        int32
	DBConnectTimeout  time.Duration
	DBApplicationName string

	// HTTP server
	ServerPort     string
	AllowedOrigins string

	// Display currency for amounts (ISO 4217)
	Currency string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	maxConns, err := strconv.ParseInt(getEnv("BET_DB_MAX_CONNS", "4"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid BET_DB_MAX_CONNS: %w", err)
	}
	connectTimeout, err := time.ParseDuration(getEnv("BET_DB_CONNECT_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BET_DB_CONNECT_TIMEOUT: %w", err)
	}

	config := &Config{
		StorageBackend:    strings.ToLower(getEnv("BET_STORAGE", StorageFile)),
		StoragePath:       getEnv("BET_STORAGE_PATH", "bet-storage.json"),
		StorageTable:      getEnv("BET_STORAGE_TABLE", "bet_storage"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxConns:        int32(maxConns),
		DBConnectTimeout:  connectTimeout,
		DBApplicationName: getEnv("BET_DB_APPLICATION_NAME", "bet-books"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", ""),
		Currency:          strings.ToUpper(getEnv("BET_CURRENCY", "USD")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:         getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageFile:
		if c.StoragePath == "" {
			return fmt.Errorf("BET_STORAGE_PATH is required for the file backend")
		}
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		if c.StorageTable == "" {
			return fmt.Errorf("BET_STORAGE_TABLE must not be empty")
		}
		if c.DBMaxConns < 1 {
			return fmt.Errorf("BET_DB_MAX_CONNS must be at least 1")
		}
		if c.DBConnectTimeout < 0 {
			return fmt.Errorf("BET_DB_CONNECT_TIMEOUT must not be negative")
		}
	default:
		return fmt.Errorf("unknown BET_STORAGE %q (expected file, memory or postgres)", c.StorageBackend)
	}
	if money.GetCurrency(c.Currency) == nil {
		return fmt.Errorf("unknown BET_CURRENCY %q", c.Currency)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetPoolSettings returns the postgres pool settings from the main config
func (c *Config) GetPoolSettings() db.PoolSettings {
	return db.PoolSettings{
		URL:             c.DatabaseURL,
		MaxConns:        c.DBMaxConns,
		ConnectTimeout:  c.DBConnectTimeout,
		ApplicationName: c.DBApplicationName,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
