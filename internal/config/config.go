package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Store backend selection
	DataBackend  string
	SQLiteDBPath string
	PostgresDSN  string

	// Currency
	ExchangeRate int // KHR per 1 USD

	// AMQP (ledger export fan-out)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Avatars
	AvatarDir string

	// UI
	PageSize int

	// Worker
	ConsumeTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8084"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/riel.db"),
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),

		ExchangeRate: getEnvInt("EXCHANGE_RATE", 4000),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "riel"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_export"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ledger"),

		AvatarDir: getEnv("AVATAR_DIR", "./data/avatars"),

		PageSize: getEnvInt("PAGE_SIZE", 5),

		ConsumeTimeout: getEnvDuration("CONSUME_TIMEOUT", 30*time.Second),
	}
}

// Validate checks the configuration and returns an error naming every
// problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "sqlite backend requires SQLITE_DB_PATH")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			problems = append(problems, "postgres backend requires POSTGRES_DSN")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [sqlite postgres memory]", c.DataBackend))
	}

	if c.ExchangeRate <= 0 {
		problems = append(problems, fmt.Sprintf("invalid exchange rate %d: must be positive", c.ExchangeRate))
	}

	if c.PageSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid page size %d: must be at least 1", c.PageSize))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
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
