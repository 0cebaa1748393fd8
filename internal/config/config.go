package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	RateLimitRPM    int

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// AMQP (optional; empty URL disables events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Recurring catch-up
	CatchUpSchedule string
	CatchUpOnRead   bool

	// Seeding
	SeedDemo bool

	// Derived-view cache
	CacheTTL  time.Duration
	CacheSize int

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validBackends   = []string{"memory", "sqlite"}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
)

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		RateLimitRPM:    getEnvInt("RATE_LIMIT_RPM", 120),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		CatchUpSchedule: getEnv("CATCHUP_SCHEDULE", "@every 1h"),
		CatchUpOnRead:   getEnvBool("CATCHUP_ON_READ", true),

		SeedDemo: getEnvBool("SEED_DEMO", false),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 64),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := cron.ParseStandard(c.CatchUpSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid catch-up schedule '%s': %v", c.CatchUpSchedule, err))
	}

	if c.CacheSize < 1 || c.CacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be between 1 and 10000", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether ledger events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
