package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Ledger document
	LedgerFile string
	Barbers    []string

	// Snapshot archive
	ArchiveDBPath    string
	ArchiveInterval  time.Duration
	ArchiveRetention int

	// AMQP event bridge (optional; empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Bookkeeping mirror
	BooksBackend string

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		LedgerFile: getEnv("LEDGER_FILE", "./data/ledger.json"),
		Barbers:    getEnvList("BARBERS", []string{"Gabriel", "Wagner"}),

		ArchiveDBPath:    getEnv("ARCHIVE_DB_PATH", "./data/archive.db"),
		ArchiveInterval:  getEnvDuration("ARCHIVE_INTERVAL", time.Hour),
		ArchiveRetention: getEnvInt("ARCHIVE_RETENTION", 168),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "barbapro.events"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "bookkeeping"),

		BooksBackend: getEnv("BOOKS_BACKEND", "memory"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.LedgerFile == "" {
		errors = append(errors, "ledger file path cannot be empty")
	}

	if len(c.Barbers) == 0 {
		errors = append(errors, "at least one barber must be configured")
	}
	seen := map[string]bool{}
	for _, name := range c.Barbers {
		switch {
		case name == "":
			errors = append(errors, "barber names cannot be empty")
		case isReservedBarberName(name):
			errors = append(errors, fmt.Sprintf("barber name '%s' collides with a reserved document key", name))
		case seen[name]:
			errors = append(errors, fmt.Sprintf("duplicate barber name '%s'", name))
		}
		seen[name] = true
	}

	if c.ArchiveDBPath == "" {
		errors = append(errors, "archive database path cannot be empty")
	}
	if c.ArchiveInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid archive interval %v: must be at least 1 minute", c.ArchiveInterval))
	} else if c.ArchiveInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid archive interval %v: must be at most 24 hours", c.ArchiveInterval))
	}
	if c.ArchiveRetention < 1 {
		errors = append(errors, fmt.Sprintf("invalid archive retention %d: must be at least 1", c.ArchiveRetention))
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

	validBackends := []string{"memory", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.BooksBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid books backend '%s': must be one of %v", c.BooksBackend, validBackends))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func isReservedBarberName(name string) bool {
	switch name {
	case "expenses", "recurringClients", "config":
		return true
	}
	return false
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, trimming whitespace.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
