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
	Port     string
	LogLevel string

	// Ledger storage
	LedgerBackend string
	SQLiteDBPath  string
	BoltDBPath    string

	// AMQP (optional, enables ledger events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Language model
	LLMProvider     string
	LLMModel        string
	LLMTimeout      time.Duration
	OllamaBin       string
	OllamaHost      string
	AnthropicAPIKey string
	GeminiAPIKey    string

	// Embeddings and intent classification
	EmbedProvider   string
	EmbedModel      string
	IntentsFile     string
	IntentThreshold float64

	CurrencySymbol     string
	RateLimitPerMinute int

	// Google Sheets mirror (worker only)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LedgerBackend: strings.ToLower(getEnv("LEDGER_BACKEND", "sqlite")),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/finance.db"),
		BoltDBPath:    getEnv("BOLT_DB_PATH", "./data/finance.bolt"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finchat"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		OllamaBin:       getEnv("OLLAMA_BIN", "ollama"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),

		EmbedProvider:   strings.ToLower(getEnv("EMBED_PROVIDER", "ollama")),
		EmbedModel:      getEnv("EMBED_MODEL", ""),
		IntentsFile:     getEnv("INTENTS_FILE", ""),
		IntentThreshold: getEnvFloat("INTENT_THRESHOLD", 0.6),

		CurrencySymbol:     getEnv("CURRENCY_SYMBOL", "₹"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ledger"),
	}
}

var (
	validBackends     = []string{"sqlite", "bolt", "memory"}
	validLLMProviders = []string{"ollama", "anthropic", "gemini"}
	validEmbedders    = []string{"ollama", "gemini", "hashing"}
	validLogLevels    = []string{"debug", "info", "warn", "warning", "error"}
)

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !oneOf(strings.ToLower(c.LogLevel), validLogLevels) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if !oneOf(c.LedgerBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}
	if c.LedgerBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}
	if c.LedgerBackend == "bolt" && c.BoltDBPath == "" {
		errors = append(errors, "bolt database path cannot be empty when using bolt backend")
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

	if !oneOf(c.LLMProvider, validLLMProviders) {
		errors = append(errors, fmt.Sprintf("invalid LLM provider '%s': must be one of %v", c.LLMProvider, validLLMProviders))
	}
	if c.LLMProvider == "anthropic" && c.AnthropicAPIKey == "" {
		errors = append(errors, "ANTHROPIC_API_KEY is required when LLM_PROVIDER is anthropic")
	}
	if c.LLMTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid LLM timeout %v: must be positive", c.LLMTimeout))
	}

	if !oneOf(c.EmbedProvider, validEmbedders) {
		errors = append(errors, fmt.Sprintf("invalid embedding provider '%s': must be one of %v", c.EmbedProvider, validEmbedders))
	}
	if c.IntentsFile != "" {
		if _, err := os.Stat(c.IntentsFile); err != nil {
			errors = append(errors, fmt.Sprintf("intents file is not readable: %v", err))
		}
	}
	if c.IntentThreshold < -1 || c.IntentThreshold >= 1 {
		errors = append(errors, fmt.Sprintf("invalid intent threshold %v: must be in [-1, 1)", c.IntentThreshold))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateSheets checks the settings only the sheets mirror worker needs.
func (c *Config) ValidateSheets() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sheets worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sheets worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME cannot be empty")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
