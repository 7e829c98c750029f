package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	GeminiAPIKey      string  `yaml:"gemini_api_key"`
	GeminiModel       string  `yaml:"gemini_model"`
	RequestTimeout    int     `yaml:"request_timeout"` // seconds
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialBackoffMS  int     `yaml:"initial_backoff_ms"`
	ThinkingBudget    int     `yaml:"thinking_budget"`
	MinQueryLength    int     `yaml:"min_query_length"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	ConnectivityProbe string  `yaml:"connectivity_probe"`
	StorePath         string  `yaml:"store_path"`
	AlertPollInterval int     `yaml:"alert_poll_interval"` // seconds
	AlertVolatility   float64 `yaml:"alert_volatility"`
	TelegramBotToken  string  `yaml:"telegram_bot_token"`
	TelegramChatID    int64   `yaml:"telegram_chat_id"`
	LogLevel          string  `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	store := "stockgpt.db"
	if home, err := os.UserHomeDir(); err == nil {
		store = filepath.Join(home, ".stockgpt", "stockgpt.db")
	}
	return Config{
		GeminiModel:       "gemini-2.5-flash",
		RequestTimeout:    120,
		MaxAttempts:       3,
		InitialBackoffMS:  1000,
		ThinkingBudget:    2048,
		MinQueryLength:    1,
		RequestsPerMinute: 30,
		ConnectivityProbe: "generativelanguage.googleapis.com:443",
		StorePath:         store,
		AlertPollInterval: 5,
		AlertVolatility:   0.015,
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// STOCKGPT_CONFIG and finally the environment (including a .env file).
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Defaults()
	if path := os.Getenv("STOCKGPT_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.GeminiAPIKey = getEnvWithDefault("GEMINI_API_KEY", getEnvWithDefault("API_KEY", cfg.GeminiAPIKey))
	cfg.GeminiModel = getEnvWithDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MaxAttempts = getEnvIntWithDefault("MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.InitialBackoffMS = getEnvIntWithDefault("INITIAL_BACKOFF_MS", cfg.InitialBackoffMS)
	cfg.ThinkingBudget = getEnvIntWithDefault("THINKING_BUDGET", cfg.ThinkingBudget)
	cfg.MinQueryLength = getEnvIntWithDefault("MIN_QUERY_LENGTH", cfg.MinQueryLength)
	cfg.RequestsPerMinute = getEnvIntWithDefault("REQUESTS_PER_MINUTE", cfg.RequestsPerMinute)
	cfg.ConnectivityProbe = getEnvWithDefault("CONNECTIVITY_PROBE", cfg.ConnectivityProbe)
	cfg.StorePath = getEnvWithDefault("STORE_PATH", cfg.StorePath)
	cfg.AlertPollInterval = getEnvIntWithDefault("ALERT_POLL_INTERVAL", cfg.AlertPollInterval)
	cfg.AlertVolatility = getEnvFloatWithDefault("ALERT_VOLATILITY", cfg.AlertVolatility)
	cfg.TelegramBotToken = getEnvWithDefault("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// MaxAttemptsLimit bounds MAX_ATTEMPTS
const MaxAttemptsLimit = 10

// Validate rejects values no component can work with. A missing API key is
// not an error here; the analyzer reports it when it is actually needed.
func (c *Config) Validate() error {
	switch {
	case c.RequestTimeout <= 0:
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %d", c.RequestTimeout)
	case c.MaxAttempts <= 0 || c.MaxAttempts > MaxAttemptsLimit:
		return fmt.Errorf("MAX_ATTEMPTS must be between 1 and %d, got %d", MaxAttemptsLimit, c.MaxAttempts)
	case c.InitialBackoffMS <= 0:
		return fmt.Errorf("INITIAL_BACKOFF_MS must be positive, got %d", c.InitialBackoffMS)
	case c.MinQueryLength < 1:
		return fmt.Errorf("MIN_QUERY_LENGTH must be at least 1, got %d", c.MinQueryLength)
	case c.RequestsPerMinute <= 0:
		return fmt.Errorf("REQUESTS_PER_MINUTE must be positive, got %d", c.RequestsPerMinute)
	case c.AlertPollInterval <= 0:
		return fmt.Errorf("ALERT_POLL_INTERVAL must be positive, got %d", c.AlertPollInterval)
	case c.AlertVolatility < 0 || c.AlertVolatility >= 1:
		return fmt.Errorf("ALERT_VOLATILITY must be in [0, 1), got %g", c.AlertVolatility)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMS) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.AlertPollInterval) * time.Second
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric environment value")
	}
	return defaultValue
}
