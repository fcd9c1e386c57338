package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/emotune/emotune/pkg/icron"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Generation API:
// - SUNO_API_KEY: API key for the generation API (required)
// - SUNO_API_URL: API endpoint URL (default: https://studio-api.suno.ai)
// - SUNO_CALLBACK_URL: public URL the API posts job completions to (required)
// - SUNO_TIMEOUT: request timeout in seconds (default: 30)
//
// LLM Configuration (prompt generation, optional):
// - LLM_API_KEY, LLM_API_URL, LLM_MODEL, LLM_MAX_TOKENS, LLM_TEMPERATURE,
//   LLM_TIMEOUT, LLM_SITE_URL, LLM_APP_NAME
//
// Server:
// - SERVER_ADDR: listen address (default: :8080)
// - LOG_LEVEL: debug|info|warn|error (default: info)
//
// Wait strategy defaults (client side):
// - WAIT_BASE_URL: server base URL the wait client talks to (default: http://localhost:8080)
// - WAIT_PUSH_TIMEOUT: seconds to stay on the event stream (default: 120)
// - WAIT_POLL_INTERVAL: seconds between status polls (default: 5)
// - WAIT_POLL_ATTEMPTS: max status polls before giving up (default: 30)
//
// Housekeeping:
// - HISTORY_DB_PATH: sqlite path for the track history ledger (empty disables it)
// - RECONCILE_CRON: schedule for the pending-listener sweep (default: every minute)
type Config struct {
	Suno      SunoConfig      `json:"suno"`
	LLM       LLMConfig       `json:"llm"`
	Server    ServerConfig    `json:"server"`
	Wait      WaitConfig      `json:"wait"`
	History   HistoryConfig   `json:"history"`
	Reconcile ReconcileConfig `json:"reconcile"`
}

// SunoConfig holds the connection settings for the generation API
type SunoConfig struct {
	APIKey      string `json:"api_key"`
	APIURL      string `json:"api_url"`
	CallbackURL string `json:"callback_url"`
	Timeout     int    `json:"timeout"`
}

// LLMConfig holds the configuration for the prompt-generation LLM client
// Supports any OpenAI-compatible provider (OpenRouter, OpenAI, etc.)
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
	SiteURL     string  `json:"site_url"`
	AppName     string  `json:"app_name"`
}

type ServerConfig struct {
	Addr     string `json:"addr"`
	LogLevel string `json:"log_level"`
}

// WaitConfig holds the defaults handed to client wait strategies.
type WaitConfig struct {
	BaseURL         string `json:"base_url"`
	PushTimeoutSec  int    `json:"push_timeout_sec"`
	PollIntervalSec int    `json:"poll_interval_sec"`
	PollAttempts    int    `json:"poll_attempts"`
}

type HistoryConfig struct {
	DBPath string `json:"db_path"`
}

type ReconcileConfig struct {
	CronExpr string `json:"cron_expr"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Suno: SunoConfig{
			APIKey:      getEnvString("SUNO_API_KEY", ""),
			APIURL:      getEnvString("SUNO_API_URL", "https://studio-api.suno.ai"),
			CallbackURL: getEnvString("SUNO_CALLBACK_URL", ""),
			Timeout:     getEnvInt("SUNO_TIMEOUT", 30),
		},
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 300),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		Server: ServerConfig{
			Addr:     getEnvString("SERVER_ADDR", ":8080"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
		Wait: WaitConfig{
			BaseURL:         getEnvString("WAIT_BASE_URL", "http://localhost:8080"),
			PushTimeoutSec:  getEnvInt("WAIT_PUSH_TIMEOUT", 120),
			PollIntervalSec: getEnvInt("WAIT_POLL_INTERVAL", 5),
			PollAttempts:    getEnvInt("WAIT_POLL_ATTEMPTS", 30),
		},
		History: HistoryConfig{
			DBPath: getEnvString("HISTORY_DB_PATH", ""),
		},
		Reconcile: ReconcileConfig{
			CronExpr: getEnvString("RECONCILE_CRON", "0 * * * * *"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Suno.APIKey == "" {
		return fmt.Errorf("SUNO_API_KEY is required")
	}
	if c.Suno.CallbackURL == "" {
		return fmt.Errorf("SUNO_CALLBACK_URL is required")
	}
	if err := icron.Validate(c.Reconcile.CronExpr); err != nil {
		return fmt.Errorf("RECONCILE_CRON: %w", err)
	}
	if c.Wait.PushTimeoutSec <= 0 || c.Wait.PollIntervalSec <= 0 || c.Wait.PollAttempts <= 0 {
		return fmt.Errorf("wait strategy settings must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
