package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// AppConfig implements the domain.Config interface. The scheduling knobs
// (concurrency ceilings, debounce interval, buffer pages, retry policy) are
// tunable policy parameters, not load-tested optima; the defaults mirror the
// original viewer.
type AppConfig struct {
	ServerPort           string        `validate:"required"`
	LogLevel             string        `validate:"oneof=debug info warn warning error"`
	RenderConcurrency    int           `validate:"min=1,max=16"`
	ThumbnailConcurrency int           `validate:"min=1,max=16"`
	DebounceInterval     time.Duration `validate:"min=0"`
	BufferPages          int           `validate:"min=0,max=10"`
	MaxLoadRetries       int           `validate:"min=0,max=5"`
	RetryBackoffBase     time.Duration `validate:"min=0"`
	ThumbnailScale       float64       `validate:"gt=0,lte=1"`
}

// NewConfig creates a new configuration instance with default values
func NewConfig() *AppConfig {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:           getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		RenderConcurrency:    getEnvIntOrDefault("RENDER_CONCURRENCY", 3),
		ThumbnailConcurrency: getEnvIntOrDefault("THUMBNAIL_CONCURRENCY", 3),
		DebounceInterval:     getEnvDurationOrDefault("RENDER_DEBOUNCE_MS", 100*time.Millisecond),
		BufferPages:          getEnvIntOrDefault("BUFFER_PAGES", 1),
		MaxLoadRetries:       getEnvIntOrDefault("MAX_LOAD_RETRIES", 2),
		RetryBackoffBase:     getEnvDurationOrDefault("RETRY_BACKOFF_BASE_MS", time.Second),
		ThumbnailScale:       getEnvFloatOrDefault("THUMBNAIL_SCALE", 0.3),
	}
}

// Validate checks the configuration against its struct constraints
func (c *AppConfig) Validate() error {
	return validator.New().Struct(c)
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetRenderConcurrency returns the full-size render task ceiling
func (c *AppConfig) GetRenderConcurrency() int {
	return c.RenderConcurrency
}

// GetThumbnailConcurrency returns the thumbnail task ceiling
func (c *AppConfig) GetThumbnailConcurrency() int {
	return c.ThumbnailConcurrency
}

// GetDebounceInterval returns the per-page render debounce interval
func (c *AppConfig) GetDebounceInterval() time.Duration {
	return c.DebounceInterval
}

// GetBufferPages returns the number of buffer pages beyond the visible area
func (c *AppConfig) GetBufferPages() int {
	return c.BufferPages
}

// GetMaxLoadRetries returns the automatic retry cap for retryable failures
func (c *AppConfig) GetMaxLoadRetries() int {
	return c.MaxLoadRetries
}

// GetRetryBackoffBase returns the base delay for retry backoff
func (c *AppConfig) GetRetryBackoffBase() time.Duration {
	return c.RetryBackoffBase
}

// GetThumbnailScale returns the fixed thumbnail rendering scale
func (c *AppConfig) GetThumbnailScale() float64 {
	return c.ThumbnailScale
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
