package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"purse/internal/chart"
	"purse/internal/cloud"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Data
	SeedFile string
	User     string

	// Tag cloud endpoint; empty means the in-memory store serves tags
	TagsURL      string
	TagsLimit    int
	FetchTimeout time.Duration

	// Visualisations
	HistogramThreshold int
	CloudThreshold     int
	CloudBaseSize      float64
	CloudScale         float64
	CloudRotations     string

	// Sessions and abuse protection
	SessionTTL         time.Duration
	RateLimitPerMinute int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SeedFile: getEnv("SEED_FILE", "./data/expenditures.txt"),
		User:     getEnv("PURSE_USER", "me"),

		TagsURL:      getEnv("TAGS_URL", ""),
		TagsLimit:    getEnvInt("TAGS_LIMIT", 100),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 7*time.Second),

		HistogramThreshold: getEnvInt("HISTOGRAM_THRESHOLD", 6),
		CloudThreshold:     getEnvInt("CLOUD_THRESHOLD", 20),
		CloudBaseSize:      getEnvFloat("CLOUD_BASE_SIZE", 10),
		CloudScale:         getEnvFloat("CLOUD_SCALE", 50),
		CloudRotations:     getEnv("CLOUD_ROTATIONS", "right-angle"),

		SessionTTL:         getEnvDuration("SESSION_TTL", 30*time.Minute),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
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

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.TagsURL == "" && c.SeedFile == "" {
		errors = append(errors, "SEED_FILE cannot be empty when TAGS_URL is not set")
	}
	if strings.TrimSpace(c.User) == "" {
		errors = append(errors, "PURSE_USER cannot be empty")
	}

	if c.TagsURL != "" {
		if u, err := url.Parse(c.TagsURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid tags URL '%s': %v", c.TagsURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid tags URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.TagsLimit < 1 || c.TagsLimit > 1000 {
		errors = append(errors, fmt.Sprintf("invalid tags limit %d: must be between 1 and 1000", c.TagsLimit))
	}
	if c.FetchTimeout < 100*time.Millisecond || c.FetchTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be between 100ms and 1m", c.FetchTimeout))
	}

	if c.HistogramThreshold < 1 {
		errors = append(errors, fmt.Sprintf("invalid histogram threshold %d: must be at least 1", c.HistogramThreshold))
	}
	if c.CloudThreshold < 1 {
		errors = append(errors, fmt.Sprintf("invalid cloud threshold %d: must be at least 1", c.CloudThreshold))
	}
	if c.CloudBaseSize <= 0 || c.CloudScale < 0 {
		errors = append(errors, fmt.Sprintf("invalid cloud sizing %v+%v: base must be positive and scale not negative", c.CloudBaseSize, c.CloudScale))
	}
	if _, err := cloud.ParseRotations(c.CloudRotations); err != nil {
		errors = append(errors, err.Error())
	}

	if c.SessionTTL < time.Minute || c.SessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be between 1 minute and 24 hours", c.SessionTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Chart returns the histogram configuration.
func (c *Config) Chart() chart.Config {
	cfg := chart.DefaultConfig()
	cfg.Threshold = c.HistogramThreshold
	return cfg
}

// Cloud returns the tag cloud configuration. Call Validate first: an
// unknown rotation set falls back to the default one.
func (c *Config) Cloud() cloud.Config {
	cfg := cloud.DefaultConfig()
	cfg.Threshold = c.CloudThreshold
	cfg.Limit = c.TagsLimit
	if c.FetchTimeout > 0 {
		cfg.FetchTimeout = c.FetchTimeout
	}
	cfg.BaseSize = c.CloudBaseSize
	cfg.Scale = c.CloudScale
	if r, err := cloud.ParseRotations(c.CloudRotations); err == nil {
		cfg.Rotations = r
	}
	return cfg
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
