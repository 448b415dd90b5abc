// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the photo tools MCP server
type Config struct {
	LogLevel slog.Level

	// Preview rendering
	PreviewDebounce     time.Duration
	PreviewMaxDimension int
	PreviewQuality      int

	// Export defaults
	JPEGQuality     int
	MaxOutputPixels int

	// Source loading
	MaxSourceBytes int64
	HTTPTimeout    time.Duration
}

// Default returns the configuration used when no environment overrides are set.
func Default() *Config {
	return &Config{
		LogLevel:            slog.LevelInfo,
		PreviewDebounce:     250 * time.Millisecond,
		PreviewMaxDimension: 1024,
		PreviewQuality:      80,
		JPEGQuality:         92,
		MaxOutputPixels:     100 * 1000 * 1000,
		MaxSourceBytes:      50 * 1024 * 1024,
		HTTPTimeout:         30 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	return loadFrom(os.Getenv)
}

func loadFrom(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if level := getenv("PHOTO_MCP_LOG_LEVEL"); level != "" {
		l, err := ParseLogLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = l
	}

	if ms := getenv("PHOTO_MCP_PREVIEW_DEBOUNCE_MS"); ms != "" {
		val, err := strconv.Atoi(ms)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MCP_PREVIEW_DEBOUNCE_MS: %w", err)
		}
		cfg.PreviewDebounce = time.Duration(val) * time.Millisecond
	}

	if dim := getenv("PHOTO_MCP_PREVIEW_MAX_DIMENSION"); dim != "" {
		val, err := strconv.Atoi(dim)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MCP_PREVIEW_MAX_DIMENSION: %w", err)
		}
		cfg.PreviewMaxDimension = val
	}

	if q := getenv("PHOTO_MCP_PREVIEW_QUALITY"); q != "" {
		val, err := strconv.Atoi(q)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MCP_PREVIEW_QUALITY: %w", err)
		}
		cfg.PreviewQuality = val
	}

	if q := getenv("PHOTO_MCP_JPEG_QUALITY"); q != "" {
		val, err := strconv.Atoi(q)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MCP_JPEG_QUALITY: %w", err)
		}
		cfg.JPEGQuality = val
	}

	if mp := getenv("PHOTO_MCP_MAX_OUTPUT_MEGAPIXELS"); mp != "" {
		val, err := strconv.Atoi(mp)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MCP_MAX_OUTPUT_MEGAPIXELS: %w", err)
		}
		cfg.MaxOutputPixels = val * 1000 * 1000
	}

	if mb := getenv("PHOTO_MCP_MAX_SOURCE_MB"); mb != "" {
		val, err := strconv.Atoi(mb)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MCP_MAX_SOURCE_MB: %w", err)
		}
		cfg.MaxSourceBytes = int64(val) * 1024 * 1024
	}

	if secs := getenv("PHOTO_MCP_HTTP_TIMEOUT_SECONDS"); secs != "" {
		val, err := strconv.Atoi(secs)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MCP_HTTP_TIMEOUT_SECONDS: %w", err)
		}
		cfg.HTTPTimeout = time.Duration(val) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PreviewDebounce < 0 {
		return fmt.Errorf("preview debounce must not be negative")
	}
	if c.PreviewMaxDimension < 0 {
		return fmt.Errorf("preview max dimension must not be negative")
	}
	if c.PreviewQuality < 1 || c.PreviewQuality > 100 {
		return fmt.Errorf("preview quality must be between 1 and 100")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100")
	}
	if c.MaxOutputPixels <= 0 {
		return fmt.Errorf("max output pixels must be positive")
	}
	if c.MaxSourceBytes <= 0 {
		return fmt.Errorf("max source size must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid PHOTO_MCP_LOG_LEVEL: %q", s)
	}
}
