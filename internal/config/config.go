package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// HTTP Configuration:
// - HTTP_ADDR: listen address for the API server (default: :8080)
//
// Media Configuration:
// - OUTPUT_DIR: directory for finished artifacts (default: /data/output)
// - FFMPEG_PATH: ffmpeg binary (default: ffmpeg, resolved via PATH)
// - FFPROBE_PATH: ffprobe binary (default: ffprobe, resolved via PATH)
//
// Jobs Configuration:
// - WORKER_COUNT: parallel pipeline workers (default: 2)
// - RETENTION_HOURS: hours to keep finished jobs and artifacts (default: 24)
// - RETENTION_CRON: sweep schedule (default: @hourly)
//
// Storage Configuration:
// - DB_PATH: sqlite database file (default: /data/captionize.db)
//
// System Configuration:
// - LOG_LEVEL: debug, info, warn, error or fatal (default: info)

type Config struct {
	HTTP    HTTPConfig    `json:"http"`
	Media   MediaConfig   `json:"media"`
	Jobs    JobsConfig    `json:"jobs"`
	Storage StorageConfig `json:"storage"`
	System  SystemConfig  `json:"system"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

// MediaConfig holds the configuration for the rendering toolchain.
type MediaConfig struct {
	OutputDir   string `json:"output_dir"`
	FfmpegPath  string `json:"ffmpeg_path"`
	FfprobePath string `json:"ffprobe_path"`
}

type JobsConfig struct {
	WorkerCount    int    `json:"worker_count"`
	RetentionHours int    `json:"retention_hours"`
	RetentionCron  string `json:"retention_cron"`
}

type StorageConfig struct {
	DBPath string `json:"db_path"`
}

type SystemConfig struct {
	LogLevel string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
		Media: MediaConfig{
			OutputDir:   getEnvString("OUTPUT_DIR", "/data/output"),
			FfmpegPath:  getEnvString("FFMPEG_PATH", "ffmpeg"),
			FfprobePath: getEnvString("FFPROBE_PATH", "ffprobe"),
		},
		Jobs: JobsConfig{
			WorkerCount:    getEnvInt("WORKER_COUNT", 2),
			RetentionHours: getEnvInt("RETENTION_HOURS", 24),
			RetentionCron:  getEnvString("RETENTION_CRON", "@hourly"),
		},
		Storage: StorageConfig{
			DBPath: getEnvString("DB_PATH", "/data/captionize.db"),
		},
		System: SystemConfig{
			LogLevel: getEnvString("LOG_LEVEL", "info"),
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
	if c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.Media.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Jobs.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.Jobs.WorkerCount)
	}
	if c.Jobs.RetentionHours < 0 {
		return fmt.Errorf("RETENTION_HOURS must not be negative, got %d", c.Jobs.RetentionHours)
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
