package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the catalog console and the development
// backend. Following 12-factor app principles, it is loaded from environment
// variables, optionally seeded from a .env file.
type Config struct {
	Server      ServerConfig
	API         APIConfig
	Cache       CacheConfig
	Log         LogConfig
	MetricsAddr string
}

type ServerConfig struct {
	Port            string
	Host            string
	// DBPath selects the SQLite store; empty keeps products in memory.
	DBPath          string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// APIConfig configures the products API client.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// CacheConfig configures the query cache.
type CacheConfig struct {
	KeepUnusedFor time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// LoadDotEnv loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			DBPath:          getEnv("DB_PATH", ""),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		API: APIConfig{
			BaseURL:        getEnv("CATALOG_API_URL", "http://localhost:8080/"),
			RequestTimeout: getEnvAsSeconds("CATALOG_REQUEST_TIMEOUT", 15*time.Second),
		},
		Cache: CacheConfig{
			KeepUnusedFor: getEnvAsSeconds("CATALOG_KEEP_UNUSED", 60*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("CATALOG_API_URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CATALOG_API_URL must be an absolute URL: %q", c.API.BaseURL)
	}

	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("CATALOG_REQUEST_TIMEOUT must be positive")
	}

	if c.Cache.KeepUnusedFor < 0 {
		return fmt.Errorf("CATALOG_KEEP_UNUSED must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	seconds, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
