package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	MarketstackConfig MarketstackConfig `json:"marketstack"`
	ScannerConfig     ScannerConfig     `json:"scanner"`
	UniverseConfig    UniverseConfig    `json:"universe"`
	ServerConfig      ServerConfig      `json:"server"`
	LoggingConfig     LoggingConfig     `json:"logging"`
}

// MarketstackConfig holds upstream market data API settings
type MarketstackConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	CacheTTL    int    `json:"cache_ttl"`    // Seconds
	CallSpacing int    `json:"call_spacing"` // Seconds between upstream calls
}

type ScannerConfig struct {
	WorkerCount  int `json:"worker_count"`  // Concurrent classifier workers
	StreamBuffer int `json:"stream_buffer"` // Streaming scan channel buffer
}

// UniverseConfig selects the symbol universe source
type UniverseConfig struct {
	File string `json:"file"` // JSON array of tickers
	URL  string `json:"url"`  // Remote JSON array of tickers
}

type ServerConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
}

type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Pretty bool   `json:"pretty"` // Console writer instead of JSON
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	if cfg.MarketstackConfig.APIKey == "" {
		return nil, fmt.Errorf("marketstack API key is required (set MARKETSTACK_API_KEY)")
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Marketstack config
	cfg.MarketstackConfig.APIKey = getEnvOrDefault("MARKETSTACK_API_KEY", cfg.MarketstackConfig.APIKey)
	cfg.MarketstackConfig.BaseURL = getEnvOrDefault("MARKETSTACK_BASE_URL", cfg.MarketstackConfig.BaseURL)
	if cfg.MarketstackConfig.BaseURL == "" {
		cfg.MarketstackConfig.BaseURL = "http://api.marketstack.com/v1"
	}
	cfg.MarketstackConfig.CacheTTL = getEnvIntOrDefault("MARKETSTACK_CACHE_TTL", defaultInt(cfg.MarketstackConfig.CacheTTL, 900))
	cfg.MarketstackConfig.CallSpacing = getEnvIntOrDefault("MARKETSTACK_CALL_SPACING", defaultInt(cfg.MarketstackConfig.CallSpacing, 1))

	// Scanner config
	cfg.ScannerConfig.WorkerCount = getEnvIntOrDefault("SCANNER_WORKER_COUNT", defaultInt(cfg.ScannerConfig.WorkerCount, 8))
	cfg.ScannerConfig.StreamBuffer = getEnvIntOrDefault("SCANNER_STREAM_BUFFER", defaultInt(cfg.ScannerConfig.StreamBuffer, 64))

	// Universe config
	cfg.UniverseConfig.File = getEnvOrDefault("UNIVERSE_FILE", cfg.UniverseConfig.File)
	cfg.UniverseConfig.URL = getEnvOrDefault("UNIVERSE_URL", cfg.UniverseConfig.URL)

	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", defaultInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", defaultString(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", defaultString(cfg.ServerConfig.AllowedOrigins, "*"))
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", defaultInt(cfg.ServerConfig.ReadTimeout, 30))
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", defaultInt(cfg.ServerConfig.WriteTimeout, 120))
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", defaultInt(cfg.ServerConfig.ShutdownTimeout, 10))

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.Pretty = getEnvOrDefault("LOG_PRETTY", strconv.FormatBool(cfg.LoggingConfig.Pretty)) == "true"
}

// CacheTTLDuration returns the configured cache TTL as a duration
func (c *MarketstackConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// CallSpacingDuration returns the configured upstream call spacing
func (c *MarketstackConfig) CallSpacingDuration() time.Duration {
	return time.Duration(c.CallSpacing) * time.Second
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func defaultInt(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
