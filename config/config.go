package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete daemon configuration
type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

// ServerConfig contains the HTTP listener parameters
type ServerConfig struct {
	Listen          string `json:"listen" yaml:"listen"`
	ShutdownTimeout string `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"` // e.g. "10s"
}

// ParseShutdownTimeout converts the shutdown timeout string to time.Duration
func (sc ServerConfig) ParseShutdownTimeout() (time.Duration, error) {
	if sc.ShutdownTimeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(sc.ShutdownTimeout)
}

// StoreConfig contains the sqlite storage parameters
type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// CacheConfig contains result cache parameters
type CacheConfig struct {
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"` // e.g. "15m", empty disables expiry
}

// ParseTTL converts the cache TTL string to time.Duration
func (cc CacheConfig) ParseTTL() (time.Duration, error) {
	if cc.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(cc.TTL)
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`             // "debug", "info", "warn" or "error"
	Development bool   `json:"development" yaml:"development"` // console encoding instead of JSON
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if _, err := c.Server.ParseShutdownTimeout(); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	if _, err := c.Cache.ParseTTL(); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: "10s",
		},
		Store: StoreConfig{
			DBPath: "./rustix.db",
		},
		Cache: CacheConfig{
			TTL: "15m",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
