package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Remote   RemoteConfig   `yaml:"remote"`
	Headless HeadlessConfig `yaml:"headless"`
	Logging  LogConfig      `yaml:"logging"`
}

// WindowConfig holds settings shared by every window kind.
type WindowConfig struct {
	Title  string `yaml:"title" envconfig:"WEBBRIDGE_TITLE"`
	Width  int    `yaml:"width" envconfig:"WEBBRIDGE_WIDTH"`
	Height int    `yaml:"height" envconfig:"WEBBRIDGE_HEIGHT"`
	Debug  bool   `yaml:"debug" envconfig:"WEBBRIDGE_DEBUG"`
}

// RemoteConfig holds the browser-backed window's HTTP settings.
type RemoteConfig struct {
	Addr           string          `yaml:"addr" envconfig:"WEBBRIDGE_ADDR"`
	AssetsDir      string          `yaml:"assets_dir" envconfig:"WEBBRIDGE_ASSETS_DIR"`
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"WEBBRIDGE_ALLOWED_ORIGINS"`
	Metrics        bool            `yaml:"metrics" envconfig:"WEBBRIDGE_METRICS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds request rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `yaml:"rps" envconfig:"WEBBRIDGE_RATE_LIMIT_RPS"`
	Burst             int  `yaml:"burst" envconfig:"WEBBRIDGE_RATE_LIMIT_BURST"`
	Enabled           bool `yaml:"enabled" envconfig:"WEBBRIDGE_RATE_LIMIT_ENABLED"`
	Global            bool `yaml:"global" envconfig:"WEBBRIDGE_RATE_LIMIT_GLOBAL"`
}

// HeadlessConfig holds the script-engine window's settings.
type HeadlessConfig struct {
	ScriptTimeout time.Duration `yaml:"script_timeout" envconfig:"WEBBRIDGE_SCRIPT_TIMEOUT"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" envconfig:"WEBBRIDGE_FETCH_TIMEOUT"`
	FetchFailures int           `yaml:"fetch_failures" envconfig:"WEBBRIDGE_FETCH_FAILURES"`
	FetchCooldown time.Duration `yaml:"fetch_cooldown" envconfig:"WEBBRIDGE_FETCH_COOLDOWN"`
	Console       bool          `yaml:"console" envconfig:"WEBBRIDGE_CONSOLE"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"LOG_DEV"`
}

// Load loads configuration from environment variables over the defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults, then applies environment
// variables on top.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "webbridge",
			Width:  800,
			Height: 600,
		},
		Remote: RemoteConfig{
			Addr:    "127.0.0.1:8080",
			Metrics: true,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 100,
				Burst:             200,
				Enabled:           true,
			},
		},
		Headless: HeadlessConfig{
			ScriptTimeout: 5 * time.Second,
			FetchTimeout:  10 * time.Second,
			FetchFailures: 3,
			FetchCooldown: 30 * time.Second,
			Console:       true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
