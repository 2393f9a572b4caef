// Package config loads worldwise settings. Values come from, in increasing
// precedence: built-in defaults, config.yaml in the config directory, a .env
// file, and WORLDWISE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/worldwise/internal/paths"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// Config keys in config.yaml.
const (
	KeyBackend             = "backend"
	KeyDataDir             = "data_dir"
	KeyAPIURL              = "api_url"
	KeyListenAddr          = "listen_addr"
	KeyRequestTimeout      = "request_timeout"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyRateLimit           = "rate_limit"
	KeyRateBurst           = "rate_burst"
	KeyCORSOrigins         = "cors_origins"
	KeyCacheTTL            = "cache_ttl"
	KeyClearErrorOnSuccess = "clear_error_on_success"
)

// Settings is the merged worldwise configuration.
type Settings struct {
	Backend string `mapstructure:"backend" yaml:"backend" env:"WORLDWISE_BACKEND"`
	// DataDir is the raw config.yaml value; paths.ResolveDataDir applies the
	// flag and WORLDWISE_DATA_DIR on top of it.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	APIURL         string        `mapstructure:"api_url" yaml:"api_url" env:"WORLDWISE_API_URL"`
	ListenAddr     string        `mapstructure:"listen_addr" yaml:"listen_addr" env:"WORLDWISE_LISTEN_ADDR"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" env:"WORLDWISE_REQUEST_TIMEOUT"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" env:"WORLDWISE_LOG_LEVEL"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" env:"WORLDWISE_LOG_FORMAT"`

	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit" env:"WORLDWISE_RATE_LIMIT"`
	RateBurst   int           `mapstructure:"rate_burst" yaml:"rate_burst" env:"WORLDWISE_RATE_BURST"`
	CORSOrigins []string      `mapstructure:"cors_origins" yaml:"cors_origins" env:"WORLDWISE_CORS_ORIGINS" envSeparator:","`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" env:"WORLDWISE_CACHE_TTL"`

	ClearErrorOnSuccess bool `mapstructure:"clear_error_on_success" yaml:"clear_error_on_success" env:"WORLDWISE_CLEAR_ERROR_ON_SUCCESS"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		Backend:        types.BackendSQLite,
		APIURL:         "http://localhost:8080",
		ListenAddr:     ":8080",
		RequestTimeout: 10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
		RateLimit:      0,
		RateBurst:      20,
		CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		CacheTTL:       5 * time.Minute,
	}
}

// Load reads config.yaml from configDir, then applies a .env file from the
// working directory or configDir and the WORLDWISE_* environment. A missing
// config.yaml or .env is not an error.
func Load(configDir string) (Settings, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}

	if err := loadDotEnv(".env", filepath.Join(configDir, ".env")); err != nil {
		return Settings{}, err
	}
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, s.Validate()
}

// ParseEnv overlays WORLDWISE_* environment variables onto target. Fields
// whose variable is unset keep their current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings no command can run with.
func (s Settings) Validate() error {
	if err := (types.Config{Backend: s.Backend}).Validate(); err != nil {
		return fmt.Errorf("backend %q: %w", s.Backend, err)
	}
	if s.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", s.RequestTimeout)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", s.RateLimit)
	}
	return nil
}

// YAML renders the settings in config.yaml form.
func (s Settings) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return out, nil
}

// BackendConfig returns the storage config for dataDir.
func (s Settings) BackendConfig(dataDir string) types.Config {
	return types.Config{Backend: s.Backend, DataDir: dataDir}
}

func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault(KeyBackend, d.Backend)
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyAPIURL, d.APIURL)
	v.SetDefault(KeyListenAddr, d.ListenAddr)
	v.SetDefault(KeyRequestTimeout, d.RequestTimeout)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyRateLimit, d.RateLimit)
	v.SetDefault(KeyRateBurst, d.RateBurst)
	v.SetDefault(KeyCORSOrigins, d.CORSOrigins)
	v.SetDefault(KeyCacheTTL, d.CacheTTL)
	v.SetDefault(KeyClearErrorOnSuccess, d.ClearErrorOnSuccess)
}

// loadDotEnv loads the first existing file of candidates into the process
// environment. Variables already set win over the file.
func loadDotEnv(candidates ...string) error {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	return nil
}

// DefaultConfigYAML is written to config.yaml by the init command.
const DefaultConfigYAML = `# worldwise configuration

# Storage backend used by "worldwise serve".
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Base URL of the cities API used by the store commands.
api_url: http://localhost:8080

# Address "worldwise serve" listens on.
listen_addr: ":8080"

# Per-request timeout for API calls; 0 disables it.
request_timeout: 10s

# debug, info, warn, error
log_level: info
# text or json
log_format: text

# Requests per second accepted by the API; 0 disables rate limiting.
rate_limit: 0
rate_burst: 20

# Browser origins allowed to call the API.
cors_origins:
  - http://localhost:3000
  - http://localhost:5173

# How long the API caches single-city lookups.
cache_ttl: 5m

# Clear a stale error message after the next successful store operation.
clear_error_on_success: false
`

// WriteDefault creates configDir and writes DefaultConfigYAML to its
// config.yaml when the file does not already exist.
func WriteDefault(configDir string) (created bool, err error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
