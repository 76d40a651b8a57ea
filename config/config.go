package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/propfirm/risk"
)

// EnvPrefix prefixes every environment override, e.g. PROPFIRM_DB.
const EnvPrefix = "PROPFIRM"

// Config is the complete CLI configuration
type Config struct {
	Store    StoreConfig `json:"store" yaml:"store"`
	API      APIConfig   `json:"api" yaml:"api"`
	Log      LogConfig   `json:"log" yaml:"log"`
	Plan     risk.Plan   `json:"plan" yaml:"plan"`         // plan for newly created challenges
	Timezone string      `json:"timezone" yaml:"timezone"` // where a trading day starts
}

// StoreConfig selects where challenges live
type StoreConfig struct {
	Type   string `json:"type" yaml:"type"` // "sqlite" or "api"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// APIConfig points at the remote platform API
type APIConfig struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "30s"
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"` // debug|info|warn|error
}

// TimeoutDuration parses the timeout string. Empty means zero.
func (a APIConfig) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}

// Location returns the trading day zone, UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load builds the effective configuration: defaults or the file at path,
// then .env and PROPFIRM_* overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
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

type envOverrides struct {
	Store      string `envconfig:"STORE"`
	DB         string `envconfig:"DB"`
	APIURL     string `envconfig:"API_URL"`
	APIToken   string `envconfig:"API_TOKEN"`
	APITimeout string `envconfig:"API_TIMEOUT"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	Timezone   string `envconfig:"TIMEZONE"`
}

// ApplyEnv loads the given dotenv files (".env" when none are given;
// missing files are ignored) and overlays any PROPFIRM_* variables.
// Variables already set in the process win over dotenv values.
func (c *Config) ApplyEnv(dotenv ...string) error {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load dotenv: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("process env: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Store.Type, env.Store)
	set(&c.Store.DBPath, env.DB)
	set(&c.API.BaseURL, env.APIURL)
	set(&c.API.Token, env.APIToken)
	set(&c.API.Timeout, env.APITimeout)
	set(&c.Log.Level, env.LogLevel)
	set(&c.Timezone, env.Timezone)
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("store.db_path required for sqlite store")
		}
	case "api":
		if c.API.BaseURL == "" {
			return fmt.Errorf("api.base_url required for api store")
		}
	default:
		return fmt.Errorf("store.type must be 'sqlite' or 'api'")
	}
	if _, err := c.API.TimeoutDuration(); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if err := c.Plan.Validate(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("unknown timezone: %s", c.Timezone)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Type:   "sqlite",
			DBPath: "./propfirm.sqlite",
		},
		API: APIConfig{
			Timeout: "30s",
		},
		Log:      LogConfig{Level: "info"},
		Plan:     risk.DefaultPlan(),
		Timezone: "UTC",
	}
}
