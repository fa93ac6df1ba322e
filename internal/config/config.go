package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Provider struct {
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerMinute int           `yaml:"requests_per_minute"`
	} `yaml:"provider"`
	Chart struct {
		DaysToShow    int           `yaml:"days_to_show"`
		LookaheadDays int           `yaml:"lookahead_days"`
		Width         int           `yaml:"width"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
	} `yaml:"chart"`
	Storage struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// MissingCredentialError reports a required secret that is absent at startup.
type MissingCredentialError struct {
	Field   string
	EnvVars []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential %s (set %s)", e.Field, strings.Join(e.EnvVars, " or "))
}

var apiKeyEnv = []string{"AVTOKEN", "ALPHAVANTAGE_API_KEY"}

// Load starts from defaults, then applies the optional YAML file at path,
// .env and environment overrides. Values set explicitly, zero included, are
// kept. It does not validate.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	applyEnv(cfg)
	fillRequired(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	for _, k := range apiKeyEnv {
		if v := os.Getenv(k); v != "" {
			cfg.Provider.APIKey = v
			break
		}
	}
	if v := os.Getenv("AV_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("AV_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("DAYS_TO_SHOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chart.DaysToShow = n
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "33507"
	cfg.Server.ReadTimeout = 15 * time.Second
	// a multi-symbol submission can wait on the provider rate limiter
	cfg.Server.WriteTimeout = 3 * time.Minute
	cfg.Provider.BaseURL = "https://www.alphavantage.co"
	cfg.Provider.Timeout = 30 * time.Second
	cfg.Provider.RequestsPerMinute = 5
	cfg.Chart.DaysToShow = 100
	cfg.Chart.LookaheadDays = 3
	cfg.Chart.Width = 1000
	cfg.Chart.CacheTTL = 60 * time.Second
	cfg.Log.Level = "info"
	return cfg
}

// fillRequired restores defaults for values that have no meaningful empty form.
func fillRequired(cfg *Config) {
	def := defaultConfig()
	if cfg.Server.Port == "" {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	if cfg.Chart.Width <= 0 {
		cfg.Chart.Width = def.Chart.Width
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return &MissingCredentialError{Field: "provider.api_key", EnvVars: apiKeyEnv}
	}
	if c.Provider.RequestsPerMinute < 0 {
		return fmt.Errorf("provider.requests_per_minute must not be negative")
	}
	if c.Chart.DaysToShow < 1 {
		return fmt.Errorf("chart.days_to_show must be positive")
	}
	if c.Chart.LookaheadDays < 0 {
		return fmt.Errorf("chart.lookahead_days must not be negative")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
