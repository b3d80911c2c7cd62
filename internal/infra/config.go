package infra

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive values can be
// overridden via environment variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Port               int `yaml:"port"`
		ReadTimeoutSec     int `yaml:"read_timeout_sec"`
		WriteTimeoutSec    int `yaml:"write_timeout_sec"`
		ShutdownTimeoutSec int `yaml:"shutdown_timeout_sec"`
	} `yaml:"server"`

	Auth struct {
		JWTSecret    string `yaml:"jwt_secret"`
		TokenTTLHour int    `yaml:"token_ttl_hour"`
	} `yaml:"auth"`

	Trading struct {
		Commission      decimal.Decimal `yaml:"commission"`
		StartingBalance decimal.Decimal `yaml:"starting_balance"`
		MaxRetries      int             `yaml:"max_retries"`
	} `yaml:"trading"`

	Market struct {
		APIKey          string   `yaml:"api_key"`
		BaseURL         string   `yaml:"base_url"`
		QuoteTTLSec     int      `yaml:"quote_ttl_sec"`
		TrackedSymbols  []string `yaml:"tracked_symbols"`
		StreamIntervalS int      `yaml:"stream_interval_sec"`
		LogoURLTemplate string   `yaml:"logo_url_template"`
	} `yaml:"market"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config pre-filled with the values the
// original deployment shipped with.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 3001
	cfg.Server.ReadTimeoutSec = 10
	cfg.Server.WriteTimeoutSec = 30
	cfg.Server.ShutdownTimeoutSec = 10
	cfg.Auth.TokenTTLHour = 7 * 24
	cfg.Trading.Commission = decimal.RequireFromString("4.95")
	cfg.Trading.StartingBalance = decimal.NewFromInt(100000)
	cfg.Trading.MaxRetries = 5
	cfg.Market.BaseURL = "https://www.alphavantage.co/query"
	cfg.Market.QuoteTTLSec = 60
	cfg.Market.StreamIntervalS = 5
	cfg.Market.LogoURLTemplate = "https://financialmodelingprep.com/image-stock/%s.png"
	cfg.Storage.Path = "data/vse.db"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return cfg
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required (set VSE_JWT_SECRET)")
	}
	if c.Auth.TokenTTLHour <= 0 {
		return fmt.Errorf("auth token ttl must be positive")
	}
	if c.Trading.Commission.IsNegative() {
		return fmt.Errorf("commission must not be negative")
	}
	if !c.Trading.StartingBalance.IsPositive() {
		return fmt.Errorf("starting balance must be positive")
	}
	if c.Trading.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.Market.QuoteTTLSec <= 0 {
		return fmt.Errorf("quote ttl must be positive")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	return nil
}

// Duration accessors for the plain-integer yaml fields.

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSec) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSec) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSec) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHour) * time.Hour
}

func (c *Config) QuoteTTL() time.Duration {
	return time.Duration(c.Market.QuoteTTLSec) * time.Second
}

func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.Market.StreamIntervalS) * time.Second
}

// overrideWithEnv replaces settings from the environment when present.
func overrideWithEnv(cfg *Config) {
	if secret := os.Getenv("VSE_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if key := os.Getenv("ALPHA_VANTAGE_KEY"); key != "" {
		cfg.Market.APIKey = key
	}
	if path := os.Getenv("VSE_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}
