package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Postgres struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		SSLMode      string        `yaml:"ssl_mode"`
		MaxConns     int           `yaml:"max_conns"`
		MinConns     int           `yaml:"min_conns"`
		ConnLifetime time.Duration `yaml:"conn_lifetime"`
	} `yaml:"postgres"`
	Redis struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Password     string `yaml:"password"`
		DB           int    `yaml:"db"`
		Prefix       string `yaml:"prefix"`
		Stream       string `yaml:"stream"`
		Group        string `yaml:"group"`
		Consumer     string `yaml:"consumer"`
		ReadCacheTTL time.Duration `yaml:"read_cache_ttl"`
	} `yaml:"redis"`
	CurveSeries struct {
		Enabled      bool          `yaml:"enabled"`
		BridgeURL    string        `yaml:"bridge_url"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxRPS       float64       `yaml:"max_rps"`
		ProbeFormula string        `yaml:"probe_formula"`
	} `yaml:"curveseries"`
	Sync struct {
		DefaultDays int `yaml:"default_days"`
	} `yaml:"sync"`
	Prefetch struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
		Days     int           `yaml:"days"`
	} `yaml:"prefetch"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// The core packages never read the environment themselves; resolved values
// flow in through constructors.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CURVESERIES_BRIDGE_URL"); v != "" {
		c.CurveSeries.BridgeURL = v
	}
	if v := os.Getenv("CURVESERIES_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CurveSeries.Enabled = b
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required")
	}
	if c.Postgres.Database == "" {
		return fmt.Errorf("postgres.database is required")
	}
	if c.CurveSeries.Enabled && c.CurveSeries.BridgeURL == "" {
		return fmt.Errorf("curveseries.bridge_url is required when curveseries.enabled")
	}
	if c.Sync.DefaultDays <= 0 {
		c.Sync.DefaultDays = 30
	}
	if c.CurveSeries.Timeout <= 0 {
		c.CurveSeries.Timeout = 30 * time.Second
	}
	return nil
}
