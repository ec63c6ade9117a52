// Package config loads the application's yaml configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the CLIs and the server.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	Clickhouse struct {
		DSN string `yaml:"dsn"`
	} `yaml:"clickhouse"`

	Simulation struct {
		StartingCash       string  `yaml:"starting_cash"`
		AllocationFraction float64 `yaml:"allocation_fraction"`
	} `yaml:"simulation"`

	Benchmark struct {
		Ticker string `yaml:"ticker"`
	} `yaml:"benchmark"`

	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`

	Tracing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tracing"`
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.Simulation.AllocationFraction <= 0 || c.Simulation.AllocationFraction > 1 {
		return fmt.Errorf("simulation.allocation_fraction must be in (0, 1], got %.4f",
			c.Simulation.AllocationFraction)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}
	return nil
}

// Load reads and validates the yaml file at path, filling defaults for
// absent fields.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// Default returns a config with all defaults applied, for callers that
// run without a config file.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Simulation.StartingCash == "" {
		c.Simulation.StartingCash = "10000"
	}
	if c.Simulation.AllocationFraction == 0 {
		c.Simulation.AllocationFraction = 0.10
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
}
