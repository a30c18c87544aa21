// Package config loads vecdemo settings from a TOML or YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/marcodamonte/concurrency/growable-array/internal/fill"
	"github.com/marcodamonte/concurrency/growable-array/internal/log"
)

// Config holds all vecdemo settings.
type Config struct {
	Vector  VectorConfig  `toml:"vector" yaml:"vector"`
	Fill    FillConfig    `toml:"fill" yaml:"fill"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
}

// VectorConfig holds construction parameters for the vectors the demo builds.
type VectorConfig struct {
	// Slots reserved before the first append.
	InitialCapacity int `toml:"initial_capacity" yaml:"initial_capacity"`
	// Byte budget shared by all vectors of a run; 0 means unlimited.
	// Defaults to DefaultMemoryLimit.
	MemoryLimit int `toml:"memory_limit" yaml:"memory_limit"`
}

type FillConfig struct {
	Strategy string `toml:"strategy" yaml:"strategy"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	JSON  bool   `toml:"json" yaml:"json"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// DefaultMemoryLimit caps the bytes a run may charge unless a file says
// otherwise. A count read from input must fail with ErrAllocation rather
// than exhaust the machine, which the Go runtime treats as fatal.
const DefaultMemoryLimit = 1 << 30

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Vector: VectorConfig{MemoryLimit: DefaultMemoryLimit},
		Fill:   FillConfig{Strategy: string(fill.Append)},
		Log:  LogConfig{Level: "info"},
	}
}

// Load reads path on top of Default. The format is chosen by extension:
// .toml, or .yaml/.yml. The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".toml", ".yaml", ".yml").
func Parse(ext string, data []byte) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Vector.InitialCapacity < 0 {
		result = multierror.Append(result,
			fmt.Errorf("vector.initial_capacity must be >= 0, got %d", c.Vector.InitialCapacity))
	}
	if c.Vector.MemoryLimit < 0 {
		result = multierror.Append(result,
			fmt.Errorf("vector.memory_limit must be >= 0, got %d", c.Vector.MemoryLimit))
	}
	if _, err := c.Strategy(); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := c.LogLevel(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Strategy returns the configured fill strategy.
func (c *Config) Strategy() (fill.Strategy, error) {
	s, err := fill.ParseStrategy(c.Fill.Strategy)
	if err != nil {
		return "", fmt.Errorf("fill.strategy: %w", err)
	}
	return s, nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() (int, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
