// Package config loads edit store server settings from YAML
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings
type Config struct {
	GRPCPort    int           `yaml:"grpc_port"`
	MetricsPort int           `yaml:"metrics_port"`
	Log         LogConfig     `yaml:"log"`
	Undo        UndoConfig    `yaml:"undo"`
	Shutdown    time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects logger output
type LogConfig struct {
	Level      string `yaml:"level"`
	Pretty     bool   `yaml:"pretty"`
	WithCaller bool   `yaml:"with_caller"`
}

// UndoConfig sets the undo window used when a discard does not specify one
type UndoConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		GRPCPort:    50061,
		MetricsPort: 9091,
		Log:         LogConfig{Level: "info"},
		Undo:        UndoConfig{Timeout: 5 * time.Second},
		Shutdown:    10 * time.Second,
	}
}

// LoadFile reads path over the defaults. An empty path yields the defaults.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data over the defaults
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port %d", c.GRPCPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics_port %d", c.MetricsPort)
	}
	if c.Undo.Timeout < 0 {
		return fmt.Errorf("invalid undo timeout %s", c.Undo.Timeout)
	}
	return nil
}

// Marshal serializes the settings to YAML
func Marshal(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}
