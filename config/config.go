// Package config provides configuration loading and management for Kanso.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Kanso configuration
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	NATS     NATSConfig     `yaml:"nats"`
	Planner  PlannerConfig  `yaml:"planner"`
	Research ResearchConfig `yaml:"research"`
}

// ModelConfig configures the LLM model settings
type ModelConfig struct {
	// RegistryPath points to the model registry JSON file (empty = built-in defaults)
	RegistryPath string `yaml:"registry_path"`
	// Temperature controls randomness (0.0-1.0, default: 0.2)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for model responses
	Timeout time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (default: nats://localhost:4222)
	URL string `yaml:"url"`
	// Name is the client connection name
	Name string `yaml:"name"`
}

// PlannerConfig tunes the planning pipeline
type PlannerConfig struct {
	// GateIterations is the producer attempt budget per validation gate
	GateIterations int `yaml:"gate_iterations"`
	// MergeThreshold is the partial-update guard fraction (0-1)
	MergeThreshold float64 `yaml:"merge_threshold"`
}

// ResearchConfig configures context augmentation
type ResearchConfig struct {
	// Enabled turns URL-based research on
	Enabled bool `yaml:"enabled"`
	// MaxSources caps how many URLs are fetched per request
	MaxSources int `yaml:"max_sources"`
	// FetchTimeout bounds a single page fetch
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			RegistryPath: "",
			Temperature:  0.2,
			Timeout:      5 * time.Minute,
		},
		NATS: NATSConfig{
			URL:  "nats://localhost:4222",
			Name: "kanso",
		},
		Planner: PlannerConfig{
			GateIterations: 2,
			MergeThreshold: 0.5,
		},
		Research: ResearchConfig{
			Enabled:      true,
			MaxSources:   3,
			FetchTimeout: 15 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Planner.GateIterations < 1 {
		return fmt.Errorf("planner.gate_iterations must be at least 1")
	}
	if c.Planner.MergeThreshold < 0 || c.Planner.MergeThreshold > 1 {
		return fmt.Errorf("planner.merge_threshold must be between 0 and 1")
	}
	if c.Research.MaxSources < 0 {
		return fmt.Errorf("research.max_sources must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Model
	if other.Model.RegistryPath != "" {
		c.Model.RegistryPath = other.Model.RegistryPath
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Name != "" {
		c.NATS.Name = other.NATS.Name
	}

	// Planner
	if other.Planner.GateIterations != 0 {
		c.Planner.GateIterations = other.Planner.GateIterations
	}
	if other.Planner.MergeThreshold != 0 {
		c.Planner.MergeThreshold = other.Planner.MergeThreshold
	}

	// Research
	if other.Research.MaxSources != 0 {
		c.Research.MaxSources = other.Research.MaxSources
	}
	if other.Research.FetchTimeout != 0 {
		c.Research.FetchTimeout = other.Research.FetchTimeout
	}
	c.Research.Enabled = other.Research.Enabled
}
