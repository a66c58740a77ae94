package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.Temperature != 0.2 {
		t.Errorf("expected default temperature 0.2, got %f", cfg.Model.Temperature)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL nats://localhost:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Planner.GateIterations != 2 {
		t.Errorf("expected default gate iterations 2, got %d", cfg.Planner.GateIterations)
	}
	if cfg.Planner.MergeThreshold != 0.5 {
		t.Errorf("expected default merge threshold 0.5, got %f", cfg.Planner.MergeThreshold)
	}
	if !cfg.Research.Enabled {
		t.Error("expected research enabled by default")
	}
	if cfg.Research.MaxSources != 3 {
		t.Errorf("expected default max sources 3, got %d", cfg.Research.MaxSources)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "temperature too low",
			modify:  func(c *Config) { c.Model.Temperature = -0.1 },
			wantErr: true,
		},
		{
			name:    "temperature too high",
			modify:  func(c *Config) { c.Model.Temperature = 1.1 },
			wantErr: true,
		},
		{
			name:    "zero gate iterations",
			modify:  func(c *Config) { c.Planner.GateIterations = 0 },
			wantErr: true,
		},
		{
			name:    "merge threshold above one",
			modify:  func(c *Config) { c.Planner.MergeThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative max sources",
			modify:  func(c *Config) { c.Research.MaxSources = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kanso.yaml")

	content := `model:
  registry_path: /etc/kanso/models.json
  temperature: 0.7
nats:
  url: nats://broker:4222
planner:
  gate_iterations: 3
  merge_threshold: 0.3
research:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Model.RegistryPath != "/etc/kanso/models.json" {
		t.Errorf("registry path = %s", cfg.Model.RegistryPath)
	}
	if cfg.Model.Temperature != 0.7 {
		t.Errorf("temperature = %f", cfg.Model.Temperature)
	}
	if cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("nats url = %s", cfg.NATS.URL)
	}
	if cfg.Planner.GateIterations != 3 {
		t.Errorf("gate iterations = %d", cfg.Planner.GateIterations)
	}
	if cfg.Planner.MergeThreshold != 0.3 {
		t.Errorf("merge threshold = %f", cfg.Planner.MergeThreshold)
	}
	if cfg.Research.Enabled {
		t.Error("expected research disabled")
	}
	// Unspecified fields keep their defaults.
	if cfg.Research.MaxSources != 3 {
		t.Errorf("max sources = %d", cfg.Research.MaxSources)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Model.RegistryPath = "/opt/models.json"
	cfg.Model.Timeout = 2 * time.Minute
	cfg.Planner.GateIterations = 4

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if loaded.Model.RegistryPath != "/opt/models.json" {
		t.Errorf("registry path = %s", loaded.Model.RegistryPath)
	}
	if loaded.Model.Timeout != 2*time.Minute {
		t.Errorf("timeout = %v", loaded.Model.Timeout)
	}
	if loaded.Planner.GateIterations != 4 {
		t.Errorf("gate iterations = %d", loaded.Planner.GateIterations)
	}
}

func TestMergePrecedence(t *testing.T) {
	base := DefaultConfig()

	override := DefaultConfig()
	override.Model.RegistryPath = "/project/models.json"
	override.NATS.URL = "nats://project:4222"
	override.Planner.MergeThreshold = 0.8

	base.Merge(override)

	if base.Model.RegistryPath != "/project/models.json" {
		t.Errorf("registry path = %s", base.Model.RegistryPath)
	}
	if base.NATS.URL != "nats://project:4222" {
		t.Errorf("nats url = %s", base.NATS.URL)
	}
	if base.Planner.MergeThreshold != 0.8 {
		t.Errorf("merge threshold = %f", base.Planner.MergeThreshold)
	}
	// Unset values keep the base.
	if base.Planner.GateIterations != 2 {
		t.Errorf("gate iterations = %d", base.Planner.GateIterations)
	}
}

func TestMergeNil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	if cfg.Planner.GateIterations != 2 {
		t.Error("merge with nil changed config")
	}
}
