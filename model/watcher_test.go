package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "registry.json")

	writeConfig := func(model string) {
		t.Helper()
		content := `{
			"capabilities": {
				"structure": {"preferred": ["` + model + `"], "fallback": []}
			},
			"endpoints": {
				"` + model + `": {"provider": "test", "model": "` + model + `"}
			}
		}`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}

	writeConfig("model-v1")

	registry, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load initial config: %v", err)
	}

	w, err := NewWatcher(configPath, registry, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	writeConfig("model-v2")

	// Poll until the reload lands or we give up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if registry.Resolve(CapabilityStructure) == "model-v2" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("expected registry to reload to model-v2, still %q", registry.Resolve(CapabilityStructure))
}

func TestWatcherKeepsConfigOnBrokenFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "registry.json")

	content := `{
		"capabilities": {"structure": {"preferred": ["model-v1"], "fallback": []}},
		"endpoints": {"model-v1": {"provider": "test", "model": "model-v1"}}
	}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	registry, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load initial config: %v", err)
	}

	w, err := NewWatcher(configPath, registry, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	if err := os.WriteFile(configPath, []byte(`{broken`), 0644); err != nil {
		t.Fatalf("failed to write broken config: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if got := registry.Resolve(CapabilityStructure); got != "model-v1" {
		t.Errorf("expected registry unchanged after broken reload, got %q", got)
	}
}
