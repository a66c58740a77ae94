package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromJSONWrappedDocument(t *testing.T) {
	r, err := LoadFromJSON([]byte(`{
		"model_registry": {
			"capabilities": {
				"structure": {
					"description": "Plan decomposition",
					"preferred": ["planner-lg"],
					"fallback": ["planner-sm"]
				}
			},
			"endpoints": {
				"planner-lg": {"provider": "test", "model": "planner-large"}
			},
			"defaults": {"model": "planner-lg"}
		}
	}`))
	if err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}

	if got := r.Resolve(CapabilityStructure); got != "planner-lg" {
		t.Errorf("Resolve(structure) = %q, want planner-lg", got)
	}
}

func TestLoadFromJSONBareDocument(t *testing.T) {
	r, err := LoadFromJSON([]byte(`{
		"capabilities": {
			"estimation": {"preferred": ["estimator"], "fallback": ["qwen"]}
		},
		"endpoints": {
			"estimator": {"provider": "ollama", "model": "estimator:7b"}
		}
	}`))
	if err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}

	if got := r.Resolve(CapabilityEstimation); got != "estimator" {
		t.Errorf("Resolve(estimation) = %q, want estimator", got)
	}
}

func TestLoadFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LoadFromJSON([]byte(`not valid json`)); err == nil {
		t.Error("LoadFromJSON should fail on non-JSON input")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	content := []byte(`{
		"model_registry": {
			"capabilities": {
				"fast": {"preferred": ["quick-model"], "fallback": []}
			},
			"endpoints": {
				"quick-model": {"provider": "ollama", "model": "quick"}
			}
		}
	}`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if got := r.Resolve(CapabilityFast); got != "quick-model" {
		t.Errorf("Resolve(fast) = %q, want quick-model", got)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadFromFile should fail on a missing file")
	}
}

func TestToConfigUsesStringKeys(t *testing.T) {
	cfg := NewDefaultRegistry().ToConfig()

	if cfg == nil || len(cfg.Capabilities) == 0 || len(cfg.Endpoints) == 0 {
		t.Fatalf("ToConfig() = %+v", cfg)
	}
	if _, ok := cfg.Capabilities["structure"]; !ok {
		t.Error("serialized config should key capabilities by name")
	}
}

func TestMergeFromConfigOverlaysWithoutErasing(t *testing.T) {
	r := NewDefaultRegistry()

	r.MergeFromConfig(&RegistryConfig{
		Capabilities: map[string]*CapabilityConfig{
			"structure": {Preferred: []string{"structure-v2"}},
		},
		Endpoints: map[string]*EndpointConfig{
			"structure-v2": {Provider: "ollama", Model: "structure-model-v2"},
		},
	})

	if got := r.Resolve(CapabilityStructure); got != "structure-v2" {
		t.Errorf("Resolve(structure) after merge = %q, want structure-v2", got)
	}
	// Everything the overlay didn't mention stays put.
	if got := r.Resolve(CapabilityEstimation); got == "" {
		t.Error("untouched capability should keep resolving")
	}
	if r.GetEndpoint("qwen") == nil {
		t.Error("pre-existing endpoints should survive the merge")
	}
}

func TestMergeFromConfigReplacesDefaults(t *testing.T) {
	r := NewDefaultRegistry()

	r.MergeFromConfig(&RegistryConfig{
		Defaults: &DefaultsConfig{Model: "house-default"},
	})

	if got := r.Resolve(Capability("unknown")); got != "house-default" {
		t.Errorf("Resolve(unknown) = %q, want house-default", got)
	}
}
