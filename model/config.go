package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// RegistryConfig is the JSON shape of a registry on disk.
type RegistryConfig struct {
	Capabilities map[string]*CapabilityConfig `json:"capabilities"`
	Endpoints    map[string]*EndpointConfig   `json:"endpoints"`
	Defaults     *DefaultsConfig              `json:"defaults,omitempty"`
}

// LoadFromFile reads a registry from a JSON file. The file may hold the
// registry config directly or nested under a "model_registry" key.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromJSON(data)
}

// LoadFromJSON parses a registry from JSON, accepting either the bare
// config or a wrapper document with a "model_registry" key.
func LoadFromJSON(data []byte) (*Registry, error) {
	var wrapper struct {
		ModelRegistry *RegistryConfig `json:"model_registry"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.ModelRegistry != nil {
		return registryFromConfig(wrapper.ModelRegistry), nil
	}

	var cfg RegistryConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse registry config: %w", err)
	}
	return registryFromConfig(&cfg), nil
}

func registryFromConfig(cfg *RegistryConfig) *Registry {
	caps := make(map[Capability]*CapabilityConfig, len(cfg.Capabilities))
	for k, v := range cfg.Capabilities {
		caps[capabilityKey(k)] = v
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = &DefaultsConfig{Model: "default"}
	}

	return &Registry{
		capabilities: caps,
		endpoints:    cfg.Endpoints,
		defaults:     defaults,
	}
}

// capabilityKey maps a config key to a Capability, passing unknown
// names through so custom capabilities keep working.
func capabilityKey(name string) Capability {
	if cap := ParseCapability(name); cap != "" {
		return cap
	}
	return Capability(name)
}

// ToConfig snapshots the registry into its serializable form.
func (r *Registry) ToConfig() *RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string]*CapabilityConfig, len(r.capabilities))
	for k, v := range r.capabilities {
		caps[string(k)] = v
	}

	return &RegistryConfig{
		Capabilities: caps,
		Endpoints:    r.endpoints,
		Defaults:     r.defaults,
	}
}

// MergeFromConfig overlays cfg onto the registry, overwriting entries
// that collide. Used by the file watcher on hot reload.
func (r *Registry) MergeFromConfig(cfg *RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range cfg.Capabilities {
		r.capabilities[capabilityKey(k)] = v
	}
	for k, v := range cfg.Endpoints {
		r.endpoints[k] = v
	}
	if cfg.Defaults != nil {
		r.defaults = cfg.Defaults
	}
}
