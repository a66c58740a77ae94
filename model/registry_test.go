package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// twoModelRegistry wires one capability to a preferred/fallback pair.
func twoModelRegistry(cap Capability) *Registry {
	return NewRegistry(
		map[Capability]*CapabilityConfig{
			cap: {Preferred: []string{"primary"}, Fallback: []string{"secondary"}},
		},
		map[string]*EndpointConfig{
			"primary":   {Provider: "test", Model: "primary-v1"},
			"secondary": {Provider: "test", Model: "secondary-v1"},
		},
	)
}

func TestDefaultRegistryCoversEveryPlanningCapability(t *testing.T) {
	r := NewDefaultRegistry()

	for _, cap := range []Capability{
		CapabilityAnalysis, CapabilityStructure, CapabilityEstimation,
		CapabilityReviewing, CapabilityChat, CapabilityFast,
	} {
		if got := r.Resolve(cap); got == "" {
			t.Errorf("Resolve(%s) returned empty model", cap)
		}
		if chain := r.GetFallbackChain(cap); len(chain) < 2 {
			t.Errorf("GetFallbackChain(%s) = %v, want preferred plus fallback", cap, chain)
		}
	}

	if err := r.Validate(); err != nil {
		t.Errorf("default registry should validate: %v", err)
	}
}

func TestResolvePrefersFirstPreferredModel(t *testing.T) {
	r := NewDefaultRegistry()

	if got := r.Resolve(CapabilityStructure); got != "claude-opus" {
		t.Errorf("Resolve(structure) = %q, want claude-opus", got)
	}
	if got := r.Resolve(CapabilityFast); got != "claude-haiku" {
		t.Errorf("Resolve(fast) = %q, want claude-haiku", got)
	}
	// Unknown capabilities fall through to the default model.
	if got := r.Resolve(Capability("juggling")); got != "qwen" {
		t.Errorf("Resolve(juggling) = %q, want default qwen", got)
	}
}

func TestFallbackChainOrdering(t *testing.T) {
	r := twoModelRegistry(CapabilityEstimation)

	chain := r.GetFallbackChain(CapabilityEstimation)
	if len(chain) != 2 || chain[0] != "primary" || chain[1] != "secondary" {
		t.Errorf("chain = %v, want [primary secondary]", chain)
	}

	// A capability nobody configured still yields something to try.
	chain = r.GetFallbackChain(CapabilityChat)
	if len(chain) != 1 {
		t.Errorf("unconfigured capability chain = %v, want the default model only", chain)
	}
}

func TestForStageRoutesThroughStageCapability(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		stage string
		want  string
	}{
		{"architect", "claude-opus"},
		{"estimator", "claude-sonnet"},
		{"reviewer", "claude-sonnet"},
		{"researcher", "claude-haiku"},
		{"manager", "claude-sonnet"},
	}
	for _, tt := range tests {
		if got := r.ForStage(tt.stage); got != tt.want {
			t.Errorf("ForStage(%q) = %q, want %q", tt.stage, got, tt.want)
		}
	}

	if chain := r.GetFallbackChainForStage("architect"); len(chain) == 0 || chain[0] != "claude-opus" {
		t.Errorf("GetFallbackChainForStage(architect) = %v", chain)
	}
}

func TestEndpointLookupAndMutation(t *testing.T) {
	r := twoModelRegistry(CapabilityStructure)

	if ep := r.GetEndpoint("primary"); ep == nil || ep.Model != "primary-v1" {
		t.Errorf("GetEndpoint(primary) = %+v", ep)
	}
	if ep := r.GetEndpoint("no-such-model"); ep != nil {
		t.Errorf("GetEndpoint(no-such-model) = %+v, want nil", ep)
	}

	r.SetEndpoint("extra", &EndpointConfig{Provider: "ollama", URL: "http://gpu:11434/v1", Model: "extra-v1"})
	if ep := r.GetEndpoint("extra"); ep == nil || ep.URL != "http://gpu:11434/v1" {
		t.Errorf("GetEndpoint(extra) after SetEndpoint = %+v", ep)
	}

	r.SetCapability(Capability("screening"), &CapabilityConfig{Preferred: []string{"extra"}})
	if got := r.Resolve(Capability("screening")); got != "extra" {
		t.Errorf("Resolve(screening) = %q, want extra", got)
	}

	r.SetDefault("extra")
	if got := r.Resolve(Capability("unknown")); got != "extra" {
		t.Errorf("Resolve(unknown) after SetDefault = %q, want extra", got)
	}
}

func TestRegistrySurvivesJSONRoundtrip(t *testing.T) {
	original := NewDefaultRegistry()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := &Registry{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(restored.ListCapabilities()) != len(original.ListCapabilities()) {
		t.Errorf("capability count changed across roundtrip")
	}
	if got := restored.Resolve(CapabilityStructure); got != "claude-opus" {
		t.Errorf("restored Resolve(structure) = %q, want claude-opus", got)
	}
}

func TestValidateReportsDanglingModelReferences(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *Registry
		wantErr string
	}{
		{
			name:  "consistent registry",
			build: func() *Registry { return twoModelRegistry(CapabilityStructure) },
		},
		{
			name: "preferred model without endpoint",
			build: func() *Registry {
				return NewRegistry(
					map[Capability]*CapabilityConfig{
						CapabilityStructure: {Preferred: []string{"ghost"}},
					},
					map[string]*EndpointConfig{},
				)
			},
			wantErr: `preferred model "ghost" not found`,
		},
		{
			name: "fallback model without endpoint",
			build: func() *Registry {
				r := twoModelRegistry(CapabilityEstimation)
				r.SetCapability(CapabilityEstimation, &CapabilityConfig{
					Preferred: []string{"primary"},
					Fallback:  []string{"phantom"},
				})
				return r
			},
			wantErr: `fallback model "phantom" not found`,
		},
		{
			name: "default model without endpoint",
			build: func() *Registry {
				r := twoModelRegistry(CapabilityChat)
				r.SetDefault("vapor")
				return r
			},
			wantErr: `default model "vapor" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	r := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityStructure: {Preferred: []string{"missing1"}, Fallback: []string{"missing2"}},
		},
		map[string]*EndpointConfig{},
	)

	err := r.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, name := range []string{"missing1", "missing2"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Validate() should mention %q: %v", name, err)
		}
	}
}
