package model

import (
	"testing"
	"time"
)

// breakerRegistry returns a default registry with a deterministic
// circuit breaker for tests.
func breakerRegistry(threshold int, recovery time.Duration) *Registry {
	r := NewDefaultRegistry()
	r.SetHealthConfig(HealthConfig{
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
	})
	return r
}

func TestUntrackedEndpointsAreAvailable(t *testing.T) {
	r := NewDefaultRegistry()

	if !r.IsEndpointAvailable("qwen") {
		t.Error("endpoint should be available before any tracking")
	}
	if h := r.GetEndpointHealth("qwen"); h != nil {
		t.Errorf("GetEndpointHealth before any requests = %+v, want nil", h)
	}
}

func TestSuccessRecordsHealth(t *testing.T) {
	r := NewDefaultRegistry()

	r.MarkEndpointSuccess("qwen")

	h := r.GetEndpointHealth("qwen")
	if h == nil {
		t.Fatal("no health after success")
	}
	if !h.Available || h.CircuitOpen {
		t.Errorf("health after success = %+v", h)
	}
	if h.FailureCount != 0 || h.LastSuccess.IsZero() {
		t.Errorf("health after success = %+v", h)
	}
}

func TestCircuitTripsAtThreshold(t *testing.T) {
	r := breakerRegistry(2, time.Hour)

	r.MarkEndpointFailure("qwen")
	if !r.IsEndpointAvailable("qwen") {
		t.Error("one failure below threshold should not trip the circuit")
	}

	r.MarkEndpointFailure("qwen")
	if r.IsEndpointAvailable("qwen") {
		t.Error("circuit should be open at the threshold")
	}

	h := r.GetEndpointHealth("qwen")
	if h == nil || !h.CircuitOpen || h.FailureCount != 2 {
		t.Errorf("health after trip = %+v", h)
	}
}

func TestCircuitAdmitsProbeAfterRecoveryTimeout(t *testing.T) {
	r := breakerRegistry(1, 50*time.Millisecond)

	r.MarkEndpointFailure("qwen")
	if r.IsEndpointAvailable("qwen") {
		t.Error("circuit should be open right after tripping")
	}

	time.Sleep(60 * time.Millisecond)

	if !r.IsEndpointAvailable("qwen") {
		t.Error("circuit should admit a probe after the recovery timeout")
	}

	// A successful probe closes the circuit and clears the count.
	r.MarkEndpointSuccess("qwen")
	h := r.GetEndpointHealth("qwen")
	if h == nil || h.CircuitOpen || h.FailureCount != 0 {
		t.Errorf("health after probe success = %+v", h)
	}
}

func TestAvailableChainSkipsOpenCircuits(t *testing.T) {
	r := breakerRegistry(1, time.Hour)

	r.MarkEndpointFailure("qwen")

	chain := r.GetAvailableFallbackChain(CapabilityStructure)
	hasLlama := false
	for _, name := range chain {
		if name == "qwen" {
			t.Error("tripped endpoint should be filtered from the chain")
		}
		if name == "llama3.2" {
			hasLlama = true
		}
	}
	if !hasLlama {
		t.Errorf("healthy fallback missing from chain %v", chain)
	}
}

func TestAvailableChainFallsBackToFullChainWhenAllDown(t *testing.T) {
	r := breakerRegistry(1, time.Hour)

	for _, name := range r.ListEndpoints() {
		r.MarkEndpointFailure(name)
	}

	if chain := r.GetAvailableFallbackChain(CapabilityStructure); len(chain) == 0 {
		t.Error("chain should not be empty even with every circuit open")
	}
}

func TestResetForgetsEndpoint(t *testing.T) {
	r := breakerRegistry(1, time.Hour)

	r.MarkEndpointFailure("qwen")
	r.ResetEndpointHealth("qwen")

	if h := r.GetEndpointHealth("qwen"); h != nil {
		t.Errorf("health after reset = %+v, want nil", h)
	}
	if !r.IsEndpointAvailable("qwen") {
		t.Error("endpoint should be available after reset")
	}
}

func TestDefaultHealthConfig(t *testing.T) {
	cfg := DefaultHealthConfig()

	if cfg.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", cfg.FailureThreshold)
	}
	if cfg.RecoveryTimeout != 30*time.Second {
		t.Errorf("RecoveryTimeout = %v, want 30s", cfg.RecoveryTimeout)
	}
}
