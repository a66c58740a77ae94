package model

import (
	"sync"
	"time"
)

// EndpointHealth is a snapshot of one endpoint's circuit breaker state.
type EndpointHealth struct {
	Available       bool      `json:"available"`
	LastSuccess     time.Time `json:"last_success,omitempty"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
	FailureCount    int       `json:"failure_count"`
	CircuitOpen     bool      `json:"circuit_open"`
	CircuitOpenedAt time.Time `json:"circuit_opened_at,omitempty"`
}

// HealthConfig tunes the circuit breaker.
type HealthConfig struct {
	// FailureThreshold is how many consecutive failures trip the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long a tripped circuit blocks requests
	// before letting a probe through.
	RecoveryTimeout time.Duration

	// HalfOpenRequests is how many probes the half-open state admits.
	HalfOpenRequests int
}

// DefaultHealthConfig returns the circuit breaker defaults.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 1,
	}
}

type healthState struct {
	mu       sync.RWMutex
	config   HealthConfig
	statuses map[string]*EndpointHealth
}

func newHealthState(cfg HealthConfig) *healthState {
	return &healthState{
		config:   cfg,
		statuses: make(map[string]*EndpointHealth),
	}
}

func (h *healthState) getOrCreate(name string) *EndpointHealth {
	h.mu.Lock()
	defer h.mu.Unlock()

	if status, ok := h.statuses[name]; ok {
		return status
	}

	status := &EndpointHealth{Available: true}
	h.statuses[name] = status
	return status
}

// ensureHealth lazily builds the tracker so registries constructed
// without health config still track.
func (r *Registry) ensureHealth() *healthState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.health == nil {
		r.health = newHealthState(DefaultHealthConfig())
	}
	return r.health
}

// MarkEndpointSuccess records a success and closes the circuit.
func (r *Registry) MarkEndpointSuccess(name string) {
	health := r.ensureHealth()
	status := health.getOrCreate(name)

	health.mu.Lock()
	defer health.mu.Unlock()

	status.LastSuccess = time.Now()
	status.FailureCount = 0
	status.Available = true
	status.CircuitOpen = false
}

// MarkEndpointFailure records a failure; reaching the threshold trips
// the circuit.
func (r *Registry) MarkEndpointFailure(name string) {
	health := r.ensureHealth()
	status := health.getOrCreate(name)

	health.mu.Lock()
	defer health.mu.Unlock()

	status.LastFailure = time.Now()
	status.FailureCount++

	if status.FailureCount >= health.config.FailureThreshold {
		status.CircuitOpen = true
		status.CircuitOpenedAt = time.Now()
		status.Available = false
	}
}

// IsEndpointAvailable reports whether the endpoint may be tried. A
// tripped circuit admits requests again once RecoveryTimeout has
// passed, which is the half-open probe.
func (r *Registry) IsEndpointAvailable(name string) bool {
	r.mu.RLock()
	health := r.health
	r.mu.RUnlock()
	if health == nil {
		return true
	}

	health.mu.RLock()
	status, ok := health.statuses[name]
	if !ok {
		health.mu.RUnlock()
		return true
	}
	circuitOpen := status.CircuitOpen
	openedAt := status.CircuitOpenedAt
	recoveryTimeout := health.config.RecoveryTimeout
	health.mu.RUnlock()

	if !circuitOpen {
		return true
	}
	return time.Since(openedAt) > recoveryTimeout
}

// GetEndpointHealth returns a copy of the endpoint's health, nil when
// the endpoint has never been tracked.
func (r *Registry) GetEndpointHealth(name string) *EndpointHealth {
	r.mu.RLock()
	health := r.health
	r.mu.RUnlock()
	if health == nil {
		return nil
	}

	health.mu.RLock()
	defer health.mu.RUnlock()

	status, ok := health.statuses[name]
	if !ok {
		return nil
	}
	snapshot := *status
	return &snapshot
}

// GetAvailableFallbackChain returns the capability's fallback chain
// with open-circuit endpoints filtered out. When everything is down the
// full chain comes back unfiltered; trying something beats failing
// without a request.
func (r *Registry) GetAvailableFallbackChain(cap Capability) []string {
	chain := r.GetFallbackChain(cap)
	available := make([]string, 0, len(chain))

	for _, name := range chain {
		if r.IsEndpointAvailable(name) {
			available = append(available, name)
		}
	}

	if len(available) == 0 {
		return chain
	}
	return available
}

// SetHealthConfig replaces the circuit breaker configuration.
func (r *Registry) SetHealthConfig(cfg HealthConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.health == nil {
		r.health = newHealthState(cfg)
		return
	}

	r.health.mu.Lock()
	r.health.config = cfg
	r.health.mu.Unlock()
}

// ResetEndpointHealth forgets everything tracked about an endpoint.
func (r *Registry) ResetEndpointHealth(name string) {
	r.mu.RLock()
	health := r.health
	r.mu.RUnlock()
	if health == nil {
		return
	}

	health.mu.Lock()
	defer health.mu.Unlock()

	delete(health.statuses, name)
}
