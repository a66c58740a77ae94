package model

import "sync"

var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// Global returns the process-wide registry, building the default one on
// first use.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewDefaultRegistry()
	})
	return globalRegistry
}

// InitGlobal installs r as the process-wide registry. Only the first
// initialization, whether through here or Global, wins.
func InitGlobal(r *Registry) {
	globalOnce.Do(func() {
		globalRegistry = r
	})
}

// ResetGlobal clears the singleton so tests can reinitialize. Not safe
// for concurrent use.
func ResetGlobal() {
	globalOnce = sync.Once{}
	globalRegistry = nil
}
