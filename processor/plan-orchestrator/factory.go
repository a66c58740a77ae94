package planorchestrator

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the plan-orchestrator component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "plan-orchestrator",
		Factory:     NewComponent,
		Schema:      orchestratorSchema,
		Type:        "processor",
		Protocol:    "planner",
		Domain:      "kanso",
		Description: "Runs the staged planning pipeline for generation triggers",
		Version:     "0.1.0",
	})
}
