// Package model provides capability-based model selection for planning
// stages. Instead of hardcoding model names, callers specify capabilities
// (analysis, structure, estimation) and the registry resolves them to
// available models with fallback chains.
package model

// Capability represents a semantic capability for model selection.
// Instead of specifying "claude-sonnet", callers specify "structure" or
// "estimation".
type Capability string

const (
	// CapabilityAnalysis is for requirement analysis and clarification checks.
	CapabilityAnalysis Capability = "analysis"

	// CapabilityStructure is for plan decomposition into phases and tasks.
	CapabilityStructure Capability = "structure"

	// CapabilityEstimation is for duration and buffer estimation.
	CapabilityEstimation Capability = "estimation"

	// CapabilityReviewing is for plan validation and critique.
	CapabilityReviewing Capability = "reviewing"

	// CapabilityChat is for conversational plan refinement.
	CapabilityChat Capability = "chat"

	// CapabilityFast is for quick responses, simple checks.
	CapabilityFast Capability = "fast"
)

// StageCapabilities maps pipeline stages to their default capability.
// Used when no explicit capability or model is specified.
var StageCapabilities = map[string]Capability{
	"analyst":    CapabilityAnalysis,
	"researcher": CapabilityFast,
	"architect":  CapabilityStructure,
	"estimator":  CapabilityEstimation,
	"reviewer":   CapabilityReviewing,
	"manager":    CapabilityChat,
}

// CapabilityForStage returns the default capability for a pipeline stage.
// Returns CapabilityChat as fallback for unknown stages.
func CapabilityForStage(stage string) Capability {
	if cap, ok := StageCapabilities[stage]; ok {
		return cap
	}
	return CapabilityChat
}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityAnalysis, CapabilityStructure, CapabilityEstimation,
		CapabilityReviewing, CapabilityChat, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
