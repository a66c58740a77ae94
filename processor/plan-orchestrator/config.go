package planorchestrator

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"
)

// orchestratorSchema defines the configuration schema.
var orchestratorSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the plan-orchestrator processor component.
type Config struct {
	// StreamName is the JetStream stream for consuming generation triggers.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream for plan generation triggers,category:basic,default:PLANNER"`

	// ConsumerName is the durable consumer name for trigger consumption.
	ConsumerName string `json:"consumer_name" schema:"type:string,description:Durable consumer name for trigger consumption,category:basic,default:plan-orchestrator"`

	// TriggerSubject is the subject pattern for generation triggers.
	TriggerSubject string `json:"trigger_subject" schema:"type:string,description:Subject pattern for plan generation triggers,category:basic,default:planner.trigger.generate"`

	// StatusSubjectPrefix is where per-request agent status events are published.
	StatusSubjectPrefix string `json:"status_subject_prefix" schema:"type:string,description:Subject prefix for per-request status events,category:basic,default:planner.status"`

	// ResultSubjectPrefix is where results go when a trigger carries no reply subject.
	ResultSubjectPrefix string `json:"result_subject_prefix" schema:"type:string,description:Subject prefix for plan results,category:basic,default:planner.result"`

	// GateIterations is the producer attempt budget per validation gate.
	GateIterations int `json:"gate_iterations" schema:"type:int,description:Producer attempt budget per validation gate,category:advanced,default:2"`

	// MergeThreshold is the partial-update guard fraction for plan merges.
	MergeThreshold float64 `json:"merge_threshold" schema:"type:float,description:Partial update guard fraction for plan merges,category:advanced,default:0.5"`

	// ResearchEnabled turns URL-based context augmentation on.
	ResearchEnabled bool `json:"research_enabled" schema:"type:bool,description:Enable URL-based context augmentation,category:advanced,default:false"`

	// Ports contains input/output port definitions.
	Ports *component.PortConfig `json:"ports,omitempty" schema:"type:ports,description:Input/output port definitions,category:basic"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		StreamName:          "PLANNER",
		ConsumerName:        "plan-orchestrator",
		TriggerSubject:      "planner.trigger.generate",
		StatusSubjectPrefix: "planner.status",
		ResultSubjectPrefix: "planner.result",
		GateIterations:      2,
		MergeThreshold:      0.5,
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "generation-triggers",
					Type:        "jetstream",
					Subject:     "planner.trigger.generate",
					StreamName:  "PLANNER",
					Description: "Receive plan generation triggers",
					Required:    true,
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "plan-results",
					Type:        "nats",
					Subject:     "planner.result.>",
					Description: "Publish generated plans",
					Required:    false,
				},
				{
					Name:        "status-events",
					Type:        "nats",
					Subject:     "planner.status.>",
					Description: "Publish per-request agent status events",
					Required:    false,
				},
			},
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.TriggerSubject == "" {
		return fmt.Errorf("trigger_subject is required")
	}
	if c.GateIterations < 0 {
		return fmt.Errorf("gate_iterations must not be negative")
	}
	if c.MergeThreshold < 0 || c.MergeThreshold > 1 {
		return fmt.Errorf("merge_threshold must be between 0 and 1")
	}
	return nil
}
