package planorchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/payloadregistry"

	"github.com/c360studio/kanso/agent"
	"github.com/c360studio/kanso/plan"
)

// GenerateRequestType is the message type for plan generation triggers.
var GenerateRequestType = message.Type{Domain: "planner", Category: "generate-request", Version: "v1"}

// PlanResultType is the message type for plan generation results.
var PlanResultType = message.Type{Domain: "planner", Category: "plan-result", Version: "v1"}

// GenerateRequest is the trigger payload for plan generation.
type GenerateRequest struct {
	RequestID   string             `json:"requestId"`
	Topic       string             `json:"topic"`
	Context     string             `json:"context,omitempty"`
	Attachments []agent.Attachment `json:"attachments,omitempty"`
	History     []agent.Turn       `json:"history,omitempty"`

	// ReplySubject overrides the default result subject for this request.
	ReplySubject string `json:"replySubject,omitempty"`
}

// Schema implements message.Payload.
func (r *GenerateRequest) Schema() message.Type {
	return GenerateRequestType
}

// Validate implements message.Payload.
func (r *GenerateRequest) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("requestId is required")
	}
	if r.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	return nil
}

// PlanResult is the outcome payload for a generation request.
type PlanResult struct {
	RequestID string        `json:"requestId"`
	Status    string        `json:"status"` // completed | failed
	Project   *plan.Project `json:"project,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Schema implements message.Payload.
func (r *PlanResult) Schema() message.Type {
	return PlanResultType
}

// Validate implements message.Payload.
func (r *PlanResult) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("requestId is required")
	}
	if r.Status != "completed" && r.Status != "failed" {
		return fmt.Errorf("status must be completed or failed")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *PlanResult) MarshalJSON() ([]byte, error) {
	type Alias PlanResult
	return json.Marshal((*Alias)(r))
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *PlanResult) UnmarshalJSON(data []byte) error {
	type Alias PlanResult
	return json.Unmarshal(data, (*Alias)(r))
}

// RegisterPayloads registers the planner payload types with the
// supplied registry.
func RegisterPayloads(reg *payloadregistry.Registry) error {
	if err := reg.Register(&payloadregistry.Registration{
		Domain:      "planner",
		Category:    "generate-request",
		Version:     "v1",
		Description: "Plan generation trigger with topic and context",
		Factory:     func() any { return &GenerateRequest{} },
	}); err != nil {
		return fmt.Errorf("register generate-request payload: %w", err)
	}

	if err := reg.Register(&payloadregistry.Registration{
		Domain:      "planner",
		Category:    "plan-result",
		Version:     "v1",
		Description: "Scheduled project plan or generation failure",
		Factory:     func() any { return &PlanResult{} },
	}); err != nil {
		return fmt.Errorf("register plan-result payload: %w", err)
	}
	return nil
}
