// Package agent implements the planning pipeline: LLM-backed producers
// for each stage, a producer/critic validation gate, and the controller
// that turns a project topic into a scheduled task plan.
package agent

import (
	"encoding/json"

	"github.com/c360studio/kanso/plan"
)

// Clarification is the analyst's verdict on whether a request carries
// enough information to plan against.
type Clarification struct {
	NeedsClarification bool     `json:"needsClarification"`
	Questions          []string `json:"questions,omitempty"`
	Reasoning          string   `json:"reasoning,omitempty"`
}

// FileRelevance is the verdict on whether an attachment belongs to the
// project being planned.
type FileRelevance struct {
	IsRelevant bool   `json:"isRelevant"`
	Reason     string `json:"reason,omitempty"`
}

// Validation is a critic's verdict on a produced candidate. A verdict
// that omits isValid counts as valid: only an explicit false rejects.
type Validation struct {
	IsValid  bool   `json:"isValid"`
	Critique string `json:"critique,omitempty"`
}

func (v *Validation) UnmarshalJSON(data []byte) error {
	var raw struct {
		IsValid  *bool  `json:"isValid"`
		Critique string `json:"critique"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.IsValid = raw.IsValid == nil || *raw.IsValid
	v.Critique = raw.Critique
	return nil
}

// ChatReply is the manager's response to a refinement message. UpdatedPlan
// is nil when the reply is conversational only.
type ChatReply struct {
	Reply       string      `json:"reply"`
	UpdatedPlan *plan.Draft `json:"updatedPlan,omitempty"`
}

// ParseClarification decodes an analyst verdict. Malformed output means
// the analyst could not articulate a question, so planning proceeds: the
// zero value (no clarification needed) is returned with ok=false.
func ParseClarification(data string) (Clarification, bool) {
	var c Clarification
	if data == "" || json.Unmarshal([]byte(data), &c) != nil {
		return Clarification{}, false
	}
	return c, true
}

// ParseFileRelevance decodes a relevance verdict. Malformed output keeps
// the attachment: dropping user-provided material on a parse hiccup is
// worse than passing it through.
func ParseFileRelevance(data string) (FileRelevance, bool) {
	var f FileRelevance
	if data == "" || json.Unmarshal([]byte(data), &f) != nil {
		return FileRelevance{IsRelevant: true}, false
	}
	return f, true
}

// ParseValidation decodes a critic verdict. A critic that cannot produce
// a parseable verdict has no actionable critique, so the candidate is
// treated as valid: ok=false signals the fallback was used.
func ParseValidation(data string) (Validation, bool) {
	var v Validation
	if data == "" || json.Unmarshal([]byte(data), &v) != nil {
		return Validation{IsValid: true}, false
	}
	return v, true
}

// ParseChatReply decodes a manager response.
func ParseChatReply(data string) (ChatReply, bool) {
	var r ChatReply
	if data == "" || json.Unmarshal([]byte(data), &r) != nil {
		return ChatReply{}, false
	}
	return r, true
}
