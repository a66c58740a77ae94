package agent

import (
	"context"
	"fmt"

	"github.com/c360studio/kanso/llm"
)

// Completer is the slice of llm.Client the agents need. Satisfied by
// *llm.Client and by mocks in tests.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Artifact is the outcome of one producer invocation: the raw model
// output plus the JSON payload extracted from it. An empty JSON field is
// the parse-failure sentinel; the raw content is kept for diagnostics.
type Artifact struct {
	// Raw is the full model output.
	Raw string

	// JSON is the extracted, cleaned JSON object, or "" if none was found.
	JSON string

	// RequestID correlates the artifact with the underlying LLM call.
	RequestID string

	// Model is the model that produced the output.
	Model string
}

// ParseFailed reports whether no JSON payload could be extracted from
// the output.
func (a *Artifact) ParseFailed() bool {
	return a.JSON == ""
}

// Producer turns an instruction into an artifact. A returned error is a
// capability failure (transport, provider, configuration); parse failures
// are reported through the artifact, not the error.
type Producer interface {
	Produce(ctx context.Context, instruction string) (*Artifact, error)
}

// LLMProducer is a Producer backed by a capability-routed LLM completion.
type LLMProducer struct {
	client      Completer
	capability  string
	system      string
	temperature *float64
	maxTokens   int
}

// ProducerOption configures an LLMProducer.
type ProducerOption func(*LLMProducer)

// WithTemperature sets an explicit sampling temperature.
func WithTemperature(t float64) ProducerOption {
	return func(p *LLMProducer) { p.temperature = &t }
}

// WithMaxTokens limits the response length.
func WithMaxTokens(n int) ProducerOption {
	return func(p *LLMProducer) { p.maxTokens = n }
}

// NewProducer creates a producer for the given capability with a fixed
// system prompt.
func NewProducer(client Completer, capability, system string, opts ...ProducerOption) *LLMProducer {
	p := &LLMProducer{
		client:     client,
		capability: capability,
		system:     system,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Produce sends the instruction and extracts the JSON payload from the
// response.
func (p *LLMProducer) Produce(ctx context.Context, instruction string) (*Artifact, error) {
	messages := make([]llm.Message, 0, 2)
	if p.system != "" {
		messages = append(messages, llm.Message{Role: "system", Content: p.system})
	}
	messages = append(messages, llm.Message{Role: "user", Content: instruction})

	resp, err := p.client.Complete(ctx, llm.Request{
		Capability:  p.capability,
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", p.capability, err)
	}

	return &Artifact{
		Raw:       resp.Content,
		JSON:      llm.ExtractJSON(resp.Content),
		RequestID: resp.RequestID,
		Model:     resp.Model,
	}, nil
}
