package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/natsclient"
)

// DefaultJournalSubject is the NATS subject call records are published to.
const DefaultJournalSubject = "planner.audit.llm"

// CallRecord captures a single completion call for auditing: which
// capability asked, which model answered, how long it took, and what it
// cost in tokens.
type CallRecord struct {
	RequestID        string    `json:"requestId"`
	Capability       string    `json:"capability"`
	Model            string    `json:"model,omitempty"`
	Provider         string    `json:"provider,omitempty"`
	PromptTokens     int       `json:"promptTokens,omitempty"`
	CompletionTokens int       `json:"completionTokens,omitempty"`
	TotalTokens      int       `json:"totalTokens,omitempty"`
	FinishReason     string    `json:"finishReason,omitempty"`
	StartedAt        time.Time `json:"startedAt"`
	DurationMs       int64     `json:"durationMs"`
	Retries          int       `json:"retries,omitempty"`
	FallbacksUsed    []string  `json:"fallbacksUsed,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// Journal records completed LLM calls. Implementations must be safe for
// concurrent use; Record errors are logged by the client and never fail
// the call being recorded.
type Journal interface {
	Record(ctx context.Context, record *CallRecord) error
}

// NATSJournal publishes call records as JSON to a NATS subject, where
// they can be tailed for debugging or persisted by a downstream consumer.
type NATSJournal struct {
	nc      *natsclient.Client
	subject string
}

// NewNATSJournal creates a journal publishing to the given subject,
// defaulting to DefaultJournalSubject.
func NewNATSJournal(nc *natsclient.Client, subject string) *NATSJournal {
	if subject == "" {
		subject = DefaultJournalSubject
	}
	return &NATSJournal{nc: nc, subject: subject}
}

// Record publishes the call record.
func (j *NATSJournal) Record(ctx context.Context, record *CallRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal call record: %w", err)
	}
	if err := j.nc.Publish(ctx, j.subject, data); err != nil {
		return fmt.Errorf("publish call record: %w", err)
	}
	return nil
}
