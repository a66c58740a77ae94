package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Stage identifies which agent role is currently driving the pipeline.
type Stage string

const (
	StageAnalyst    Stage = "analyst"
	StageResearcher Stage = "researcher"
	StageArchitect  Stage = "architect"
	StageEstimator  Stage = "estimator"
	StageReviewer   Stage = "reviewer"
	StageManager    Stage = "manager"
)

// Status is a progress event emitted before each external call and once
// more when the pipeline finishes.
type Status struct {
	Active  bool   `json:"active"`
	Stage   Stage  `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusSink receives progress events. Sink errors never affect the
// pipeline; the caller logs and drops them.
type StatusSink interface {
	Send(ctx context.Context, status Status) error
}

// ConsoleSink writes one-line progress updates, for CLI use.
type ConsoleSink struct {
	W io.Writer
}

// Send writes the status line.
func (s *ConsoleSink) Send(_ context.Context, status Status) error {
	if !status.Active {
		_, err := fmt.Fprintln(s.W, "done")
		return err
	}
	_, err := fmt.Fprintf(s.W, "[%s] %s\n", status.Stage, status.Message)
	return err
}

// notify sends a status event, swallowing sink failures. Progress
// reporting is best-effort and must never break planning.
func notify(ctx context.Context, sink StatusSink, logger *slog.Logger, status Status) {
	if sink == nil {
		return
	}
	if err := sink.Send(ctx, status); err != nil {
		logger.Debug("Status sink failed", "stage", status.Stage, "error", err)
	}
}
