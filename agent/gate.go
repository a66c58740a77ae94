package agent

import (
	"context"
	"log/slog"
)

// DefaultMaxIterations bounds the producer/critic loop: one initial
// attempt plus one critique-informed retry.
const DefaultMaxIterations = 2

// GateResult is the outcome of a validation gate run.
type GateResult struct {
	// Artifact is the last candidate produced, valid or not.
	Artifact *Artifact

	// Verdict is the critic's final verdict on the candidate.
	Verdict Validation

	// Iterations is how many producer attempts were made.
	Iterations int

	// Exhausted is true when the iteration budget ran out without a
	// valid candidate. The artifact is still usable; callers decide how
	// much to trust it.
	Exhausted bool
}

// ValidationGate runs a producer/critic loop: the producer emits a
// candidate, the critic validates it, and on rejection the producer gets
// one more attempt with the critique folded into the instruction. The
// budget is bounded by MaxIterations; exhaustion is a soft failure.
type ValidationGate struct {
	Producer Producer
	Critic   Producer

	// MaxIterations is the total producer attempt budget. Zero or
	// negative means DefaultMaxIterations.
	MaxIterations int

	// BuildReview builds the critic's instruction from a candidate.
	BuildReview func(candidate string) string

	// BuildRetry builds the follow-up producer instruction from the
	// original instruction, the rejected candidate, and the critique.
	BuildRetry func(instruction, candidate, critique string) string

	Logger *slog.Logger
}

// Run drives the gate until a candidate passes review or the budget is
// exhausted. A nil error with Exhausted=true means the last candidate is
// returned despite failing review; errors are capability failures from
// the producer or critic.
func (g *ValidationGate) Run(ctx context.Context, instruction string) (*GateResult, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	budget := g.MaxIterations
	if budget <= 0 {
		budget = DefaultMaxIterations
	}

	inst := instruction
	var artifact *Artifact
	var verdict Validation

	for attempt := 1; attempt <= budget; attempt++ {
		a, err := g.Producer.Produce(ctx, inst)
		if err != nil {
			return nil, err
		}
		artifact = a

		if a.ParseFailed() {
			// No JSON to review. Treat it as a rejection so the retry
			// carries a format correction instead of wasting the critic.
			verdict = Validation{
				IsValid:  false,
				Critique: "The previous output was not a valid JSON object. Respond with a single JSON object and no surrounding prose.",
			}
		} else {
			v, err := g.review(ctx, a.JSON, logger)
			if err != nil {
				return nil, err
			}
			verdict = v
		}

		if verdict.IsValid {
			return &GateResult{Artifact: artifact, Verdict: verdict, Iterations: attempt}, nil
		}

		logger.Debug("Candidate rejected",
			"attempt", attempt,
			"budget", budget,
			"critique", verdict.Critique)

		if attempt < budget && g.BuildRetry != nil {
			candidate := a.JSON
			if candidate == "" {
				candidate = a.Raw
			}
			inst = g.BuildRetry(instruction, candidate, verdict.Critique)
		}
	}

	logger.Warn("Validation budget exhausted, proceeding with last candidate",
		"iterations", budget,
		"critique", verdict.Critique)

	return &GateResult{
		Artifact:   artifact,
		Verdict:    verdict,
		Iterations: budget,
		Exhausted:  true,
	}, nil
}

// review asks the critic for a verdict. An unparseable verdict defaults
// to valid: a critic that cannot articulate a critique blocks nothing.
func (g *ValidationGate) review(ctx context.Context, candidate string, logger *slog.Logger) (Validation, error) {
	if g.Critic == nil || g.BuildReview == nil {
		return Validation{IsValid: true}, nil
	}

	a, err := g.Critic.Produce(ctx, g.BuildReview(candidate))
	if err != nil {
		return Validation{}, err
	}

	verdict, ok := ParseValidation(a.JSON)
	if !ok {
		logger.Warn("Critic verdict unparseable, defaulting to valid",
			"request_id", a.RequestID)
	}
	return verdict, nil
}
