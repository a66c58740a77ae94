package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/kanso/model"
	"github.com/c360studio/kanso/plan"
)

// Turn is one entry of the conversation history passed to the analyst
// and manager stages.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attachment is a user-provided file considered as planning context.
type Attachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Request is a full plan-generation request.
type Request struct {
	Topic       string       `json:"topic"`
	Context     string       `json:"context,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	History     []Turn       `json:"history,omitempty"`
}

// ChatResult is the outcome of a refinement turn. Updated is true when
// the manager changed the plan.
type ChatResult struct {
	Reply   string        `json:"reply"`
	Project *plan.Project `json:"project"`
	Updated bool          `json:"updated"`
}

// Researcher augments the planning context with external findings for a
// topic. Implementations are best-effort: an error or empty findings
// never blocks planning.
type Researcher interface {
	Augment(ctx context.Context, topic, background string) (string, error)
}

// Pipeline drives the staged plan generation flow: optional research,
// attachment screening, structure and estimation gates, a final cleanup
// pass, and conversational refinement.
type Pipeline struct {
	client     Completer
	sink       StatusSink
	logger     *slog.Logger
	researcher Researcher

	gateIterations int
	mergeThreshold float64
	temperature    *float64
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithStatusSink sets the progress event sink.
func WithStatusSink(s StatusSink) PipelineOption {
	return func(p *Pipeline) { p.sink = s }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithResearcher enables the research stage.
func WithResearcher(r Researcher) PipelineOption {
	return func(p *Pipeline) { p.researcher = r }
}

// WithGateIterations sets the producer attempt budget per validation gate.
func WithGateIterations(n int) PipelineOption {
	return func(p *Pipeline) { p.gateIterations = n }
}

// WithMergeThreshold sets the partial-update guard threshold used when
// merging estimator and manager proposals.
func WithMergeThreshold(f float64) PipelineOption {
	return func(p *Pipeline) { p.mergeThreshold = f }
}

// WithDefaultTemperature sets the sampling temperature for all producers.
func WithDefaultTemperature(t float64) PipelineOption {
	return func(p *Pipeline) { p.temperature = &t }
}

// NewPipeline creates a pipeline over the given completion client.
func NewPipeline(client Completer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		client:         client,
		logger:         slog.Default(),
		gateIterations: DefaultMaxIterations,
		mergeThreshold: plan.DefaultMergeOptions().PartialUpdateThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) producer(stage Stage, system string) *LLMProducer {
	opts := []ProducerOption{}
	if p.temperature != nil {
		opts = append(opts, WithTemperature(*p.temperature))
	}
	capability := model.CapabilityForStage(string(stage)).String()
	return NewProducer(p.client, capability, system, opts...)
}

func (p *Pipeline) mergeOptions() plan.MergeOptions {
	return plan.MergeOptions{
		PartialUpdateThreshold: p.mergeThreshold,
		Logger:                 p.logger,
	}
}

// Analyze runs the analyst stage: decide whether the request is
// plannable or needs clarifying questions first.
func (p *Pipeline) Analyze(ctx context.Context, topic string, history []Turn) (*Clarification, error) {
	notify(ctx, p.sink, p.logger, Status{Active: true, Stage: StageAnalyst, Message: "Checking whether the request is plannable"})

	artifact, err := p.producer(StageAnalyst, AnalystSystemPrompt()).Produce(ctx, AnalystPrompt(topic, history))
	if err != nil {
		return nil, err
	}

	c, ok := ParseClarification(artifact.JSON)
	if !ok {
		p.logger.Warn("Analyst verdict unparseable, proceeding without clarification",
			"request_id", artifact.RequestID)
	}
	return &c, nil
}

// GeneratePlan runs the full generation flow and returns a scheduled
// project plan.
func (p *Pipeline) GeneratePlan(ctx context.Context, req Request) (*plan.Project, error) {
	defer notify(ctx, p.sink, p.logger, Status{Active: false})

	planningContext := p.gatherContext(ctx, req)

	draft, tasks, err := p.runStructure(ctx, req.Topic, planningContext)
	if err != nil {
		return nil, err
	}

	tasks, err = p.runEstimation(ctx, draft, tasks)
	if err != nil {
		return nil, err
	}

	draft, tasks = p.runFinalReview(ctx, draft, tasks)

	return plan.Assemble(draft, tasks), nil
}

// gatherContext assembles the planning context: the caller-supplied
// context, research findings, and attachments that pass relevance
// screening.
func (p *Pipeline) gatherContext(ctx context.Context, req Request) string {
	var sections []string
	if req.Context != "" {
		sections = append(sections, req.Context)
	}

	if p.researcher != nil {
		notify(ctx, p.sink, p.logger, Status{Active: true, Stage: StageResearcher, Message: "Gathering background on the topic"})
		findings, err := p.researcher.Augment(ctx, req.Topic, req.Context)
		switch {
		case err != nil:
			p.logger.Warn("Research failed, continuing without findings", "error", err)
		case findings != "":
			sections = append(sections, "## Research Findings\n\n"+findings)
		}
	}

	for _, att := range req.Attachments {
		if section := p.screenAttachment(ctx, req.Topic, att); section != "" {
			sections = append(sections, section)
		}
	}

	return strings.Join(sections, "\n\n")
}

// screenAttachment asks the fast model whether an attachment is relevant.
// Screening failures keep the attachment; only an explicit negative
// verdict drops it, leaving an audit note in the context.
func (p *Pipeline) screenAttachment(ctx context.Context, topic string, att Attachment) string {
	included := fmt.Sprintf("## Attachment: %s\n\n%s", att.Name, att.Content)

	artifact, err := p.producer(StageResearcher, "").Produce(ctx, FileValidatorPrompt(topic, att.Name, att.Content))
	if err != nil {
		p.logger.Warn("Attachment screening failed, keeping attachment",
			"file", att.Name, "error", err)
		return included
	}

	verdict, ok := ParseFileRelevance(artifact.JSON)
	if !ok {
		p.logger.Warn("Attachment verdict unparseable, keeping attachment",
			"file", att.Name, "request_id", artifact.RequestID)
	}
	if verdict.IsRelevant {
		return included
	}

	p.logger.Info("Attachment excluded as not relevant",
		"file", att.Name, "reason", verdict.Reason)
	return fmt.Sprintf("Note: the attached file %q was excluded as not relevant to this project (%s).", att.Name, verdict.Reason)
}

// runStructure produces the task breakdown through the architect gate.
// A final unparseable candidate is a hard failure: there is nothing to
// schedule without a structure.
func (p *Pipeline) runStructure(ctx context.Context, topic, planningContext string) (*plan.Draft, []plan.Task, error) {
	notify(ctx, p.sink, p.logger, Status{Active: true, Stage: StageArchitect, Message: "Breaking the project into tasks"})

	gate := &ValidationGate{
		Producer:      p.producer(StageArchitect, ArchitectSystemPrompt()),
		Critic:        p.producer(StageReviewer, ""),
		MaxIterations: p.gateIterations,
		BuildReview:   StructureReviewPrompt,
		BuildRetry:    RetryPrompt,
		Logger:        p.logger,
	}

	result, err := gate.Run(ctx, ArchitectPrompt(topic, planningContext))
	if err != nil {
		return nil, nil, err
	}
	if result.Artifact.ParseFailed() {
		return nil, nil, fmt.Errorf("architect produced no parseable plan after %d attempts", result.Iterations)
	}

	draft, err := plan.ParseDraft([]byte(result.Artifact.JSON))
	if err != nil {
		return nil, nil, fmt.Errorf("decode task breakdown: %w", err)
	}

	tasks := plan.ScheduleWithLogger(draft.BuildTasks(), p.logger)
	return draft, tasks, nil
}

// runEstimation adds durations and buffers through the estimator gate.
// Estimation is additive: if the estimator's output cannot be used, the
// structure's default durations stand.
func (p *Pipeline) runEstimation(ctx context.Context, draft *plan.Draft, tasks []plan.Task) ([]plan.Task, error) {
	notify(ctx, p.sink, p.logger, Status{Active: true, Stage: StageEstimator, Message: "Estimating durations and buffers"})

	planJSON := marshalProject(plan.Assemble(draft, tasks))

	gate := &ValidationGate{
		Producer:      p.producer(StageEstimator, EstimatorSystemPrompt()),
		Critic:        p.producer(StageReviewer, ""),
		MaxIterations: p.gateIterations,
		BuildReview:   EstimateReviewPrompt,
		BuildRetry:    RetryPrompt,
		Logger:        p.logger,
	}

	result, err := gate.Run(ctx, EstimatorPrompt(planJSON))
	if err != nil {
		return nil, err
	}
	if result.Artifact.ParseFailed() {
		p.logger.Warn("Estimator produced no parseable output, keeping default durations")
		return tasks, nil
	}

	proposal, err := plan.ParseDraft([]byte(result.Artifact.JSON))
	if err != nil {
		p.logger.Warn("Estimator output undecodable, keeping default durations", "error", err)
		return tasks, nil
	}

	return plan.Merge(tasks, proposal, p.mergeOptions()), nil
}

// runFinalReview gives the reviewer one cleanup pass over the complete
// plan. The pass may polish wording but never restructure: an output
// with a different task count is discarded.
func (p *Pipeline) runFinalReview(ctx context.Context, draft *plan.Draft, tasks []plan.Task) (*plan.Draft, []plan.Task) {
	notify(ctx, p.sink, p.logger, Status{Active: true, Stage: StageReviewer, Message: "Final cleanup pass"})

	planJSON := marshalProject(plan.Assemble(draft, tasks))

	artifact, err := p.producer(StageReviewer, "").Produce(ctx, FinalReviewPrompt(planJSON))
	if err != nil {
		p.logger.Warn("Final review failed, keeping plan as-is", "error", err)
		return draft, tasks
	}
	if artifact.ParseFailed() {
		p.logger.Warn("Final review produced no parseable output, keeping plan as-is",
			"request_id", artifact.RequestID)
		return draft, tasks
	}

	proposal, err := plan.ParseDraft([]byte(artifact.JSON))
	if err != nil {
		p.logger.Warn("Final review output undecodable, keeping plan as-is", "error", err)
		return draft, tasks
	}
	if len(proposal.Tasks) != len(tasks) {
		p.logger.Warn("Final review changed the task count, keeping plan as-is",
			"before", len(tasks), "after", len(proposal.Tasks))
		return draft, tasks
	}

	merged := plan.Merge(tasks, proposal, p.mergeOptions())

	updated := *draft
	if proposal.ProjectTitle != "" {
		updated.ProjectTitle = proposal.ProjectTitle
	}
	if proposal.ProjectSummary != "" {
		updated.ProjectSummary = proposal.ProjectSummary
	}
	if len(proposal.Assumptions) > 0 {
		updated.Assumptions = proposal.Assumptions
	}
	return &updated, merged
}

// Refine runs one conversational refinement turn against an existing
// plan. A manager reply that carries no parseable payload is returned
// verbatim with the plan untouched.
func (p *Pipeline) Refine(ctx context.Context, project *plan.Project, message string, history []Turn) (*ChatResult, error) {
	notify(ctx, p.sink, p.logger, Status{Active: true, Stage: StageManager, Message: "Updating the plan"})
	defer notify(ctx, p.sink, p.logger, Status{Active: false})

	artifact, err := p.producer(StageManager, ManagerSystemPrompt()).Produce(ctx, ManagerPrompt(marshalProject(project), history, message))
	if err != nil {
		return nil, err
	}

	reply, ok := ParseChatReply(artifact.JSON)
	if artifact.ParseFailed() || !ok {
		p.logger.Warn("Manager reply unparseable, returning raw text",
			"request_id", artifact.RequestID)
		return &ChatResult{Reply: artifact.Raw, Project: project}, nil
	}

	if reply.UpdatedPlan == nil {
		return &ChatResult{Reply: reply.Reply, Project: project}, nil
	}

	tasks := plan.Merge(project.Tasks, reply.UpdatedPlan, p.mergeOptions())

	updated := &plan.Draft{
		ProjectTitle:   project.Title,
		ProjectSummary: project.Description,
		Assumptions:    project.Assumptions,
	}
	if reply.UpdatedPlan.ProjectTitle != "" {
		updated.ProjectTitle = reply.UpdatedPlan.ProjectTitle
	}
	if reply.UpdatedPlan.ProjectSummary != "" {
		updated.ProjectSummary = reply.UpdatedPlan.ProjectSummary
	}
	if len(reply.UpdatedPlan.Assumptions) > 0 {
		updated.Assumptions = reply.UpdatedPlan.Assumptions
	}

	return &ChatResult{
		Reply:   reply.Reply,
		Project: plan.Assemble(updated, tasks),
		Updated: true,
	}, nil
}

func marshalProject(p *plan.Project) string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
