// Package plan defines the task graph produced by the planning pipeline:
// projects, tasks, subtasks, dependency scheduling, and merging of
// conversational plan updates.
package plan

import "encoding/json"

// Complexity buckets a task for buffer estimation.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

// ParseComplexity maps a raw string onto a Complexity, defaulting to
// Medium for anything unrecognized.
func ParseComplexity(s string) Complexity {
	switch s {
	case string(ComplexityLow):
		return ComplexityLow
	case string(ComplexityMedium):
		return ComplexityMedium
	case string(ComplexityHigh):
		return ComplexityHigh
	default:
		return ComplexityMedium
	}
}

// parseComplexityOr is ParseComplexity with an explicit fallback, used
// during merges where the existing task's complexity must survive an
// invalid or absent proposal.
func parseComplexityOr(s string, fallback Complexity) Complexity {
	switch s {
	case string(ComplexityLow), string(ComplexityMedium), string(ComplexityHigh):
		return Complexity(s)
	default:
		return fallback
	}
}

const (
	// MinTaskDuration is the floor applied to task durations after
	// normalization. Durations are in working days.
	MinTaskDuration = 0.5

	// DefaultTaskDuration is assumed when a producer omits a task duration.
	DefaultTaskDuration = 1.0

	// DefaultSubtaskDuration is assumed when a producer omits a subtask
	// duration or supplies a non-positive one.
	DefaultSubtaskDuration = 0.5
)

// Subtask is a leaf work item inside a task. Durations are in days.
type Subtask struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Duration    float64 `json:"duration"`
}

// Task is a schedulable unit of work. StartOffset is derived by the
// scheduler and never trusted from input.
type Task struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Phase        string     `json:"phase"`
	Description  string     `json:"description,omitempty"`
	Complexity   Complexity `json:"complexity"`
	Subtasks     []Subtask  `json:"subtasks"`
	Dependencies []string   `json:"dependencies"`
	Duration     float64    `json:"duration"`
	Buffer       float64    `json:"buffer"`
	StartOffset  float64    `json:"startOffset"`
}

// Project is the assembled plan handed back to callers.
type Project struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Assumptions   []string `json:"assumptions"`
	Tasks         []Task   `json:"tasks"`
	TotalDuration float64  `json:"totalDuration"`
}

// SubtaskSpec is the wire shape a producer emits for a subtask. Duration
// is a pointer so an omitted value is distinguishable from zero.
type SubtaskSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
}

// TaskSpec is the wire shape a producer emits for a task. Optional fields
// are pointers (or nilable slices) so the merger can tell "absent" from
// "explicitly empty".
type TaskSpec struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Phase        string        `json:"phase"`
	Description  *string       `json:"description,omitempty"`
	Complexity   string        `json:"complexity,omitempty"`
	Subtasks     []SubtaskSpec `json:"subtasks,omitempty"`
	Dependencies []string      `json:"dependencies,omitempty"`
	Duration     *float64      `json:"duration,omitempty"`
	Buffer       *float64      `json:"buffer,omitempty"`
}

// Draft is the raw plan structure a producer emits, before normalization
// and scheduling. It doubles as the updatedPlan shape in chat refinement.
type Draft struct {
	ProjectTitle   string     `json:"projectTitle"`
	ProjectSummary string     `json:"projectSummary"`
	Assumptions    []string   `json:"assumptions,omitempty"`
	Tasks          []TaskSpec `json:"tasks"`
}

// ParseDraft decodes a producer JSON object into a Draft.
func ParseDraft(data []byte) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// BuildTasks normalizes the draft's task specs into Tasks. Durations are
// floored at MinTaskDuration, buffers at zero, and start offsets reset;
// the scheduler assigns real offsets later.
func (d *Draft) BuildTasks() []Task {
	tasks := make([]Task, 0, len(d.Tasks))
	for _, spec := range d.Tasks {
		tasks = append(tasks, buildTask(spec))
	}
	return tasks
}

func buildTask(spec TaskSpec) Task {
	duration := DefaultTaskDuration
	if spec.Duration != nil {
		duration = *spec.Duration
	}
	if duration < MinTaskDuration {
		duration = MinTaskDuration
	}

	buffer := 0.0
	if spec.Buffer != nil && *spec.Buffer > 0 {
		buffer = *spec.Buffer
	}

	description := ""
	if spec.Description != nil {
		description = *spec.Description
	}

	deps := spec.Dependencies
	if deps == nil {
		deps = []string{}
	}

	return Task{
		ID:           spec.ID,
		Name:         spec.Name,
		Phase:        spec.Phase,
		Description:  description,
		Complexity:   ParseComplexity(spec.Complexity),
		Subtasks:     buildSubtasks(spec.Subtasks),
		Dependencies: deps,
		Duration:     duration,
		Buffer:       buffer,
		StartOffset:  0,
	}
}

func buildSubtasks(specs []SubtaskSpec) []Subtask {
	subtasks := make([]Subtask, 0, len(specs))
	for _, s := range specs {
		duration := DefaultSubtaskDuration
		if s.Duration != nil && *s.Duration > 0 {
			duration = *s.Duration
		}
		subtasks = append(subtasks, Subtask{
			Name:        s.Name,
			Description: s.Description,
			Duration:    duration,
		})
	}
	return subtasks
}

// Assemble builds the final Project from a draft's metadata and an
// already-scheduled task list.
func Assemble(d *Draft, tasks []Task) *Project {
	assumptions := d.Assumptions
	if assumptions == nil {
		assumptions = []string{}
	}
	return &Project{
		Title:         d.ProjectTitle,
		Description:   d.ProjectSummary,
		Assumptions:   assumptions,
		Tasks:         tasks,
		TotalDuration: TotalDuration(tasks),
	}
}
