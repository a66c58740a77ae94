package plan

import (
	"fmt"
	"log/slog"
)

// MergeOptions tunes how a proposed plan update is reconciled against the
// current task list.
type MergeOptions struct {
	// PartialUpdateThreshold guards against proposals that silently drop
	// tasks: when a proposal mentions fewer than this fraction of the
	// existing tasks, the unmentioned ones are preserved.
	PartialUpdateThreshold float64

	Logger *slog.Logger
}

// DefaultMergeOptions returns the standard merge tuning.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{PartialUpdateThreshold: 0.5}
}

// Merge reconciles a proposed plan update against the authoritative task
// list. Proposed tasks are matched to existing ones by ID; matched tasks
// take the proposed value for each field only when one is actually
// supplied (non-empty name/phase, non-nil description, positive duration,
// non-nil buffer and dependency list, non-empty subtasks). Unmatched
// proposed tasks become new tasks, with blank IDs synthesized as
// new_task_{n}. The merged list is re-scheduled before being returned.
func Merge(existing []Task, proposed *Draft, opts MergeOptions) []Task {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PartialUpdateThreshold <= 0 {
		opts.PartialUpdateThreshold = DefaultMergeOptions().PartialUpdateThreshold
	}
	if proposed == nil || len(proposed.Tasks) == 0 {
		return ScheduleWithLogger(existing, logger)
	}

	existingByID := make(map[string]Task, len(existing))
	for _, t := range existing {
		existingByID[t.ID] = t
	}

	merged := make([]Task, 0, len(proposed.Tasks))
	mentioned := make(map[string]bool, len(proposed.Tasks))

	for _, spec := range proposed.Tasks {
		mentioned[spec.ID] = true
		if current, ok := existingByID[spec.ID]; ok {
			merged = append(merged, mergeTask(current, spec))
			continue
		}

		task := buildTask(spec)
		if task.ID == "" {
			task.ID = fmt.Sprintf("new_task_%d", len(merged))
		}
		if task.Name == "" {
			task.Name = "New Task"
		}
		if task.Phase == "" {
			task.Phase = "New Phase"
		}
		merged = append(merged, task)
	}

	// A proposal covering only a small slice of the plan is treated as a
	// partial update rather than a deletion of everything it omits.
	if float64(len(proposed.Tasks)) < float64(len(existing))*opts.PartialUpdateThreshold {
		preserved := 0
		for _, t := range existing {
			if !mentioned[t.ID] {
				merged = append(merged, t)
				preserved++
			}
		}
		if preserved > 0 {
			logger.Warn("partial plan update, preserving unmentioned tasks",
				"proposed", len(proposed.Tasks),
				"existing", len(existing),
				"preserved", preserved)
		}
	}

	return ScheduleWithLogger(merged, logger)
}

// mergeTask overlays a proposed spec on an existing task, keeping the
// existing value for every field the proposal leaves out.
func mergeTask(current Task, spec TaskSpec) Task {
	out := current
	out.StartOffset = 0

	if spec.Name != "" {
		out.Name = spec.Name
	}
	if spec.Phase != "" {
		out.Phase = spec.Phase
	}
	if spec.Description != nil {
		out.Description = *spec.Description
	}
	out.Complexity = parseComplexityOr(spec.Complexity, current.Complexity)
	if spec.Duration != nil && *spec.Duration > 0 {
		out.Duration = *spec.Duration
	}
	if spec.Buffer != nil {
		out.Buffer = *spec.Buffer
		if out.Buffer < 0 {
			out.Buffer = 0
		}
	}
	if spec.Dependencies != nil {
		out.Dependencies = spec.Dependencies
	}
	if len(spec.Subtasks) > 0 {
		out.Subtasks = buildSubtasks(spec.Subtasks)
	}
	return out
}
