package plan

import (
	"log/slog"
	"sort"
)

// Schedule recomputes every task's StartOffset from its dependency graph
// and returns the tasks sorted by ascending start offset. It never fails:
// dependencies that reference unknown IDs are ignored, and tasks caught
// in a dependency cycle are pinned to offset 0 with a warning. The input
// slice is not modified, and scheduling an already-scheduled list yields
// the same result.
func Schedule(tasks []Task) []Task {
	return ScheduleWithLogger(tasks, slog.Default())
}

// ScheduleWithLogger is Schedule with an explicit logger for cycle
// warnings.
func ScheduleWithLogger(tasks []Task, logger *slog.Logger) []Task {
	if logger == nil {
		logger = slog.Default()
	}
	if len(tasks) == 0 {
		return []Task{}
	}

	// Duplicate IDs collapse: the last occurrence wins, keeping the
	// position of the first.
	order := make([]string, 0, len(tasks))
	byID := make(map[string]*Task, len(tasks))
	for i := range tasks {
		t := tasks[i] // copy
		t.StartOffset = 0
		if _, seen := byID[t.ID]; !seen {
			order = append(order, t.ID)
		}
		byID[t.ID] = &t
	}

	visited := make(map[string]bool, len(byID))
	visiting := make(map[string]bool, len(byID))
	stack := make([]string, 0, len(byID))
	cyclic := make(map[string]bool)

	var resolve func(id string) float64
	resolve = func(id string) float64 {
		if visiting[id] {
			// Every task on the cycle is pinned at offset 0. Dependents
			// outside the cycle still wait for a member's duration+buffer.
			logger.Warn("dependency cycle detected, scheduling cycle members at offset 0", "task_id", id)
			for i := len(stack) - 1; i >= 0; i-- {
				cyclic[stack[i]] = true
				if stack[i] == id {
					break
				}
			}
			return 0
		}
		task := byID[id]
		if visited[id] {
			return task.StartOffset
		}

		visiting[id] = true
		stack = append(stack, id)

		maxEnd := 0.0
		for _, depID := range task.Dependencies {
			dep, ok := byID[depID]
			if !ok {
				continue // dangling reference
			}
			depStart := resolve(depID)
			if end := depStart + dep.Duration + dep.Buffer; end > maxEnd {
				maxEnd = end
			}
		}

		stack = stack[:len(stack)-1]
		delete(visiting, id)
		visited[id] = true

		if cyclic[id] {
			maxEnd = 0
		}
		task.StartOffset = maxEnd
		return maxEnd
	}

	for _, id := range order {
		resolve(id)
	}

	result := make([]Task, 0, len(order))
	for _, id := range order {
		result = append(result, *byID[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartOffset < result[j].StartOffset
	})
	return result
}

// TotalDuration returns the project end time: the maximum of
// startOffset+duration+buffer across all tasks, or 0 for an empty list.
func TotalDuration(tasks []Task) float64 {
	total := 0.0
	for _, t := range tasks {
		if end := t.StartOffset + t.Duration + t.Buffer; end > total {
			total = end
		}
	}
	return total
}
