package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComplexity(t *testing.T) {
	assert.Equal(t, ComplexityLow, ParseComplexity("Low"))
	assert.Equal(t, ComplexityHigh, ParseComplexity("High"))
	assert.Equal(t, ComplexityMedium, ParseComplexity("Medium"))
	assert.Equal(t, ComplexityMedium, ParseComplexity(""))
	assert.Equal(t, ComplexityMedium, ParseComplexity("extreme"))
}

func TestParseDraft(t *testing.T) {
	raw := `{
		"projectTitle": "Garden Studio",
		"projectSummary": "Build a backyard studio",
		"assumptions": ["permits already granted"],
		"tasks": [
			{
				"id": "t1",
				"name": "Foundation",
				"phase": "Groundwork",
				"complexity": "High",
				"duration": 3,
				"buffer": 0.9,
				"dependencies": [],
				"subtasks": [{"name": "excavate", "duration": 1}]
			},
			{
				"id": "t2",
				"name": "Framing",
				"phase": "Build",
				"description": null,
				"duration": null,
				"dependencies": ["t1"]
			}
		]
	}`

	d, err := ParseDraft([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Garden Studio", d.ProjectTitle)
	require.Len(t, d.Tasks, 2)
	assert.Nil(t, d.Tasks[1].Duration)
	assert.Nil(t, d.Tasks[1].Description)

	_, err = ParseDraft([]byte(`{"tasks": "nope"}`))
	assert.Error(t, err)
}

func TestBuildTasksNormalization(t *testing.T) {
	d := &Draft{Tasks: []TaskSpec{
		{ID: "t1", Name: "a", Phase: "p"}, // no duration
		{ID: "t2", Name: "b", Phase: "p", Duration: ptr(0.1), Buffer: ptr(-2.0)},
		{ID: "t3", Name: "c", Phase: "p", Duration: ptr(2.0), Complexity: "weird",
			Subtasks: []SubtaskSpec{
				{Name: "s1"},
				{Name: "s2", Duration: ptr(-1.0)},
				{Name: "s3", Duration: ptr(2.0)},
			}},
	}}

	tasks := d.BuildTasks()
	require.Len(t, tasks, 3)

	assert.Equal(t, DefaultTaskDuration, tasks[0].Duration)
	assert.NotNil(t, tasks[0].Dependencies)

	// Durations are floored, buffers never negative.
	assert.Equal(t, MinTaskDuration, tasks[1].Duration)
	assert.Equal(t, 0.0, tasks[1].Buffer)

	assert.Equal(t, ComplexityMedium, tasks[2].Complexity)
	require.Len(t, tasks[2].Subtasks, 3)
	assert.Equal(t, DefaultSubtaskDuration, tasks[2].Subtasks[0].Duration)
	assert.Equal(t, DefaultSubtaskDuration, tasks[2].Subtasks[1].Duration)
	assert.Equal(t, 2.0, tasks[2].Subtasks[2].Duration)
}

func TestAssemble(t *testing.T) {
	d := &Draft{
		ProjectTitle:   "Garden Studio",
		ProjectSummary: "Build a backyard studio",
		Tasks: []TaskSpec{
			{ID: "t1", Name: "a", Phase: "p", Duration: ptr(2.0)},
			{ID: "t2", Name: "b", Phase: "p", Duration: ptr(1.0), Dependencies: []string{"t1"}},
		},
	}

	project := Assemble(d, Schedule(d.BuildTasks()))
	assert.Equal(t, "Garden Studio", project.Title)
	assert.NotNil(t, project.Assumptions)
	assert.Equal(t, 3.0, project.TotalDuration)

	// Wire shape stays camelCase.
	data, err := json.Marshal(project)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalDuration":3`)
	assert.Contains(t, string(data), `"startOffset":2`)
}
