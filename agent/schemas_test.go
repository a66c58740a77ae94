package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClarification(t *testing.T) {
	c, ok := ParseClarification(`{"needsClarification": true, "questions": ["what stack?"], "reasoning": "scope unclear"}`)
	require.True(t, ok)
	assert.True(t, c.NeedsClarification)
	assert.Equal(t, []string{"what stack?"}, c.Questions)
}

func TestParseClarificationMalformedProceedsWithoutQuestions(t *testing.T) {
	c, ok := ParseClarification("the model rambled instead")
	assert.False(t, ok)
	assert.False(t, c.NeedsClarification)
	assert.Empty(t, c.Questions)
}

func TestParseFileRelevance(t *testing.T) {
	f, ok := ParseFileRelevance(`{"isRelevant": false, "reason": "vacation photos"}`)
	require.True(t, ok)
	assert.False(t, f.IsRelevant)
	assert.Equal(t, "vacation photos", f.Reason)
}

func TestParseFileRelevanceMalformedKeepsAttachment(t *testing.T) {
	f, ok := ParseFileRelevance("")
	assert.False(t, ok)
	assert.True(t, f.IsRelevant)
}

func TestParseValidation(t *testing.T) {
	v, ok := ParseValidation(`{"isValid": false, "critique": "missing dependencies"}`)
	require.True(t, ok)
	assert.False(t, v.IsValid)
	assert.Equal(t, "missing dependencies", v.Critique)
}

func TestParseValidationMalformedDefaultsToValid(t *testing.T) {
	v, ok := ParseValidation("I think it looks fine")
	assert.False(t, ok)
	assert.True(t, v.IsValid)
}

func TestParseValidationMissingFieldDefaultsToValid(t *testing.T) {
	v, ok := ParseValidation(`{"critique": "looks good overall"}`)
	require.True(t, ok)
	assert.True(t, v.IsValid)
	assert.Equal(t, "looks good overall", v.Critique)
}

func TestParseChatReply(t *testing.T) {
	r, ok := ParseChatReply(`{"reply": "added a task", "updatedPlan": {"tasks": [{"id": "deploy"}]}}`)
	require.True(t, ok)
	assert.Equal(t, "added a task", r.Reply)
	require.NotNil(t, r.UpdatedPlan)
	require.Len(t, r.UpdatedPlan.Tasks, 1)
	assert.Equal(t, "deploy", r.UpdatedPlan.Tasks[0].ID)
}

func TestParseChatReplyWithoutPlan(t *testing.T) {
	r, ok := ParseChatReply(`{"reply": "the critical path runs through build"}`)
	require.True(t, ok)
	assert.Nil(t, r.UpdatedPlan)
}
