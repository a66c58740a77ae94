package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/kanso/llm"
)

func TestOllamaBuildURL(t *testing.T) {
	p := &OllamaProvider{}

	tests := []struct {
		baseURL string
		want    string
	}{
		{"", "http://localhost:11434/v1/chat/completions"},
		{"http://gpu-box:8080/v1", "http://gpu-box:8080/v1/chat/completions"},
		{"http://localhost:11434/v1/", "http://localhost:11434/v1/chat/completions"},
		{"http://localhost:11434/v1/chat/completions", "http://localhost:11434/v1/chat/completions"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.BuildURL(tt.baseURL), "baseURL=%q", tt.baseURL)
	}
}

func TestOllamaBuildRequestBody(t *testing.T) {
	p := &OllamaProvider{}

	temp := 0.2
	body, err := p.BuildRequestBody("qwen2.5-coder:14b", []llm.Message{
		{Role: "system", Content: "You estimate task durations."},
		{Role: "user", Content: "Estimate the plan"},
	}, &temp, 2048)
	require.NoError(t, err)

	var req openAIRequest
	require.NoError(t, json.Unmarshal(body, &req))

	assert.Equal(t, "qwen2.5-coder:14b", req.Model)
	// Unlike Anthropic, the system turn stays an ordinary message.
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.2, *req.Temperature)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 2048, *req.MaxTokens)
}

func TestOllamaBuildRequestBodyOmitsUnsetOptions(t *testing.T) {
	p := &OllamaProvider{}

	body, err := p.BuildRequestBody("test-model", []llm.Message{
		{Role: "user", Content: "hello"},
	}, nil, 0)
	require.NoError(t, err)

	assert.NotContains(t, string(body), `"temperature"`)
	assert.NotContains(t, string(body), `"max_tokens"`)
}

func TestOllamaZeroTemperatureIsExplicit(t *testing.T) {
	p := &OllamaProvider{}

	temp := 0.0
	body, err := p.BuildRequestBody("test-model", []llm.Message{
		{Role: "user", Content: "hello"},
	}, &temp, 0)
	require.NoError(t, err)

	assert.Contains(t, string(body), `"temperature":0`)
}

func TestOllamaParseResponse(t *testing.T) {
	p := &OllamaProvider{}

	resp, err := p.ParseResponse([]byte(`{
		"id": "chatcmpl-42",
		"object": "chat.completion",
		"model": "qwen2.5-coder:14b",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "{\"tasks\": []}"},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 6, "total_tokens": 16}
	}`), "test-model")
	require.NoError(t, err)

	assert.Equal(t, `{"tasks": []}`, resp.Content)
	assert.Equal(t, "qwen2.5-coder:14b", resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
}

func TestOllamaParseResponseNoChoices(t *testing.T) {
	p := &OllamaProvider{}

	_, err := p.ParseResponse([]byte(`{"id": "chatcmpl-42", "choices": []}`), "test-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
