package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

func newCompletionServer(t *testing.T, captured *capturedRequest, choices string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","model":"UI-TARS-1.5-7B","choices":` + choices + `}`))
	}))
}

func TestOpenAIGenerate(t *testing.T) {
	var captured capturedRequest
	srv := newCompletionServer(t, &captured,
		`[{"index":0,"message":{"role":"assistant","content":"Расскажите о проекте"},"finish_reason":"stop"}]`)
	defer srv.Close()

	gen := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/", Temperature: DefaultTemperature})
	reply, err := gen.Generate(context.Background(), Request{
		AgentType:    "HR",
		SystemPrompt: "Ты опытный HR.",
		History: []Message{
			{Role: RoleAssistant, Content: "Привет!"},
			{Role: RoleUser, Content: "Hi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Расскажите о проекте", reply)

	assert.Equal(t, DefaultModel, captured.Model)
	assert.Equal(t, DefaultMaxTokens, captured.MaxTokens)
	assert.InDelta(t, DefaultTemperature, captured.Temperature, 0.001)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, Message{Role: RoleSystem, Content: "Ты опытный HR."}, captured.Messages[0])
	assert.Equal(t, RoleAssistant, captured.Messages[1].Role)
	assert.Equal(t, Message{Role: RoleUser, Content: "Hi"}, captured.Messages[2])
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	var captured capturedRequest
	srv := newCompletionServer(t, &captured, `[]`)
	defer srv.Close()

	gen := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})
	_, err := gen.Generate(context.Background(), Request{History: []Message{{Role: RoleUser, Content: "x"}}})
	assert.Error(t, err)
}

func TestOpenAIGenerateRequestOverrides(t *testing.T) {
	var captured capturedRequest
	srv := newCompletionServer(t, &captured,
		`[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]`)
	defer srv.Close()

	temp := float32(0.2)
	gen := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})
	_, err := gen.Generate(context.Background(), Request{
		Model:       "other-model",
		MaxTokens:   64,
		Temperature: &temp,
		History:     []Message{{Role: RoleUser, Content: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "other-model", captured.Model)
	assert.Equal(t, 64, captured.MaxTokens)
	assert.InDelta(t, 0.2, captured.Temperature, 0.001)
	require.Len(t, captured.Messages, 1)
}
