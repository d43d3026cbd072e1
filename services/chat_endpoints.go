package services

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interview-coach/llm"
)

// ChatEndpoints exposes the generator as a stateless, OpenAI-shaped
// completions endpoint.
type ChatEndpoints struct {
	generator llm.Generator
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages" validate:"required,dive"`
	MaxTokens   *int          `json:"max_tokens" validate:"omitempty,gt=0"`
	Temperature *float32      `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      llm.Message `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatResponse struct {
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

func NewChatEndpoints(generator llm.Generator) *ChatEndpoints {
	return &ChatEndpoints{generator: generator}
}

func (e *ChatEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/chat/completions", e.CompletionsHandler)
}

func (e *ChatEndpoints) CompletionsHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Model == "" {
		req.Model = llm.DefaultModel
	}
	maxTokens := llm.DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := float32(llm.DefaultTemperature)
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	// system messages are forwarded as part of the history
	reply, err := e.generator.Generate(r.Context(), llm.Request{
		History:     req.Messages,
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Model: req.Model,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      llm.Message{Role: llm.RoleAssistant, Content: reply},
			FinishReason: "stop",
		}},
	})
}
