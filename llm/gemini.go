package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const GeminiModel = "gemini-2.5-flash"

// Gemini generates replies through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = GeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	contents := buildGeminiContents(req.History)
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText(emptyRequestPlaceholder, genai.RoleUser))
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		config.Temperature = req.Temperature
	}

	model := g.model
	if req.Model != "" && strings.HasPrefix(req.Model, "gemini") {
		model = req.Model
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		slog.Error("Failed to generate content", "error", err, "model", model)
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

// buildGeminiContents maps history onto Gemini roles; system messages are
// folded into user turns since Gemini has no such role in contents.
func buildGeminiContents(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if m.Role == RoleAssistant {
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		} else {
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents
}
