// Package llm produces assistant replies for interview sessions and the
// stateless chat endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultTimeout = 60 * time.Second
)

// ErrGenerationFailure wraps every error coming out of a Generator wrapped
// with WithTimeout, including deadline expiry.
var ErrGenerationFailure = errors.New("generation failure")

type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// Request is the assembled context for one reply. AgentType is empty for
// stateless chat completions.
type Request struct {
	AgentType    string
	SystemPrompt string
	History      []Message

	// Optional per-request overrides; zero values use the backend defaults.
	Model       string
	MaxTokens   int
	Temperature *float32
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every call to g by d and reports any failure as
// ErrGenerationFailure.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutGenerator{next: g, timeout: d}
}

func (t *timeoutGenerator) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := t.next.Generate(ctx, req)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationFailure, r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrGenerationFailure, ctx.Err())
	}
}

// LastUserMessage returns the content of the most recent user message.
func LastUserMessage(history []Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content, true
		}
	}
	return "", false
}
