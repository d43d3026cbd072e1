package llm

import (
	"context"
	"fmt"
)

const emptyRequestPlaceholder = "пустой запрос"

// Stub answers without any model, echoing the last user message.
type Stub struct{}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Generate(ctx context.Context, req Request) (string, error) {
	last, ok := LastUserMessage(req.History)
	if !ok {
		last = emptyRequestPlaceholder
	}
	if req.AgentType == "" {
		return fmt.Sprintf("[Заглушка] Получил: '%s'. Подключим vllm как будет готов!", last), nil
	}
	return fmt.Sprintf("[Заглушка агента %s] Получил: '%s'. Подключим vllm как будет готов!", req.AgentType, last), nil
}
