package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubGenerate(t *testing.T) {
	stub := NewStub()
	ctx := context.Background()

	tests := []struct {
		name     string
		req      Request
		expected string
	}{
		{
			name: "agent reply echoes last user message",
			req: Request{
				AgentType: "HR",
				History: []Message{
					{Role: RoleAssistant, Content: "Привет!"},
					{Role: RoleUser, Content: "Hi"},
				},
			},
			expected: "[Заглушка агента HR] Получил: 'Hi'. Подключим vllm как будет готов!",
		},
		{
			name: "agent reply without user message",
			req: Request{
				AgentType: "TECH_LEAD",
				History:   []Message{{Role: RoleAssistant, Content: "Привет!"}},
			},
			expected: "[Заглушка агента TECH_LEAD] Получил: 'пустой запрос'. Подключим vllm как будет готов!",
		},
		{
			name: "stateless chat reply",
			req: Request{
				History: []Message{
					{Role: RoleUser, Content: "first"},
					{Role: RoleAssistant, Content: "ok"},
					{Role: RoleUser, Content: "second"},
				},
			},
			expected: "[Заглушка] Получил: 'second'. Подключим vllm как будет готов!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := stub.Generate(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, reply)
		})
	}
}

func TestWithTimeoutWrapsErrors(t *testing.T) {
	failing := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		return "", errors.New("connection refused")
	})

	_, err := WithTimeout(failing, time.Second).Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailure)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithTimeoutDeadline(t *testing.T) {
	slow := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	start := time.Now()
	_, err := WithTimeout(slow, 20*time.Millisecond).Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailure)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWithTimeoutPassesReply(t *testing.T) {
	reply, err := WithTimeout(NewStub(), 0).Generate(context.Background(), Request{
		AgentType: "MENTOR",
		History:   []Message{{Role: RoleUser, Content: "план"}},
	})
	require.NoError(t, err)
	assert.Contains(t, reply, "план")
}

func TestLastUserMessage(t *testing.T) {
	_, ok := LastUserMessage(nil)
	assert.False(t, ok)

	last, ok := LastUserMessage([]Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
	})
	assert.True(t, ok)
	assert.Equal(t, "a", last)
}
