package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krshsl/interview-coach/llm"
	"github.com/krshsl/interview-coach/repository"
	svc "github.com/krshsl/interview-coach/services"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins string
		requestOrigin  string
		expected       bool
	}{
		{
			name:           "Allowed origin - exact match",
			allowedOrigins: "http://localhost:3000,http://example.com",
			requestOrigin:  "http://localhost:3000",
			expected:       true,
		},
		{
			name:           "Allowed origin - second in list",
			allowedOrigins: "http://localhost:3000,http://example.com",
			requestOrigin:  "http://example.com",
			expected:       true,
		},
		{
			name:           "Disallowed origin",
			allowedOrigins: "http://localhost:3000,http://example.com",
			requestOrigin:  "http://malicious.com",
			expected:       false,
		},
		{
			name:           "Empty allowed origins - deny all",
			allowedOrigins: "",
			requestOrigin:  "http://localhost:3000",
			expected:       false,
		},
		{
			name:           "Origin with whitespace in config",
			allowedOrigins: "http://localhost:3000, http://example.com",
			requestOrigin:  "http://example.com",
			expected:       true,
		},
		{
			name:           "Port mismatch - deny",
			allowedOrigins: "http://localhost:3000",
			requestOrigin:  "http://localhost:8080",
			expected:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper config for each test
			viper.Reset()
			viper.Set("server.frontend_url", tt.allowedOrigins)

			req := httptest.NewRequest("GET", "/session/1/ws", nil)
			req.Header.Set("Origin", tt.requestOrigin)

			result := svc.CheckOrigin(req, viper.GetString("server.frontend_url"))
			assert.Equal(t, tt.expected, result, "origin %s with allowed origins %s", tt.requestOrigin, tt.allowedOrigins)
		})
	}
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	gen, err := newGenerator(ctx, svc.LLMConfig{Provider: "stub", Timeout: time.Second})
	require.NoError(t, err)
	reply, err := gen.Generate(ctx, llm.Request{
		AgentType: "HR",
		History:   []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "[Заглушка агента HR] Получил: 'Hi'. Подключим vllm как будет готов!", reply)

	_, err = newGenerator(ctx, svc.LLMConfig{Provider: "gemini"})
	assert.Error(t, err)

	_, err = newGenerator(ctx, svc.LLMConfig{Provider: "unknown"})
	assert.Error(t, err)

	gen, err = newGenerator(ctx, svc.LLMConfig{Provider: "openai", BaseURL: "http://127.0.0.1:1/v1", Timeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, gen)
}

func TestNewStoreWithoutDatabase(t *testing.T) {
	store, err := newStore(&svc.Config{})
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryRepository{}, store)
}
