package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	result.Close()
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantErr   bool
		wantModel string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.LLMSettings{}, wantNil: true},
		{name: "missing key", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic}, wantNil: true},
		{
			name:      "ollama",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "qwen2.5"},
			wantModel: "qwen2.5",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "openai-compatible without key",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, BaseURL: "http://localhost:1234/v1", Model: "local"},
			wantModel: "local",
		},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:      "gemini",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantModel: "gemini-2.0-flash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestInitialise_Unconfigured(t *testing.T) {
	result := Initialise(context.Background(), &domain.LLMSettings{}, nil)

	assert.True(t, result.FellBack)
	assert.Nil(t, result.Language)
	assert.Empty(t, result.Warnings)
}

func TestInitialise_UnreachableFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	result := Initialise(context.Background(), &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}, nil)

	assert.True(t, result.FellBack)
	assert.Nil(t, result.Language)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "unreachable")
}

func TestInitialise_Ready(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	result := Initialise(context.Background(), &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}, nil)
	defer result.Close()

	assert.False(t, result.FellBack)
	assert.NotNil(t, result.LLMService)
	assert.NotNil(t, result.Language)
}
