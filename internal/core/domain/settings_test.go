package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "gemini is valid", provider: AIProviderGemini, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("mistral"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
}

func TestAIProvider_Description(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.NotEqual(t, unknownDescription, p.Description(), p.String())
	}
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{"empty", LLMSettings{}, false},
		{"ollama without key", LLMSettings{Provider: AIProviderOllama}, true},
		{"openai without key", LLMSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"openai-compatible local server", LLMSettings{Provider: AIProviderOpenAI, BaseURL: "http://localhost:1234/v1"}, true},
		{"anthropic without key", LLMSettings{Provider: AIProviderAnthropic, BaseURL: "http://x"}, false},
		{"gemini with key", LLMSettings{Provider: AIProviderGemini, APIKey: "g"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.NotEmpty(t, s.LibraryPath)
	assert.Equal(t, ConversationBackendMemory, s.Conversation.Backend)
	assert.True(t, s.Conversation.Backend.IsValid())
	assert.Equal(t, 8765, s.Server.Port)
	assert.Equal(t, []string{"html_cleanup", "snippet_trim"}, s.PostProcessors)
	assert.False(t, s.LLM.IsConfigured())

	_, err := s.Research.Validate()
	assert.NoError(t, err)
}

func TestDefaultLLMModels_CoversProviders(t *testing.T) {
	models := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, models[p], p.String())
	}
}
