package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

func TestNewConfigValidator(t *testing.T) {
	require.NotNil(t, NewConfigValidator())
}

func TestConfigValidator_ValidateLLM_NilConfig(t *testing.T) {
	assert.NoError(t, NewConfigValidator().ValidateLLM(nil))
}

func TestConfigValidator_ValidateLLM_UnconfiguredProvider(t *testing.T) {
	config := &domain.LLMSettings{Provider: "", Model: "test-model"}

	assert.NoError(t, NewConfigValidator().ValidateLLM(config))
}

func TestConfigValidator_ValidateLLM_Reachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	config := &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}
	assert.NoError(t, NewConfigValidator().ValidateLLM(config))
}

func TestConfigValidator_ValidateLLM_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	config := &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "bad", BaseURL: server.URL}
	err := NewConfigValidator().ValidateLLM(config)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
