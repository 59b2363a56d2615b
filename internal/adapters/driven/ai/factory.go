// Package ai provides factory functions for creating language model adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/language"
	anthropicllm "github.com/custodia-labs/shelfsearch/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/shelfsearch/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/shelfsearch/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/shelfsearch/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of language model initialisation.
type InitResult struct {
	LLMService driven.LLMService
	Language   driven.LanguageService
	Warnings   []string // Non-fatal issues that caused fallback.
	FellBack   bool     // True if research runs on heuristics only.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise creates and validates the configured LLM and wraps it in a
// language service. An unconfigured or unreachable provider is not an
// error: Language stays nil and research falls back to heuristics.
func Initialise(ctx context.Context, settings *domain.LLMSettings, prompts driven.PromptStore) *InitResult {
	result := &InitResult{}
	if settings == nil || !settings.IsConfigured() {
		result.FellBack = true
		return result
	}

	svc, err := CreateAndValidateLLMService(ctx, settings)
	if err != nil {
		logger.Warn("language model disabled: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
		return result
	}

	result.LLMService = svc
	result.Language = language.NewService(svc, prompts, language.NewRateLimiter(settings.RequestsPerMinute))
	logger.Debug("language model %s (%s) ready", svc.ModelName(), settings.Provider)
	return result
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'shelfsearch settings set llm.provider ...' to fix",
			domain.ErrLLMUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Ping(ctx)
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s: %w", settings.Provider, domain.ErrInvalidConfig)
	}
}
