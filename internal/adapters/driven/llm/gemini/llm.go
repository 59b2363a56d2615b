// Package gemini provides an LLM service adapter for Google Gemini using
// the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", domain.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, model: cfg.Model}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := newConfig(opts.MaxTokens, opts.Temperature)
	config.StopSequences = opts.StopWords
	return s.generate(ctx, contents, config)
}

// Chat conducts a multi-turn conversation. System messages become the
// system instruction; assistant turns map to the model role.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	config := newConfig(opts.MaxTokens, opts.Temperature)

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return s.generate(ctx, contents, config)
}

func (s *LLMService) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", classify(err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: no text returned: %w", domain.ErrLLMUnavailable)
	}
	return text, nil
}

func newConfig(maxTokens int, temperature float64) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	if temperature > 0 {
		config.Temperature = genai.Ptr(float32(temperature))
	}
	return config
}

// classify maps SDK errors onto the domain sentinels.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini: %w", err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	if code == http.StatusTooManyRequests {
		return fmt.Errorf("gemini: %w: %w", domain.ErrRateLimited, err)
	}
	return fmt.Errorf("gemini: %w: %w", domain.ErrLLMUnavailable, err)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches the model's metadata, which validates the key.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
