// Package openai provides an LLM service adapter for the OpenAI chat
// completions API and compatible local servers.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/llm/httpjson"
	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is required for the hosted API. Compatible servers on a
	// custom BaseURL may run without one.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the OpenAI API.
type LLMService struct {
	api     *httpjson.Client
	baseURL string
	model   string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" && cfg.BaseURL == DefaultBaseURL {
		return nil, fmt.Errorf("openai: API key is required: %w", domain.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}

	return &LLMService{
		api: &httpjson.Client{
			Provider: "openai",
			HTTP:     &http.Client{Timeout: cfg.Timeout},
			Headers:  headers,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := []driven.ChatMessage{{Role: "user", Content: prompt}}
	chatOpts := driven.ChatOptions{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}
	return s.chatCompletion(ctx, messages, chatOpts, opts.StopWords)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return s.chatCompletion(ctx, messages, opts, nil)
}

func (s *LLMService) chatCompletion(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
	stopWords []string,
) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       s.model,
		Messages:    make([]chatCompletionMsg, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        stopWords,
	}
	for i, msg := range messages {
		reqBody.Messages[i] = chatCompletionMsg{Role: msg.Role, Content: msg.Content}
	}

	var resp chatCompletionResponse
	if err := s.api.Post(ctx, s.baseURL+"/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai error: %s: %w", resp.Error.Message, domain.ErrLLMUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned: %w", domain.ErrLLMUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the /models endpoint, which validates the key without
// running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, s.baseURL+"/models", nil)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
