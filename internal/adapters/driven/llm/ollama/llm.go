// Package ollama provides an LLM service adapter for a local Ollama server.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/llm/httpjson"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	api     *httpjson.Client
	baseURL string
	model   string
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		api: &httpjson.Client{
			Provider: "ollama",
			HTTP:     &http.Client{Timeout: cfg.Timeout},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

func newOptions(maxTokens int, temperature float64, stop []string) *options {
	if maxTokens <= 0 && temperature <= 0 && len(stop) == 0 {
		return nil
	}
	return &options{NumPredict: maxTokens, Temperature: temperature, Stop: stop}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	reqBody := generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: newOptions(opts.MaxTokens, opts.Temperature, opts.StopWords),
	}

	var resp generateResponse
	if err := s.api.Post(ctx, s.baseURL+"/api/generate", reqBody, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	reqBody := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(messages)),
		Options:  newOptions(opts.MaxTokens, opts.Temperature, nil),
	}
	for i, msg := range messages {
		reqBody.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	var resp chatResponse
	if err := s.api.Post(ctx, s.baseURL+"/api/chat", reqBody, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks connectivity via /api/tags without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, s.baseURL+"/api/tags", nil)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
