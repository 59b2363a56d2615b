package domain

import (
	"os"
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any OpenAI-compatible endpoint
	// (DeepSeek, Grok, OpenRouter) selected through BaseURL.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (Ollama or OpenAI-compatible services).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerMinute limits calls to the provider. Zero disables limiting.
	RequestsPerMinute int
}

// IsConfigured returns true if the LLM provider is set up.
// OpenAI-compatible servers on a custom BaseURL may run without a key.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider == AIProviderOpenAI && l.BaseURL != "" {
		return true
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ConversationBackend selects where conversation context lives.
type ConversationBackend string

// Conversation backends.
const (
	ConversationBackendMemory ConversationBackend = "memory"
	ConversationBackendRedis  ConversationBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b ConversationBackend) IsValid() bool {
	return b == ConversationBackendMemory || b == ConversationBackendRedis
}

// ConversationSettings configures conversation context storage.
type ConversationSettings struct {
	Backend   ConversationBackend
	RedisAddr string

	// TTL bounds the lifetime of an idle conversation.
	TTL time.Duration
}

// ServerSettings configures the HTTP transport of the tool gateway.
type ServerSettings struct {
	Host string
	Port int

	// MaxConcurrentSessions bounds research sessions running at once.
	MaxConcurrentSessions int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LibraryPath is the Calibre library directory containing metadata.db.
	LibraryPath string

	// Research holds the research session limits.
	Research ResearchConfig

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// PostProcessors lists hook names in registration order.
	PostProcessors []string

	// PostProcessorOptions holds per-hook options keyed by hook name,
	// stored as postprocess.<hook>.<option>. Nil when none are set.
	PostProcessorOptions map[string]map[string]any

	Conversation ConversationSettings
	Server       ServerSettings
}

// DefaultLibraryPath returns the Calibre default library location.
func DefaultLibraryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Calibre Library"
	}
	return filepath.Join(home, "Calibre Library")
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; research then runs on heuristics only.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LibraryPath:    DefaultLibraryPath(),
		Research:       DefaultResearchConfig(),
		LLM:            LLMSettings{},
		PostProcessors: []string{"html_cleanup", "snippet_trim"},
		Conversation: ConversationSettings{
			Backend: ConversationBackendMemory,
			TTL:     30 * time.Minute,
		},
		Server: ServerSettings{
			Host:                  "127.0.0.1",
			Port:                  8765,
			MaxConcurrentSessions: 4,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}
