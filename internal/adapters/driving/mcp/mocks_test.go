package mcp

import (
	"context"
	"net/http"
	"sync"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// mockLibraryService is a mock implementation of driving.LibraryService.
type mockLibraryService struct {
	hits    []domain.Hit
	excerpt *domain.Excerpt
	err     error

	calls     int
	lastQuery string
	lastLimit int
	lastISBN  string
	lastChars int
	lastAt    string
}

func (m *mockLibraryService) FulltextSearch(_ context.Context, query string, limit int) ([]domain.Hit, error) {
	m.calls++
	m.lastQuery = query
	m.lastLimit = limit
	return m.hits, m.err
}

func (m *mockLibraryService) GetExcerpt(_ context.Context, isbn, around string, maxChars int) (*domain.Excerpt, error) {
	m.calls++
	m.lastISBN = isbn
	m.lastAt = around
	m.lastChars = maxChars
	return m.excerpt, m.err
}

// mockResearchService is a mock implementation of driving.ResearchService.
type mockResearchService struct {
	result  *domain.ResearchResult
	err     error
	lastReq domain.ResearchRequest
}

func (m *mockResearchService) Research(_ context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockResearchService) EndConversation(_ context.Context, _ string) error {
	return nil
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) { return m.settings, m.err }

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) Set(_, _ string) error { return nil }

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error { return nil }

func (m *mockSettingsService) Validate() error { return nil }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// mockMetrics records tool calls.
type mockMetrics struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockMetrics) ToolCalled(tool, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, tool+":"+code)
}

func (m *mockMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("shelfsearch_tool_calls_total 1\n"))
	})
}

func (m *mockMetrics) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
