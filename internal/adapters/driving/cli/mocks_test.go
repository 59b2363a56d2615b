package cli

import (
	"context"
	"strings"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
)

var (
	_ driving.LibraryService  = (*mockLibraryService)(nil)
	_ driving.ResearchService = (*mockResearchService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
)

type mockLibraryService struct {
	hits    []domain.Hit
	excerpt *domain.Excerpt
	err     error

	lastQuery  string
	lastLimit  int
	lastISBN   string
	lastAround string
	lastChars  int
}

func (m *mockLibraryService) FulltextSearch(_ context.Context, query string, limit int) ([]domain.Hit, error) {
	m.lastQuery, m.lastLimit = query, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockLibraryService) GetExcerpt(_ context.Context, isbn, around string, maxChars int) (*domain.Excerpt, error) {
	m.lastISBN, m.lastAround, m.lastChars = isbn, around, maxChars
	if m.err != nil {
		return nil, m.err
	}
	return m.excerpt, nil
}

type mockResearchService struct {
	requests []domain.ResearchRequest
	ended    []string
	err      error
}

func (m *mockResearchService) Research(_ context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	id := req.ConversationID
	if id == "" {
		id = "conv-1"
	}
	return &domain.ResearchResult{
		ConversationID: id,
		Question:       req.Question,
		Rounds:         1,
		Hits:           []domain.Hit{{BookID: 1, Title: "Bussysteme in der Fahrzeugtechnik"}},
		Sources: []domain.Source{
			{BookID: 1, Title: "Bussysteme in der Fahrzeugtechnik", ISBN: "9783834809070"},
		},
		Answer: "Answer: " + strings.ToUpper(req.Question),
	}, nil
}

func (m *mockResearchService) EndConversation(_ context.Context, conversationID string) error {
	m.ended = append(m.ended, conversationID)
	return nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	getErr      error
	setErr      error
	validateErr error
	llmErr      error

	sets        [][2]string
	llmProvider domain.AIProvider
	llmModel    string
	llmKey      string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets = append(m.sets, [2]string{key, value})
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmProvider, m.llmModel, m.llmKey = provider, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

// setupTestServices installs mock services and returns a cleanup that
// restores the package state, including flag values.
func setupTestServices() func() {
	useServices(&Services{
		Research: &mockResearchService{},
		Library: &mockLibraryService{
			hits: []domain.Hit{
				{BookID: 1, Title: "Bussysteme in der Fahrzeugtechnik", ISBN: "9783834809070", Snippet: "CAN, LIN und FlexRay"},
				{BookID: 2, Title: "Controller Area Network", Snippet: "Grundlagen des CAN-Protokolls"},
			},
			excerpt: &domain.Excerpt{
				BookID:     1,
				Title:      "Bussysteme in der Fahrzeugtechnik",
				ISBN:       "9783834809070",
				Text:       "Protokolle und Standards für CAN, LIN und FlexRay.",
				SourceHint: domain.ExcerptFromComments,
			},
		},
		Settings: newMockSettingsService(),
	})

	return func() {
		useServices(&Services{})
		searchLimit, searchJSON = driving.DefaultSearchLimit, false
		excerptMaxChars, excerptAround, excerptJSON = driving.DefaultExcerptChars, "", false
		askConversation, askJSON, askChat, askPlain = "", false, false, false
		serveHTTP, serveHost, servePort = false, "", 0
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

func testLibrary() *mockLibraryService {
	return libraryService.(*mockLibraryService)
}

func testResearch() *mockResearchService {
	return researchService.(*mockResearchService)
}

func testSettings() *mockSettingsService {
	return settingsService.(*mockSettingsService)
}
