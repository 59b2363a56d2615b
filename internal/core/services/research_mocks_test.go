package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// fakeStore is an in-memory driven.MetadataStore. SearchByTerm matches
// books whose title or comments contain every AND term of any OR group,
// case-insensitively, in book id order.
type fakeStore struct {
	mu        sync.Mutex
	books     []domain.BookRecord
	searchErr error
	fetchErr  error
	searched  []string
}

func newFakeStore(books ...domain.BookRecord) *fakeStore {
	return &fakeStore{books: books}
}

func (s *fakeStore) SearchByTerm(ctx context.Context, term string, limit int) ([]domain.RawHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searched = append(s.searched, term)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.RawHit
	for _, b := range s.books {
		if !matches(b, term) {
			continue
		}
		out = append(out, domain.RawHit{BookID: b.BookID, Title: b.Title, ISBN: b.ISBN, Snippet: b.Title + " snippet"})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func matches(b domain.BookRecord, term string) bool {
	text := strings.ToLower(b.Title + " " + b.Comments)
	for _, group := range strings.Split(term, " OR ") {
		all := true
		for _, word := range strings.Split(group, " AND ") {
			if !strings.Contains(text, strings.ToLower(strings.TrimSpace(word))) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (s *fakeStore) FindByIdentifier(_ context.Context, isbn string) (*domain.BookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	for _, b := range s.books {
		if b.ISBN != "" && strings.ReplaceAll(isbn, "-", "") == b.ISBN {
			rec := b
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) FetchExcerptSource(_ context.Context, bookID int64) (*domain.BookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	for _, b := range s.books {
		if b.BookID == bookID {
			rec := b
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) searchedTerms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searched...)
}

// fakeLanguage is a scripted driven.LanguageService.
type fakeLanguage struct {
	keywords    []string
	keywordsErr error
	refined     []string
	refineErr   error
	answer      string
	answerErr   error

	extractCalls  int
	refineCalls   int
	composeCalls  int
	lastQuestion  string
	lastComposeRq driven.ComposeRequest
}

func (l *fakeLanguage) ExtractKeywords(_ context.Context, question, _ string) ([]string, error) {
	l.extractCalls++
	l.lastQuestion = question
	return l.keywords, l.keywordsErr
}

func (l *fakeLanguage) RefineQueries(_ context.Context, question string, _ []domain.Hit, _ string) ([]string, error) {
	l.refineCalls++
	l.lastQuestion = question
	return l.refined, l.refineErr
}

func (l *fakeLanguage) ComposeAnswer(_ context.Context, req driven.ComposeRequest) (string, error) {
	l.composeCalls++
	l.lastComposeRq = req
	return l.answer, l.answerErr
}

// fakeConversations is a driven.ConversationStore that can fail on demand.
type fakeConversations struct {
	contexts map[string]*domain.SessionContext
	loadErr  error
	saveErr  error
	saved    int
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{contexts: make(map[string]*domain.SessionContext)}
}

func (c *fakeConversations) Load(_ context.Context, id string) (*domain.SessionContext, error) {
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	sc, ok := c.contexts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sc, nil
}

func (c *fakeConversations) Save(_ context.Context, sc *domain.SessionContext, _ time.Duration) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.saved++
	c.contexts[sc.ConversationID] = sc
	return nil
}

func (c *fakeConversations) Delete(_ context.Context, id string) error {
	if _, ok := c.contexts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.contexts, id)
	return nil
}

// fakeMetrics records research metrics.
type fakeMetrics struct {
	outcomes  []string
	hooks     []string
	fallbacks []string
}

func (m *fakeMetrics) SessionFinished(outcome string, _, _ int, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) HookFailed(hook, stage string) {
	m.hooks = append(m.hooks, hook+"/"+stage)
}

func (m *fakeMetrics) LanguageFallback(stage string) {
	m.fallbacks = append(m.fallbacks, stage)
}

// brokenHook fails on every input, by error or by panic.
type brokenHook struct {
	panics bool
}

func (h brokenHook) Name() string { return "broken" }

func (h brokenHook) OnHits(_ context.Context, _ []domain.Hit) ([]domain.Hit, error) {
	if h.panics {
		panic("hook exploded")
	}
	return nil, errors.New("hook failed")
}

func (h brokenHook) OnExcerpts(_ context.Context, _ []domain.Excerpt) ([]domain.Excerpt, error) {
	if h.panics {
		panic("hook exploded")
	}
	return nil, errors.New("hook failed")
}

// busLibrary is a small vehicle-bus themed library.
func busLibrary() []domain.BookRecord {
	return []domain.BookRecord{
		{BookID: 1, Title: "Bussysteme in der Fahrzeugtechnik", ISBN: "9783834809070",
			Comments: "Protokolle CAN, LIN und FlexRay im Überblick."},
		{BookID: 2, Title: "LIN-Bus kompakt", Comments: "Der LIN-Bus für Komfortelektronik."},
		{BookID: 3, Title: "Automotive Ethernet", ISBN: "9783658123456",
			Comments: "Ethernet ergänzt CAN in modernen Fahrzeugen."},
		{BookID: 4, Title: "Kochen für Anfänger", Comments: "Rezepte für jeden Tag."},
		{BookID: 5, Title: "CAN in Automation", ISBN: "9781234567897", Comments: ""},
	}
}

func testConfig() domain.ResearchConfig {
	cfg := domain.DefaultResearchConfig()
	cfg.StoreTimeout = time.Second
	cfg.LanguageTimeout = time.Second
	return cfg
}
