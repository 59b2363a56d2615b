package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

type conversationEntry struct {
	context   domain.SessionContext
	expiresAt time.Time
}

// ConversationStore is an in-memory implementation of driven.ConversationStore.
// Expired entries are dropped lazily on access and by Sweep.
type ConversationStore struct {
	mu      sync.Mutex
	entries map[string]conversationEntry
	now     func() time.Time
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		entries: make(map[string]conversationEntry),
		now:     time.Now,
	}
}

// Load retrieves the context of a conversation.
func (s *ConversationStore) Load(_ context.Context, conversationID string) (*domain.SessionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[conversationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.expired(e) {
		delete(s.entries, conversationID)
		return nil, domain.ErrNotFound
	}

	sc := e.context
	sc.PreviousHits = append([]domain.HitSummary(nil), e.context.PreviousHits...)
	return &sc, nil
}

// Save stores the context. A non-positive ttl keeps the entry until deleted.
func (s *ConversationStore) Save(_ context.Context, sc *domain.SessionContext, ttl time.Duration) error {
	if sc == nil || sc.ConversationID == "" {
		return domain.ErrInvalidInput
	}

	e := conversationEntry{context: *sc}
	e.context.PreviousHits = append([]domain.HitSummary(nil), sc.PreviousHits...)
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sc.ConversationID] = e
	return nil
}

// Delete removes a conversation. Deleting an unknown id is not an error.
func (s *ConversationStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, conversationID)
	return nil
}

// Sweep removes expired entries and returns how many were removed.
func (s *ConversationStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ConversationStore) expired(e conversationEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
