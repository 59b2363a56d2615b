package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// ConversationStore keeps the context of the previous turn per conversation.
// Entries expire after a TTL; nothing outlives a conversation.
type ConversationStore interface {
	// Load returns the context for a conversation.
	// Returns domain.ErrNotFound when absent or expired.
	Load(ctx context.Context, conversationID string) (*domain.SessionContext, error)

	// Save replaces the context of a conversation and resets its TTL.
	Save(ctx context.Context, sc *domain.SessionContext, ttl time.Duration) error

	// Delete removes a conversation.
	Delete(ctx context.Context, conversationID string) error
}
