package driving

import (
	"context"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// ResearchService answers questions over the book library.
type ResearchService interface {
	// Research runs one research turn. Follow-up questions pass the
	// conversation ID returned by the previous turn.
	Research(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error)

	// EndConversation drops the stored context of a conversation.
	EndConversation(ctx context.Context, conversationID string) error
}
